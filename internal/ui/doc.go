// Package ui implements the interactive progress view for playlist updates, built on bubbletea's
// Elm architecture.
//
// [UpdateModel] runs an update in the background and renders its progress updates as they arrive:
// a spinner with the current phase, a bar for the track search, and one line per finished playlist.
// Pressing q cancels the run and the view exits once the update returns.
package ui
