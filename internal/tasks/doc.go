// package tasks runs the playlist operations behind the CLI.
//
// The core abstraction is [Process], which lists the configured playlists, shows source track lists,
// and rewrites service playlists from the source track lists.
// Long operations emit progress updates via channels for non-blocking status reporting to the CLI.
package tasks
