// Package matching normalises track titles and artists so that tracks from different producers can be compared.
//
// # Normalisation
//
// [Normaliser.Normalise] runs a fixed pipeline over a title and its artists:
//
//  1. collapse whitespace
//  2. Unicode case fold
//  3. split featured artists out of the title and split combined artist names
//  4. remove or replace punctuation
//  5. strip release-variant suffixes from the title ("radio edit", "single version")
//  6. fix known spelling variants
//  7. decompose to NFKD and drop anything outside ASCII
//  8. collapse whitespace again
//
// Each step is a pure function of its input string and is memoised in a process-wide cache.
// [WithoutCache] disables the cache; results are identical either way.
//
// # Matching
//
// [Normaliser.Match] compares a track against the first few search results from a service.
// Titles must be equal once all whitespace is removed, and one artist list must contain the other.
// The first acceptable result wins. No match is a nil result, never an error.
//
// [MostPlayed] reduces a raw play log into a ranking of tracks played more than once.
package matching
