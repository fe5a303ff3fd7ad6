// Package models defines the values passed between sources, the matching engine and streaming services.
//
// The package contains two categories of types:
//
// 1. Track values: immutable records produced by sources and services
//   - [Track] : a title and artist list from one origin, carrying the producer's raw payload
//   - [TrackNormalised] : the canonical comparison form of a track, with derived search queries
//   - [TrackList] : an ordered chart or a raw all-plays log
//   - [ServicePlaylistTracks], [ServicePlaylistInfo] : playlist updates sent to a service
//
// 2. Persistent entities: database-backed models
//   - [CachedResponse] : an HTTP response stored by the downloader cache
//
// Persistent entities implement the [Model] interface and are stored through a [Repository].
package models
