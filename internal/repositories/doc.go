// Package repositories implements SQLite persistence.
//
// [ResponseRepository] stores HTTP responses for the downloader so that repeated runs
// against the same source data do not hit the remote APIs again.
// It satisfies [models.Repository] for [models.CachedResponse] and adds key based lookups
// and expiry purging.
//
// The schema is created by [shared.RunMigrations].
package repositories
