// Package sources fetches the track lists that the generated playlists are built from.
//
// Each [Source] publishes one or more named track lists. A list is addressed on the
// command line and in the config as "<source>-<code>", e.g. "abc-radio-triplej-most-played-daily".
package sources

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/music-playlists/internal/models"
	"github.com/desertthunder/music-playlists/internal/shared"
)

// Fetcher downloads one track list. refresh skips cached responses.
type Fetcher func(ctx context.Context, title string, refresh bool) (*models.TrackList, error)

// Source is a provider of track lists.
type Source interface {
	Code() string
	Available() map[string]Fetcher
}

// Downloader performs cached GET requests and decodes JSON responses.
// Implemented by [services.Downloader].
type Downloader interface {
	GetJSON(ctx context.Context, rawURL string, query url.Values, refresh bool, v any) error
}

// Option configures a source.
type Option func(*base)

// WithClock sets the function used for the current time.
func WithClock(now func() time.Time) Option {
	return func(b *base) {
		if now != nil {
			b.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(b *base) {
		if l != nil {
			b.logger = l
		}
	}
}

// base holds what every source needs.
type base struct {
	dl     Downloader
	loc    *time.Location
	now    func() time.Time
	logger *log.Logger
}

func newBase(dl Downloader, loc *time.Location, opts []Option) base {
	if loc == nil {
		loc = time.UTC
	}
	b := base{dl: dl, loc: loc, now: time.Now, logger: log.Default()}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// today is the current date at midnight in the configured time zone.
func (b base) today() time.Time {
	now := b.now().In(b.loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, b.loc)
}

// Registry resolves track list names to fetchers.
type Registry struct {
	sources  []Source
	fetchers map[string]Fetcher
	owners   map[string]string
}

// NewRegistry indexes the available track lists of every source.
func NewRegistry(sources ...Source) *Registry {
	r := &Registry{sources: sources, fetchers: map[string]Fetcher{}, owners: map[string]string{}}
	for _, src := range sources {
		for code, fetch := range src.Available() {
			name := Name(src.Code(), code)
			r.fetchers[name] = fetch
			r.owners[name] = src.Code()
		}
	}
	return r
}

// Name joins a source code and a track list code.
func Name(source, code string) string {
	return source + "-" + code
}

// Sources returns the registered sources in registration order.
func (r *Registry) Sources() []Source {
	return slices.Clone(r.sources)
}

// Names returns every track list name, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.fetchers))
	for name := range r.fetchers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Has reports whether the source offers the track list code.
func (r *Registry) Has(source, code string) bool {
	_, ok := r.fetchers[Name(source, code)]
	return ok && r.owners[Name(source, code)] == source
}

// Lookup returns the fetcher for a "<source>-<code>" name.
func (r *Registry) Lookup(name string) (Fetcher, error) {
	fetch, ok := r.fetchers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", shared.ErrSourceNotFound, name)
	}
	return fetch, nil
}
