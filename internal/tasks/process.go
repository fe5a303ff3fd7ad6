package tasks

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/music-playlists/internal/matching"
	"github.com/desertthunder/music-playlists/internal/models"
	"github.com/desertthunder/music-playlists/internal/services"
	"github.com/desertthunder/music-playlists/internal/shared"
	"github.com/desertthunder/music-playlists/internal/sources"
)

// ProjectURL is linked from every generated playlist description.
const ProjectURL = "https://github.com/cofiem/music-playlists"

// AvailableRow is a configured playlist whose source track list exists.
type AvailableRow struct {
	Source     string `json:"source"`
	Code       string `json:"code"`
	Service    string `json:"service"`
	Title      string `json:"title"`
	PlaylistID string `json:"playlist_id"`
}

// UpdateFilter narrows an update run. Empty fields match everything.
type UpdateFilter struct {
	Code    string // full track list name, "<source>-<code>"
	Source  string
	Service string
	Refresh bool
}

// UpdateResult describes one rewritten service playlist.
type UpdateResult struct {
	Source      string          `json:"source"`
	Service     string          `json:"service"`
	PlaylistID  string          `json:"playlist_id"`
	Title       string          `json:"title"`
	Found       int             `json:"found"`
	Total       int             `json:"total"`
	Description string          `json:"description"`
	Tracks      []*models.Track `json:"-"`
	Missing     []*models.Track `json:"-"`
	Err         error           `json:"-"`
	Error       string          `json:"error,omitempty"`
}

// Process runs the list, show and update operations.
type Process struct {
	registry   *sources.Registry
	services   map[string]services.Service
	playlists  []shared.PlaylistConfig
	normaliser *matching.Normaliser
	window     int
	loc        *time.Location
	now        func() time.Time
	lockDir    string
	logger     *log.Logger
}

// ProcessOpts contains the dependencies of a [Process].
type ProcessOpts struct {
	Registry   *sources.Registry
	Services   []services.Service
	Playlists  []shared.PlaylistConfig
	Normaliser *matching.Normaliser
	Window     int            // number of search results considered per query; defaults to [matching.DefaultWindow]
	Location   *time.Location // time zone of the description date; defaults to UTC
	Now        func() time.Time
	LockDir    string // directory of the update lock file; empty disables locking
	Logger     *log.Logger
}

// NewProcess creates a [Process].
func NewProcess(opts ProcessOpts) *Process {
	if opts.Registry == nil {
		opts.Registry = sources.NewRegistry()
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Normaliser == nil {
		opts.Normaliser = matching.NewNormaliser(matching.WithLogger(opts.Logger))
	}
	if opts.Window <= 0 {
		opts.Window = matching.DefaultWindow
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	svcs := make(map[string]services.Service, len(opts.Services))
	for _, svc := range opts.Services {
		if svc != nil {
			svcs[svc.Code()] = svc
		}
	}

	return &Process{
		registry:   opts.Registry,
		services:   svcs,
		playlists:  opts.Playlists,
		normaliser: opts.Normaliser,
		window:     opts.Window,
		loc:        opts.Location,
		now:        opts.Now,
		lockDir:    opts.LockDir,
		logger:     opts.Logger,
	}
}

// ListAvailable returns the configured playlists whose track lists exist, sorted by source, code and service.
func (p *Process) ListAvailable() []AvailableRow {
	rows := []AvailableRow{}
	for _, pc := range p.playlists {
		if !p.registry.Has(pc.Source, pc.Code) {
			continue
		}
		rows = append(rows, AvailableRow{
			Source:     pc.Source,
			Code:       pc.Code,
			Service:    pc.Service,
			Title:      pc.Title,
			PlaylistID: pc.PlaylistID,
		})
	}
	slices.SortStableFunc(rows, func(a, b AvailableRow) int {
		return cmp.Or(cmp.Compare(a.Source, b.Source), cmp.Compare(a.Code, b.Code), cmp.Compare(a.Service, b.Service))
	})
	return rows
}

// SourceShow fetches the named "<source>-<code>" track list, reduced to a ranking when it is a play log.
// The title comes from the first playlist configured for the track list, or is the name itself.
func (p *Process) SourceShow(ctx context.Context, name string, refresh bool) (*models.TrackList, error) {
	title := name
	for _, pc := range p.playlists {
		if pc.SourceName() == name {
			title = pc.Title
			break
		}
	}
	return p.fetch(ctx, name, title, refresh)
}

func (p *Process) fetch(ctx context.Context, name, title string, refresh bool) (*models.TrackList, error) {
	fetch, err := p.registry.Lookup(name)
	if err != nil {
		return nil, err
	}
	list, err := fetch(ctx, title, refresh)
	if err != nil {
		return nil, err
	}
	if list.Type == models.TrackListAllPlays {
		list = matching.MostPlayed(list)
	}
	return list, nil
}

// jobs selects the playlist configs an update run will rewrite.
func (p *Process) jobs(filter UpdateFilter) []shared.PlaylistConfig {
	var out []shared.PlaylistConfig
	for _, pc := range p.playlists {
		switch {
		case pc.PlaylistID == "":
		case filter.Source != "" && filter.Source != pc.Source:
		case filter.Code != "" && filter.Code != pc.SourceName():
		case filter.Service != "" && filter.Service != pc.Service:
		case !p.registry.Has(pc.Source, pc.Code):
			p.logger.Warn("no track list for configured playlist", "name", pc.SourceName())
		default:
			out = append(out, pc)
		}
	}
	return out
}

// ServicesUpdate rewrites every configured service playlist selected by filter.
//
// Each selected service is logged in once. A failure in one playlist is recorded in its result
// and the run continues; the returned error joins every failure.
func (p *Process) ServicesUpdate(ctx context.Context, filter UpdateFilter, progress chan<- ProgressUpdate) ([]*UpdateResult, error) {
	p.logger.Info("updating music playlists",
		"code", cmp.Or(filter.Code, "(all)"),
		"source", cmp.Or(filter.Source, "(all)"),
		"service", cmp.Or(filter.Service, "(all)"))

	if p.lockDir != "" {
		lock, err := shared.AcquireRunLock(p.lockDir)
		if err != nil {
			return nil, err
		}
		defer lock.Release()
	}

	jobs := p.jobs(filter)

	var needed []string
	for _, pc := range jobs {
		if !slices.Contains(needed, pc.Service) {
			needed = append(needed, pc.Service)
		}
	}
	for i, code := range needed {
		svc, ok := p.services[code]
		if !ok {
			return nil, fmt.Errorf("%w: %q", shared.ErrServiceNotFound, code)
		}
		sendProgress(progress, loginUpdate(i+1, len(needed), svc.Name()))
		if err := svc.Login(ctx); err != nil {
			return nil, fmt.Errorf("login to %s: %w", svc.Name(), err)
		}
	}

	// search matches are reused across playlists of the same service
	cache := map[string]*queryCache{}
	results := make([]*UpdateResult, 0, len(jobs))
	var errs []error
	for i, pc := range jobs {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		svc := p.services[pc.Service]
		if cache[pc.Service] == nil {
			cache[pc.Service] = newQueryCache()
		}

		sendProgress(progress, fetchSourceUpdate(i+1, len(jobs), pc.SourceName()))
		result := p.updateService(ctx, pc, svc, cache[pc.Service], filter.Refresh, progress)
		if result.Err != nil {
			result.Error = result.Err.Error()
			p.logger.Error("playlist update failed", "source", result.Source, "service", result.Service, "error", result.Err)
			errs = append(errs, fmt.Errorf("%s → %s: %w", result.Source, result.Service, result.Err))
		}
		results = append(results, result)
		sendProgress(progress, finishedUpdate(i+1, len(jobs), result))
	}

	p.logger.Info("finished updating music playlists", "playlists", len(results), "failed", len(errs))
	return results, errors.Join(errs...)
}

func (p *Process) updateService(ctx context.Context, pc shared.PlaylistConfig, svc services.Service, cache *queryCache, refresh bool, progress chan<- ProgressUpdate) *UpdateResult {
	result := &UpdateResult{Source: pc.SourceName(), Service: pc.Service, PlaylistID: pc.PlaylistID, Title: pc.Title}

	list, err := p.fetch(ctx, pc.SourceName(), pc.Title, refresh)
	if err != nil {
		result.Err = err
		return result
	}
	p.normaliser.NormaliseTrackList(list)

	found, err := p.findTracks(ctx, svc, list.Tracks, cache, progress)
	if err != nil {
		result.Err = err
		return result
	}
	result.Tracks = found.tracks
	result.Missing = found.missing
	result.Found = found.found
	result.Total = len(list.Tracks)
	result.Description = Description(p.now().In(p.loc), result.Found, result.Total)
	p.logger.Warn(foundInfo(result.Found, result.Total), "source", result.Source, "service", svc.Name())

	sendProgress(progress, updateDetailsUpdate(svc.Name(), pc.PlaylistID))
	info := models.ServicePlaylistInfo{PlaylistID: pc.PlaylistID, Title: list.Title, Description: result.Description, Public: true}
	if err := svc.UpdatePlaylistDetails(ctx, info); err != nil {
		result.Err = fmt.Errorf("update details: %w", err)
		return result
	}
	p.logger.Info("update details succeeded", "service", svc.Name(), "playlist", pc.PlaylistID)

	sendProgress(progress, updateTracksUpdate(svc.Name(), pc.PlaylistID, len(result.Tracks)))
	if err := svc.UpdatePlaylistTracks(ctx, models.ServicePlaylistTracks{PlaylistID: pc.PlaylistID, Tracks: result.Tracks}); err != nil {
		result.Err = fmt.Errorf("update tracks: %w", err)
		return result
	}
	p.logger.Info("update tracks succeeded", "service", svc.Name(), "playlist", pc.PlaylistID)
	return result
}
