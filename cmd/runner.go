package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/music-playlists/internal/matching"
	"github.com/desertthunder/music-playlists/internal/repositories"
	"github.com/desertthunder/music-playlists/internal/services"
	"github.com/desertthunder/music-playlists/internal/shared"
	"github.com/desertthunder/music-playlists/internal/sources"
	"github.com/desertthunder/music-playlists/internal/tasks"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The cache database, downloader, services and process are opened on first use so that
// commands such as "setup config" work without a valid configuration.
type Runner struct {
	config     *shared.Config
	configPath string
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer

	db         *sql.DB
	cache      *repositories.ResponseRepository
	downloader *services.Downloader
	services   []services.Service
	process    *tasks.Process
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer

	// Test seams. When set they are used instead of the configured implementations.
	Cache      *repositories.ResponseRepository
	Downloader *services.Downloader
	Services   []services.Service
	Process    *tasks.Process
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		cache:      opts.Cache,
		downloader: opts.Downloader,
		services:   opts.Services,
		process:    opts.Process,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		sourcesCommand, servicesCommand, setupCommand, cacheCommand,
	} {
		commands = append(commands, fn(r))
	}
	return commands
}

// Before applies the global flags: log level, .env files and the configuration file.
// A missing configuration file falls back to the defaults.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	if err := shared.LoadEnv(cmd.StringSlice("env")...); err != nil {
		return ctx, err
	}

	r.configPath = cmd.String("config")
	config, err := shared.LoadConfig(r.configPath)
	switch {
	case errors.Is(err, shared.ErrMissingConfig):
		r.logger.Debug("config file not found, using defaults", "path", r.configPath)
		config = shared.DefaultConfig()
	case err != nil:
		return ctx, err
	}
	config.ApplyEnv()
	r.config = config
	return ctx, nil
}

// Close releases the cache database.
func (r *Runner) Close() {
	if r.db == nil {
		return
	}
	if err := r.db.Close(); err != nil {
		r.logger.Warn("failed to close cache database", "error", err)
	}
	r.db = nil
}

func (r *Runner) openCache() (*repositories.ResponseRepository, error) {
	if r.cache != nil {
		return r.cache, nil
	}
	db, err := shared.OpenCache(r.config)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	r.db = db
	r.cache = repositories.NewResponseRepository(db)
	return r.cache, nil
}

func (r *Runner) openDownloader() (*services.Downloader, error) {
	if r.downloader != nil {
		return r.downloader, nil
	}
	cache, err := r.openCache()
	if err != nil {
		return nil, err
	}
	r.downloader = services.NewDownloader(
		services.WithHTTPClient(r.httpClient),
		services.WithTimeout(r.config.HTTPTimeout()),
		services.WithRateLimit(r.config.General.RequestsPerSecond),
		services.WithCache(cache, r.config.CacheExpiry()),
		services.WithDownloaderLogger(r.logger),
	)
	return r.downloader, nil
}

// openServices builds every service the configuration has credentials for.
func (r *Runner) openServices() ([]services.Service, error) {
	if r.services != nil {
		return r.services, nil
	}
	dl, err := r.openDownloader()
	if err != nil {
		return nil, err
	}

	var svcs []services.Service
	spotify, err := services.NewSpotifyService(r.config.Secrets.Spotify, dl, services.WithSpotifyLogger(r.logger))
	if err != nil {
		r.logger.Debug("spotify is not configured", "error", err)
	} else {
		svcs = append(svcs, spotify)
	}
	svcs = append(svcs, services.NewYouTubeService(r.config.Secrets.YouTubeMusic, dl, r.logger))

	r.services = svcs
	return svcs, nil
}

func (r *Runner) openProcess() (*tasks.Process, error) {
	if r.process != nil {
		return r.process, nil
	}
	if err := r.config.Validate(); err != nil {
		return nil, err
	}
	loc, err := r.config.Location()
	if err != nil {
		return nil, err
	}

	dl, err := r.openDownloader()
	if err != nil {
		return nil, err
	}
	svcs, err := r.openServices()
	if err != nil {
		return nil, err
	}

	withLogger := sources.WithLogger(r.logger)
	registry := sources.NewRegistry(
		sources.NewABCRadio(dl, loc, withLogger),
		sources.NewLastFM(dl, loc, r.config.Secrets.LastFM.APIKey, withLogger),
		sources.NewRadio4ZZZ(dl, loc, withLogger),
	)

	r.process = tasks.NewProcess(tasks.ProcessOpts{
		Registry:   registry,
		Services:   svcs,
		Playlists:  r.config.Playlists,
		Normaliser: matching.NewNormaliser(matching.WithLogger(r.logger)),
		Window:     r.config.General.MatchWindow,
		Location:   loc,
		LockDir:    r.config.BasePath(),
		Logger:     r.logger,
	})
	return r.process, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
