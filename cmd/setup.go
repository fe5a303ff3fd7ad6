package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/music-playlists/internal/server"
	"github.com/desertthunder/music-playlists/internal/services"
	"github.com/desertthunder/music-playlists/internal/shared"
)

// authTimeout bounds how long "setup spotify" waits for the browser callback.
var authTimeout = 5 * time.Minute

func (r *Runner) path() string {
	return cmp.Or(r.configPath, shared.DefaultConfigPath())
}

// SetupConfig writes the example configuration to the config path.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := r.path()
	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}
	r.logger.Info("config file created", "path", path)
	r.writePlain("✓ Configuration written to %s\n", path)
	r.writePlain("Add your secrets and playlist ids, then run 'mpl setup database'.\n")
	return nil
}

// SetupDatabase initializes the cache database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	r.logger.Info("initializing database", "path", r.config.DatabasePath())

	db, err := shared.OpenCache(r.config)
	if err != nil {
		return fmt.Errorf("failed to set up database: %w", err)
	}
	defer db.Close()

	version, err := shared.MigrationVersion(db)
	if err != nil {
		return err
	}
	r.logger.Infof("setup complete for database: %v", r.config.DatabasePath())
	r.writePlain("✓ Database ready at %s (schema version %d)\n", r.config.DatabasePath(), version)
	return nil
}

// SetupSpotify runs the authorization code flow and saves the refresh token to the config file.
//
// A local server receives the callback on the configured host and port.
func (r *Runner) SetupSpotify(ctx context.Context, cmd *cli.Command) error {
	dl, err := r.openDownloader()
	if err != nil {
		return err
	}
	spotify, err := services.NewSpotifyService(r.config.Secrets.Spotify, dl, services.WithSpotifyLogger(r.logger))
	if err != nil {
		return fmt.Errorf("%w: set client_id and client_secret under [secrets.spotify]", err)
	}

	redirect, err := url.Parse(spotify.OAuthConfig().RedirectURL)
	if err != nil {
		return fmt.Errorf("%w: redirect_uri: %v", shared.ErrInvalidConfig, err)
	}
	addr := redirect.Host
	if r.config.Server.Host != "" && r.config.Server.Port > 0 {
		addr = net.JoinHostPort(r.config.Server.Host, strconv.Itoa(r.config.Server.Port))
	}

	state := server.NewState()
	handler := server.NewOAuthHandler(spotify, state, redirect.Path)
	authURL := spotify.AuthURL(state)

	ready := func(string) {
		r.writePlain("Authorize access to your Spotify playlists:\n%s\n\n", authURL)
		if cmd.Bool("no-browser") {
			return
		}
		if err := shared.OpenBrowser(authURL); err != nil {
			r.logger.Warn("could not open browser, open the URL manually", "error", err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, authTimeout)
	defer cancel()

	result, err := server.Callback(ctx, addr, handler, r.logger, ready)
	if err != nil {
		return err
	}

	// save to the file as written, not the copy with environment overrides
	path := r.path()
	fileConfig, err := shared.LoadConfig(path)
	switch {
	case errors.Is(err, shared.ErrMissingConfig):
		fileConfig = r.config
	case err != nil:
		return err
	}
	fileConfig.Secrets.Spotify.RefreshToken = result.Token.RefreshToken
	if err := shared.SaveConfig(path, fileConfig); err != nil {
		return err
	}
	r.config.Secrets.Spotify.RefreshToken = result.Token.RefreshToken

	r.writePlainln("✓ Authorization successful")
	r.writePlain("✓ Refresh token saved to %s\n", path)
	return nil
}

// SetupYouTube configures YouTube Music authentication from browser headers.
//
// The proxy converts the headers of a copied cURL request into an auth file, which is written locally.
func (r *Runner) SetupYouTube(ctx context.Context, cmd *cli.Command) error {
	curlCmd := cmd.String("curl")
	curlFile := cmd.String("curl-file")

	if curlCmd == "" && curlFile == "" {
		return fmt.Errorf("%w: either --curl or --curl-file must be provided", shared.ErrMissingArgument)
	}
	if curlCmd != "" && curlFile != "" {
		return fmt.Errorf("%w: cannot specify both --curl and --curl-file", shared.ErrInvalidArgument)
	}

	var curlHeaders *shared.CurlHeaders
	var err error
	if curlFile != "" {
		if curlHeaders, err = shared.ParseCurlFile(curlFile); err != nil {
			return fmt.Errorf("failed to parse cURL file: %w", err)
		}
		r.logger.Info("parsed cURL from file", "file", curlFile)
	} else {
		if curlHeaders, err = shared.ParseCurlCommand(curlCmd); err != nil {
			return fmt.Errorf("failed to parse cURL command: %w", err)
		}
		r.logger.Info("parsed cURL command")
	}
	headersRaw := curlHeaders.ToHeadersRaw()
	r.logger.Debug("generated headers_raw", "length", len(headersRaw))

	dl, err := r.openDownloader()
	if err != nil {
		return err
	}
	youtube := services.NewYouTubeService(r.config.Secrets.YouTubeMusic, dl, r.logger)

	r.logger.Info("calling YouTube Music proxy setup endpoint")
	authJSON, err := youtube.SetupBrowser(ctx, headersRaw)
	if err != nil {
		return fmt.Errorf("setup request failed: %w", err)
	}

	outputPath := cmp.Or(cmd.String("output"), r.config.Secrets.YouTubeMusic.AuthFile, filepath.Join(r.config.BasePath(), "browser.json"))
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(outputPath, authJSON, 0o600); err != nil {
		return fmt.Errorf("failed to write auth file: %w", err)
	}
	r.logger.Info("auth file saved", "path", outputPath)

	r.writePlain("✓ YouTube Music authentication configured successfully\n")
	r.writePlain("Auth file saved to: %s\n", outputPath)
	if outputPath != r.config.Secrets.YouTubeMusic.AuthFile {
		r.writePlainln("Next step:")
		r.writePlain("Set auth_file = \"%s\" under [secrets.youtube-music] in %s\n", outputPath, r.path())
	}
	return nil
}
