// submodule cmd contains command definitions
package main

import (
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/music-playlists/internal/formatter"
)

var formatUsage = "Output format: " + strings.Join(formatNames(), ", ")

func formatNames() []string {
	names := make([]string, 0, len(formatter.Formats))
	for _, f := range formatter.Formats {
		names = append(names, string(f))
	}
	return names
}

// sourcesCommand lists and shows source track lists
func sourcesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sources",
		Usage: "Source track list operations",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List the configured playlists and their track lists",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Output format: table or json",
						Value:   string(formatter.FormatTable),
					},
				},
				Action: r.SourcesList,
			},
			{
				Name:      "show",
				Usage:     "Fetch a track list and show its tracks",
				ArgsUsage: "<source>-<code>",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "name"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "refresh",
						Usage: "Ignore cached responses",
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   formatUsage,
						Value:   string(formatter.FormatTable),
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write to this file instead of standard output",
					},
				},
				Action: r.SourcesShow,
			},
		},
	}
}

// servicesCommand updates streaming service playlists
func servicesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "services",
		Usage: "Streaming service playlist operations",
		Commands: []*cli.Command{
			{
				Name:  "update",
				Usage: "Rewrite the configured playlists from their source track lists",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "code",
						Usage: "Only update playlists for this track list (<source>-<code>)",
					},
					&cli.StringFlag{
						Name:  "source",
						Usage: "Only update playlists for this source",
					},
					&cli.StringFlag{
						Name:  "service",
						Usage: "Only update playlists on this service",
					},
					&cli.BoolFlag{
						Name:  "refresh",
						Usage: "Ignore cached source responses",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output the results as JSON",
					},
					&cli.BoolFlag{
						Name:  "tui",
						Usage: "Show progress in an interactive terminal view",
					},
				},
				Action: r.ServicesUpdate,
			},
		},
	}
}

// setupCommand handles configuration, database and authentication setup.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write the example configuration to the config path",
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize the cache database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:  "spotify",
				Usage: "Authorize Spotify in the browser and save the refresh token",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "no-browser",
						Usage: "Print the authorization URL without opening a browser",
					},
				},
				Action: r.SetupSpotify,
			},
			{
				Name:    "youtube",
				Aliases: []string{"yt", "youtube-music"},
				Usage:   "Configure YouTube Music authentication from browser headers",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "curl",
						Usage: "cURL command from browser DevTools (Copy as cURL)",
					},
					&cli.StringFlag{
						Name:  "curl-file",
						Usage: "Path to .sh file containing cURL command",
					},
					&cli.StringFlag{
						Name:  "output",
						Usage: "Output path for the auth file (default: the configured auth_file)",
					},
				},
				Action: r.SetupYouTube,
			},
		},
	}
}

// cacheCommand manages the HTTP response cache
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "HTTP response cache operations",
		Commands: []*cli.Command{
			{
				Name:  "purge",
				Usage: "Delete expired cached responses",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "all",
						Usage: "Delete every cached response",
					},
				},
				Action: r.CachePurge,
			},
		},
	}
}
