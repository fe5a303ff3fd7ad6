package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/music-playlists/internal/models"
	"github.com/desertthunder/music-playlists/internal/repositories"
	"github.com/desertthunder/music-playlists/internal/services"
	"github.com/desertthunder/music-playlists/internal/shared"
	"github.com/desertthunder/music-playlists/internal/sources"
	"github.com/desertthunder/music-playlists/internal/tasks"
	tu "github.com/desertthunder/music-playlists/internal/testing"
)

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

// writeConfig saves a config whose cache lives in a temporary directory.
func writeConfig(t *testing.T, mutate func(*shared.Config)) string {
	t.Helper()
	dir := t.TempDir()
	config := shared.DefaultConfig()
	config.General.TimeZone = "UTC"
	config.General.BasePath = dir
	config.Database.Path = filepath.Join(dir, "cache.sqlite")
	if mutate != nil {
		mutate(config)
	}
	path := filepath.Join(dir, "config.toml")
	if err := shared.SaveConfig(path, config); err != nil {
		t.Fatalf("failed to save config: %v", err)
	}
	return path
}

func testProcess() (*tasks.Process, *tu.MockService) {
	src := tu.NewMockSource("radio")
	src.Lists["top"] = &models.TrackList{Type: models.TrackListOrdered, Tracks: []*models.Track{
		models.NewTrack("radio", "1", "Song A", []string{"Artist A"}, nil),
		models.NewTrack("radio", "2", "Missing", []string{"Nobody"}, nil),
	}}
	svc := tu.NewMockService("spotify")
	svc.AddResult("song a artist a", models.NewTrack("spotify", "sp1", "Song A", []string{"Artist A"}, nil))

	process := tasks.NewProcess(tasks.ProcessOpts{
		Registry: sources.NewRegistry(src),
		Services: []services.Service{svc},
		Playlists: []shared.PlaylistConfig{
			{Source: "radio", Code: "top", Service: "spotify", Title: "Top", PlaylistID: "pl1"},
		},
		Logger: quietLogger(),
	})
	return process, svc
}

func runApp(r *Runner, args ...string) error {
	return newApp(r).Run(context.Background(), append([]string{"mpl"}, args...))
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := quietLogger()
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			process, svc := testProcess()

			runner := NewRunner(RunnerOpts{
				Config:     config,
				ConfigPath: "/test/path/config.toml",
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
				Services:   []services.Service{svc},
				Process:    process,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if got, err := runner.openProcess(); err != nil || got != process {
				t.Errorf("expected injected process, got %v %v", got, err)
			}
			if got, err := runner.openServices(); err != nil || len(got) != 1 || got[0] != svc {
				t.Errorf("expected injected services, got %v %v", got, err)
			}
		})

		t.Run("with nil options uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
			if runner.configPath != "" {
				t.Errorf("expected empty configPath, got %s", runner.configPath)
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if expected := `{"key":"value"}` + "\n"; output.String() != expected {
				t.Errorf("expected %q, got %q", expected, output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			// channels cannot be marshaled to JSON
			err := runner.writeJSON(make(chan int), false)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline error, got %v", err)
			}
		})
	})

	t.Run("Before", func(t *testing.T) {
		t.Run("loads config, env and verbosity", func(t *testing.T) {
			path := writeConfig(t, func(c *shared.Config) { c.General.MatchWindow = 7 })
			t.Setenv(shared.EnvLastFMAPIKey, "from-env")
			process, _ := testProcess()
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Logger: quietLogger(), Output: output, Process: process})

			if err := runApp(runner, "--config", path, "--verbose", "sources", "list"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if strings.Contains(output.String(), "version") || !strings.Contains(output.String(), "pl1") {
				t.Errorf("expected the sources table, got:\n%s", output.String())
			}
			if runner.config.General.MatchWindow != 7 {
				t.Errorf("expected config from file, got window %d", runner.config.General.MatchWindow)
			}
			if runner.config.Secrets.LastFM.APIKey != "from-env" {
				t.Errorf("expected env override, got %q", runner.config.Secrets.LastFM.APIKey)
			}
			if runner.logger.GetLevel() != log.DebugLevel {
				t.Errorf("expected debug level, got %v", runner.logger.GetLevel())
			}
		})

		t.Run("missing config uses defaults", func(t *testing.T) {
			process, _ := testProcess()
			runner := NewRunner(RunnerOpts{Logger: quietLogger(), Output: &bytes.Buffer{}, Process: process})

			path := filepath.Join(t.TempDir(), "missing.toml")
			if err := runApp(runner, "--config", path, "sources", "list"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if runner.configPath != path || len(runner.config.Playlists) == 0 {
				t.Error("expected default config with example playlists")
			}
		})

		t.Run("invalid config", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.toml")
			if err := os.WriteFile(path, []byte("[general\n"), 0o600); err != nil {
				t.Fatal(err)
			}
			runner := NewRunner(RunnerOpts{Logger: quietLogger(), Output: &bytes.Buffer{}})
			if err := runApp(runner, "--config", path, "sources", "list"); !errors.Is(err, shared.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	})
}

func TestSourcesCommands(t *testing.T) {
	path := writeConfig(t, nil)

	t.Run("list as table", func(t *testing.T) {
		process, _ := testProcess()
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Logger: quietLogger(), Output: output, Process: process})

		if err := runApp(runner, "--config", path, "sources", "list"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		for _, want := range []string{"Source", "radio", "top", "spotify", "pl1"} {
			if !strings.Contains(output.String(), want) {
				t.Errorf("expected output to contain %q, got:\n%s", want, output.String())
			}
		}
	})

	t.Run("list as json", func(t *testing.T) {
		process, _ := testProcess()
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Logger: quietLogger(), Output: output, Process: process})

		if err := runApp(runner, "--config", path, "sources", "list", "--format", "json"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		var rows []tasks.AvailableRow
		if err := json.Unmarshal(output.Bytes(), &rows); err != nil {
			t.Fatalf("expected JSON output, got %v", err)
		}
		want := []tasks.AvailableRow{{Source: "radio", Code: "top", Service: "spotify", Title: "Top", PlaylistID: "pl1"}}
		if !slices.Equal(rows, want) {
			t.Errorf("expected %v, got %v", want, rows)
		}
	})

	t.Run("list rejects export formats", func(t *testing.T) {
		process, _ := testProcess()
		runner := NewRunner(RunnerOpts{Logger: quietLogger(), Output: &bytes.Buffer{}, Process: process})
		if err := runApp(runner, "--config", path, "sources", "list", "--format", "csv"); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})

	t.Run("show as csv", func(t *testing.T) {
		process, _ := testProcess()
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Logger: quietLogger(), Output: output, Process: process})

		if err := runApp(runner, "--config", path, "sources", "show", "radio-top", "--format", "csv"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		want := "Position,Title,Artists,Track ID,Origin\n1,Song A,Artist A,1,radio\n2,Missing,Nobody,2,radio\n"
		if output.String() != want {
			t.Errorf("expected %q, got %q", want, output.String())
		}
	})

	t.Run("show to file", func(t *testing.T) {
		process, _ := testProcess()
		runner := NewRunner(RunnerOpts{Logger: quietLogger(), Output: &bytes.Buffer{}, Process: process})
		out := filepath.Join(t.TempDir(), "top.md")

		if err := runApp(runner, "--config", path, "sources", "show", "radio-top", "-f", "md", "-o", out); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		tu.AssertFileExists(t, out)
		if content := tu.MustReadFile(t, out); !strings.HasPrefix(content, "# Top") {
			t.Errorf("expected markdown title, got %q", content)
		}
	})

	t.Run("show errors", func(t *testing.T) {
		tests := []struct {
			name string
			args []string
			want error
		}{
			{"missing name", []string{"sources", "show"}, shared.ErrMissingArgument},
			{"unknown name", []string{"sources", "show", "radio-nope"}, shared.ErrSourceNotFound},
			{"bad format", []string{"sources", "show", "radio-top", "--format", "xml"}, shared.ErrInvalidFlag},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				process, _ := testProcess()
				runner := NewRunner(RunnerOpts{Logger: quietLogger(), Output: &bytes.Buffer{}, Process: process})
				if err := runApp(runner, append([]string{"--config", path}, tt.args...)...); !errors.Is(err, tt.want) {
					t.Errorf("expected %v, got %v", tt.want, err)
				}
			})
		}
	})
}

func TestServicesUpdateCommand(t *testing.T) {
	path := writeConfig(t, nil)

	t.Run("prints a summary", func(t *testing.T) {
		process, svc := testProcess()
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Logger: quietLogger(), Output: output, Process: process})

		if err := runApp(runner, "--config", path, "services", "update"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		for _, want := range []string{"Update Complete", "1/2", "Not found on spotify", "Missing"} {
			if !strings.Contains(output.String(), want) {
				t.Errorf("expected output to contain %q, got:\n%s", want, output.String())
			}
		}
		if got := svc.UpdatedTracks["pl1"]; len(got) != 1 || got[0].TrackID() != "sp1" {
			t.Errorf("unexpected playlist tracks %v", got)
		}
	})

	t.Run("json output", func(t *testing.T) {
		process, _ := testProcess()
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Logger: quietLogger(), Output: output, Process: process})

		if err := runApp(runner, "--config", path, "services", "update", "--json", "--service", "spotify"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		var results []tasks.UpdateResult
		if err := json.Unmarshal(output.Bytes(), &results); err != nil {
			t.Fatalf("expected only JSON output, got %v", err)
		}
		if len(results) != 1 || results[0].Found != 1 || results[0].Total != 2 || results[0].PlaylistID != "pl1" {
			t.Errorf("unexpected results %+v", results)
		}
		if results[0].Error != "" {
			t.Errorf("expected no error field, got %q", results[0].Error)
		}
	})

	t.Run("json marks failed playlists", func(t *testing.T) {
		process, svc := testProcess()
		svc.UpdateErr = shared.ErrAPIRequest
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Logger: quietLogger(), Output: output, Process: process})

		if err := runApp(runner, "--config", path, "services", "update", "--json"); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
		var results []tasks.UpdateResult
		if err := json.Unmarshal(output.Bytes(), &results); err != nil {
			t.Fatalf("expected only JSON output, got %v", err)
		}
		if len(results) != 1 || !strings.Contains(results[0].Error, "remote request failed") {
			t.Errorf("expected error field on failed playlist, got %+v", results)
		}
	})

	t.Run("failures are returned", func(t *testing.T) {
		process, svc := testProcess()
		svc.UpdateErr = shared.ErrAPIRequest
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Logger: quietLogger(), Output: output, Process: process})

		if err := runApp(runner, "--config", path, "services", "update"); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
		if !strings.Contains(output.String(), "remote request failed") {
			t.Errorf("expected failure in summary, got:\n%s", output.String())
		}
	})
}

func TestSetupCommands(t *testing.T) {
	t.Run("config", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "config.toml")
		runner := NewRunner(RunnerOpts{Logger: quietLogger(), Output: &bytes.Buffer{}})

		if err := runApp(runner, "--config", path, "setup", "config"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		tu.AssertFileExists(t, path)

		if err := runApp(runner, "--config", path, "setup", "config"); err == nil {
			t.Error("expected error when config already exists")
		}
	})

	t.Run("database", func(t *testing.T) {
		path := writeConfig(t, nil)
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Logger: quietLogger(), Output: output})

		if err := runApp(runner, "--config", path, "setup", "database"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		tu.AssertFileExists(t, runner.config.DatabasePath())
		if !strings.Contains(output.String(), "Database ready") {
			t.Errorf("unexpected output %q", output.String())
		}
	})

	t.Run("spotify needs credentials", func(t *testing.T) {
		path := writeConfig(t, func(c *shared.Config) {
			c.Secrets.Spotify.ClientID = ""
			c.Secrets.Spotify.ClientSecret = ""
		})
		runner := NewRunner(RunnerOpts{Logger: quietLogger(), Output: &bytes.Buffer{}})
		defer runner.Close()

		if err := runApp(runner, "--config", path, "setup", "spotify", "--no-browser"); !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("youtube", func(t *testing.T) {
		var gotBody map[string]string
		proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost || r.URL.Path != "/api/setup/browser" {
				http.NotFound(w, r)
				return
			}
			json.NewDecoder(r.Body).Decode(&gotBody)
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"cookie":"SID=abc"}`))
		}))
		defer proxy.Close()

		path := writeConfig(t, func(c *shared.Config) { c.Secrets.YouTubeMusic.ProxyURL = proxy.URL })
		authFile := filepath.Join(t.TempDir(), "auth", "browser.json")
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Logger: quietLogger(), Output: output})
		defer runner.Close()

		err := runApp(runner, "--config", path, "setup", "youtube",
			"--curl", `curl -H 'Cookie: SID=abc' -H 'X-Goog-AuthUser: 0' https://music.youtube.com/youtubei/v1/browse`,
			"--output", authFile)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(gotBody["headers_raw"], "SID=abc") {
			t.Errorf("expected cookie in headers_raw, got %q", gotBody["headers_raw"])
		}
		if content := tu.MustReadFile(t, authFile); content != `{"cookie":"SID=abc"}` {
			t.Errorf("unexpected auth file %q", content)
		}
		if !strings.Contains(output.String(), "auth_file") {
			t.Errorf("expected auth_file hint, got %q", output.String())
		}
	})

	t.Run("youtube flag errors", func(t *testing.T) {
		path := writeConfig(t, nil)
		tests := []struct {
			name string
			args []string
			want error
		}{
			{"neither", nil, shared.ErrMissingArgument},
			{"both", []string{"--curl", "curl -H 'A: b' x", "--curl-file", "x.sh"}, shared.ErrInvalidArgument},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				runner := NewRunner(RunnerOpts{Logger: quietLogger(), Output: &bytes.Buffer{}})
				args := append([]string{"--config", path, "setup", "youtube"}, tt.args...)
				if err := runApp(runner, args...); !errors.Is(err, tt.want) {
					t.Errorf("expected %v, got %v", tt.want, err)
				}
			})
		}
	})
}

func TestCachePurgeCommand(t *testing.T) {
	path := writeConfig(t, nil)
	config, err := shared.LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	db, err := shared.OpenCache(config)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	repo := repositories.NewResponseRepository(db)
	first := models.NewCachedResponse("first", "GET", "https://example.com/first", 200, []byte("{}"), 0)
	second := models.NewCachedResponse("second", "GET", "https://example.com/second", 200, []byte("{}"), time.Hour)
	for _, resp := range []*models.CachedResponse{first, second} {
		if err := repo.Put(resp); err != nil {
			t.Fatal(err)
		}
	}

	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{Logger: quietLogger(), Output: output, Cache: repo})
	if err := runApp(runner, "--config", path, "cache", "purge", "--all"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(output.String(), "Removed 2 cached responses") {
		t.Errorf("unexpected output %q", output.String())
	}
}
