package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/songreq/internal/services"
	"github.com/desertthunder/songreq/internal/shared"
	tu "github.com/desertthunder/songreq/internal/testing"
	"github.com/urfave/cli/v3"
)

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(io.Discard)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			player := tu.NewMockPlayer()
			search := &tu.MockSearcher{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Player:     player,
				Search:     search,
				HTTPClient: httpClient,
				Logger:     logger,
				Output:     output,
			})

			if runner.config != config {
				t.Error("expected config to be set")
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
			if runner.player != player {
				t.Error("expected player to be set")
			}
			if runner.search != search {
				t.Error("expected search to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil httpClient uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.httpClient != http.DefaultClient {
				t.Error("expected httpClient to default to http.DefaultClient")
			}
		})
	})

	t.Run("prepare", func(t *testing.T) {
		prepareWith := func(t *testing.T, runner *Runner, path string) error {
			t.Helper()
			cmd := &cli.Command{
				Name:   "songreq",
				Flags:  []cli.Flag{&cli.StringFlag{Name: "config"}},
				Action: func(_ context.Context, cmd *cli.Command) error { return runner.prepare(cmd) },
			}
			return cmd.Run(context.Background(), []string{"songreq", "--config", path})
		}

		t.Run("loads the config file and builds clients", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			content := "[player]\nbase_url = \"http://10.0.0.2:26538/api/v1\"\n\n[log]\nlevel = \"debug\"\n"
			if err := os.WriteFile(path, []byte(content), 0644); err != nil {
				t.Fatalf("failed to write config: %v", err)
			}

			t.Setenv("YTMD_API", "")
			t.Setenv("PORT", "")

			runner := NewRunner(RunnerOpts{Logger: shared.NewLogger(io.Discard)})
			if err := prepareWith(t, runner, path); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			client, ok := runner.player.(*services.PlayerClient)
			if !ok {
				t.Fatalf("expected a PlayerClient, got %T", runner.player)
			}
			if client.BaseURL() != "http://10.0.0.2:26538/api/v1" {
				t.Errorf("unexpected base URL %q", client.BaseURL())
			}
			if _, ok := runner.search.(*services.SearchService); !ok {
				t.Errorf("expected a SearchService, got %T", runner.search)
			}
			if runner.engine == nil {
				t.Error("expected status engine to be built")
			}
			if runner.config.Server.Port != 8080 {
				t.Errorf("expected default port to survive the overlay, got %d", runner.config.Server.Port)
			}
		})

		t.Run("keeps injected dependencies", func(t *testing.T) {
			player := tu.NewMockPlayer()
			runner := NewRunner(RunnerOpts{Config: shared.DefaultConfig(), Player: player, Logger: shared.NewLogger(io.Discard)})
			if err := runner.prepare(&cli.Command{}); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if runner.player != player {
				t.Error("expected injected player to be kept")
			}
		})

		t.Run("rejects invalid config", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte("[server]\nport = 70000\n"), 0644); err != nil {
				t.Fatalf("failed to write config: %v", err)
			}

			t.Setenv("PORT", "")

			runner := NewRunner(RunnerOpts{Logger: shared.NewLogger(io.Discard)})
			if err := prepareWith(t, runner, path); err == nil {
				t.Fatal("expected validation error")
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

			expected := `{"key":"value"}` + "\n"
			if output.String() != expected {
				t.Errorf("expected %q, got %q", expected, output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

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
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "hello world" {
				t.Errorf("expected 'hello world', got %q", output.String())
			}
		})

		t.Run("writePlainln wraps with newlines", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlainln("line %d", 1); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "\nline 1\n" {
				t.Errorf("unexpected output %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})
			if err := runner.writePlain("text"); err == nil {
				t.Error("expected error from failing writer")
			}
		})

		t.Run("writePlainHeader", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})
			runner.writePlainHeader("Title")

			if lines := strings.Split(strings.TrimSpace(output.String()), "\n"); len(lines) != 3 || lines[1] != "Title" {
				t.Errorf("unexpected header %q", output.String())
			}
		})
	})
}
