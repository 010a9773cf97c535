package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"shrinkray/internal/config"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StagingDir = filepath.Join(base, "staging")
	cfgVal.Paths.OutputDir = filepath.Join(base, "output")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	// sh is always on PATH, so dependency checks pass without ffmpeg.
	cfgVal.FFmpeg.FFmpegBinary = "sh"
	cfgVal.FFmpeg.FFprobeBinary = "sh"
	cfgVal.Workflow.MinFreeSpaceGiB = 0

	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, &cfgVal)

	return &cliTestEnv{cfg: &cfgVal, configPath: configPath, baseDir: base}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	raw, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = []string{"--config", configPath}
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, want string) {
	t.Helper()
	if !strings.Contains(output, want) {
		t.Fatalf("expected output to contain %q, got:\n%s", want, output)
	}
}

func writeMediaFixture(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("fixture"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestCLIAddAndQueueCommands(t *testing.T) {
	env := setupCLITestEnv(t)
	song := writeMediaFixture(t, env.baseDir, "song.mp3")

	out, _, err := runCLI(t, []string{"add", song, "--audio-bitrate", "128k"}, env.configPath)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	requireContains(t, out, "Queued song.mp3 as job #1 (audio)")

	out, _, err = runCLI(t, []string{"queue", "status"}, env.configPath)
	if err != nil {
		t.Fatalf("queue status: %v", err)
	}
	requireContains(t, out, "pending")

	out, _, err = runCLI(t, []string{"queue", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("queue list: %v", err)
	}
	requireContains(t, out, "song.mp3")

	out, _, err = runCLI(t, []string{"queue", "list", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("queue list --json: %v", err)
	}
	requireContains(t, out, `"status": "pending"`)

	out, _, err = runCLI(t, []string{"queue", "remove", "1"}, env.configPath)
	if err != nil {
		t.Fatalf("queue remove: %v", err)
	}
	requireContains(t, out, "Job 1 removed")

	out, _, err = runCLI(t, []string{"queue", "status"}, env.configPath)
	if err != nil {
		t.Fatalf("queue status: %v", err)
	}
	requireContains(t, out, "Queue is empty")
}

func TestCLIAddScansDirectories(t *testing.T) {
	env := setupCLITestEnv(t)
	mediaDir := filepath.Join(env.baseDir, "media")
	if err := os.MkdirAll(filepath.Join(mediaDir, "nested"), 0o755); err != nil {
		t.Fatal(err)
	}
	writeMediaFixture(t, mediaDir, "clip.mp4")
	writeMediaFixture(t, mediaDir, "notes.txt")
	writeMediaFixture(t, filepath.Join(mediaDir, "nested"), "photo.jpg")

	out, _, err := runCLI(t, []string{"add", mediaDir}, env.configPath)
	if err != nil {
		t.Fatalf("add dir: %v", err)
	}
	requireContains(t, out, "clip.mp4")
	if strings.Contains(out, "photo.jpg") {
		t.Fatalf("non-recursive add descended into subdirectory:\n%s", out)
	}
	if strings.Contains(out, "notes.txt") {
		t.Fatalf("unsupported file was queued:\n%s", out)
	}

	out, _, err = runCLI(t, []string{"add", "--recursive", mediaDir}, env.configPath)
	if err != nil {
		t.Fatalf("add -r: %v", err)
	}
	requireContains(t, out, "photo.jpg")
}

func TestCLIAddRejectsUnsupportedFile(t *testing.T) {
	env := setupCLITestEnv(t)
	doc := writeMediaFixture(t, env.baseDir, "report.pdf")

	_, _, err := runCLI(t, []string{"add", doc}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "unsupported file type") {
		t.Fatalf("expected unsupported file error, got %v", err)
	}
}

func TestCLIAddValidatesFlags(t *testing.T) {
	env := setupCLITestEnv(t)
	song := writeMediaFixture(t, env.baseDir, "song.mp3")

	cases := []struct {
		name string
		args []string
		want string
	}{
		{"bad tier", []string{"add", song, "--audio-bitrate", "512k"}, "invalid audio bitrate tier"},
		{"quality too low", []string{"add", song, "--quality", "0.05"}, "quality must be between"},
		{"inverted trim", []string{"add", song, "--trim-start", "10", "--trim-end", "5"}, "must be after"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := runCLI(t, tc.args, env.configPath)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestCLIRunEmptyQueue(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"run"}, env.configPath)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	requireContains(t, out, "Queue is empty")
}

func TestCLIRunFailsWithoutFFmpeg(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.FFmpeg.FFmpegBinary = "shrinkray-test-missing-ffmpeg"
	writeTestConfig(t, env.configPath, env.cfg)

	_, _, err := runCLI(t, []string{"run"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "FFmpeg") {
		t.Fatalf("expected missing dependency error, got %v", err)
	}
}

func TestCLIQueueRetryAndClear(t *testing.T) {
	env := setupCLITestEnv(t)
	song := writeMediaFixture(t, env.baseDir, "song.wav")

	if _, _, err := runCLI(t, []string{"add", song}, env.configPath); err != nil {
		t.Fatalf("add: %v", err)
	}

	out, _, err := runCLI(t, []string{"queue", "retry"}, env.configPath)
	if err != nil {
		t.Fatalf("queue retry: %v", err)
	}
	requireContains(t, out, "Reset 0 job(s)")

	out, _, err = runCLI(t, []string{"queue", "clear"}, env.configPath)
	if err != nil {
		t.Fatalf("queue clear: %v", err)
	}
	requireContains(t, out, "Removed 1 job(s)")
}

func TestCLIQueueHealthReportsStages(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"queue", "health"}, env.configPath)
	if err != nil {
		t.Fatalf("queue health: %v", err)
	}
	requireContains(t, out, "Database:")
	requireContains(t, out, "probe")
	requireContains(t, out, "encode")
	requireContains(t, out, "ready")
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate", env.configPath}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "is valid")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")

	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected error for existing config without --overwrite")
	}
}

func TestDepsCommandReportsState(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"deps"}, env.configPath)
	if err != nil {
		t.Fatalf("deps: %v", err)
	}
	requireContains(t, out, "FFmpeg")
	requireContains(t, out, "Preflight checks passed")
}
