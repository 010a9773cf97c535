package gate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"shrinkray/internal/testsupport"
)

func TestDecideStrictlySmallerWins(t *testing.T) {
	cases := []struct {
		name       string
		original   int64
		compressed int64
		want       Outcome
	}{
		{"smaller wins", 1000, 999, OutcomeKeptCompressed},
		{"one byte saved wins", 1000, 999, OutcomeKeptCompressed},
		{"tie loses", 1000, 1000, OutcomeKeptOriginal},
		{"larger loses", 1000, 1001, OutcomeKeptOriginal},
		{"empty original loses", 0, 0, OutcomeKeptOriginal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Decide(tc.original, tc.compressed); got != tc.want {
				t.Fatalf("Decide(%d, %d) = %s, want %s", tc.original, tc.compressed, got, tc.want)
			}
		})
	}
}

func TestCommitKeepsCompressed(t *testing.T) {
	dir := t.TempDir()
	original := testsupport.WriteSizedFile(t, filepath.Join(dir, "song.wav"), 1000)
	staged := testsupport.WriteSizedFile(t, filepath.Join(dir, "staging", "song.mp3"), 400)
	output := filepath.Join(dir, "out", "song.mp3")

	result, err := Commit(original, staged, output)
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if result.Outcome != OutcomeKeptCompressed {
		t.Fatalf("outcome: %s", result.Outcome)
	}
	if result.SavedBytes != 600 {
		t.Fatalf("saved bytes: %d", result.SavedBytes)
	}
	if result.FinalPath != output {
		t.Fatalf("final path: %s", result.FinalPath)
	}
	if _, err := os.Stat(staged); !os.IsNotExist(err) {
		t.Fatalf("staged artifact should have moved, stat err: %v", err)
	}
	if _, err := os.Stat(original); err != nil {
		t.Fatalf("original must be untouched: %v", err)
	}
}

func TestCommitTieKeepsOriginal(t *testing.T) {
	dir := t.TempDir()
	original := testsupport.WriteSizedFile(t, filepath.Join(dir, "song.wav"), 500)
	staged := testsupport.WriteSizedFile(t, filepath.Join(dir, "staging", "song.mp3"), 500)
	output := filepath.Join(dir, "out", "song.mp3")

	result, err := Commit(original, staged, output)
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if result.Outcome != OutcomeKeptOriginal {
		t.Fatalf("tie must keep the original, got %s", result.Outcome)
	}
	if !strings.HasSuffix(result.FinalPath, "song.wav") {
		t.Fatalf("kept original must keep its name: %s", result.FinalPath)
	}
	if _, err := os.Stat(staged); !os.IsNotExist(err) {
		t.Fatalf("losing artifact should be discarded, stat err: %v", err)
	}
	info, err := os.Stat(result.FinalPath)
	if err != nil {
		t.Fatalf("delivered file missing: %v", err)
	}
	if info.Size() != 500 {
		t.Fatalf("delivered size: %d", info.Size())
	}
}

func TestCommitMissingStagedArtifact(t *testing.T) {
	dir := t.TempDir()
	original := testsupport.WriteSizedFile(t, filepath.Join(dir, "song.wav"), 500)

	_, err := Commit(original, filepath.Join(dir, "missing.mp3"), filepath.Join(dir, "out.mp3"))
	if err == nil {
		t.Fatal("expected an error for a missing staged artifact")
	}
}

func TestCommitAvoidsOverwriting(t *testing.T) {
	dir := t.TempDir()
	original := testsupport.WriteSizedFile(t, filepath.Join(dir, "song.wav"), 1000)
	staged := testsupport.WriteSizedFile(t, filepath.Join(dir, "staging", "song.mp3"), 400)
	output := filepath.Join(dir, "out", "song.mp3")
	testsupport.WriteSizedFile(t, output, 10)

	result, err := Commit(original, staged, output)
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if result.FinalPath == output {
		t.Fatal("existing output must not be overwritten")
	}
	if !strings.Contains(filepath.Base(result.FinalPath), "song-1") {
		t.Fatalf("expected suffixed name, got %s", result.FinalPath)
	}
}
