package gate

import (
	"fmt"
	"os"
	"path/filepath"

	"shrinkray/internal/fileutil"
	"shrinkray/internal/services"
)

// Outcome names the gate's decision for one job.
type Outcome string

const (
	// OutcomeKeptCompressed means the encoded artifact won and was delivered.
	OutcomeKeptCompressed Outcome = "kept_compressed"
	// OutcomeKeptOriginal means the original was delivered unchanged.
	OutcomeKeptOriginal Outcome = "kept_original"
)

// Result records the decision and the byte counts behind it.
type Result struct {
	Outcome         Outcome
	OriginalBytes   int64
	CompressedBytes int64
	SavedBytes      int64
	FinalPath       string
}

// Decide applies the size rule. Only a strictly smaller compressed file
// wins; equal sizes keep the original.
func Decide(originalBytes, compressedBytes int64) Outcome {
	if compressedBytes < originalBytes {
		return OutcomeKeptCompressed
	}
	return OutcomeKeptOriginal
}

// Commit measures the staged artifact against the original, delivers the
// winner to outputPath, and removes the staged file when it loses. The
// original is never modified or moved.
func Commit(originalPath, stagedPath, outputPath string) (Result, error) {
	originalInfo, err := os.Stat(originalPath)
	if err != nil {
		return Result{}, services.Wrap(services.ErrIO, "gate", "stat_original",
			fmt.Sprintf("stat original %s", originalPath), err)
	}
	stagedInfo, err := os.Stat(stagedPath)
	if err != nil {
		return Result{}, services.Wrap(services.ErrIO, "gate", "stat_staged",
			fmt.Sprintf("stat staged artifact %s", stagedPath), err)
	}

	result := Result{
		OriginalBytes:   originalInfo.Size(),
		CompressedBytes: stagedInfo.Size(),
		Outcome:         Decide(originalInfo.Size(), stagedInfo.Size()),
	}

	switch result.Outcome {
	case OutcomeKeptCompressed:
		target := fileutil.UniquePath(outputPath)
		if err := fileutil.Move(stagedPath, target); err != nil {
			return Result{}, services.Wrap(services.ErrIO, "gate", "deliver_compressed",
				"deliver compressed artifact", err)
		}
		result.SavedBytes = result.OriginalBytes - result.CompressedBytes
		result.FinalPath = target
	case OutcomeKeptOriginal:
		// The original keeps its own name; the planned output name only
		// applies to a winning artifact.
		target := fileutil.UniquePath(filepath.Join(filepath.Dir(outputPath), filepath.Base(originalPath)))
		if err := fileutil.Copy(originalPath, target); err != nil {
			return Result{}, services.Wrap(services.ErrIO, "gate", "deliver_original",
				"deliver original", err)
		}
		if err := os.Remove(stagedPath); err != nil {
			return Result{}, services.Wrap(services.ErrIO, "gate", "discard_staged",
				"discard losing artifact", err)
		}
		result.FinalPath = target
	}
	return result, nil
}
