package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"shrinkray/internal/config"
	"shrinkray/internal/encoding"
	"shrinkray/internal/gate"
	"shrinkray/internal/logging"
	"shrinkray/internal/media"
	"shrinkray/internal/plan"
	"shrinkray/internal/queue"
	"shrinkray/internal/resolve"
	"shrinkray/internal/services"
	"shrinkray/internal/stage"
)

// progressPersistInterval bounds how often encode progress hits the database.
const progressPersistInterval = 2 * time.Second

// encodeStage renders the job's plan, runs it, and commits the result
// through the size gate. Encoder failures are fatal for the job.
type encodeStage struct {
	cfg     *config.Config
	store   *queue.Store
	encoder encoding.Encoder
	logger  *slog.Logger
}

func newEncodeStage(cfg *config.Config, store *queue.Store, encoder encoding.Encoder, logger *slog.Logger) *encodeStage {
	return &encodeStage{cfg: cfg, store: store, encoder: encoder, logger: logging.WithComponent(logger, "encode")}
}

func (s *encodeStage) Prepare(_ context.Context, job *queue.Job) error {
	job.SetProgress("Encoding", "starting encoder", resolveBandEnd)
	return nil
}

func (s *encodeStage) Execute(ctx context.Context, job *queue.Job) error {
	settings, err := jobSettings(s.cfg, job)
	if err != nil {
		return err
	}
	params, err := resolve.UnmarshalParams(job.ParamsJSON)
	if err != nil {
		return services.Wrap(services.ErrValidation, "encode", "unmarshal_params",
			"stored effective parameters are corrupt", err)
	}
	var probe media.Probe
	if job.ProbeJSON != "" {
		if probe, err = media.UnmarshalProbe(job.ProbeJSON); err != nil {
			return services.Wrap(services.ErrValidation, "encode", "unmarshal_probe",
				"stored probe snapshot is corrupt", err)
		}
	}
	kind, ok := media.ParseKind(job.Kind)
	if !ok {
		return services.Wrap(services.ErrValidation, "encode", "classify_source",
			"job has no usable media kind", nil)
	}

	staged := filepath.Join(s.cfg.Paths.StagingDir,
		fmt.Sprintf("job-%d.%s", job.ID, containerExtension(params.Container)))
	p := plan.Build(kind, settings, params, probe.Duration(), job.SourcePath, staged)
	job.StagedFile = staged

	jobLogger := s.logger.With(logging.Int64(logging.FieldItemID, job.ID))
	jobLogger.Info("launching encode",
		logging.String("command", p.CommandLine(s.cfg.FFmpegBinary())),
		logging.String("mode", string(p.Mode)))

	if err := s.runEncoder(ctx, jobLogger, job, p, outputSeconds(settings, probe)); err != nil {
		if removeErr := os.Remove(staged); removeErr != nil && !os.IsNotExist(removeErr) {
			jobLogger.Warn("failed to remove staged artifact", logging.Error(removeErr))
		}
		return err
	}

	output := filepath.Join(s.cfg.Paths.OutputDir, outputName(job.SourcePath, params.Container))
	result, err := gate.Commit(job.SourcePath, staged, output)
	if err != nil {
		if removeErr := os.Remove(staged); removeErr != nil && !os.IsNotExist(removeErr) {
			jobLogger.Warn("failed to remove staged artifact", logging.Error(removeErr))
		}
		return err
	}

	job.Outcome = queue.Outcome(result.Outcome)
	job.FinalFile = result.FinalPath
	job.OriginalBytes = result.OriginalBytes
	if result.Outcome == gate.OutcomeKeptCompressed {
		job.FinalBytes = result.CompressedBytes
	} else {
		job.FinalBytes = result.OriginalBytes
	}
	job.SetProgress("Encoding", outcomeMessage(result), 100)

	jobLogger.Info("size gate decided",
		logging.Args(append(
			logging.DecisionAttrs("size_gate", string(result.Outcome), outcomeMessage(result)),
			logging.Int64("original_bytes", result.OriginalBytes),
			logging.Int64("compressed_bytes", result.CompressedBytes))...)...)
	return nil
}

func (s *encodeStage) runEncoder(ctx context.Context, jobLogger *slog.Logger, job *queue.Job, p plan.Plan, totalSeconds float64) error {
	sampler := logging.NewProgressSampler(5)
	var lastPersisted time.Time

	return s.encoder.Encode(ctx, p, totalSeconds, func(update encoding.ProgressUpdate) {
		if update.Percent >= 0 {
			job.ProgressPercent = resolveBandEnd + update.Percent*(100-resolveBandEnd)/100
		}
		if sampler.ShouldLog(update.Percent, "Encoding") {
			attrs := []logging.Attr{logging.String("progress_stage", "Encoding")}
			if update.Percent >= 0 {
				attrs = append(attrs, logging.Float64("progress_percent", update.Percent))
			}
			if update.Speed != "" {
				attrs = append(attrs, logging.String("progress_speed", update.Speed))
			}
			jobLogger.Info("encode progress", logging.Args(attrs...)...)
		}

		now := time.Now()
		if !update.Done && !lastPersisted.IsZero() && now.Sub(lastPersisted) < progressPersistInterval {
			return
		}
		lastPersisted = now
		if err := s.store.UpdateProgress(ctx, job.ID, "Encoding", "", job.ProgressPercent); err != nil {
			jobLogger.Warn("failed to persist encode progress", logging.Error(err))
		}
	})
}

func (s *encodeStage) HealthCheck(context.Context) stage.Health {
	if _, err := exec.LookPath(s.cfg.FFmpegBinary()); err != nil {
		return stage.Unhealthy("encode", fmt.Sprintf("%s not found", s.cfg.FFmpegBinary()))
	}
	return stage.Healthy("encode")
}

// outputSeconds computes the expected output duration for progress
// reporting. Zero means unknown.
func outputSeconds(settings resolve.TargetSettings, probe media.Probe) float64 {
	if settings.TrimEnd > settings.TrimStart {
		return settings.TrimEnd - settings.TrimStart
	}
	if duration := probe.Duration(); duration > settings.TrimStart {
		return duration - settings.TrimStart
	}
	return 0
}

func outputName(sourcePath, container string) string {
	base := filepath.Base(sourcePath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" {
		stem = base
	}
	return stem + "." + containerExtension(container)
}

func containerExtension(container string) string {
	switch container {
	case "jpeg", "mjpeg":
		return "jpg"
	case "matroska":
		return "mkv"
	case "":
		return "bin"
	default:
		return container
	}
}

func outcomeMessage(result gate.Result) string {
	if result.Outcome == gate.OutcomeKeptCompressed {
		return fmt.Sprintf("kept compressed output, saved %d bytes", result.SavedBytes)
	}
	return "compressed output was not smaller, kept original"
}
