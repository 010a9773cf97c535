package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"

	"shrinkray/internal/config"
	"shrinkray/internal/logging"
	"shrinkray/internal/media"
	"shrinkray/internal/queue"
	"shrinkray/internal/services"
	"shrinkray/internal/stage"
)

// probeStage inspects the source file with ffprobe. Probe failure is not a
// job failure: the resolver treats every probed field as optional, so an
// unreadable source simply yields an empty probe and the targets apply as
// written.
type probeStage struct {
	cfg    *config.Config
	logger *slog.Logger
}

func newProbeStage(cfg *config.Config, logger *slog.Logger) *probeStage {
	return &probeStage{cfg: cfg, logger: logging.WithComponent(logger, "probe")}
}

func (s *probeStage) Prepare(_ context.Context, job *queue.Job) error {
	job.SetProgress("Probing", "inspecting source", 0)
	return nil
}

func (s *probeStage) Execute(ctx context.Context, job *queue.Job) error {
	info, err := os.Stat(job.SourcePath)
	if err != nil {
		return services.Wrap(services.ErrIO, "probe", "stat_source",
			fmt.Sprintf("source file %s unreadable", job.SourcePath), err)
	}
	job.OriginalBytes = info.Size()

	if job.Kind == "" {
		if kind, ok := media.KindForPath(job.SourcePath); ok {
			job.Kind = string(kind)
		} else {
			return services.Wrap(services.ErrValidation, "probe", "classify_source",
				fmt.Sprintf("unsupported media type: %s", job.SourcePath), nil)
		}
	}

	probe := media.ProbeFile(ctx, s.cfg.FFprobeBinary(), job.SourcePath)
	if probe.Empty() {
		s.logger.Warn("probe unavailable, continuing with targets as written",
			logging.Int64(logging.FieldItemID, job.ID),
			logging.String("source_file", job.SourcePath),
			logging.String(logging.FieldErrorHint, services.ErrProbeUnavailable.Error()))
	}
	raw, err := probe.Marshal()
	if err != nil {
		return services.Wrap(services.ErrIO, "probe", "marshal_probe", "persist probe snapshot", err)
	}
	job.ProbeJSON = raw
	job.SetProgress("Probing", "probe complete", probeBandEnd)
	return nil
}

func (s *probeStage) HealthCheck(context.Context) stage.Health {
	if _, err := exec.LookPath(s.cfg.FFprobeBinary()); err != nil {
		return stage.Unhealthy("probe", fmt.Sprintf("%s not found (probing degrades to targets as written)", s.cfg.FFprobeBinary()))
	}
	return stage.Healthy("probe")
}
