package workflow

import (
	"context"
	"log/slog"

	"shrinkray/internal/config"
	"shrinkray/internal/logging"
	"shrinkray/internal/media"
	"shrinkray/internal/queue"
	"shrinkray/internal/resolve"
	"shrinkray/internal/services"
	"shrinkray/internal/stage"
)

// resolveStage computes effective parameters from the job's target settings
// and its probe snapshot. The resolution itself is pure; the stage exists to
// persist the result and to surface the codec substitution decision where an
// operator will see it.
type resolveStage struct {
	cfg    *config.Config
	logger *slog.Logger
}

func newResolveStage(cfg *config.Config, logger *slog.Logger) *resolveStage {
	return &resolveStage{cfg: cfg, logger: logging.WithComponent(logger, "resolve")}
}

func (s *resolveStage) Prepare(_ context.Context, job *queue.Job) error {
	job.SetProgress("Resolving", "computing effective parameters", probeBandEnd)
	return nil
}

func (s *resolveStage) Execute(_ context.Context, job *queue.Job) error {
	settings, err := jobSettings(s.cfg, job)
	if err != nil {
		return err
	}

	kind, ok := media.ParseKind(job.Kind)
	if !ok {
		if kind, ok = media.KindForPath(job.SourcePath); !ok {
			return services.Wrap(services.ErrValidation, "resolve", "classify_source",
				"job has no usable media kind", nil)
		}
		job.Kind = string(kind)
	}

	var probe media.Probe
	if job.ProbeJSON != "" {
		if probe, err = media.UnmarshalProbe(job.ProbeJSON); err != nil {
			return services.Wrap(services.ErrValidation, "resolve", "unmarshal_probe",
				"stored probe snapshot is corrupt", err)
		}
	}

	params := resolve.Resolve(kind, settings, probe)
	if params.CodecSubstituted {
		s.logger.Info("codec substituted",
			logging.Args(append([]logging.Attr{logging.Int64(logging.FieldItemID, job.ID)},
				logging.DecisionAttrs("codec_substitution", params.Container, params.SubstitutionReason)...)...)...)
	}

	raw, err := params.Marshal()
	if err != nil {
		return services.Wrap(services.ErrIO, "resolve", "marshal_params", "persist effective parameters", err)
	}
	job.ParamsJSON = raw
	job.SetProgress("Resolving", "parameters resolved", resolveBandEnd)
	return nil
}

func (s *resolveStage) HealthCheck(context.Context) stage.Health {
	return stage.Healthy("resolve")
}

// jobSettings returns the job's own target settings, falling back to the
// configured defaults when none were stored.
func jobSettings(cfg *config.Config, job *queue.Job) (resolve.TargetSettings, error) {
	if job.SettingsJSON == "" {
		return cfg.DefaultSettings(), nil
	}
	settings, err := resolve.UnmarshalSettings(job.SettingsJSON)
	if err != nil {
		return resolve.TargetSettings{}, services.Wrap(services.ErrValidation, "resolve", "unmarshal_settings",
			"stored target settings are corrupt", err)
	}
	return settings, nil
}
