package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gofrs/flock"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"shrinkray/internal/deps"
	"shrinkray/internal/encoding"
	"shrinkray/internal/logging"
	"shrinkray/internal/preflight"
	"shrinkray/internal/queue"
	"shrinkray/internal/workflow"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Process the queue until it drains",
		Long: "Run processes every pending job in order: probe, resolve, encode, and\n" +
			"size gate. Failed jobs are recorded and the batch continues. With --watch\n" +
			"the process stays alive and picks up jobs as they are added.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, ctx, watch)
		},
	}

	cmd.Flags().BoolVar(&watch, "watch", false, "Keep running and poll for new jobs")

	return cmd
}

func runBatch(cmd *cobra.Command, ctx *commandContext, watch bool) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return err
	}

	signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	lock := flock.New(filepath.Join(cfg.Paths.LogDir, "shrinkray.lock"))
	held, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire run lock: %w", err)
	}
	if !held {
		return errors.New("another shrinkray run is already active")
	}
	defer lock.Unlock()

	results := preflight.Run(cfg)
	if msg := preflight.Failures(results); msg != "" {
		return fmt.Errorf("preflight failed: %s", msg)
	}
	if missing := deps.MissingRequired(deps.CheckSystemDeps(cfg)); len(missing) > 0 {
		return fmt.Errorf("missing required dependencies: %s", strings.Join(missing, ", "))
	}

	store, err := queue.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if reset, err := store.ResetStuckProcessing(signalCtx); err != nil {
		return err
	} else if reset > 0 {
		logger.Info("reset interrupted jobs", logging.Int64("count", reset))
	}

	encoder := encoding.NewFFmpeg(encoding.WithBinary(cfg.FFmpegBinary()))
	manager := workflow.NewManager(cfg, store, encoder, logger)

	if watch {
		fmt.Fprintln(cmd.OutOrStdout(), "Watching queue; press Ctrl-C to stop")
		if err := manager.Run(signalCtx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	}

	health, err := store.Health(signalCtx)
	if err != nil {
		return err
	}
	pending := health.Pending + health.Processing
	if pending == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
		return nil
	}

	baseline := health.Completed + health.Failed
	progressDone := make(chan struct{})
	go trackBatchProgress(signalCtx, store, pending, baseline, progressDone)

	summary, err := manager.RunAll(signalCtx)
	interrupted := signalCtx.Err() != nil
	cancel()
	<-progressDone
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	printSummary(cmd, summary)
	if interrupted {
		fmt.Fprintln(cmd.OutOrStdout(), "Interrupted; remaining jobs stay queued")
	}
	return nil
}

// trackBatchProgress renders a terminal progress bar over the batch by
// polling completion counts. Jobs finished before this batch are excluded
// via baseline. Non-terminal output gets no bar.
func trackBatchProgress(ctx context.Context, store *queue.Store, total, baseline int, done chan<- struct{}) {
	defer close(done)
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		<-ctx.Done()
		return
	}

	bar := progressbar.NewOptions(total,
		progressbar.OptionSetDescription("Compressing"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetWriter(os.Stdout),
	)

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			_ = bar.Finish()
			return
		case <-ticker.C:
			health, err := store.Health(ctx)
			if err != nil {
				continue
			}
			_ = bar.Set(health.Completed + health.Failed - baseline)
		}
	}
}

func printSummary(cmd *cobra.Command, summary workflow.Summary) {
	out := cmd.OutOrStdout()
	if summary.Processed() == 0 {
		fmt.Fprintln(out, "No jobs processed")
		return
	}
	fmt.Fprintf(out, "Processed %d job(s): %d completed, %d failed\n",
		summary.Processed(), summary.Completed, summary.Failed)
	if summary.SavedBytes > 0 {
		fmt.Fprintf(out, "Saved %s\n", humanize.IBytes(uint64(summary.SavedBytes)))
	}
}
