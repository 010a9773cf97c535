package main

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"shrinkray/internal/config"
	"shrinkray/internal/encoding"
	"shrinkray/internal/queue"
	"shrinkray/internal/workflow"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the compression queue",
	}

	queueCmd.AddCommand(newQueueStatusCommand(ctx))
	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueRemoveCommand(ctx))
	queueCmd.AddCommand(newQueueClearCommand(ctx))
	queueCmd.AddCommand(newQueueRetryCommand(ctx))
	queueCmd.AddCommand(newQueueHealthCommand(ctx))

	return queueCmd
}

func newQueueStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show queue status summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					byStatus := make(map[string]int, len(stats))
					for status, count := range stats {
						byStatus[string(status)] = count
					}
					return writeJSON(cmd, map[string]any{"statuses": byStatus})
				}
				rows := buildQueueStatusRows(stats)
				if len(rows) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}
				table := renderTable([]string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight})
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")

	return cmd
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var listStatuses []string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queued jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				statuses := make([]queue.Status, 0, len(listStatuses))
				for _, raw := range listStatuses {
					status, ok := queue.ParseStatus(raw)
					if !ok {
						return fmt.Errorf("unknown status %q", raw)
					}
					statuses = append(statuses, status)
				}

				jobs, err := store.List(cmd.Context(), statuses...)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, map[string]any{"jobs": buildQueueListItems(jobs)})
				}
				if len(jobs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}

				table := renderTable(
					[]string{"ID", "File", "Kind", "Status", "Outcome", "Saved", "Created"},
					buildQueueListRows(jobs),
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
				)
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&listStatuses, "status", nil, "Filter by status (repeatable)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")

	return cmd
}

func newQueueRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>...",
		Short: "Remove jobs from the queue",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parsePositiveIDs(args)
			if err != nil {
				return err
			}
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				for _, id := range ids {
					removed, err := store.Remove(cmd.Context(), id)
					if err != nil {
						return err
					}
					if removed {
						fmt.Fprintf(cmd.OutOrStdout(), "Job %d removed\n", id)
					} else {
						fmt.Fprintf(cmd.OutOrStdout(), "Job %d not found\n", id)
					}
				}
				return nil
			})
		},
	}
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	var clearCompleted bool
	var clearFailed bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear queue jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				var removed int64
				var err error
				switch {
				case clearCompleted:
					removed, err = store.ClearCompleted(cmd.Context())
				case clearFailed:
					removed, err = store.ClearFailed(cmd.Context())
				default:
					removed, err = store.Clear(cmd.Context())
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d job(s)\n", removed)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&clearCompleted, "completed", false, "Only clear completed jobs")
	cmd.Flags().BoolVar(&clearFailed, "failed", false, "Only clear failed jobs")
	cmd.MarkFlagsMutuallyExclusive("completed", "failed")

	return cmd
}

func newQueueRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry [id]...",
		Short: "Reset failed jobs for another attempt",
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parsePositiveIDs(args)
			if err != nil {
				return err
			}
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				updated, err := store.RetryFailed(cmd.Context(), ids...)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Reset %d job(s) for retry\n", updated)
				return nil
			})
		},
	}
}

func newQueueHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show queue database health",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				health, err := store.Health(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Database: %s\n", store.Path())
				fmt.Fprintf(out, "Total:      %d\n", health.Total)
				fmt.Fprintf(out, "Pending:    %d\n", health.Pending)
				fmt.Fprintf(out, "Processing: %d\n", health.Processing)
				fmt.Fprintf(out, "Completed:  %d\n", health.Completed)
				fmt.Fprintf(out, "Failed:     %d\n", health.Failed)

				logger, err := ctx.ensureLogger()
				if err != nil {
					return err
				}
				encoder := encoding.NewFFmpeg(encoding.WithBinary(cfg.FFmpegBinary()))
				manager := workflow.NewManager(cfg, store, encoder, logger)
				fmt.Fprintln(out, "Stages:")
				for _, stageHealth := range manager.StageHealth(cmd.Context()) {
					state := "ready"
					if !stageHealth.Ready {
						state = "not ready"
					}
					if stageHealth.Detail != "" {
						fmt.Fprintf(out, "  %-8s %s (%s)\n", stageHealth.Name, state, stageHealth.Detail)
					} else {
						fmt.Fprintf(out, "  %-8s %s\n", stageHealth.Name, state)
					}
				}
				return nil
			})
		},
	}
}

func parsePositiveIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid job id %q", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func buildQueueStatusRows(stats map[queue.Status]int) [][]string {
	ordered := queue.AllStatuses()
	rows := make([][]string, 0, len(stats))
	for _, status := range ordered {
		count, ok := stats[status]
		if !ok {
			continue
		}
		rows = append(rows, []string{string(status), strconv.Itoa(count)})
	}
	// Anything not in the canonical order still gets a row.
	var extra []string
	for status := range stats {
		if !containsStatus(ordered, status) {
			extra = append(extra, string(status))
		}
	}
	sort.Strings(extra)
	for _, status := range extra {
		rows = append(rows, []string{status, strconv.Itoa(stats[queue.Status(status)])})
	}
	return rows
}

func containsStatus(statuses []queue.Status, status queue.Status) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

type queueListItem struct {
	ID         int64  `json:"id"`
	SourcePath string `json:"source_path"`
	Kind       string `json:"kind"`
	Status     string `json:"status"`
	Outcome    string `json:"outcome,omitempty"`
	SavedBytes int64  `json:"saved_bytes,omitempty"`
	Error      string `json:"error,omitempty"`
	CreatedAt  string `json:"created_at"`
}

func buildQueueListItems(jobs []*queue.Job) []queueListItem {
	items := make([]queueListItem, 0, len(jobs))
	for _, job := range jobs {
		items = append(items, queueListItem{
			ID:         job.ID,
			SourcePath: job.SourcePath,
			Kind:       job.Kind,
			Status:     string(job.Status),
			Outcome:    string(job.Outcome),
			SavedBytes: job.SavedBytes(),
			Error:      job.ErrorMessage,
			CreatedAt:  job.CreatedAt.Format(time.RFC3339),
		})
	}
	return items
}

func buildQueueListRows(jobs []*queue.Job) [][]string {
	rows := make([][]string, 0, len(jobs))
	for _, job := range jobs {
		saved := ""
		if bytes := job.SavedBytes(); bytes > 0 {
			saved = humanize.IBytes(uint64(bytes))
		}
		rows = append(rows, []string{
			strconv.FormatInt(job.ID, 10),
			filepath.Base(job.SourcePath),
			job.Kind,
			string(job.Status),
			string(job.Outcome),
			saved,
			job.CreatedAt.Local().Format(time.DateTime),
		})
	}
	return rows
}
