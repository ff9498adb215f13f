package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"pagesmith/internal/catalog"
	"pagesmith/internal/config"
	"pagesmith/internal/discovery"
	"pagesmith/internal/logging"
	"pagesmith/internal/notifications"
	"pagesmith/internal/pipeline"
	"pagesmith/internal/preflight"
	"pagesmith/internal/staging"
	"pagesmith/internal/store"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var workers int
	var input string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Process every new source image in the input directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if workers > 0 {
				cfg.Pipeline.Workers = workers
			}
			if strings.TrimSpace(input) != "" {
				expanded, err := config.ExpandPath(input)
				if err != nil {
					return fmt.Errorf("resolve input directory: %w", err)
				}
				cfg.Paths.InputDir = expanded
			}
			if err := cfg.ValidateCredentials(); err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			if failures := preflight.Failures(preflight.RunAll(runCtx, cfg, preflight.Options{})); len(failures) > 0 {
				fmt.Fprintln(out, renderCheckTable(failures))
				return fmt.Errorf("preflight failed: %d check(s) did not pass (run `pagesmith check` for details)", len(failures))
			}

			lock, err := pipeline.AcquireLock(cfg.LockPath())
			if err != nil {
				return err
			}
			defer func() {
				if err := lock.Release(); err != nil {
					logger.Warn("release run lock failed", logging.Error(err), logging.String("lock", lock.Path()))
				}
			}()

			staging.CleanStale(runCtx, cfg.Paths.WorkDir, cfg.StaleWorkAge(), logger)

			found, err := discovery.Discover(cfg.Paths.InputDir, cfg.Pipeline.Patterns, cfg.Pipeline.DefaultSubcategory)
			if err != nil {
				return err
			}
			for _, skipped := range found.Skipped {
				logging.WarnWithContext(logger, "source image ignored", "discovery_skipped",
					logging.String(logging.FieldSource, skipped.Path),
					logging.String("reason", skipped.Reason),
					logging.String(logging.FieldImpact, "image is not processed"),
					logging.String(logging.FieldErrorHint, "move it into a category folder"),
				)
			}
			if len(found.Images) == 0 {
				fmt.Fprintf(out, "No source images found in %s\n", cfg.Paths.InputDir)
				return nil
			}

			return runBatch(runCtx, out, cmd.ErrOrStderr(), cfg, logger, found.Images)
		},
	}

	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Number of images processed in parallel (overrides pipeline.workers)")
	cmd.Flags().StringVarP(&input, "input", "i", "", "Input directory (overrides paths.input_dir)")
	return cmd
}

func runBatch(ctx context.Context, out, errOut io.Writer, cfg *config.Config, logger *slog.Logger, images []catalog.SourceImage) error {
	db, err := store.Open(ctx, cfg.DatabasePath())
	if err != nil {
		return err
	}
	defer db.Close()

	progress := newProgressReporter(errOut, len(images))
	runner, err := buildRunner(cfg, db, logger, runnerSetup{onProgress: progress.update})
	if err != nil {
		return err
	}

	notifier := notifications.NewService(cfg)
	notify := func(err error) {
		if err != nil {
			logger.Warn("notification failed",
				logging.Error(err),
				logging.String(logging.FieldEventType, "notify_failed"),
				logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
			)
		}
	}
	notify(notifier.NotifyRunStarted(ctx, len(images)))

	started := time.Now()
	summary, runErr := runner.Run(ctx, images)
	progress.finish()

	fmt.Fprintln(out, renderSummary(summary))
	// ctx may be cancelled by now; notifications still go out.
	notifyCtx := context.WithoutCancel(ctx)
	if runErr != nil {
		notify(notifier.NotifyError(notifyCtx, runErr, "run"))
		return runErr
	}
	notify(notifier.NotifyRunCompleted(notifyCtx, notifications.RunCounts{
		Processed: summary.Processed,
		Skipped:   summary.Skipped,
		Failed:    summary.Failed,
		Duration:  time.Since(started),
	}))
	if summary.Failed > 0 {
		return fmt.Errorf("%d image(s) failed; see the log for details", summary.Failed)
	}
	return nil
}

func renderSummary(summary pipeline.Summary) string {
	counts := renderTable(
		[]string{"Processed", "Skipped", "Failed"},
		[][]string{{strconv.Itoa(summary.Processed), strconv.Itoa(summary.Skipped), strconv.Itoa(summary.Failed)}},
		[]columnAlignment{alignRight, alignRight, alignRight},
		"",
	)
	if len(summary.Failures) == 0 {
		return counts
	}
	rows := make([][]string, 0, len(summary.Failures))
	for _, f := range summary.Failures {
		rows = append(rows, []string{f.Path, f.Stage, f.Cause, logging.ShortDigest(f.Digest)})
	}
	return counts + "\n" + renderTable([]string{"Source", "Stage", "Cause", "Digest"}, rows, nil, "")
}
