package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"pagesmith/internal/logging"
	"pagesmith/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var (
		lines     int
		follow    bool
		digest    string
		level     string
		component string
		stage     string
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the JSON run log",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			filter := logs.Filter{
				Digest:    strings.TrimSpace(digest),
				Component: strings.TrimSpace(component),
				Stage:     strings.TrimSpace(stage),
			}
			if level != "" {
				var minLevel slog.Level
				if err := minLevel.UnmarshalText([]byte(level)); err != nil {
					return fmt.Errorf("invalid --level %q: %w", level, err)
				}
				filter.MinLevel = minLevel
			}

			path := filepath.Join(cfg.Paths.LogDir, logging.LogFileName)
			out := cmd.OutOrStdout()
			tail, offset, err := logs.Tail(path, lines, filter)
			if err != nil {
				return err
			}
			for _, line := range tail {
				fmt.Fprintln(out, line)
			}
			if !follow {
				return nil
			}

			followCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return logs.Follow(followCtx, path, offset, 500*time.Millisecond, filter, func(line string) {
				fmt.Fprintln(out, line)
			})
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines as they are written")
	cmd.Flags().StringVar(&digest, "digest", "", "Only lines for this content digest (prefix match)")
	cmd.Flags().StringVar(&level, "level", "", "Minimum level (debug, info, warn, error)")
	cmd.Flags().StringVar(&component, "component", "", "Only lines from this component")
	cmd.Flags().StringVar(&stage, "stage", "", "Only lines from this pipeline stage")
	return cmd
}
