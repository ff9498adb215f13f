// Package render rasterizes composed pages into PNG thumbnails with
// inkscape and normalizes their contrast.
package render

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"pagesmith/internal/imaging"
	"pagesmith/internal/logging"
	"pagesmith/internal/procexec"
	"pagesmith/internal/services"
)

// Options configure the inkscape invocation.
type Options struct {
	Binary  string
	Timeout time.Duration
	Width   int
}

// Renderer produces thumbnails through an Executor.
type Renderer struct {
	opts   Options
	exec   procexec.Executor
	logger *slog.Logger
}

// New returns a Renderer. A nil executor runs real processes.
func New(opts Options, exec procexec.Executor, logger *slog.Logger) *Renderer {
	if exec == nil {
		exec = procexec.OS{}
	}
	return &Renderer{opts: opts, exec: exec, logger: logging.NewComponentLogger(logger, "renderer")}
}

// Render exports svgPath as a PNG of the configured width at out. The page
// area is exported on an opaque white background; inkscape derives the
// height from the page aspect ratio.
func (r *Renderer) Render(ctx context.Context, svgPath, out string) error {
	cmd := procexec.Command{
		Binary: r.opts.Binary,
		Args: []string{
			svgPath,
			"--export-type=png",
			"--export-width=" + strconv.Itoa(r.opts.Width),
			"--export-area-page",
			"--export-background=white",
			"--export-background-opacity=1",
			"--export-filename", out,
		},
		Timeout: r.opts.Timeout,
	}
	logger := logging.WithContext(ctx, r.logger)
	logger.Debug("inkscape starting", logging.String("command", cmd.String()))

	res, err := r.exec.Run(ctx, cmd)
	if err != nil {
		return fmt.Errorf("inkscape: %w", err)
	}
	info, err := os.Stat(out)
	if err != nil || info.Size() == 0 {
		return services.Wrap(services.ErrExternalTool, "render", "inkscape",
			fmt.Sprintf("no png produced (stderr: %s)", procexec.Tail(res.Stderr, 200)), err)
	}
	if err := imaging.NormalizeFile(out); err != nil {
		return services.Wrap(services.ErrExternalTool, "render", "normalize", out, err)
	}
	logger.Debug("thumbnail rendered",
		logging.Duration("duration", res.Duration),
		logging.Int64("png_bytes", info.Size()),
	)
	return nil
}
