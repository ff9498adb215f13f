// Package tracer converts a source raster into vector path geometry by
// preprocessing it into a grayscale bitmap and running potrace.
//
// Tool failures are never retried: a missing binary is ErrToolNotFound, and a
// nonzero exit, a timeout or an empty result is ErrExternalTool.
package tracer

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"pagesmith/internal/imaging"
	"pagesmith/internal/logging"
	"pagesmith/internal/procexec"
	"pagesmith/internal/services"
)

const (
	inputName  = "trace-input.pgm"
	outputName = "trace.svg"
)

// Options are the potrace parameters.
type Options struct {
	Binary       string
	Timeout      time.Duration
	BlackLevel   float64
	TurdSize     int
	AlphaMax     float64
	OptTolerance float64
	Autocrop     bool
}

// Result points at the traced SVG inside the item's working directory.
type Result struct {
	SVGPath string
}

// Tracer runs potrace through an Executor.
type Tracer struct {
	opts   Options
	exec   procexec.Executor
	logger *slog.Logger
}

// New returns a Tracer. A nil executor runs real processes.
func New(opts Options, exec procexec.Executor, logger *slog.Logger) *Tracer {
	if exec == nil {
		exec = procexec.OS{}
	}
	return &Tracer{opts: opts, exec: exec, logger: logging.NewComponentLogger(logger, "tracer")}
}

// Trace preprocesses src into workDir and vectorizes it.
func (t *Tracer) Trace(ctx context.Context, src image.Image, workDir string) (Result, error) {
	bitmap := imaging.Preprocess(src, t.opts.Autocrop)
	bounds := bitmap.Bounds()

	input := filepath.Join(workDir, inputName)
	if err := imaging.WritePGM(input, bitmap); err != nil {
		return Result{}, services.Wrap(services.ErrExternalTool, "trace", "write bitmap", input, err)
	}
	output := filepath.Join(workDir, outputName)

	cmd := procexec.Command{
		Binary:  t.opts.Binary,
		Args:    t.args(input, output),
		Timeout: t.opts.Timeout,
		Dir:     workDir,
	}
	logger := logging.WithContext(ctx, t.logger)
	logger.Debug("potrace starting",
		logging.String("command", cmd.String()),
		logging.Int("bitmap_width", bounds.Dx()),
		logging.Int("bitmap_height", bounds.Dy()),
	)

	res, err := t.exec.Run(ctx, cmd)
	if err != nil {
		return Result{}, fmt.Errorf("potrace: %w", err)
	}
	info, err := os.Stat(output)
	if err != nil || info.Size() == 0 {
		return Result{}, services.Wrap(services.ErrExternalTool, "trace", "potrace",
			fmt.Sprintf("no svg produced (stderr: %s)", procexec.Tail(res.Stderr, 200)), err)
	}

	logger.Debug("potrace finished",
		logging.Duration("duration", res.Duration),
		logging.Int64("svg_bytes", info.Size()),
	)
	return Result{SVGPath: output}, nil
}

func (t *Tracer) args(input, output string) []string {
	return []string{
		input,
		"-s",
		"-o", output,
		"-k", formatFloat(t.opts.BlackLevel),
		"--turdsize", strconv.Itoa(t.opts.TurdSize),
		"--alphamax", formatFloat(t.opts.AlphaMax),
		"--opttolerance", formatFloat(t.opts.OptTolerance),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
