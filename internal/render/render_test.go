package render_test

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagesmith/internal/imaging"
	"pagesmith/internal/procexec"
	"pagesmith/internal/render"
	"pagesmith/internal/services"
)

func writeGreyPNG(path string, w, h int) error {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 200
	}
	img.SetGray(1, 1, color.Gray{Y: 100})
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func TestRenderInvokesInkscapeAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "thumb.png")
	var got procexec.Command
	exec := procexec.Func(func(_ context.Context, cmd procexec.Command) (procexec.Result, error) {
		got = cmd
		return procexec.Result{}, writeGreyPNG(cmd.Args[len(cmd.Args)-1], 350, 495)
	})

	r := render.New(render.Options{Binary: "inkscape", Width: 350}, exec, nil)
	require.NoError(t, r.Render(context.Background(), filepath.Join(dir, "page.svg"), out))

	assert.Equal(t, []string{
		filepath.Join(dir, "page.svg"),
		"--export-type=png",
		"--export-width=350",
		"--export-area-page",
		"--export-background=white",
		"--export-background-opacity=1",
		"--export-filename", out,
	}, got.Args)

	stats, err := imaging.Inspect(out)
	require.NoError(t, err)
	assert.Equal(t, 350, stats.Width)
	assert.Equal(t, uint8(0), stats.Min, "contrast stretched")
	assert.Equal(t, uint8(255), stats.Max)
}

func TestRenderEmptyOutputIsToolFailure(t *testing.T) {
	exec := procexec.Func(func(_ context.Context, cmd procexec.Command) (procexec.Result, error) {
		return procexec.Result{}, os.WriteFile(cmd.Args[len(cmd.Args)-1], nil, 0o644)
	})
	err := render.New(render.Options{Binary: "inkscape", Width: 350}, exec, nil).
		Render(context.Background(), "page.svg", filepath.Join(t.TempDir(), "thumb.png"))
	assert.ErrorIs(t, err, services.ErrExternalTool)
}

func TestRenderToolNotFound(t *testing.T) {
	exec := procexec.Func(func(context.Context, procexec.Command) (procexec.Result, error) {
		return procexec.Result{}, services.Wrap(services.ErrToolNotFound, "procexec", "start", "inkscape", nil)
	})
	err := render.New(render.Options{Binary: "inkscape", Width: 350}, exec, nil).
		Render(context.Background(), "page.svg", filepath.Join(t.TempDir(), "thumb.png"))
	assert.ErrorIs(t, err, services.ErrToolNotFound)
}
