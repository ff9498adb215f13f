package testsupport

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// EncodePNG writes a white w×h grayscale PNG with one black square. The
// square's offset is derived from seed so different seeds give different
// bytes while the same seed always gives identical bytes.
func EncodePNG(path string, w, h, seed int) error {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	side := max(w/4, 1)
	off := seed % max(min(w, h)/2, 1)
	for y := off; y < off+side && y < h; y++ {
		for x := off; x < off+side && x < w; x++ {
			img.SetGray(x, y, color.Gray{})
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
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

// WritePNG is EncodePNG for test setup; failures abort the test.
func WritePNG(t testing.TB, path string, w, h, seed int) {
	t.Helper()
	if err := EncodePNG(path, w, h, seed); err != nil {
		t.Fatalf("write png %s: %v", path, err)
	}
}
