package imaging

import (
	"bufio"
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"os"

	"github.com/disintegration/imaging"

	"pagesmith/internal/services"
)

// Decode parses raw image bytes. Undecodable input is ErrInvalidSource.
func Decode(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, services.Wrap(services.ErrInvalidSource, "imaging", "decode", "unreadable image", err)
	}
	if b := img.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		return nil, services.Wrap(services.ErrInvalidSource, "imaging", "decode", "empty image", nil)
	}
	return img, nil
}

// DetectMIME sniffs the content type of image bytes.
func DetectMIME(data []byte) string {
	return http.DetectContentType(data)
}

// Flatten composites img over an opaque white canvas of the same size.
func Flatten(img image.Image) *image.NRGBA {
	b := img.Bounds()
	canvas := imaging.New(b.Dx(), b.Dy(), color.White)
	return imaging.Overlay(canvas, img, image.Pt(0, 0), 1.0)
}

// Grayscale flattens and desaturates img. R, G and B carry the same value.
func Grayscale(img image.Image) *image.NRGBA {
	return imaging.Grayscale(Flatten(img))
}

// Extrema returns the darkest and brightest intensity of a grayscale image.
func Extrema(img *image.NRGBA) (lo, hi uint8) {
	lo, hi = 255, 0
	b := img.Bounds()
	for y := 0; y < b.Dy(); y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+b.Dx()*4]
		for x := 0; x < len(row); x += 4 {
			v := row[x]
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
	}
	if lo > hi {
		return 0, 0
	}
	return lo, hi
}

// AutoContrast stretches the intensity range of a grayscale image to the
// full 0..255 span. Flat images are returned unchanged.
func AutoContrast(img *image.NRGBA) *image.NRGBA {
	lo, hi := Extrema(img)
	if hi <= lo || (lo == 0 && hi == 255) {
		return img
	}
	span := float64(hi - lo)
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		stretch := func(v uint8) uint8 {
			if v <= lo {
				return 0
			}
			if v >= hi {
				return 255
			}
			return uint8(float64(v-lo)*255/span + 0.5)
		}
		return color.NRGBA{R: stretch(c.R), G: stretch(c.G), B: stretch(c.B), A: c.A}
	})
}

// ForegroundBounds returns the bounding box of every pixel that is not pure
// white. ok is false when the image is blank.
func ForegroundBounds(img *image.NRGBA) (image.Rectangle, bool) {
	b := img.Bounds()
	minX, minY, maxX, maxY := b.Dx(), b.Dy(), -1, -1
	for y := 0; y < b.Dy(); y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+b.Dx()*4]
		for x := 0; x < b.Dx(); x++ {
			if row[x*4] == 255 {
				continue
			}
			minX = min(minX, x)
			maxX = max(maxX, x)
			minY = min(minY, y)
			maxY = max(maxY, y)
		}
	}
	if maxX < 0 {
		return image.Rectangle{}, false
	}
	return image.Rect(minX, minY, maxX+1, maxY+1), true
}

// Preprocess converts a decoded source image into the bitmap handed to the
// tracer: flattened, grayscale, contrast-stretched and, when autocrop is set,
// cropped to the foreground.
func Preprocess(img image.Image, autocrop bool) *image.NRGBA {
	gray := AutoContrast(Grayscale(img))
	if !autocrop {
		return gray
	}
	if box, ok := ForegroundBounds(gray); ok && box != gray.Bounds() {
		return imaging.Crop(gray, box)
	}
	return gray
}

// WritePGM stores a grayscale image as binary PGM (P5), the format potrace
// reads natively.
func WritePGM(path string, img *image.NRGBA) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create pgm: %w", err)
	}
	w := bufio.NewWriter(file)
	b := img.Bounds()
	if _, err := fmt.Fprintf(w, "P5\n%d %d\n255\n", b.Dx(), b.Dy()); err != nil {
		_ = file.Close()
		return fmt.Errorf("write pgm header: %w", err)
	}
	for y := 0; y < b.Dy(); y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+b.Dx()*4]
		for x := 0; x < len(row); x += 4 {
			if err := w.WriteByte(row[x]); err != nil {
				_ = file.Close()
				return fmt.Errorf("write pgm: %w", err)
			}
		}
	}
	if err := w.Flush(); err != nil {
		_ = file.Close()
		return fmt.Errorf("write pgm: %w", err)
	}
	return file.Close()
}

// NormalizeFile rewrites the PNG at path as a contrast-stretched grayscale
// image on white.
func NormalizeFile(path string) error {
	img, err := imaging.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	out := AutoContrast(Grayscale(img))
	if err := imaging.Save(out, path, imaging.PNGCompressionLevel(png.BestCompression)); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// Stats summarizes a raster file for validation.
type Stats struct {
	Width  int
	Height int
	Min    uint8
	Max    uint8
}

// Inspect opens path and reports its size and grayscale intensity range.
func Inspect(path string) (Stats, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return Stats{}, fmt.Errorf("open %s: %w", path, err)
	}
	b := img.Bounds()
	lo, hi := Extrema(Grayscale(img))
	return Stats{Width: b.Dx(), Height: b.Dy(), Min: lo, Max: hi}, nil
}
