//go:build purego || js

package main

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	dm "demosaic/pkg/demosaic"
)

// loadRawImage reads a mosaic stored as an image file. Grayscale inputs
// round-trip exactly, color inputs collapse to luminance.
func loadRawImage(path string) (*dm.Mosaic, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	m := dm.NewMosaic(w, h, dm.MonochromeCFA())
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			gray := (19595*r + 38470*g + 7471*b + 1<<15) >> 16
			m.Pix[y*w+x] = float32(gray) / 65535.0
		}
	}
	return m, nil
}

func registerAccelerator() error {
	return errors.New("accelerated backend requires the native build")
}
