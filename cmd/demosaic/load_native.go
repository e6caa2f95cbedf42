//go:build !purego && !js

package main

import (
	"fmt"

	"gocv.io/x/gocv"

	dm "demosaic/pkg/demosaic"
)

// loadRawImage reads a mosaic stored as a single-channel image file,
// preserving its bit depth. Demosaic input is photosite data, so a color
// image is rejected rather than flattened.
func loadRawImage(path string) (*dm.Mosaic, error) {
	src := gocv.IMRead(path, gocv.IMReadUnchanged)
	if src.Empty() {
		return nil, fmt.Errorf("could not load image: %s", path)
	}
	defer src.Close()

	if src.Channels() != 1 {
		return nil, fmt.Errorf("%s has %d channels, raw mosaic data must be single-channel", path, src.Channels())
	}

	var scale float32
	switch src.Type() {
	case gocv.MatTypeCV8U:
		scale = 1.0 / 255.0
	case gocv.MatTypeCV16U:
		scale = 1.0 / 65535.0
	case gocv.MatTypeCV32F:
		scale = 1.0
	default:
		return nil, fmt.Errorf("unsupported image depth (type %d)", src.Type())
	}

	w, h := src.Cols(), src.Rows()
	floatMat := gocv.NewMat()
	defer floatMat.Close()
	src.ConvertTo(&floatMat, gocv.MatTypeCV32F)

	data, err := floatMat.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("reading image data: %w", err)
	}
	m := dm.NewMosaic(w, h, dm.MonochromeCFA())
	for i := 0; i < w*h; i++ {
		m.Pix[i] = data[i] * scale
	}
	return m, nil
}

func registerAccelerator() error {
	return dm.RegisterAccelerator(dm.NewOpenCVAccelerator())
}
