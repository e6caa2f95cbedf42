//go:build !purego && !js

package demosaic

import (
	"gocv.io/x/gocv"
)

// OpenCVAccelerator runs eligible Bayer reconstructions through OpenCV's
// demosaicing kernels. The mosaic is staged through a 16-bit mat, so the
// backend trades a little precision for throughput; methods that must
// stay bit-exact remain CPU-only.
type OpenCVAccelerator struct{}

// NewOpenCVAccelerator creates the OpenCV-backed accelerator.
func NewOpenCVAccelerator() *OpenCVAccelerator { return &OpenCVAccelerator{} }

func (*OpenCVAccelerator) Name() string { return "opencv" }

func (*OpenCVAccelerator) Init() error { return nil }

func (*OpenCVAccelerator) Close() {}

// CanAccelerate limits the backend to non-dual base methods on plain
// Bayer data. Everything else stays on the CPU path.
func (*OpenCVAccelerator) CanAccelerate(m Method, cfa CFA) bool {
	if cfa.Kind != PatternBayer || m.IsDual() {
		return false
	}
	switch m.Base() {
	case MethodPPG, MethodVNG4, MethodRCD, MethodAMaZE:
		return true
	}
	return false
}

// bayerConversionCode maps the 2x2 order at the window origin to the
// OpenCV conversion code. OpenCV names its codes after the second row of
// the pattern, hence the crossed mapping.
func bayerConversionCode(cfa CFA, offsetX, offsetY int) (gocv.ColorConversionCode, bool) {
	switch cfa.Shift(offsetX, offsetY).PatternString() {
	case "RGGB":
		return gocv.ColorBayerBGToBGR, true
	case "BGGR":
		return gocv.ColorBayerRGToBGR, true
	case "GRBG":
		return gocv.ColorBayerGBToBGR, true
	case "GBRG":
		return gocv.ColorBayerGRToBGR, true
	}
	return 0, false
}

// Demosaic converts one mosaic window to interleaved RGBA float32.
func (*OpenCVAccelerator) Demosaic(pix []float32, width, height, offsetX, offsetY int, cfa CFA, m Method) ([]float32, error) {
	code, ok := bayerConversionCode(cfa, offsetX, offsetY)
	if !ok {
		return nil, ErrBackendUnavailable
	}
	staged := gocv.NewMatWithSize(height, width, gocv.MatTypeCV16U)
	defer staged.Close()
	data, err := staged.DataPtrUint16()
	if err != nil {
		return nil, err
	}
	for i, v := range pix {
		data[i] = uint16(clamp32(v, 0, 1)*65535 + 0.5)
	}

	rgb := gocv.NewMat()
	defer rgb.Close()
	gocv.CvtColor(staged, &rgb, code)
	if rgb.Empty() || rgb.Channels() != 3 {
		return nil, ErrBackendUnavailable
	}
	out16, err := rgb.DataPtrUint16()
	if err != nil {
		return nil, err
	}

	dst := make([]float32, width*height*4)
	for p := 0; p < width*height; p++ {
		// OpenCV emits BGR order.
		dst[p*4] = float32(out16[p*3+2]) / 65535
		dst[p*4+1] = float32(out16[p*3+1]) / 65535
		dst[p*4+2] = float32(out16[p*3]) / 65535
		dst[p*4+3] = 1
	}
	return dst, nil
}
