package demosaic

// b3Kernel is the separable B3 spline scaling kernel used by the a-trous
// smoothing layers.
var b3Kernel = [5]float32{0.0625, 0.25, 0.375, 0.25, 0.0625}

// atrousSmooth applies one separable B3 spline layer with taps spread
// 1<<layer apart. Edges clamp.
func atrousSmooth(src plane, layer, workers int) plane {
	step := 1 << layer
	tmp := newPlane(src.w, src.h)
	parallelRows(workers, 0, src.h, func(start, end int) {
		for y := start; y < end; y++ {
			for x := 0; x < src.w; x++ {
				var v float32
				for k := -2; k <= 2; k++ {
					v += b3Kernel[k+2] * src.at(x+k*step, y)
				}
				tmp.set(x, y, v)
			}
		}
	})
	out := newPlane(src.w, src.h)
	parallelRows(workers, 0, src.h, func(start, end int) {
		for y := start; y < end; y++ {
			for x := 0; x < src.w; x++ {
				var v float32
				for k := -2; k <= 2; k++ {
					v += b3Kernel[k+2] * tmp.at(x, y+k*step)
				}
				out.set(x, y, v)
			}
		}
	})
	return out
}

// dualMaskScale converts the user-facing dual threshold into the
// luminance residual that saturates the mask.
const dualMaskScale = 0.1

// detailMask rates local high-frequency content of a reconstruction in
// [0, 1]: the magnitude of what two B3 wavelet layers remove from the
// luminance, normalized by the threshold and lightly smoothed. Flat
// regions score zero, busy texture saturates to one.
func detailMask(img *Image, threshold float32, workers int) []float32 {
	w, h := img.Width, img.Height
	lum := newPlane(w, h)
	parallelRows(workers, 0, h, func(start, end int) {
		for y := start; y < end; y++ {
			for x := 0; x < w; x++ {
				i := (y*w + x) * 4
				lum.set(x, y, (img.Pix[i]+img.Pix[i+1]+img.Pix[i+2])/3)
			}
		}
	})
	smooth := atrousSmooth(atrousSmooth(lum, 0, workers), 1, workers)
	norm := threshold*dualMaskScale + 1e-9
	raw := newPlane(w, h)
	parallelRows(workers, 0, h, func(start, end int) {
		for y := start; y < end; y++ {
			for x := 0; x < w; x++ {
				raw.set(x, y, clamp32(abs32(lum.at(x, y)-smooth.at(x, y))/norm, 0, 1))
			}
		}
	})
	mask := atrousSmooth(raw, 0, workers)
	for i, v := range mask.pix {
		mask.pix[i] = clamp32(v, 0, 1)
	}
	return mask.pix
}
