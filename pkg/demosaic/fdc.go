package demosaic

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"
)

const (
	fdcRadius  = 8
	fdcFFTSize = 32
)

// fdcKernelCache holds the separable chroma low-pass used by the FDC
// reconstruction. The taps are designed in the frequency domain once on
// first use: a raised-cosine low-pass response is transformed back to a
// spatial impulse, Hann windowed to the kernel radius and normalized to
// unit gain.
type fdcKernelCache struct {
	once sync.Once
	taps [2*fdcRadius + 1]float32
}

var fdcKernel fdcKernelCache

func (c *fdcKernelCache) build() {
	c.once.Do(func() {
		fft := fourier.NewFFT(fdcFFTSize)
		coeffs := make([]complex128, fdcFFTSize/2+1)
		for k := range coeffs {
			coeffs[k] = complex(fdcResponse(k), 0)
		}
		seq := fft.Sequence(nil, coeffs)
		var taps [2*fdcRadius + 1]float64
		var sum float64
		for o := -fdcRadius; o <= fdcRadius; o++ {
			v := seq[(o+fdcFFTSize)%fdcFFTSize]
			v *= 0.5 * (1 + math.Cos(math.Pi*float64(o)/(fdcRadius+1)))
			taps[o+fdcRadius] = v
			sum += v
		}
		for i, v := range taps {
			c.taps[i] = float32(v / sum)
		}
	})
}

// fdcResponse is the target frequency response over the positive bins:
// unity passband, raised-cosine rolloff, zero stopband.
func fdcResponse(k int) float64 {
	const pass, stop = 3, 9
	switch {
	case k <= pass:
		return 1
	case k >= stop:
		return 0
	default:
		x := float64(k-pass) / float64(stop-pass)
		c := math.Cos(math.Pi / 2 * x)
		return c * c
	}
}

// reconstructFDC runs the frequency-domain-chroma reconstruction for
// X-Trans mosaics: Markesteijn green, then red and blue rebuilt from
// color differences low-passed by the designed kernel. Sites of the
// wanted color contribute their difference, weighted by the separable
// taps, and the result is renormalized by the weight actually gathered.
func reconstructFDC(dst *Image, t *rawTile, rp *ResolvedParams) {
	w := t.width
	cfa := tilePlane(t)
	phases := buildMarkPhases(t.cfa)
	green := markesteijnGreen(t, cfa, phases, 1)
	fdcKernel.build()
	taps := &fdcKernel.taps

	parallelRows(t.workers, 0, t.height, func(start, end int) {
		for y := start; y < end; y++ {
			py := mod6(t.y0 + y)
			for x := 0; x < w; x++ {
				i := (y*w + x) * 4
				g := green.at(x, y)
				dst.Pix[i+1] = g
				own := t.color(x, y)
				for _, c := range [2]int{ChanRed, ChanBlue} {
					slot := i
					if c == ChanBlue {
						slot = i + 2
					}
					if own == c {
						dst.Pix[slot] = cfa.at(x, y)
						continue
					}
					var num, den float32
					for oy := -fdcRadius; oy <= fdcRadius; oy++ {
						wy := taps[oy+fdcRadius]
						for ox := -fdcRadius; ox <= fdcRadius; ox++ {
							qx, qy := x+ox, y+oy
							if t.color(qx, qy) != c {
								continue
							}
							wq := wy * taps[ox+fdcRadius]
							num += wq * (cfa.at(qx, qy) - green.at(qx, qy))
							den += wq
						}
					}
					if abs32(den) > 1e-9 {
						dst.Pix[slot] = g + num/den
						continue
					}
					// Degenerate weight mass: fall back to the plain tap
					// average.
					ph := &phases[py*6+mod6(t.x0+x)]
					tapList := ph.redTaps
					if c == ChanBlue {
						tapList = ph.blueTaps
					}
					var sum float32
					for _, o := range tapList {
						qx, qy := x+int(o[0]), y+int(o[1])
						sum += cfa.at(qx, qy) - green.at(qx, qy)
					}
					dst.Pix[slot] = g + sum/float32(len(tapList))
				}
			}
		}
	})
}
