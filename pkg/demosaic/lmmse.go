package demosaic

import (
	"math"
	"sync"
)

// lmmseTables holds the gamma lookup tables the LMMSE path runs in. They
// are built once on first use and shared by every call; lookups
// interpolate between entries so a round trip stays within 1e-5.
type lmmseTables struct {
	once      sync.Once
	toGamma   []float32
	fromGamma []float32
}

var lmmseLUT lmmseTables

const lmmseLUTSize = 65536

func (l *lmmseTables) build() {
	l.once.Do(func() {
		l.toGamma = make([]float32, lmmseLUTSize)
		l.fromGamma = make([]float32, lmmseLUTSize)
		for i := 0; i < lmmseLUTSize; i++ {
			x := float64(i) / (lmmseLUTSize - 1)
			l.toGamma[i] = float32(gammaEncode(x))
			l.fromGamma[i] = float32(gammaDecode(x))
		}
	})
}

func gammaEncode(x float64) float64 {
	if x <= 0.0031308 {
		return 12.92 * x
	}
	return 1.055*math.Pow(x, 1/2.4) - 0.055
}

func gammaDecode(x float64) float64 {
	if x <= 0.04045 {
		return x / 12.92
	}
	return math.Pow((x+0.055)/1.055, 2.4)
}

func lutLookup(tab []float32, v float32) float32 {
	if v <= 0 {
		return tab[0]
	}
	if v >= 1 {
		return tab[len(tab)-1]
	}
	f := v * float32(len(tab)-1)
	i := int(f)
	if i >= len(tab)-1 {
		return tab[len(tab)-1]
	}
	return tab[i] + (tab[i+1]-tab[i])*(f-float32(i))
}

// reconstructLMMSE implements the Zhang-Wu linear minimum mean-square
// error reconstruction for Bayer mosaics. Directional green/chroma
// difference signals are estimated in gamma space, denoised by their local
// signal-to-residual ratio, blended by residual weight, optionally median
// refined, and green comes back to linear space before the chroma fill.
func reconstructLMMSE(dst *Image, t *rawTile, rp *ResolvedParams) {
	w, h := t.width, t.height
	lmmseLUT.build()

	cfa := tilePlane(t)
	yg := newPlane(w, h)
	parallelRows(t.workers, 0, h, func(start, end int) {
		for y := start; y < end; y++ {
			for x := 0; x < w; x++ {
				yg.set(x, y, lutLookup(lmmseLUT.toGamma, clamp32(cfa.at(x, y), 0, 1)))
			}
		}
	})

	// Directional difference signals. sgn flips the estimate so that both
	// green and non-green rows express the same green-minus-chroma signal.
	dh := newPlane(w, h)
	dv := newPlane(w, h)
	sgn := func(x, y int) float32 {
		if t.color(x, y) == ChanGreen {
			return -1
		}
		return 1
	}
	parallelRows(t.workers, 0, h, func(start, end int) {
		for y := start; y < end; y++ {
			for x := 0; x < w; x++ {
				s := sgn(x, y)
				v0 := yg.at(x, y)
				fh := (yg.at(x-1, y)+yg.at(x+1, y))/2 + (2*v0-yg.at(x-2, y)-yg.at(x+2, y))/4
				fv := (yg.at(x, y-1)+yg.at(x, y+1))/2 + (2*v0-yg.at(x, y-2)-yg.at(x, y+2))/4
				dh.set(x, y, s*(fh-v0))
				dv.set(x, y, s*(fv-v0))
			}
		}
	})

	// Binomial smoothing of the difference signals.
	mh := newPlane(w, h)
	mv := newPlane(w, h)
	parallelRows(t.workers, 0, h, func(start, end int) {
		for y := start; y < end; y++ {
			for x := 0; x < w; x++ {
				sh := dh.at(x-2, y) + 4*dh.at(x-1, y) + 6*dh.at(x, y) + 4*dh.at(x+1, y) + dh.at(x+2, y)
				sv := dv.at(x, y-2) + 4*dv.at(x, y-1) + 6*dv.at(x, y) + 4*dv.at(x, y+1) + dv.at(x, y+2)
				mh.set(x, y, sh/16)
				mv.set(x, y, sv/16)
			}
		}
	})

	// LMMSE shrink toward the windowed mean, then residual-weighted blend
	// of the two directions.
	diff := newPlane(w, h)
	parallelRows(t.workers, 0, h, func(start, end int) {
		for y := start; y < end; y++ {
			for x := 0; x < w; x++ {
				eh, rh := lmmseShrink(dh, mh, x, y, true)
				ev, rv := lmmseShrink(dv, mv, x, y, false)
				denom := rh + rv
				if denom < 1e-12 {
					diff.set(x, y, (eh+ev)/2)
				} else {
					diff.set(x, y, (rv*eh+rh*ev)/denom)
				}
			}
		}
	})

	for pass := 0; pass < rp.LMMSERefine; pass++ {
		diff = medianPlane3x3(diff, t.workers)
	}

	// Green in linear space. Green photosites keep their exact value.
	parallelRows(t.workers, 0, h, func(start, end int) {
		for y := start; y < end; y++ {
			for x := 0; x < w; x++ {
				i := (y*w + x) * 4
				if t.color(x, y) == ChanGreen {
					dst.Pix[i+1] = cfa.at(x, y)
					continue
				}
				g := clamp32(yg.at(x, y)+diff.at(x, y), 0, 1)
				dst.Pix[i+1] = lutLookup(lmmseLUT.fromGamma, g)
			}
		}
	})

	gAt := func(x, y int) float32 {
		if x < 0 {
			x = 0
		} else if x >= w {
			x = w - 1
		}
		if y < 0 {
			y = 0
		} else if y >= h {
			y = h - 1
		}
		return dst.Pix[(y*w+x)*4+1]
	}
	cd := func(x, y int) float32 { return cfa.at(x, y) - gAt(x, y) }

	// Bilinear chroma over color differences.
	parallelRows(t.workers, 0, h, func(start, end int) {
		for y := start; y < end; y++ {
			for x := 0; x < w; x++ {
				i := (y*w + x) * 4
				g := dst.Pix[i+1]
				c := t.color(x, y)
				if c == ChanGreen {
					hv := g + (cd(x-1, y)+cd(x+1, y))/2
					vv := g + (cd(x, y-1)+cd(x, y+1))/2
					if t.color(x+1, y) == ChanRed {
						dst.Pix[i] = hv
						dst.Pix[i+2] = vv
					} else {
						dst.Pix[i] = vv
						dst.Pix[i+2] = hv
					}
					continue
				}
				opp := g + (cd(x-1, y-1)+cd(x+1, y-1)+cd(x-1, y+1)+cd(x+1, y+1))/4
				if c == ChanRed {
					dst.Pix[i] = cfa.at(x, y)
					dst.Pix[i+2] = opp
				} else {
					dst.Pix[i] = opp
					dst.Pix[i+2] = cfa.at(x, y)
				}
			}
		}
	})
}

// lmmseShrink returns the LMMSE estimate of the difference signal at
// (x, y) along one axis plus the residual power used for blending. The
// window spans seven samples of the smoothed signal.
func lmmseShrink(d, m plane, x, y int, horizontal bool) (est, residual float32) {
	var mean float32
	for k := -3; k <= 3; k++ {
		if horizontal {
			mean += m.at(x+k, y)
		} else {
			mean += m.at(x, y+k)
		}
	}
	mean /= 7
	var signal, noise float32
	for k := -3; k <= 3; k++ {
		var mv, dvv float32
		if horizontal {
			mv = m.at(x+k, y)
			dvv = d.at(x+k, y)
		} else {
			mv = m.at(x, y+k)
			dvv = d.at(x, y+k)
		}
		signal += (mv - mean) * (mv - mean)
		noise += (dvv - mv) * (dvv - mv)
	}
	signal /= 6
	noise /= 6
	d0 := d.at(x, y)
	total := signal + noise
	if total < 1e-12 {
		return d0, noise
	}
	return mean + signal/total*(d0-mean), noise
}

// medianPlane3x3 replaces every sample by the median of its 3x3
// neighborhood.
func medianPlane3x3(p plane, workers int) plane {
	out := newPlane(p.w, p.h)
	parallelRows(workers, 0, p.h, func(start, end int) {
		for y := start; y < end; y++ {
			for x := 0; x < p.w; x++ {
				out.set(x, y, median9(
					p.at(x-1, y-1), p.at(x, y-1), p.at(x+1, y-1),
					p.at(x-1, y), p.at(x, y), p.at(x+1, y),
					p.at(x-1, y+1), p.at(x, y+1), p.at(x+1, y+1)))
			}
		}
	})
	return out
}
