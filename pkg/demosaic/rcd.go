package demosaic

// rcdEps keeps the ratio and weight denominators away from zero. On
// constant patches every ratio collapses to exactly 1 regardless of it.
const rcdEps = 1e-5

// reconstructRCD implements ratio corrected demosaicing for Bayer mosaics.
// A vertical/horizontal discrimination built from squared central
// differences steers green interpolation of low-pass ratios, then chroma
// follows as color differences weighted by the diagonal discrimination.
func reconstructRCD(dst *Image, t *rawTile, rp *ResolvedParams) {
	w, h := t.width, t.height
	cfa := tilePlane(t)

	// 3x3 binomial low pass, the reference signal the green ratios are
	// corrected against.
	lpf := newPlane(w, h)
	parallelRows(t.workers, 0, h, func(start, end int) {
		for y := start; y < end; y++ {
			for x := 0; x < w; x++ {
				v := 4*cfa.at(x, y) +
					2*(cfa.at(x, y-1)+cfa.at(x, y+1)+cfa.at(x-1, y)+cfa.at(x+1, y)) +
					cfa.at(x-1, y-1) + cfa.at(x+1, y-1) + cfa.at(x-1, y+1) + cfa.at(x+1, y+1)
				lpf.set(x, y, v/16)
			}
		}
	})

	// Horizontal weight: high where the vertical variance dominates,
	// meaning the edge runs horizontally.
	vh := newPlane(w, h)
	parallelRows(t.workers, 0, h, func(start, end int) {
		for y := start; y < end; y++ {
			for x := 0; x < w; x++ {
				var vv, hh float32
				for k := -2; k <= 2; k++ {
					wgt := float32(1)
					if k == 0 {
						wgt = 2
					}
					dv := cfa.at(x, y+k-1) - cfa.at(x, y+k+1)
					dh := cfa.at(x+k-1, y) - cfa.at(x+k+1, y)
					vv += wgt * dv * dv
					hh += wgt * dh * dh
				}
				vh.set(x, y, (vv+rcdEps)/(vv+hh+2*rcdEps))
			}
		}
	})

	// Green plane from ratio corrected directional estimates.
	parallelRows(t.workers, 0, h, func(start, end int) {
		for y := start; y < end; y++ {
			for x := 0; x < w; x++ {
				i := (y*w + x) * 4
				if t.color(x, y) == ChanGreen {
					dst.Pix[i+1] = cfa.at(x, y)
					continue
				}
				l0 := lpf.at(x, y) + rcdEps
				estV := l0 * 0.5 * (cfa.at(x, y-1)/(lpf.at(x, y-1)+rcdEps) + cfa.at(x, y+1)/(lpf.at(x, y+1)+rcdEps))
				estH := l0 * 0.5 * (cfa.at(x-1, y)/(lpf.at(x-1, y)+rcdEps) + cfa.at(x+1, y)/(lpf.at(x+1, y)+rcdEps))
				wH := vh.at(x, y)
				dst.Pix[i+1] = wH*estH + (1-wH)*estV
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

	// Chroma. Green sites take the paired axis differences, red and blue
	// sites blend the two diagonals by their discrimination.
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
				var pv, qv float32
				for k := -1; k <= 1; k++ {
					dp := cfa.at(x+k-1, y+k-1) - cfa.at(x+k+1, y+k+1)
					dq := cfa.at(x-k+1, y+k-1) - cfa.at(x-k-1, y+k+1)
					pv += dp * dp
					qv += dq * dq
				}
				dP := (cd(x-1, y-1) + cd(x+1, y+1)) / 2
				dQ := (cd(x+1, y-1) + cd(x-1, y+1)) / 2
				wP := (qv + rcdEps) / (pv + qv + 2*rcdEps)
				opp := g + wP*dP + (1-wP)*dQ
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
