package demosaic

// reconstructPPG implements Patterned Pixel Grouping for Bayer mosaics:
// green is filled along the direction with the weaker gradient, then red
// and blue follow as color differences against the finished green plane.
// A positive median threshold prefilters green photosites first.
func reconstructPPG(dst *Image, t *rawTile, rp *ResolvedParams) {
	w, h := t.width, t.height
	cfa := tilePlane(t)
	if rp.MedianThreshold > 0 {
		cfa = premedianGreens(cfa, t, rp.MedianThreshold)
	}

	// Green plane. Red and blue sites estimate along both axes and keep
	// the estimate whose gradient is weaker, clamped to the contributing
	// green pair.
	parallelRows(t.workers, 0, h, func(start, end int) {
		for y := start; y < end; y++ {
			for x := 0; x < w; x++ {
				i := (y*w + x) * 4
				v := cfa.at(x, y)
				if t.color(x, y) == ChanGreen {
					dst.Pix[i+1] = v
					continue
				}
				gN := cfa.at(x, y-1)
				gS := cfa.at(x, y+1)
				gW := cfa.at(x-1, y)
				gE := cfa.at(x+1, y)
				cN2 := cfa.at(x, y-2)
				cS2 := cfa.at(x, y+2)
				cW2 := cfa.at(x-2, y)
				cE2 := cfa.at(x+2, y)
				gradV := abs32(gN-gS) + abs32(2*v-cN2-cS2)
				gradH := abs32(gW-gE) + abs32(2*v-cW2-cE2)
				estV := clamp32((gN+gS)/2+(2*v-cN2-cS2)/4, min32(gN, gS), max32(gN, gS))
				estH := clamp32((gW+gE)/2+(2*v-cW2-cE2)/4, min32(gW, gE), max32(gW, gE))
				switch {
				case gradV < gradH:
					dst.Pix[i+1] = estV
				case gradH < gradV:
					dst.Pix[i+1] = estH
				default:
					dst.Pix[i+1] = (estV + estH) / 2
				}
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
	// cd is the photosite's deviation from its interpolated green.
	cd := func(x, y int) float32 { return cfa.at(x, y) - gAt(x, y) }

	// Chroma: green sites average the paired differences along each axis,
	// red and blue sites pick the flatter diagonal for the opposite color.
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
				d1 := cd(x-1, y-1)
				d2 := cd(x+1, y+1)
				d3 := cd(x+1, y-1)
				d4 := cd(x-1, y+1)
				var opp float32
				switch {
				case abs32(d1-d2) < abs32(d3-d4):
					opp = g + (d1+d2)/2
				case abs32(d3-d4) < abs32(d1-d2):
					opp = g + (d3+d4)/2
				default:
					opp = g + (d1+d2+d3+d4)/4
				}
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

// premedianGreens replaces green photosites that deviate from the median
// of their diagonal green neighborhood by more than the threshold.
func premedianGreens(cfa plane, t *rawTile, threshold float32) plane {
	out := newPlane(cfa.w, cfa.h)
	copy(out.pix, cfa.pix)
	parallelRows(t.workers, 0, cfa.h, func(start, end int) {
		for y := start; y < end; y++ {
			for x := 0; x < cfa.w; x++ {
				if t.color(x, y) != ChanGreen {
					continue
				}
				v := cfa.at(x, y)
				m := median5(v,
					cfa.at(x-1, y-1), cfa.at(x+1, y-1),
					cfa.at(x-1, y+1), cfa.at(x+1, y+1))
				if abs32(v-m) > threshold {
					out.set(x, y, m)
				}
			}
		}
	})
	return out
}

// median5 returns the median of five values.
func median5(v0, v1, v2, v3, v4 float32) float32 {
	s := [5]float32{v0, v1, v2, v3, v4}
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j] < s[j-1]; j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
	return s[2]
}
