package demosaic

// markAxes are the four interpolation axes: horizontal, vertical and the
// two diagonals.
var markAxes = [4][2]int{{1, 0}, {0, 1}, {1, 1}, {1, -1}}

// markPhase caches, for one of the 36 X-Trans phases, the green ring with
// its per-axis weights, the non-green sites used by green refinement, and
// the red/blue taps used by the chroma fill.
type markPhase struct {
	greens   [][2]int8
	axisW    [4][]float32
	nongreen [][2]int8
	redTaps  [][2]int8
	blueTaps [][2]int8
}

func buildMarkPhases(cfa CFA) []markPhase {
	phases := make([]markPhase, 36)
	for py := 0; py < 6; py++ {
		for px := 0; px < 6; px++ {
			ph := &phases[py*6+px]
			if cfa.ColorAt(px, py) != ChanGreen {
				for oy := -1; oy <= 1; oy++ {
					for ox := -1; ox <= 1; ox++ {
						if ox == 0 && oy == 0 {
							continue
						}
						if cfa.ColorAt(px+ox, py+oy) == ChanGreen {
							ph.greens = append(ph.greens, [2]int8{int8(ox), int8(oy)})
						}
					}
				}
				for k, a := range markAxes {
					ws := make([]float32, len(ph.greens))
					var total float32
					for gi, o := range ph.greens {
						dot := float32(int(o[0])*a[0] + int(o[1])*a[1])
						cross := float32(int(o[0])*a[1] - int(o[1])*a[0])
						if dot != 0 || cross != 0 {
							ws[gi] = dot * dot / (dot*dot + cross*cross)
						}
						total += ws[gi]
					}
					if total <= 0 {
						for gi := range ws {
							ws[gi] = 1
						}
						total = float32(len(ws))
					}
					for gi := range ws {
						ws[gi] /= total
					}
					ph.axisW[k] = ws
				}
			}
			for oy := -2; oy <= 2; oy++ {
				for ox := -2; ox <= 2; ox++ {
					switch cfa.ColorAt(px+ox, py+oy) {
					case ChanRed:
						ph.redTaps = append(ph.redTaps, [2]int8{int8(ox), int8(oy)})
						ph.nongreen = append(ph.nongreen, [2]int8{int8(ox), int8(oy)})
					case ChanBlue:
						ph.blueTaps = append(ph.blueTaps, [2]int8{int8(ox), int8(oy)})
						ph.nongreen = append(ph.nongreen, [2]int8{int8(ox), int8(oy)})
					}
				}
			}
		}
	}
	return phases
}

// markesteijnGreen builds the green plane: each non-green site gets one
// weighted estimate per axis, the axes whose candidate planes stay
// locally smooth are averaged, and three-pass mode follows with two
// color-difference refinement sweeps.
func markesteijnGreen(t *rawTile, cfa plane, phases []markPhase, passes int) plane {
	w, h := t.width, t.height
	var est [4]plane
	for k := range est {
		est[k] = newPlane(w, h)
	}
	parallelRows(t.workers, 0, h, func(start, end int) {
		for y := start; y < end; y++ {
			py := mod6(t.y0 + y)
			for x := 0; x < w; x++ {
				v := cfa.at(x, y)
				if t.color(x, y) == ChanGreen {
					for k := 0; k < 4; k++ {
						est[k].set(x, y, v)
					}
					continue
				}
				ph := &phases[py*6+mod6(t.x0+x)]
				for k := 0; k < 4; k++ {
					var sum float32
					for gi, o := range ph.greens {
						sum += ph.axisW[k][gi] * cfa.at(x+int(o[0]), y+int(o[1]))
					}
					est[k].set(x, y, sum)
				}
			}
		}
	})

	green := newPlane(w, h)
	parallelRows(t.workers, 0, h, func(start, end int) {
		for y := start; y < end; y++ {
			for x := 0; x < w; x++ {
				if t.color(x, y) == ChanGreen {
					green.set(x, y, cfa.at(x, y))
					continue
				}
				var rough [4]float32
				rmin := float32(0)
				rmax := float32(0)
				for k := 0; k < 4; k++ {
					c0 := est[k].at(x, y)
					var r float32
					for oy := -1; oy <= 1; oy++ {
						for ox := -1; ox <= 1; ox++ {
							r += abs32(est[k].at(x+ox, y+oy) - c0)
						}
					}
					rough[k] = r
					if k == 0 || r < rmin {
						rmin = r
					}
					if r > rmax {
						rmax = r
					}
				}
				thr := rmin + 0.25*(rmax-rmin)
				var sum float32
				var n int
				for k := 0; k < 4; k++ {
					if rough[k] <= thr {
						sum += est[k].at(x, y)
						n++
					}
				}
				green.set(x, y, sum/float32(n))
			}
		}
	})

	for pass := 1; pass < passes; pass++ {
		green = refineMarkGreen(green, cfa, t, phases)
	}
	return green
}

// refineMarkGreen re-derives green at non-green sites from the median
// color difference of the surrounding non-green sites, tightening
// green/chroma consistency without touching measured greens.
func refineMarkGreen(green, cfa plane, t *rawTile, phases []markPhase) plane {
	out := newPlane(green.w, green.h)
	copy(out.pix, green.pix)
	parallelRows(t.workers, 0, green.h, func(start, end int) {
		diffs := make([]float32, 0, 16)
		for y := start; y < end; y++ {
			py := mod6(t.y0 + y)
			for x := 0; x < green.w; x++ {
				if t.color(x, y) == ChanGreen {
					continue
				}
				ph := &phases[py*6+mod6(t.x0+x)]
				diffs = diffs[:0]
				for _, o := range ph.nongreen {
					qx, qy := x+int(o[0]), y+int(o[1])
					diffs = append(diffs, green.at(qx, qy)-cfa.at(qx, qy))
				}
				out.set(x, y, cfa.at(x, y)+medianSlice(diffs))
			}
		}
	})
	return out
}

// medianSlice sorts in place and returns the median, averaging the middle
// pair for even counts.
func medianSlice(s []float32) float32 {
	if len(s) == 0 {
		return 0
	}
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j] < s[j-1]; j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}

// fillMarkChroma completes red and blue as averaged color differences
// over the phase tap tables. Own-color photosites keep their measured
// value.
func fillMarkChroma(dst *Image, t *rawTile, cfa, green plane, phases []markPhase) {
	w := t.width
	parallelRows(t.workers, 0, t.height, func(start, end int) {
		for y := start; y < end; y++ {
			py := mod6(t.y0 + y)
			for x := 0; x < w; x++ {
				ph := &phases[py*6+mod6(t.x0+x)]
				i := (y*w + x) * 4
				g := green.at(x, y)
				dst.Pix[i+1] = g
				c := t.color(x, y)
				if c == ChanRed {
					dst.Pix[i] = cfa.at(x, y)
				} else {
					var sum float32
					for _, o := range ph.redTaps {
						qx, qy := x+int(o[0]), y+int(o[1])
						sum += cfa.at(qx, qy) - green.at(qx, qy)
					}
					dst.Pix[i] = g + sum/float32(len(ph.redTaps))
				}
				if c == ChanBlue {
					dst.Pix[i+2] = cfa.at(x, y)
				} else {
					var sum float32
					for _, o := range ph.blueTaps {
						qx, qy := x+int(o[0]), y+int(o[1])
						sum += cfa.at(qx, qy) - green.at(qx, qy)
					}
					dst.Pix[i+2] = g + sum/float32(len(ph.blueTaps))
				}
			}
		}
	})
}

// reconstructMarkesteijn1 is the single-pass Markesteijn reconstruction
// for X-Trans mosaics.
func reconstructMarkesteijn1(dst *Image, t *rawTile, rp *ResolvedParams) {
	reconstructMarkesteijn(dst, t, 1)
}

// reconstructMarkesteijn3 adds the two refinement sweeps of the
// three-pass variant.
func reconstructMarkesteijn3(dst *Image, t *rawTile, rp *ResolvedParams) {
	reconstructMarkesteijn(dst, t, 3)
}

func reconstructMarkesteijn(dst *Image, t *rawTile, passes int) {
	cfa := tilePlane(t)
	phases := buildMarkPhases(t.cfa)
	green := markesteijnGreen(t, cfa, phases, passes)
	fillMarkChroma(dst, t, cfa, green, phases)
}
