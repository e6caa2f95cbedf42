package demosaic

// vngDirs are the eight compass directions, clockwise from north.
var vngDirs = [8][2]int{
	{0, -1}, {1, -1}, {1, 0}, {1, 1},
	{0, 1}, {-1, 1}, {-1, 0}, {-1, -1},
}

// vngPair is one same-color difference |v(a) - v(b)| feeding a direction
// gradient.
type vngPair struct {
	ax, ay, bx, by int8
	w              float32
}

// vngTap is one photosite inside a direction cone, tagged with its channel.
type vngTap struct {
	dx, dy int8
	c      uint8
}

// vngPlan holds the gradient pairs and averaging cones for one CFA phase.
type vngPlan struct {
	pairs [8][]vngPair
	taps  [8][]vngTap
}

// buildVNGPlans enumerates, for every CFA phase, the same-color gradient
// pairs and the per-direction averaging cones within the 5x5 window. With
// splitGreens the two Bayer green populations count as distinct channels,
// which suppresses green split maze the same way a four-color pipeline
// does.
func buildVNGPlans(cfa CFA, splitGreens bool) []vngPlan {
	period := cfa.AlignUnit()
	effColor := func(x, y int) uint8 {
		c := uint8(cfa.ColorAt(x, y))
		if splitGreens && c == ChanGreen && y&1 == 1 {
			c = ChanGreen2
		}
		return c
	}
	plans := make([]vngPlan, period*period)
	for py := 0; py < period; py++ {
		for px := 0; px < period; px++ {
			p := &plans[py*period+px]
			for k, d := range vngDirs {
				dx, dy := d[0], d[1]
				for oy := -2; oy <= 2; oy++ {
					for ox := -2; ox <= 2; ox++ {
						if ox == 0 && oy == 0 {
							continue
						}
						// Gradient pair: same-color sites 2d apart.
						bx, by := ox-2*dx, oy-2*dy
						if bx >= -2 && bx <= 2 && by >= -2 && by <= 2 &&
							effColor(px+ox, py+oy) == effColor(px+bx, py+by) {
							w := float32(1)
							if ox == dx && oy == dy {
								w = 2
							}
							p.pairs[k] = append(p.pairs[k], vngPair{
								ax: int8(ox), ay: int8(oy),
								bx: int8(bx), by: int8(by), w: w,
							})
						}
						// Averaging cone: offsets within 45 degrees of d.
						dot := ox*dx + oy*dy
						cross := ox*dy - oy*dx
						if cross < 0 {
							cross = -cross
						}
						if dot > 0 && cross <= dot {
							p.taps[k] = append(p.taps[k], vngTap{
								dx: int8(ox), dy: int8(oy),
								c:  effColor(px+ox, py+oy),
							})
						}
					}
				}
			}
		}
	}
	return plans
}

// reconstructVNG implements a variable-number-of-gradients reconstruction
// over the plan tables, which makes the same body serve Bayer (as VNG4
// with split greens), 4-Bayer plane data and X-Trans mosaics. Directions
// whose gradient stays under the adaptive threshold contribute their cone
// averages as color differences against the photosite's own channel.
func reconstructVNG(dst *Image, t *rawTile, rp *ResolvedParams) {
	w, h := t.width, t.height
	period := t.cfa.AlignUnit()
	splitGreens := t.cfa.Kind == PatternBayer
	fourGreens := splitGreens || t.cfa.Kind == PatternFourBayer
	plans := buildVNGPlans(t.cfa, splitGreens)

	ownColor := func(x, y int) uint8 {
		c := uint8(t.color(x, y))
		if splitGreens && c == ChanGreen && (t.y0+y)&1 == 1 {
			c = ChanGreen2
		}
		return c
	}

	parallelRows(t.workers, 0, h, func(start, end int) {
		for y := start; y < end; y++ {
			py := modPeriod(t.y0+y, period)
			for x := 0; x < w; x++ {
				px := modPeriod(t.x0+x, period)
				plan := &plans[py*period+px]
				v0 := t.at(x, y)
				c0 := ownColor(x, y)

				var grads [8]float32
				gmin := float32(0)
				gmax := float32(0)
				for k := 0; k < 8; k++ {
					var g float32
					for _, pr := range plan.pairs[k] {
						g += pr.w * abs32(t.at(x+int(pr.ax), y+int(pr.ay))-t.at(x+int(pr.bx), y+int(pr.by)))
					}
					grads[k] = g
					if k == 0 || g < gmin {
						gmin = g
					}
					if g > gmax {
						gmax = g
					}
				}
				thold := gmin + gmax*0.5

				var diffSum [4]float32
				var diffN [4]int
				var absSum [4]float32
				var absN [4]int
				for k := 0; k < 8; k++ {
					if grads[k] > thold {
						continue
					}
					var dirSum [4]float32
					var dirN [4]int
					for _, tap := range plan.taps[k] {
						val := t.at(x+int(tap.dx), y+int(tap.dy))
						dirSum[tap.c] += val
						dirN[tap.c]++
						absSum[tap.c] += val
						absN[tap.c]++
					}
					if dirN[c0] == 0 {
						continue
					}
					own := dirSum[c0] / float32(dirN[c0])
					for c := 0; c < 4; c++ {
						if c == int(c0) || dirN[c] == 0 {
							continue
						}
						diffSum[c] += dirSum[c]/float32(dirN[c]) - own
						diffN[c]++
					}
				}

				var vals [4]float32
				for c := 0; c < 4; c++ {
					switch {
					case c == int(c0):
						vals[c] = v0
					case diffN[c] > 0:
						vals[c] = v0 + diffSum[c]/float32(diffN[c])
					case absN[c] > 0:
						vals[c] = absSum[c] / float32(absN[c])
					default:
						vals[c] = v0
					}
				}

				i := (y*w + x) * 4
				dst.Pix[i] = vals[ChanRed]
				if fourGreens {
					dst.Pix[i+1] = (vals[ChanGreen] + vals[ChanGreen2]) / 2
				} else {
					dst.Pix[i+1] = vals[ChanGreen]
				}
				dst.Pix[i+2] = vals[ChanBlue]
			}
		}
	})
}

func modPeriod(v, p int) int {
	m := v % p
	if m < 0 {
		m += p
	}
	return m
}
