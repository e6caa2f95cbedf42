package demosaic

const greenEqEps = 1e-6

// greenEqualize removes the response difference between the two green
// populations of a Bayer mosaic in place. Full mode scales each
// population toward their common mean, local mode rescales the odd-row
// greens toward their diagonal neighbors inside flat neighborhoods, and
// both runs full before local. Only single-channel Bayer data is
// eligible, which CommitParams enforces.
func greenEqualize(m *Mosaic, mode GreenEqMode, threshold float32, workers int) {
	if mode == GreenEqDisabled || m.Channels != 1 {
		return
	}
	if mode == GreenEqFull || mode == GreenEqBoth {
		fullGreenEq(m, workers)
	}
	if mode == GreenEqLocal || mode == GreenEqBoth {
		localGreenEq(m, threshold, workers)
	}
}

// fullGreenEq measures the mean of each green population over the whole
// frame and scales both onto their midpoint.
func fullGreenEq(m *Mosaic, workers int) {
	var sum [2]float64
	var cnt [2]int64
	for y := 0; y < m.Height; y++ {
		pop := (m.OffsetY + y) & 1
		for x := 0; x < m.Width; x++ {
			if m.CFA.ColorAt(m.OffsetX+x, m.OffsetY+y) != ChanGreen {
				continue
			}
			sum[pop] += float64(m.Pix[y*m.Width+x])
			cnt[pop]++
		}
	}
	if cnt[0] == 0 || cnt[1] == 0 {
		return
	}
	m0 := sum[0] / float64(cnt[0])
	m1 := sum[1] / float64(cnt[1])
	target := (m0 + m1) / 2
	gain := [2]float32{
		float32((target + greenEqEps) / (m0 + greenEqEps)),
		float32((target + greenEqEps) / (m1 + greenEqEps)),
	}
	parallelRows(workers, 0, m.Height, func(start, end int) {
		for y := start; y < end; y++ {
			pop := (m.OffsetY + y) & 1
			for x := 0; x < m.Width; x++ {
				if m.CFA.ColorAt(m.OffsetX+x, m.OffsetY+y) == ChanGreen {
					m.Pix[y*m.Width+x] *= gain[pop]
				}
			}
		}
	})
}

// localGreenEq rescales one green population, the odd-row greens, by the
// ratio of the four diagonal greens (the reference population) to the
// four distance-2 greens (its own). The gate requires both rings to be
// internally flat so the ratio measures sensor response rather than image
// content; gating on the rings instead of the center keeps the population
// imbalance itself from blocking the correction.
func localGreenEq(m *Mosaic, threshold float32, workers int) {
	w, h := m.Width, m.Height
	src := newPlane(w, h)
	copy(src.pix, m.Pix)
	parallelRows(workers, 0, h, func(start, end int) {
		for y := start; y < end; y++ {
			if (m.OffsetY+y)&1 == 0 {
				continue
			}
			for x := 0; x < w; x++ {
				if m.CFA.ColorAt(m.OffsetX+x, m.OffsetY+y) != ChanGreen {
					continue
				}
				v := src.at(x, y)
				if v >= 0.95 {
					continue
				}
				o1 := src.at(x-1, y-1)
				o2 := src.at(x+1, y-1)
				o3 := src.at(x-1, y+1)
				o4 := src.at(x+1, y+1)
				s1 := src.at(x-2, y)
				s2 := src.at(x+2, y)
				s3 := src.at(x, y-2)
				s4 := src.at(x, y+2)
				c1 := (abs32(o1-o2) + abs32(o1-o3) + abs32(o1-o4) +
					abs32(o2-o3) + abs32(o2-o4) + abs32(o3-o4)) / 6
				c2 := (abs32(s1-s2) + abs32(s1-s3) + abs32(s1-s4) +
					abs32(s2-s3) + abs32(s2-s4) + abs32(s3-s4)) / 6
				if c1 >= threshold*(v+greenEqEps) || c2 >= threshold*(v+greenEqEps) {
					continue
				}
				m1 := (o1 + o2 + o3 + o4) / 4
				m2 := (s1 + s2 + s3 + s4) / 4
				m.Pix[y*w+x] = v * (m1 + greenEqEps) / (m2 + greenEqEps)
			}
		}
	})
}
