package demosaic

import (
	"sort"
	"sync/atomic"
)

// hotNeighbors lists, for one CFA phase, the nearest same-color sites
// used as the comparison population for hot pixel detection.
type hotNeighbors [][2]int8

func buildHotNeighbors(cfa CFA) []hotNeighbors {
	period := cfa.AlignUnit()
	tables := make([]hotNeighbors, period*period)
	for py := 0; py < period; py++ {
		for px := 0; px < period; px++ {
			c := cfa.ColorAt(px, py)
			type cand struct {
				dx, dy int
				d2     int
			}
			var cands []cand
			for oy := -3; oy <= 3; oy++ {
				for ox := -3; ox <= 3; ox++ {
					if ox == 0 && oy == 0 {
						continue
					}
					if cfa.ColorAt(px+ox, py+oy) == c {
						cands = append(cands, cand{ox, oy, ox*ox + oy*oy})
					}
				}
			}
			sort.Slice(cands, func(i, j int) bool { return cands[i].d2 < cands[j].d2 })
			if len(cands) > 8 {
				cands = cands[:8]
			}
			tbl := make(hotNeighbors, len(cands))
			for i, cd := range cands {
				tbl[i] = [2]int8{int8(cd.dx), int8(cd.dy)}
			}
			tables[py*period+px] = tbl
		}
	}
	return tables
}

// suppressHotPixels clamps photosites that sit more than threshold
// robust deviations above the median of their same-color neighborhood,
// replacing them by that median. The deviation scale is the median
// absolute deviation times 1.4826. Returns the number of sites replaced.
func suppressHotPixels(m *Mosaic, threshold float32, workers int) int64 {
	if threshold <= 0 || m.Channels != 1 {
		return 0
	}
	w, h := m.Width, m.Height
	tables := buildHotNeighbors(m.CFA)
	period := m.CFA.AlignUnit()
	src := newPlane(w, h)
	copy(src.pix, m.Pix)

	var replaced atomic.Int64
	parallelRows(workers, 0, h, func(start, end int) {
		vals := make([]float32, 0, 8)
		devs := make([]float32, 0, 8)
		var count int64
		for y := start; y < end; y++ {
			py := modPeriod(m.OffsetY+y, period)
			for x := 0; x < w; x++ {
				tbl := tables[py*period+modPeriod(m.OffsetX+x, period)]
				if len(tbl) == 0 {
					continue
				}
				vals = vals[:0]
				for _, o := range tbl {
					vals = append(vals, src.at(x+int(o[0]), y+int(o[1])))
				}
				med := medianSlice(vals)
				devs = devs[:0]
				for _, nv := range vals {
					devs = append(devs, abs32(nv-med))
				}
				sigma := 1.4826*medianSlice(devs) + 1e-6
				v := src.at(x, y)
				if v-med > threshold*sigma {
					m.Pix[y*w+x] = med
					count++
				}
			}
		}
		replaced.Add(count)
	})
	return replaced.Load()
}
