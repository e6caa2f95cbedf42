package demosaic

// plane is a tile-sized single-channel scratch buffer. Reads outside the
// buffer clamp to the nearest edge pixel, matching rawTile reads so that
// pass chains behave the same on tile edges and image edges.
type plane struct {
	pix []float32
	w   int
	h   int
}

func newPlane(w, h int) plane {
	return plane{pix: make([]float32, w*h), w: w, h: h}
}

func (p plane) at(x, y int) float32 {
	if x < 0 {
		x = 0
	} else if x >= p.w {
		x = p.w - 1
	}
	if y < 0 {
		y = 0
	} else if y >= p.h {
		y = p.h - 1
	}
	return p.pix[y*p.w+x]
}

func (p plane) set(x, y int, v float32) {
	p.pix[y*p.w+x] = v
}

// tilePlane copies the tile's photosite values into a plane.
func tilePlane(t *rawTile) plane {
	p := newPlane(t.width, t.height)
	parallelRows(t.workers, 0, t.height, func(start, end int) {
		for y := start; y < end; y++ {
			for x := 0; x < t.width; x++ {
				p.pix[y*t.width+x] = t.at(x, y)
			}
		}
	})
	return p
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func clamp32(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func min32(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func max32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

// median3 returns the middle of three values.
func median3(a, b, c float32) float32 {
	if a > b {
		a, b = b, a
	}
	if b > c {
		b = c
	}
	return max32(a, b)
}
