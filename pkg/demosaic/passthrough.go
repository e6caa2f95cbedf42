package demosaic

// reconstructPassthroughMono copies every photosite value into all three
// color channels. This is the only method for sensors without color
// filters and doubles as a debug view for filtered sensors.
func reconstructPassthroughMono(dst *Image, t *rawTile, rp *ResolvedParams) {
	w := t.width
	parallelRows(t.workers, 0, t.height, func(start, end int) {
		for y := start; y < end; y++ {
			for x := 0; x < w; x++ {
				v := t.at(x, y)
				i := (y*w + x) * 4
				dst.Pix[i] = v
				dst.Pix[i+1] = v
				dst.Pix[i+2] = v
			}
		}
	})
}

// reconstructPassthroughColor writes each photosite value into the channel
// its filter owns and leaves the other channels black, exposing the raw
// mosaic for inspection.
func reconstructPassthroughColor(dst *Image, t *rawTile, rp *ResolvedParams) {
	w := t.width
	parallelRows(t.workers, 0, t.height, func(start, end int) {
		for y := start; y < end; y++ {
			for x := 0; x < w; x++ {
				c := t.color(x, y)
				if c == ChanGreen2 {
					c = ChanGreen
				}
				i := (y*w + x) * 4
				dst.Pix[i] = 0
				dst.Pix[i+1] = 0
				dst.Pix[i+2] = 0
				dst.Pix[i+c] = t.at(x, y)
			}
		}
	})
}
