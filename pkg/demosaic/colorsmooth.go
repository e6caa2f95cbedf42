package demosaic

// median9 returns the median of a 3x3 neighborhood using the standard
// 19-exchange sorting network.
func median9(v0, v1, v2, v3, v4, v5, v6, v7, v8 float32) float32 {
	if v1 > v2 {
		v1, v2 = v2, v1
	}
	if v4 > v5 {
		v4, v5 = v5, v4
	}
	if v7 > v8 {
		v7, v8 = v8, v7
	}
	if v0 > v1 {
		v0, v1 = v1, v0
	}
	if v3 > v4 {
		v3, v4 = v4, v3
	}
	if v6 > v7 {
		v6, v7 = v7, v6
	}
	if v1 > v2 {
		v1, v2 = v2, v1
	}
	if v4 > v5 {
		v4, v5 = v5, v4
	}
	if v7 > v8 {
		v7, v8 = v8, v7
	}
	if v0 > v3 {
		v0, v3 = v3, v0
	}
	if v5 > v8 {
		v5, v8 = v8, v5
	}
	if v4 > v7 {
		v4, v7 = v7, v4
	}
	if v3 > v6 {
		v3, v6 = v6, v3
	}
	if v1 > v4 {
		v1, v4 = v4, v1
	}
	if v2 > v5 {
		v2, v5 = v5, v2
	}
	if v4 > v7 {
		v4, v7 = v7, v4
	}
	if v4 > v2 {
		v4, v2 = v2, v4
	}
	if v6 > v4 {
		v6, v4 = v4, v6
	}
	if v4 > v2 {
		v4, v2 = v2, v4
	}
	return v4
}

// colorSmooth runs the requested number of chroma median passes over the
// reconstructed image. Each pass replaces the R-G and B-G differences by
// their 3x3 medians and rebuilds R and B on top of the untouched green
// plane, which knocks out isolated color speckle without moving edges.
func colorSmooth(img *Image, passes, workers int) {
	if passes <= 0 {
		return
	}
	w, h := img.Width, img.Height
	rg := newPlane(w, h)
	bg := newPlane(w, h)
	for pass := 0; pass < passes; pass++ {
		parallelRows(workers, 0, h, func(start, end int) {
			for y := start; y < end; y++ {
				for x := 0; x < w; x++ {
					i := (y*w + x) * 4
					rg.set(x, y, img.Pix[i]-img.Pix[i+1])
					bg.set(x, y, img.Pix[i+2]-img.Pix[i+1])
				}
			}
		})
		parallelRows(workers, 0, h, func(start, end int) {
			for y := start; y < end; y++ {
				for x := 0; x < w; x++ {
					i := (y*w + x) * 4
					g := img.Pix[i+1]
					img.Pix[i] = g + median9(
						rg.at(x-1, y-1), rg.at(x, y-1), rg.at(x+1, y-1),
						rg.at(x-1, y), rg.at(x, y), rg.at(x+1, y),
						rg.at(x-1, y+1), rg.at(x, y+1), rg.at(x+1, y+1))
					img.Pix[i+2] = g + median9(
						bg.at(x-1, y-1), bg.at(x, y-1), bg.at(x+1, y-1),
						bg.at(x-1, y), bg.at(x, y), bg.at(x+1, y),
						bg.at(x-1, y+1), bg.at(x, y+1), bg.at(x+1, y+1))
				}
			}
		})
	}
}
