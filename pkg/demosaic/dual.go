package demosaic

// lowFreqMethod is the companion method that supplies the smooth half of
// a dual-demosaic blend.
func lowFreqMethod(cfa CFA) Method {
	if cfa.Kind == PatternXTrans {
		return MethodVNG
	}
	return MethodVNG4
}

// blendDual merges the detailed reconstruction with its VNG companion in
// place: the detail mask picks the detailed result where the wavelet
// residual is strong and the companion where the scene is smooth. Returns
// the mask so callers can expose it.
func blendDual(detailed, smooth *Image, threshold float32, workers int) []float32 {
	w, h := detailed.Width, detailed.Height
	mask := detailMask(detailed, threshold, workers)
	parallelRows(workers, 0, h, func(start, end int) {
		for y := start; y < end; y++ {
			for x := 0; x < w; x++ {
				p := y*w + x
				a := mask[p]
				i := p * 4
				for c := 0; c < 3; c++ {
					detailed.Pix[i+c] = a*detailed.Pix[i+c] + (1-a)*smooth.Pix[i+c]
				}
			}
		}
	})
	return mask
}
