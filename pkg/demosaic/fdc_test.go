package demosaic

import (
	"math"
	"testing"
)

func TestFDCKernelTaps(t *testing.T) {
	fdcKernel.build()
	taps := fdcKernel.taps

	var sum float64
	for _, v := range taps {
		sum += float64(v)
	}
	if math.Abs(sum-1) > 1e-6 {
		t.Errorf("tap sum = %v, want 1", sum)
	}

	n := len(taps)
	for i := 0; i < n/2; i++ {
		if d := math.Abs(float64(taps[i] - taps[n-1-i])); d > 1e-7 {
			t.Errorf("taps[%d] = %v and taps[%d] = %v differ by %v", i, taps[i], n-1-i, taps[n-1-i], d)
		}
	}

	center := taps[n/2]
	if center <= 0 {
		t.Fatalf("center tap = %v, want positive", center)
	}
	for i, v := range taps {
		if i != n/2 && abs32(v) >= center {
			t.Errorf("taps[%d] = %v not dominated by the center tap %v", i, v, center)
		}
	}
}

func TestFDCResponse(t *testing.T) {
	for k := 0; k <= 3; k++ {
		if got := fdcResponse(k); got != 1 {
			t.Errorf("fdcResponse(%d) = %v, want 1", k, got)
		}
	}
	for k := 9; k <= 16; k++ {
		if got := fdcResponse(k); got != 0 {
			t.Errorf("fdcResponse(%d) = %v, want 0", k, got)
		}
	}
	prev := 1.0
	for k := 4; k <= 8; k++ {
		got := fdcResponse(k)
		if got <= 0 || got >= prev {
			t.Errorf("fdcResponse(%d) = %v, want decreasing positive rolloff below %v", k, got, prev)
		}
		prev = got
	}
}

// Constant per-channel input must come back unchanged away from the
// borders: every green candidate lands on the green level and every
// gathered color difference equals the same constant.
func TestReconstructFDCConstantChroma(t *testing.T) {
	const w, h = 64, 64
	cfa := XTransCFA(xtransStandard)
	m := NewMosaic(w, h, cfa)
	levels := [3]float32{0.6, 0.5, 0.4}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			m.Set(x, y, levels[cfa.ColorAt(x, y)])
		}
	}

	tile := &rawTile{pix: m.Pix, width: w, height: h, channels: 1, cfa: cfa, workers: 2}
	dst := NewImage(w, h)
	reconstructFDC(dst, tile, &ResolvedParams{})

	for y := 16; y < h-16; y++ {
		for x := 16; x < w-16; x++ {
			i := (y*w + x) * 4
			for c := 0; c < 3; c++ {
				if d := math.Abs(float64(dst.Pix[i+c] - levels[c])); d > 1e-5 {
					t.Fatalf("channel %d at (%d, %d) = %v, want %v", c, x, y, dst.Pix[i+c], levels[c])
				}
			}
		}
	}
}
