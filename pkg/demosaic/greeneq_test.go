package demosaic

import (
	"math"
	"testing"
)

// imbalancedMosaic builds an RGGB frame with a response offset between
// the two green populations: even-row greens read lo, odd-row greens hi.
func imbalancedMosaic(w, h int, lo, hi float32) *Mosaic {
	m := NewMosaic(w, h, BayerCFA(FiltersRGGB))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			switch m.CFA.ColorAt(x, y) {
			case ChanGreen:
				if y&1 == 0 {
					m.Set(x, y, lo)
				} else {
					m.Set(x, y, hi)
				}
			case ChanRed:
				m.Set(x, y, 0.3)
			default:
				m.Set(x, y, 0.2)
			}
		}
	}
	return m
}

func TestFullGreenEq(t *testing.T) {
	m := imbalancedMosaic(32, 32, 0.5, 0.6)
	greenEqualize(m, GreenEqFull, 0, 2)

	const want = 0.55
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			v := m.At(x, y)
			switch m.CFA.ColorAt(x, y) {
			case ChanGreen:
				if d := math.Abs(float64(v - want)); d > 1e-5 {
					t.Fatalf("green (%d, %d) = %v, want %v", x, y, v, want)
				}
			case ChanRed:
				if v != 0.3 {
					t.Fatalf("red (%d, %d) = %v, touched by green eq", x, y, v)
				}
			default:
				if v != 0.2 {
					t.Fatalf("blue (%d, %d) = %v, touched by green eq", x, y, v)
				}
			}
		}
	}
}

func TestLocalGreenEqConverges(t *testing.T) {
	m := imbalancedMosaic(32, 32, 0.5, 0.56)
	greenEqualize(m, GreenEqLocal, 0.1, 2)

	for y := 2; y < 30; y++ {
		for x := 2; x < 30; x++ {
			if m.CFA.ColorAt(x, y) != ChanGreen {
				continue
			}
			v := m.At(x, y)
			if y&1 == 0 {
				if v != 0.5 {
					t.Fatalf("reference green (%d, %d) = %v, want untouched 0.5", x, y, v)
				}
				continue
			}
			if d := math.Abs(float64(v - 0.5)); d > 1e-5 {
				t.Fatalf("odd-row green (%d, %d) = %v, want 0.5", x, y, v)
			}
		}
	}
}

func TestLocalGreenEqGates(t *testing.T) {
	m := imbalancedMosaic(32, 32, 0.5, 0.56)
	// A clipped photosite inside the rings of its distance-2 neighbors.
	m.Set(16, 15, 1.0)
	greenEqualize(m, GreenEqLocal, 0.1, 2)

	if v := m.At(16, 15); v != 1.0 {
		t.Errorf("clipped green = %v, want untouched by the highlight guard", v)
	}
	for _, xy := range [][2]int{{16, 17}, {16, 13}} {
		if v := m.At(xy[0], xy[1]); v != 0.56 {
			t.Errorf("green (%d, %d) = %v, want 0.56 behind the flatness gate", xy[0], xy[1], v)
		}
	}
	// Greens whose rings never see the spike still converge.
	if v := m.At(20, 17); math.Abs(float64(v-0.5)) > 1e-5 {
		t.Errorf("green (20, 17) = %v, want 0.5", v)
	}
}

func TestGreenEqualizeSkips(t *testing.T) {
	m := imbalancedMosaic(16, 16, 0.5, 0.6)
	orig := make([]float32, len(m.Pix))
	copy(orig, m.Pix)

	greenEqualize(m, GreenEqDisabled, 0.1, 2)
	for i := range m.Pix {
		if m.Pix[i] != orig[i] {
			t.Fatal("disabled mode modified the mosaic")
		}
	}

	fm := NewMosaic(16, 16, FourBayerCFA())
	for i := range fm.Pix {
		fm.Pix[i] = 0.5
	}
	greenEqualize(fm, GreenEqFull, 0.1, 2)
	for i := range fm.Pix {
		if fm.Pix[i] != 0.5 {
			t.Fatal("green eq modified multi-channel plane data")
		}
	}
}

func TestGreenEqBoth(t *testing.T) {
	m := imbalancedMosaic(32, 32, 0.5, 0.6)
	greenEqualize(m, GreenEqBoth, 0.1, 2)

	// Full brings both populations to the midpoint, local then has
	// nothing left to move.
	for y := 2; y < 30; y++ {
		for x := 2; x < 30; x++ {
			if m.CFA.ColorAt(x, y) != ChanGreen {
				continue
			}
			if d := math.Abs(float64(m.At(x, y) - 0.55)); d > 1e-4 {
				t.Fatalf("green (%d, %d) = %v, want 0.55", x, y, m.At(x, y))
			}
		}
	}
}
