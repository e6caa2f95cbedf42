package demosaic

import (
	"math"
	"testing"
)

func TestLowFreqMethod(t *testing.T) {
	if got := lowFreqMethod(BayerCFA(FiltersRGGB)); got != MethodVNG4 {
		t.Errorf("Bayer companion = %v, want %v", got, MethodVNG4)
	}
	if got := lowFreqMethod(XTransCFA(xtransStandard)); got != MethodVNG {
		t.Errorf("X-Trans companion = %v, want %v", got, MethodVNG)
	}
	if got := lowFreqMethod(FourBayerCFA()); got != MethodVNG4 {
		t.Errorf("4-Bayer companion = %v, want %v", got, MethodVNG4)
	}
}

func TestDetailMaskFlat(t *testing.T) {
	img := NewImage(32, 32)
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2] = 0.4, 0.4, 0.4
	}
	mask := detailMask(img, 0.2, 2)
	if len(mask) != 32*32 {
		t.Fatalf("mask has %d entries, want %d", len(mask), 32*32)
	}
	for i, v := range mask {
		if v != 0 {
			t.Fatalf("flat image mask[%d] = %v, want 0", i, v)
		}
	}
}

func TestDetailMaskEdge(t *testing.T) {
	img := NewImage(64, 64)
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			v := float32(0.1)
			if x >= 32 {
				v = 0.9
			}
			i := (y*64 + x) * 4
			img.Pix[i], img.Pix[i+1], img.Pix[i+2] = v, v, v
		}
	}
	mask := detailMask(img, 0.2, 2)
	for i, v := range mask {
		if v < 0 || v > 1 {
			t.Fatalf("mask[%d] = %v, outside [0, 1]", i, v)
		}
	}
	y := 32
	if at := mask[y*64+32]; at < 0.9 {
		t.Errorf("mask at the step = %v, want close to 1", at)
	}
	if far := mask[y*64+8]; far != 0 {
		t.Errorf("mask far from the step = %v, want 0", far)
	}
}

// A larger threshold needs a larger residual to saturate, so the mask can
// only shrink.
func TestDetailMaskThresholdScaling(t *testing.T) {
	img := NewImage(32, 32)
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			i := (y*32 + x) * 4
			v := float32(0.3)
			if (x+y)%7 == 0 {
				v = 0.42
			}
			img.Pix[i], img.Pix[i+1], img.Pix[i+2] = v, v, v
		}
	}
	tight := detailMask(img, 0.05, 2)
	loose := detailMask(img, 0.8, 2)
	var sawDrop bool
	for i := range tight {
		if loose[i] > tight[i]+1e-6 {
			t.Fatalf("mask[%d] grew from %v to %v with a looser threshold", i, tight[i], loose[i])
		}
		if loose[i] < tight[i] {
			sawDrop = true
		}
	}
	if !sawDrop {
		t.Error("loosening the threshold changed nothing")
	}
}

func TestBlendDual(t *testing.T) {
	w, h := 48, 48
	detailed := NewImage(w, h)
	smooth := NewImage(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := (y*w + x) * 4
			v := float32(0.2)
			if x >= 24 {
				v = 0.8
			}
			detailed.Pix[i], detailed.Pix[i+1], detailed.Pix[i+2] = v, v, v
			smooth.Pix[i], smooth.Pix[i+1], smooth.Pix[i+2] = 0.5, 0.5, 0.5
		}
	}

	mask := blendDual(detailed, smooth, 0.2, 2)

	// Far from the step the mask is zero and the companion wins outright.
	i := (24*w + 4) * 4
	if detailed.Pix[i] != 0.5 {
		t.Errorf("flat region = %v, want the companion value 0.5", detailed.Pix[i])
	}
	// On the step the detailed result dominates.
	i = (24*w + 24) * 4
	if m := mask[24*w+24]; m < 0.9 {
		t.Errorf("mask on the step = %v, want close to 1", m)
	}
	if d := math.Abs(float64(detailed.Pix[i] - 0.8)); d > 0.1 {
		t.Errorf("step pixel = %v, want near the detailed value 0.8", detailed.Pix[i])
	}
}

// A dual run over a step scene keeps the companion in flat areas and
// reports where the detailed pass survived.
func TestProcessDualEdge(t *testing.T) {
	m := edgeMosaic(96, 96, BayerCFA(FiltersRGGB), 48, 0.1, 0.9)
	res, err := Process(m, Params{Method: MethodRCDVNG, DualThreshold: 0.2}, Options{}, nil)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.Stats.Method != "rcd+vng" {
		t.Errorf("Stats.Method = %q, want rcd+vng", res.Stats.Method)
	}
	if len(res.DetailMask) != 96*96 {
		t.Fatalf("detail mask has %d entries, want %d", len(res.DetailMask), 96*96)
	}
	edgeMax, farMax := float32(0), float32(0)
	for y := 20; y < 76; y++ {
		for x := 0; x < 96; x++ {
			v := res.DetailMask[y*96+x]
			if v < 0 || v > 1 {
				t.Fatalf("mask(%d, %d) = %v, outside [0, 1]", x, y, v)
			}
			switch {
			case x >= 44 && x < 52:
				if v > edgeMax {
					edgeMax = v
				}
			case x < 32 || x >= 64:
				if v > farMax {
					farMax = v
				}
			}
		}
	}
	if edgeMax < 0.5 {
		t.Errorf("peak mask near the step = %v, want strong detail", edgeMax)
	}
	if farMax > 0.01 {
		t.Errorf("mask in flat regions peaks at %v, want none", farMax)
	}
}
