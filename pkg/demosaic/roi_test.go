package demosaic

import "testing"

func TestComputeInputROIBayer(t *testing.T) {
	cfa := BayerCFA(FiltersRGGB)
	tests := []struct {
		name string
		out  ROI
		want ROI
	}{
		{
			name: "aligned window unchanged",
			out:  ROI{X: 4, Y: 6, Width: 100, Height: 64, Scale: 1},
			want: ROI{X: 4, Y: 6, Width: 100, Height: 64, Scale: 1},
		},
		{
			name: "odd origin snaps to nearest even",
			out:  ROI{X: 3, Y: 5, Width: 100, Height: 64, Scale: 1},
			want: ROI{X: 4, Y: 6, Width: 100, Height: 64, Scale: 1},
		},
		{
			name: "odd extent rounds up",
			out:  ROI{X: 0, Y: 0, Width: 99, Height: 63, Scale: 1},
			want: ROI{X: 0, Y: 0, Width: 100, Height: 64, Scale: 1},
		},
		{
			name: "input is requested at full resolution",
			out:  ROI{X: 0, Y: 0, Width: 50, Height: 50, Scale: 0.5},
			want: ROI{X: 0, Y: 0, Width: 50, Height: 50, Scale: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeInputROI(tt.out, MethodRCD, cfa)
			if got != tt.want {
				t.Errorf("ComputeInputROI(%v) = %v, want %v", tt.out, got, tt.want)
			}
		})
	}
}

func TestComputeInputROIXTrans(t *testing.T) {
	cfa := XTransCFA(xtransStandard)
	out := ROI{X: 7, Y: 10, Width: 31, Height: 20, Scale: 1}
	got := ComputeInputROI(out, MethodMarkesteijn, cfa)
	want := ROI{X: 6, Y: 12, Width: 36, Height: 24, Scale: 1}
	if got != want {
		t.Errorf("ComputeInputROI(%v) = %v, want %v", out, got, want)
	}
}

func TestComputeInputROITieRoundsUp(t *testing.T) {
	cfa := BayerCFA(FiltersRGGB)
	got := ComputeInputROI(ROI{X: 1, Y: 1, Width: 10, Height: 10, Scale: 1}, MethodPPG, cfa)
	if got.X != 2 || got.Y != 2 {
		t.Errorf("origin (1, 1) snapped to (%d, %d), want (2, 2)", got.X, got.Y)
	}

	xcfa := XTransCFA(xtransStandard)
	got = ComputeInputROI(ROI{X: 3, Y: 9, Width: 12, Height: 12, Scale: 1}, MethodMarkesteijn, xcfa)
	if got.X != 6 || got.Y != 12 {
		t.Errorf("origin (3, 9) snapped to (%d, %d), want (6, 12)", got.X, got.Y)
	}
}

func TestComputeInputROIPassthroughSkipsSnapping(t *testing.T) {
	cfa := BayerCFA(FiltersRGGB)
	out := ROI{X: 3, Y: 5, Width: 99, Height: 63, Scale: 1}
	for _, m := range []Method{MethodPassthroughMono, MethodPassthroughColor} {
		got := ComputeInputROI(out, m, cfa)
		if got != out {
			t.Errorf("%s: ComputeInputROI(%v) = %v, want window unchanged", m, out, got)
		}
	}
}

func TestComputeInputROIMonochrome(t *testing.T) {
	out := ROI{X: 3, Y: 5, Width: 99, Height: 63, Scale: 1}
	got := ComputeInputROI(out, MethodPPG, MonochromeCFA())
	if got != out {
		t.Errorf("ComputeInputROI(%v) = %v, want window unchanged", out, got)
	}
}

// Snapping is idempotent: feeding a negotiated window back through the
// negotiation returns it unchanged.
func TestComputeInputROIIdempotent(t *testing.T) {
	cfas := []CFA{BayerCFA(FiltersGRBG), XTransCFA(xtransStandard), FourBayerCFA()}
	for _, cfa := range cfas {
		for _, out := range []ROI{
			{X: 1, Y: 3, Width: 33, Height: 17, Scale: 1},
			{X: 11, Y: 7, Width: 200, Height: 99, Scale: 1},
		} {
			first := ComputeInputROI(out, MethodVNG4, cfa)
			second := ComputeInputROI(first, MethodVNG4, cfa)
			if first != second {
				t.Errorf("%s: snapping not idempotent: %v then %v", cfa.Kind, first, second)
			}
		}
	}
}

func TestComputeOutputROI(t *testing.T) {
	in := ROI{X: 12, Y: 6, Width: 100, Height: 64, Scale: 1}
	got := ComputeOutputROI(in)
	want := ROI{Width: 100, Height: 64, Scale: 1}
	if got != want {
		t.Errorf("ComputeOutputROI(%v) = %v, want %v", in, got, want)
	}
}
