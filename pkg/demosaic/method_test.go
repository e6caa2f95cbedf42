package demosaic

import "testing"

func TestParseMethodNames(t *testing.T) {
	tests := []struct {
		in      string
		want    Method
		wantErr bool
	}{
		{in: "ppg", want: MethodPPG},
		{in: "amaze", want: MethodAMaZE},
		{in: "vng4", want: MethodVNG4},
		{in: "passthrough", want: MethodPassthroughMono},
		{in: "photosites", want: MethodPassthroughColor},
		{in: "rcd", want: MethodRCD},
		{in: "lmmse", want: MethodLMMSE},
		{in: "vng", want: MethodVNG},
		{in: "markesteijn", want: MethodMarkesteijn},
		{in: "markesteijn3", want: MethodMarkesteijn3},
		{in: "passthrough-xtrans", want: MethodPassthroughMonoX},
		{in: "fdc", want: MethodFDC},
		{in: "photosites-xtrans", want: MethodPassthroughColorX},
		{in: "rcd+vng", want: MethodRCDVNG},
		{in: "amaze+vng", want: MethodAMaZEVNG},
		{in: "markesteijn3+vng", want: MethodMarkesteijn3VNG},
		{in: "RCD", want: MethodRCD},
		{in: " Markesteijn3+VNG ", want: MethodMarkesteijn3VNG},
		{in: "bilinear", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMethod(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseMethod(%q) = %v, want error", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseMethod(%q): %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseMethod(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestMethodStringParseRoundTrip(t *testing.T) {
	ids := Methods()
	ids = append(ids, MethodRCDVNG, MethodAMaZEVNG, MethodMarkesteijn3VNG)
	for _, m := range ids {
		got, err := ParseMethod(m.String())
		if err != nil {
			t.Errorf("ParseMethod(%q): %v", m.String(), err)
			continue
		}
		if got != m {
			t.Errorf("ParseMethod(%q) = %v, want %v", m.String(), got, m)
		}
	}
}

func TestMethodsRegistry(t *testing.T) {
	ids := Methods()
	if len(ids) != 13 {
		t.Fatalf("Methods() lists %d ids, want 13", len(ids))
	}
	for i := 1; i < len(ids); i++ {
		if ids[i-1] >= ids[i] {
			t.Errorf("Methods() not ascending at %d: %v >= %v", i, ids[i-1], ids[i])
		}
	}
	seen := make(map[string]Method)
	for _, m := range ids {
		name := m.String()
		if prev, dup := seen[name]; dup {
			t.Errorf("methods %v and %v share the name %q", prev, m, name)
		}
		seen[name] = m
	}
}

// Resolution must yield a runnable method for any input, including ids that
// were never registered.
func TestResolveTotal(t *testing.T) {
	cfas := []CFA{
		BayerCFA(FiltersRGGB),
		XTransCFA(xtransStandard),
		FourBayerCFA(),
		MonochromeCFA(),
	}
	candidates := Methods()
	candidates = append(candidates,
		MethodRCDVNG, MethodAMaZEVNG, MethodMarkesteijn3VNG,
		Method(999), MethodXTrans|9, MethodDual|Method(42))

	for _, cfa := range cfas {
		for _, req := range candidates {
			for _, th := range []float32{0, 0.2} {
				got := Resolve(req, cfa, th)
				e, ok := strategies[got.Base()]
				if !ok {
					t.Fatalf("Resolve(%v, %s, %v) = %v, not in the registry", req, cfa.Kind, th, got)
				}
				if e.classes&classOf(cfa.Kind) == 0 {
					t.Errorf("Resolve(%v, %s, %v) = %s, which cannot run on %s",
						req, cfa.Kind, th, got, cfa.Kind)
				}
				if got.IsDual() && th <= 0 {
					t.Errorf("Resolve(%v, %s, %v) kept the dual modifier with no threshold",
						req, cfa.Kind, th)
				}
			}
		}
	}
}

func TestResolveRemaps(t *testing.T) {
	bayer := BayerCFA(FiltersRGGB)
	xtrans := XTransCFA(xtransStandard)
	four := FourBayerCFA()
	mono := MonochromeCFA()

	tests := []struct {
		name string
		req  Method
		cfa  CFA
		th   float32
		want Method
	}{
		{name: "matching method passes through", req: MethodRCD, cfa: bayer, want: MethodRCD},
		{name: "bayer method on xtrans", req: MethodRCD, cfa: xtrans, want: MethodMarkesteijn},
		{name: "bayer dual on xtrans", req: MethodRCDVNG, cfa: xtrans, th: 0.2, want: MethodMarkesteijn3VNG},
		{name: "xtrans method on bayer", req: MethodMarkesteijn, cfa: bayer, want: MethodPPG},
		{name: "xtrans dual on bayer", req: MethodMarkesteijn3VNG, cfa: bayer, th: 0.2, want: MethodRCDVNG},
		{name: "vng on bayer", req: MethodVNG, cfa: bayer, want: MethodPPG},
		{name: "lmmse on xtrans", req: MethodLMMSE, cfa: xtrans, want: MethodMarkesteijn},
		{name: "passthrough xtrans variant collapses", req: MethodPassthroughMonoX, cfa: bayer, want: MethodPassthroughMono},
		{name: "photosites xtrans variant collapses", req: MethodPassthroughColorX, cfa: xtrans, want: MethodPassthroughColor},
		{name: "mono forces passthrough", req: MethodRCD, cfa: mono, want: MethodPassthroughMono},
		{name: "mono strips dual", req: MethodRCDVNG, cfa: mono, th: 0.2, want: MethodPassthroughMono},
		{name: "4-bayer falls back to vng4", req: MethodRCD, cfa: four, want: MethodVNG4},
		{name: "4-bayer keeps photosites", req: MethodPassthroughColor, cfa: four, want: MethodPassthroughColor},
		{name: "zero threshold strips dual", req: MethodRCDVNG, cfa: bayer, th: 0, want: MethodRCD},
		{name: "positive threshold keeps dual", req: MethodAMaZEVNG, cfa: bayer, th: 0.2, want: MethodAMaZEVNG},
		{name: "vng4 stays on bayer", req: MethodVNG4, cfa: bayer, want: MethodVNG4},
		{name: "fdc stays on xtrans", req: MethodFDC, cfa: xtrans, want: MethodFDC},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Resolve(tt.req, tt.cfa, tt.th); got != tt.want {
				t.Errorf("Resolve(%v, %s, %v) = %v, want %v", tt.req, tt.cfa.Kind, tt.th, got, tt.want)
			}
		})
	}
}

func TestCommitParamsPolicy(t *testing.T) {
	bayer := BayerCFA(FiltersRGGB)
	xtrans := XTransCFA(xtransStandard)

	t.Run("median threshold feeds ppg only", func(t *testing.T) {
		p := Params{Method: MethodPPG, MedianThreshold: 0.1}
		if got := CommitParams(p, bayer); got.MedianThreshold != 0.1 {
			t.Errorf("PPG MedianThreshold = %v, want 0.1", got.MedianThreshold)
		}
		p.Method = MethodRCD
		if got := CommitParams(p, bayer); got.MedianThreshold != 0 {
			t.Errorf("RCD MedianThreshold = %v, want 0", got.MedianThreshold)
		}
	})

	t.Run("passthrough clears postprocessing", func(t *testing.T) {
		p := Params{
			Method:               MethodPassthroughMono,
			GreenEq:              GreenEqFull,
			ColorSmoothingPasses: 3,
		}
		got := CommitParams(p, bayer)
		if got.GreenEq != GreenEqDisabled {
			t.Errorf("GreenEq = %v, want disabled", got.GreenEq)
		}
		if got.ColorSmoothingPasses != 0 {
			t.Errorf("ColorSmoothingPasses = %d, want 0", got.ColorSmoothingPasses)
		}
	})

	t.Run("green eq is bayer only", func(t *testing.T) {
		p := Params{Method: MethodMarkesteijn, GreenEq: GreenEqBoth}
		if got := CommitParams(p, xtrans); got.GreenEq != GreenEqDisabled {
			t.Errorf("X-Trans GreenEq = %v, want disabled", got.GreenEq)
		}
		p.Method = MethodRCD
		if got := CommitParams(p, bayer); got.GreenEq != GreenEqBoth {
			t.Errorf("Bayer GreenEq = %v, want %v", got.GreenEq, GreenEqBoth)
		}
	})

	t.Run("dual threshold zeroed without dual", func(t *testing.T) {
		p := Params{Method: MethodRCD, DualThreshold: 0.3}
		if got := CommitParams(p, bayer); got.DualThreshold != 0 {
			t.Errorf("DualThreshold = %v, want 0", got.DualThreshold)
		}
		p.Method = MethodRCDVNG
		if got := CommitParams(p, bayer); got.DualThreshold != 0.3 {
			t.Errorf("dual DualThreshold = %v, want 0.3", got.DualThreshold)
		}
	})

	t.Run("counters clamp to their ranges", func(t *testing.T) {
		p := Params{Method: MethodLMMSE, ColorSmoothingPasses: 9, LMMSERefine: 7}
		got := CommitParams(p, bayer)
		if got.ColorSmoothingPasses != 5 {
			t.Errorf("ColorSmoothingPasses = %d, want 5", got.ColorSmoothingPasses)
		}
		if got.LMMSERefine != 4 {
			t.Errorf("LMMSERefine = %d, want 4", got.LMMSERefine)
		}
		p.ColorSmoothingPasses, p.LMMSERefine = -2, -1
		got = CommitParams(p, bayer)
		if got.ColorSmoothingPasses != 0 || got.LMMSERefine != 0 {
			t.Errorf("negative counters = (%d, %d), want (0, 0)",
				got.ColorSmoothingPasses, got.LMMSERefine)
		}
	})

	t.Run("accel eligibility", func(t *testing.T) {
		tests := []struct {
			method Method
			cfa    CFA
			th     float32
			want   bool
		}{
			{method: MethodPPG, cfa: bayer, want: true},
			{method: MethodRCD, cfa: bayer, want: true},
			{method: MethodVNG4, cfa: bayer, want: true},
			{method: MethodAMaZE, cfa: bayer, want: true},
			{method: MethodLMMSE, cfa: bayer, want: false},
			{method: MethodRCDVNG, cfa: bayer, th: 0.2, want: false},
			{method: MethodMarkesteijn, cfa: xtrans, want: false},
			{method: MethodPassthroughMono, cfa: bayer, want: false},
		}
		for _, tt := range tests {
			p := Params{Method: tt.method, DualThreshold: tt.th}
			if got := CommitParams(p, tt.cfa); got.AccelEligible != tt.want {
				t.Errorf("%s on %s: AccelEligible = %v, want %v",
					tt.method, tt.cfa.Kind, got.AccelEligible, tt.want)
			}
		}
	})
}

func TestStrategyForUnknownFallsBack(t *testing.T) {
	if got := strategyFor(Method(999)).name; got != "ppg" {
		t.Errorf("strategyFor(999).name = %q, want ppg", got)
	}
}
