package demosaic

import "testing"

func TestColorAtBayerOrders(t *testing.T) {
	tests := []struct {
		name    string
		filters uint32
		// channel at (0,0), (1,0), (0,1), (1,1)
		want [4]int
	}{
		{name: "RGGB", filters: FiltersRGGB, want: [4]int{ChanRed, ChanGreen, ChanGreen, ChanBlue}},
		{name: "BGGR", filters: FiltersBGGR, want: [4]int{ChanBlue, ChanGreen, ChanGreen, ChanRed}},
		{name: "GRBG", filters: FiltersGRBG, want: [4]int{ChanGreen, ChanRed, ChanBlue, ChanGreen}},
		{name: "GBRG", filters: FiltersGBRG, want: [4]int{ChanGreen, ChanBlue, ChanRed, ChanGreen}},
	}

	coords := [4][2]int{{0, 0}, {1, 0}, {0, 1}, {1, 1}}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfa := BayerCFA(tt.filters)
			for i, xy := range coords {
				if got := cfa.ColorAt(xy[0], xy[1]); got != tt.want[i] {
					t.Errorf("ColorAt(%d, %d) = %d, want %d", xy[0], xy[1], got, tt.want[i])
				}
			}
			// Pattern repeats with period 2 in both directions, including
			// across negative coordinates.
			for _, xy := range coords {
				base := cfa.ColorAt(xy[0], xy[1])
				if got := cfa.ColorAt(xy[0]+2, xy[1]+4); got != base {
					t.Errorf("ColorAt(%d, %d) = %d, want %d", xy[0]+2, xy[1]+4, got, base)
				}
				if got := cfa.ColorAt(xy[0]-2, xy[1]-2); got != base {
					t.Errorf("ColorAt(%d, %d) = %d, want %d", xy[0]-2, xy[1]-2, got, base)
				}
			}
		})
	}
}

func TestColorAtXTrans(t *testing.T) {
	cfa := XTransCFA(xtransStandard)

	var counts [3]int
	for y := 0; y < 6; y++ {
		var rowHas [3]bool
		for x := 0; x < 6; x++ {
			c := cfa.ColorAt(x, y)
			if c < ChanRed || c > ChanBlue {
				t.Fatalf("ColorAt(%d, %d) = %d, want a channel in [0, 2]", x, y, c)
			}
			counts[c]++
			rowHas[c] = true
		}
		if !rowHas[ChanRed] || !rowHas[ChanGreen] || !rowHas[ChanBlue] {
			t.Errorf("row %d is missing a color: %v", y, rowHas)
		}
	}
	if counts[ChanRed] != 8 || counts[ChanGreen] != 20 || counts[ChanBlue] != 8 {
		t.Errorf("6x6 channel counts = %v, want [8 20 8]", counts)
	}

	for y := 0; y < 6; y++ {
		for x := 0; x < 6; x++ {
			if cfa.ColorAt(x+6, y-6) != cfa.ColorAt(x, y) {
				t.Errorf("pattern does not repeat with period 6 at (%d, %d)", x, y)
			}
		}
	}
}

func TestColorAtMonochrome(t *testing.T) {
	cfa := MonochromeCFA()
	for _, xy := range [][2]int{{0, 0}, {3, 7}, {-2, 5}} {
		if got := cfa.ColorAt(xy[0], xy[1]); got != ChanGreen {
			t.Errorf("ColorAt(%d, %d) = %d, want %d", xy[0], xy[1], got, ChanGreen)
		}
	}
}

func TestColorAtFourBayer(t *testing.T) {
	cfa := FourBayerCFA()
	want := [4]int{ChanRed, ChanGreen, ChanGreen2, ChanBlue}
	coords := [4][2]int{{0, 0}, {1, 0}, {0, 1}, {1, 1}}
	for i, xy := range coords {
		if got := cfa.ColorAt(xy[0], xy[1]); got != want[i] {
			t.Errorf("ColorAt(%d, %d) = %d, want %d", xy[0], xy[1], got, want[i])
		}
	}
}

func TestShiftBayer(t *testing.T) {
	tests := []struct {
		name   string
		dx, dy int
		want   string
	}{
		{name: "no shift", dx: 0, dy: 0, want: "RGGB"},
		{name: "one column", dx: 1, dy: 0, want: "GRBG"},
		{name: "one row", dx: 0, dy: 1, want: "GBRG"},
		{name: "diagonal", dx: 1, dy: 1, want: "BGGR"},
		{name: "full period", dx: 2, dy: 2, want: "RGGB"},
		{name: "negative diagonal", dx: -1, dy: -1, want: "BGGR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BayerCFA(FiltersRGGB).Shift(tt.dx, tt.dy).PatternString()
			if got != tt.want {
				t.Errorf("Shift(%d, %d) = %s, want %s", tt.dx, tt.dy, got, tt.want)
			}
		})
	}
}

func TestShiftXTrans(t *testing.T) {
	orig := XTransCFA(xtransStandard)
	shifted := orig.Shift(2, 3)
	for y := 0; y < 6; y++ {
		for x := 0; x < 6; x++ {
			if shifted.ColorAt(x, y) != orig.ColorAt(x+2, y+3) {
				t.Fatalf("Shift(2, 3).ColorAt(%d, %d) = %d, want %d",
					x, y, shifted.ColorAt(x, y), orig.ColorAt(x+2, y+3))
			}
		}
	}
	if got := orig.Shift(6, 6); got.XTrans != orig.XTrans {
		t.Error("Shift(6, 6) changed the X-Trans table")
	}
}

func TestPatternString(t *testing.T) {
	if got := BayerCFA(FiltersBGGR).PatternString(); got != "BGGR" {
		t.Errorf("PatternString() = %s, want BGGR", got)
	}
	if got := FourBayerCFA().PatternString(); got != "RGGB" {
		t.Errorf("4-Bayer PatternString() = %s, want RGGB", got)
	}
	if got := MonochromeCFA().PatternString(); got != "Monochrome" {
		t.Errorf("mono PatternString() = %s, want Monochrome", got)
	}
	if got := XTransCFA(xtransStandard).PatternString(); got != "X-Trans" {
		t.Errorf("X-Trans PatternString() = %s, want X-Trans", got)
	}
}

func TestParseCFAPattern(t *testing.T) {
	tests := []struct {
		in       string
		wantKind PatternKind
		wantStr  string
		wantErr  bool
	}{
		{in: "RGGB", wantKind: PatternBayer, wantStr: "RGGB"},
		{in: "bggr", wantKind: PatternBayer, wantStr: "BGGR"},
		{in: " GRBG ", wantKind: PatternBayer, wantStr: "GRBG"},
		{in: "GBRG", wantKind: PatternBayer, wantStr: "GBRG"},
		{in: "XTRANS", wantKind: PatternXTrans},
		{in: "MONO", wantKind: PatternMonochrome},
		{in: "MONOCHROME", wantKind: PatternMonochrome},
		{in: "RGBW", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCFAPattern(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseCFAPattern(%q) succeeded, want error", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseCFAPattern(%q): %v", tt.in, err)
			}
			if got.Kind != tt.wantKind {
				t.Errorf("ParseCFAPattern(%q).Kind = %v, want %v", tt.in, got.Kind, tt.wantKind)
			}
			if tt.wantStr != "" && got.PatternString() != tt.wantStr {
				t.Errorf("ParseCFAPattern(%q) pattern = %s, want %s", tt.in, got.PatternString(), tt.wantStr)
			}
		})
	}
}

func TestAlignUnit(t *testing.T) {
	if got := BayerCFA(FiltersRGGB).AlignUnit(); got != 2 {
		t.Errorf("Bayer AlignUnit() = %d, want 2", got)
	}
	if got := FourBayerCFA().AlignUnit(); got != 2 {
		t.Errorf("4-Bayer AlignUnit() = %d, want 2", got)
	}
	if got := XTransCFA(xtransStandard).AlignUnit(); got != 6 {
		t.Errorf("X-Trans AlignUnit() = %d, want 6", got)
	}
	if got := MonochromeCFA().AlignUnit(); got != 1 {
		t.Errorf("mono AlignUnit() = %d, want 1", got)
	}
}
