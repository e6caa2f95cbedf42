package demosaic

import (
	"fmt"
	"strings"
)

// PatternKind classifies the sensor mosaic layout.
type PatternKind int

const (
	PatternBayer PatternKind = iota
	PatternXTrans
	PatternFourBayer
	PatternMonochrome
)

func (k PatternKind) String() string {
	switch k {
	case PatternBayer:
		return "Bayer"
	case PatternXTrans:
		return "X-Trans"
	case PatternFourBayer:
		return "4-Bayer"
	case PatternMonochrome:
		return "Monochrome"
	default:
		return "Unknown"
	}
}

// Channel indices used throughout the package. FourBayer sensors carry a
// second green-like filter on channel 3; plain Bayer greens all map to 1.
const (
	ChanRed    = 0
	ChanGreen  = 1
	ChanBlue   = 2
	ChanGreen2 = 3
)

// Bayer filter codes for the four 2x2 orders, in the packed 32-bit encoding
// where ColorAt(x, y) = (Filters >> (((y<<1 & 14) + (x & 1)) << 1)) & 3.
const (
	FiltersRGGB uint32 = 0x94949494
	FiltersBGGR uint32 = 0x16161616
	FiltersGRBG uint32 = 0x61616161
	FiltersGBRG uint32 = 0x49494949
)

// CFA describes a color filter array: the pattern kind plus its lookup data.
// Bayer and 4-Bayer patterns live in Filters, X-Trans in the 6x6 table.
type CFA struct {
	Kind    PatternKind
	Filters uint32
	XTrans  [6][6]uint8
}

// xtransStandard is the 6x6 layout used by Fujifilm X-Trans sensors:
// 20 green, 8 red and 8 blue sites per repeat, with every row and column
// containing all three colors.
var xtransStandard = [6][6]uint8{
	{1, 1, 0, 1, 1, 2},
	{1, 1, 2, 1, 1, 0},
	{2, 0, 1, 0, 2, 1},
	{1, 1, 2, 1, 1, 0},
	{1, 1, 0, 1, 1, 2},
	{0, 2, 1, 2, 0, 1},
}

// BayerCFA builds a Bayer descriptor from a packed filter code.
func BayerCFA(filters uint32) CFA {
	return CFA{Kind: PatternBayer, Filters: filters}
}

// XTransCFA builds an X-Trans descriptor. A zero pattern selects the
// standard Fujifilm layout.
func XTransCFA(pattern [6][6]uint8) CFA {
	if pattern == ([6][6]uint8{}) {
		pattern = xtransStandard
	}
	return CFA{Kind: PatternXTrans, XTrans: pattern}
}

// MonochromeCFA builds a descriptor for sensors without color filters.
func MonochromeCFA() CFA {
	return CFA{Kind: PatternMonochrome}
}

// FourBayerCFA builds a 4-Bayer descriptor: the usual RGGB geometry with
// the second green kept as its own channel (RGBE/CYGM-style sensors).
func FourBayerCFA() CFA {
	return CFA{
		Kind:    PatternFourBayer,
		Filters: filtersFromTile([2][2]uint8{{ChanRed, ChanGreen}, {ChanGreen2, ChanBlue}}),
	}
}

// ParseCFAPattern builds a descriptor from a header-style pattern string:
// a four-letter Bayer order such as "RGGB", or "XTRANS"/"MONO".
func ParseCFAPattern(s string) (CFA, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "RGGB":
		return BayerCFA(FiltersRGGB), nil
	case "BGGR":
		return BayerCFA(FiltersBGGR), nil
	case "GRBG":
		return BayerCFA(FiltersGRBG), nil
	case "GBRG":
		return BayerCFA(FiltersGBRG), nil
	case "XTRANS":
		return XTransCFA(xtransStandard), nil
	case "MONO", "MONOCHROME":
		return MonochromeCFA(), nil
	default:
		return CFA{}, fmt.Errorf("unknown CFA pattern %q", s)
	}
}

// ColorAt returns the channel index of the photosite at sensor coordinate
// (x, y). The lookup is pure and periodic: period 2 for Bayer and 4-Bayer,
// period 6 for X-Trans.
func (c CFA) ColorAt(x, y int) int {
	switch c.Kind {
	case PatternXTrans:
		return int(c.XTrans[mod6(y)][mod6(x)])
	case PatternMonochrome:
		return ChanGreen
	default:
		return int(c.Filters >> (((uint(y)<<1&14)+(uint(x)&1))<<1) & 3)
	}
}

// AlignUnit is the snapping and tiling alignment period of the pattern.
func (c CFA) AlignUnit() int {
	switch c.Kind {
	case PatternXTrans:
		return 6
	case PatternMonochrome:
		return 1
	default:
		return 2
	}
}

// Shift returns the descriptor as seen from an origin moved by (dx, dy),
// used when a reader reports a pattern offset relative to the frame.
func (c CFA) Shift(dx, dy int) CFA {
	switch c.Kind {
	case PatternXTrans:
		var p [6][6]uint8
		for r := 0; r < 6; r++ {
			for q := 0; q < 6; q++ {
				p[r][q] = c.XTrans[mod6(r+dy)][mod6(q+dx)]
			}
		}
		c.XTrans = p
	case PatternBayer, PatternFourBayer:
		var t [2][2]uint8
		for r := 0; r < 2; r++ {
			for q := 0; q < 2; q++ {
				t[r][q] = uint8(c.ColorAt(dx+q, dy+r))
			}
		}
		c.Filters = filtersFromTile(t)
	}
	return c
}

// PatternString renders the 2x2 Bayer order ("RGGB" etc.) for logs and
// headers; other kinds return their kind name.
func (c CFA) PatternString() string {
	if c.Kind != PatternBayer && c.Kind != PatternFourBayer {
		return c.Kind.String()
	}
	letters := [4]byte{'R', 'G', 'B', 'G'}
	return string([]byte{
		letters[c.ColorAt(0, 0)],
		letters[c.ColorAt(1, 0)],
		letters[c.ColorAt(0, 1)],
		letters[c.ColorAt(1, 1)],
	})
}

// filtersFromTile packs a 2x2 channel tile into the 32-bit filter code by
// replicating it over the eight rows the encoding covers.
func filtersFromTile(tile [2][2]uint8) uint32 {
	var f uint32
	for r := 0; r < 8; r++ {
		for q := 0; q < 2; q++ {
			shift := ((uint(r)<<1&14) + uint(q)&1) << 1
			f |= uint32(tile[r%2][q]) << shift
		}
	}
	return f
}

func mod6(v int) int {
	m := v % 6
	if m < 0 {
		m += 6
	}
	return m
}
