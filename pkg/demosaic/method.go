package demosaic

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Method identifies a reconstruction algorithm: a base id in the low bits,
// the MethodXTrans sensor-class tag and the MethodDual modifier above. The
// numeric values are stable because resolved methods are persisted.
type Method uint32

const (
	MethodPPG Method = iota
	MethodAMaZE
	MethodVNG4
	MethodPassthroughMono
	MethodPassthroughColor
	MethodRCD
	MethodLMMSE
)

const (
	// MethodXTrans tags a base id as belonging to the X-Trans family.
	MethodXTrans Method = 1 << 10
	// MethodDual requests the dual-demosaic blend on top of the base.
	MethodDual Method = 1 << 11

	MethodVNG               = MethodXTrans | 0
	MethodMarkesteijn       = MethodXTrans | 1
	MethodMarkesteijn3      = MethodXTrans | 2
	MethodPassthroughMonoX  = MethodXTrans | 3
	MethodFDC               = MethodXTrans | 4
	MethodPassthroughColorX = MethodXTrans | 5

	MethodRCDVNG          = MethodDual | MethodRCD
	MethodAMaZEVNG        = MethodDual | MethodAMaZE
	MethodMarkesteijn3VNG = MethodDual | MethodMarkesteijn3
)

// Base strips the dual modifier, leaving the algorithm id.
func (m Method) Base() Method { return m &^ MethodDual }

// IsDual reports whether the dual-demosaic modifier is set.
func (m Method) IsDual() bool { return m&MethodDual != 0 }

// IsXTrans reports whether the id carries the X-Trans sensor-class tag.
func (m Method) IsXTrans() bool { return m&MethodXTrans != 0 }

// IsPassthrough reports whether the base id copies photosites without
// interpolating.
func (m Method) IsPassthrough() bool {
	switch m.Base() {
	case MethodPassthroughMono, MethodPassthroughColor,
		MethodPassthroughMonoX, MethodPassthroughColorX:
		return true
	}
	return false
}

func (m Method) String() string {
	if m.IsDual() {
		return m.Base().String() + "+vng"
	}
	if e, ok := strategies[m]; ok {
		return e.name
	}
	return fmt.Sprintf("method(%d)", uint32(m))
}

// ParseMethod resolves a method name, accepting the "+vng" dual suffix.
func ParseMethod(s string) (Method, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	dual := false
	if base, ok := strings.CutSuffix(name, "+vng"); ok {
		dual = true
		name = base
	}
	for id, e := range strategies {
		if e.name == name {
			if dual {
				return id | MethodDual, nil
			}
			return id, nil
		}
	}
	return 0, fmt.Errorf("unknown demosaic method %q", s)
}

func (m Method) MarshalYAML() (interface{}, error) {
	return m.String(), nil
}

func (m *Method) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseMethod(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Methods lists every registered base id in ascending order.
func Methods() []Method {
	ids := make([]Method, 0, len(strategies))
	for id := range strategies {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// sensorClass is the set of pattern kinds a strategy body can run on.
type sensorClass uint8

const (
	classBayer sensorClass = 1 << iota
	classXTrans
	classFourBayer
	classMono
)

const classAny = classBayer | classXTrans | classFourBayer | classMono

func classOf(k PatternKind) sensorClass {
	switch k {
	case PatternXTrans:
		return classXTrans
	case PatternFourBayer:
		return classFourBayer
	case PatternMonochrome:
		return classMono
	default:
		return classBayer
	}
}

// reconstructFunc runs one strategy over a tile, writing every pixel of dst
// (core and halo alike). dst has the tile's extents.
type reconstructFunc func(dst *Image, t *rawTile, rp *ResolvedParams)

// strategyEntry is one registry slot: the closed set of reconstruction
// strategies with their declared tiling behavior.
type strategyEntry struct {
	name        string
	classes     sensorClass
	tiling      TilingSpec
	run         reconstructFunc
	accelerable bool
}

// strategies maps base method ids to their implementations. The overlap and
// factor figures are empirical: overlap covers the widest stencil chain each
// body evaluates, factor counts live buffer multiples of the output tile.
var strategies = map[Method]strategyEntry{
	MethodPPG: {
		name:        "ppg",
		classes:     classBayer,
		tiling:      TilingSpec{Factor: 2.0, MaxBuffersAlive: 3, XAlign: 2, YAlign: 2, OverlapPx: 5},
		run:         reconstructPPG,
		accelerable: true,
	},
	MethodAMaZE: {
		// AMaZE shares the RCD body until a dedicated port lands.
		name:        "amaze",
		classes:     classBayer,
		tiling:      TilingSpec{Factor: 2.5, MaxBuffersAlive: 6, XAlign: 2, YAlign: 2, OverlapPx: 10},
		run:         reconstructRCD,
		accelerable: true,
	},
	MethodVNG4: {
		name:        "vng4",
		classes:     classBayer | classFourBayer,
		tiling:      TilingSpec{Factor: 2.5, MaxBuffersAlive: 3, XAlign: 2, YAlign: 2, OverlapPx: 6},
		run:         reconstructVNG,
		accelerable: true,
	},
	MethodPassthroughMono: {
		name:    "passthrough",
		classes: classAny,
		tiling:  TilingSpec{Factor: 1.25, MaxBuffersAlive: 2, XAlign: 1, YAlign: 1},
		run:     reconstructPassthroughMono,
	},
	MethodPassthroughColor: {
		name:    "photosites",
		classes: classAny,
		tiling:  TilingSpec{Factor: 1.25, MaxBuffersAlive: 2, XAlign: 2, YAlign: 2},
		run:     reconstructPassthroughColor,
	},
	MethodRCD: {
		name:        "rcd",
		classes:     classBayer,
		tiling:      TilingSpec{Factor: 2.5, MaxBuffersAlive: 6, XAlign: 2, YAlign: 2, OverlapPx: 10},
		run:         reconstructRCD,
		accelerable: true,
	},
	MethodLMMSE: {
		name:    "lmmse",
		classes: classBayer,
		tiling:  TilingSpec{Factor: 3.0, OverheadBytes: 1 << 19, MaxBuffersAlive: 7, XAlign: 2, YAlign: 2, OverlapPx: 16},
		run:     reconstructLMMSE,
	},
	MethodVNG: {
		name:    "vng",
		classes: classXTrans,
		tiling:  TilingSpec{Factor: 2.5, MaxBuffersAlive: 3, XAlign: 6, YAlign: 6, OverlapPx: 6},
		run:     reconstructVNG,
	},
	MethodMarkesteijn: {
		name:    "markesteijn",
		classes: classXTrans,
		tiling:  TilingSpec{Factor: 4.0, MaxBuffersAlive: 8, XAlign: 6, YAlign: 6, OverlapPx: 12},
		run:     reconstructMarkesteijn1,
	},
	MethodMarkesteijn3: {
		name:    "markesteijn3",
		classes: classXTrans,
		tiling:  TilingSpec{Factor: 5.0, MaxBuffersAlive: 10, XAlign: 6, YAlign: 6, OverlapPx: 18},
		run:     reconstructMarkesteijn3,
	},
	MethodPassthroughMonoX: {
		name:    "passthrough-xtrans",
		classes: classAny,
		tiling:  TilingSpec{Factor: 1.25, MaxBuffersAlive: 2, XAlign: 1, YAlign: 1},
		run:     reconstructPassthroughMono,
	},
	MethodFDC: {
		name:    "fdc",
		classes: classXTrans,
		tiling:  TilingSpec{Factor: 6.0, OverheadBytes: 1 << 20, MaxBuffersAlive: 10, XAlign: 6, YAlign: 6, OverlapPx: 18},
		run:     reconstructFDC,
	},
	MethodPassthroughColorX: {
		name:    "photosites-xtrans",
		classes: classAny,
		tiling:  TilingSpec{Factor: 1.25, MaxBuffersAlive: 2, XAlign: 6, YAlign: 6},
		run:     reconstructPassthroughColor,
	},
}

func strategyFor(m Method) strategyEntry {
	if e, ok := strategies[m.Base()]; ok {
		return e
	}
	return strategies[MethodPPG]
}

// Resolve maps a requested method and the actual sensor pattern to the
// method that will run: Requested -> Remapped -> Resolved. Passthrough
// sub-variants collapse to their canonical ids, a sensor-class mismatch
// substitutes the class default (PPG for Bayer, Markesteijn for X-Trans,
// with the dual modifier carried over), and the dual modifier survives only
// when the dual threshold is positive. Resolution is total: any input
// yields a runnable method.
func Resolve(requested Method, cfa CFA, dualThreshold float32) Method {
	m := requested
	switch m.Base() {
	case MethodPassthroughMonoX:
		m = MethodPassthroughMono
	case MethodPassthroughColorX:
		m = MethodPassthroughColor
	}

	dual := m.IsDual()
	base := m.Base()

	switch cfa.Kind {
	case PatternMonochrome:
		base, dual = MethodPassthroughMono, false
	case PatternFourBayer:
		if !base.IsPassthrough() {
			base = MethodVNG4
		}
	case PatternXTrans:
		if e, ok := strategies[base]; !ok || e.classes&classXTrans == 0 {
			if dual {
				base = MethodMarkesteijn3
			} else {
				base = MethodMarkesteijn
			}
		}
	default:
		if e, ok := strategies[base]; !ok || e.classes&classBayer == 0 {
			if dual {
				base = MethodRCD
			} else {
				base = MethodPPG
			}
		}
	}

	if base.IsPassthrough() || dualThreshold <= 0 {
		dual = false
	}
	resolved := base
	if dual {
		resolved |= MethodDual
	}
	if resolved.Base() != requested.Base() {
		logger().Debug("demosaic method remapped",
			"requested", requested.String(),
			"resolved", resolved.String(),
			"sensor", cfa.Kind.String())
	}
	return resolved
}

// ResolvedParams is the committed form of Params: the resolved method plus
// the parameter policy applied for it.
type ResolvedParams struct {
	Method               Method
	MedianThreshold      float32
	GreenEq              GreenEqMode
	GreenEqThreshold     float32
	ColorSmoothingPasses int
	DualThreshold        float32
	LMMSERefine          int
	HotpixelThreshold    float32
	AccelEligible        bool
}

// CommitParams resolves the method for the sensor and applies the
// per-method parameter policy: the median threshold feeds PPG only,
// passthrough runs without green equalization or color smoothing, and green
// equalization is limited to single-channel Bayer data. It also records
// accelerated-backend eligibility. Never fails.
func CommitParams(p Params, cfa CFA) ResolvedParams {
	m := Resolve(p.Method, cfa, p.DualThreshold)
	rp := ResolvedParams{
		Method:               m,
		MedianThreshold:      p.MedianThreshold,
		GreenEq:              p.GreenEq,
		GreenEqThreshold:     p.GreenEqThreshold,
		ColorSmoothingPasses: clampInt(p.ColorSmoothingPasses, 0, 5),
		DualThreshold:        p.DualThreshold,
		LMMSERefine:          clampInt(p.LMMSERefine, 0, 4),
		HotpixelThreshold:    p.HotpixelThreshold,
	}
	if m.Base() != MethodPPG {
		rp.MedianThreshold = 0
	}
	if m.IsPassthrough() {
		rp.GreenEq = GreenEqDisabled
		rp.ColorSmoothingPasses = 0
	}
	if cfa.Kind != PatternBayer {
		rp.GreenEq = GreenEqDisabled
	}
	if !m.IsDual() {
		rp.DualThreshold = 0
	}
	rp.AccelEligible = strategyFor(m).accelerable && !m.IsDual()
	return rp
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
