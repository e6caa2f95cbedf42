package demosaic

import "fmt"

// ROI is a rectangular window in source-pixel coordinates. Scale relates
// the window's resolution to the full-resolution input and is carried
// through negotiation untouched by the reconstruction itself.
type ROI struct {
	X      int
	Y      int
	Width  int
	Height int
	Scale  float64
}

func (r ROI) String() string {
	return fmt.Sprintf("%dx%d+%d+%d@%.3f", r.Width, r.Height, r.X, r.Y, r.Scale)
}

// ComputeInputROI returns the input window required to reconstruct out with
// method m: the origin snaps to the nearest multiple of the CFA alignment
// unit (ties round up) and the extents round up to whole pattern repeats.
// Passthrough methods read photosites as-is and skip snapping. The input is
// always requested at full resolution.
func ComputeInputROI(out ROI, m Method, cfa CFA) ROI {
	in := out
	in.Scale = 1.0
	if m.IsPassthrough() || cfa.Kind == PatternMonochrome {
		return in
	}
	unit := cfa.AlignUnit()
	in.X = snapNearest(out.X, unit)
	in.Y = snapNearest(out.Y, unit)
	in.Width = ceilMultiple(out.Width, unit)
	in.Height = ceilMultiple(out.Height, unit)
	return in
}

// ComputeOutputROI returns the output window achievable from in:
// reconstruction is resolution-preserving, so the extents carry over with
// the origin reset to (0, 0).
func ComputeOutputROI(in ROI) ROI {
	return ROI{Width: in.Width, Height: in.Height, Scale: in.Scale}
}

// snapNearest rounds v to the nearest multiple of unit, ties toward the
// larger multiple. v must be non-negative.
func snapNearest(v, unit int) int {
	if unit <= 1 {
		return v
	}
	return (v + unit/2) / unit * unit
}

func ceilMultiple(v, unit int) int {
	if unit <= 1 {
		return v
	}
	return (v + unit - 1) / unit * unit
}
