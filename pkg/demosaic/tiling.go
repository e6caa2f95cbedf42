package demosaic

import (
	"errors"
	"fmt"
	"image"
	"math"
)

// bytesPerOutputPixel is the size of one interleaved RGBA float32 pixel.
const bytesPerOutputPixel = 16

// minTileSide is the smallest tile core the planner will emit. Below this
// the halo dominates the tile and throughput collapses.
const minTileSide = 64

// ErrResourceExhausted reports that no tiling fits the memory budget.
var ErrResourceExhausted = errors.New("demosaic: resource budget exhausted")

// ResourceError carries the minimal footprint that was requested against
// the budget that refused it. It unwraps to ErrResourceExhausted.
type ResourceError struct {
	Required int64
	Budget   int64
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("demosaic: tiling needs %d bytes, budget is %d", e.Required, e.Budget)
}

func (e *ResourceError) Unwrap() error { return ErrResourceExhausted }

// TilingSpec declares how a strategy behaves under tiling. Factor counts
// live buffer multiples of one output tile, OverheadBytes the fixed
// allocations independent of tile size, OverlapPx the halo each tile edge
// needs so that core pixels match an untiled run.
type TilingSpec struct {
	Factor          float64
	OverheadBytes   int64
	MaxBuffersAlive int
	XAlign          int
	YAlign          int
	OverlapPx       int
}

// Tile is one unit of work: In is read from the mosaic including the halo,
// Out is the core region written to the output. Both are in output ROI
// coordinates.
type Tile struct {
	In  image.Rectangle
	Out image.Rectangle
}

// TilePlan is the planner's answer: the tile list in row-major order and
// the estimated peak bytes per tile.
type TilePlan struct {
	Tiles        []Tile
	SingleShot   bool
	PerTileBytes int64
}

// PlanTiling computes the tile grid for running method m over roi within
// budget bytes. A budget of zero or below means unconstrained. The plan is
// single-shot whenever the whole ROI fits.
func PlanTiling(m Method, roi ROI, budget int64) (TilePlan, error) {
	return planTiling(strategyFor(m).tiling, roi, budget)
}

func planTiling(spec TilingSpec, roi ROI, budget int64) (TilePlan, error) {
	if roi.Width <= 0 || roi.Height <= 0 {
		return TilePlan{}, nil
	}
	xa, ya := spec.XAlign, spec.YAlign
	if xa < 1 {
		xa = 1
	}
	if ya < 1 {
		ya = 1
	}

	full := image.Rect(0, 0, roi.Width, roi.Height)
	single := singleFootprint(spec, roi)
	if budget <= 0 || single <= budget {
		return TilePlan{
			Tiles:        []Tile{{In: full, Out: full}},
			SingleShot:   true,
			PerTileBytes: single,
		}, nil
	}

	minW, minH := minTileSize(spec, roi)
	floor := tileFootprint(spec, minW, minH)
	if floor > budget {
		return TilePlan{}, &ResourceError{Required: floor, Budget: budget}
	}

	// Start from the largest square tile the budget admits, then shrink
	// alignment steps until the halo-inclusive footprint fits.
	area := float64(budget-spec.OverheadBytes) / (spec.Factor * bytesPerOutputPixel)
	side := int(math.Sqrt(area)) - 2*spec.OverlapPx
	coreW := clampInt(side/xa*xa, minW, ceilMultiple(roi.Width, xa))
	coreH := clampInt(side/ya*ya, minH, ceilMultiple(roi.Height, ya))
	for tileFootprint(spec, coreW, coreH) > budget {
		switch {
		case coreW >= coreH && coreW-xa >= minW:
			coreW -= xa
		case coreH-ya >= minH:
			coreH -= ya
		case coreW-xa >= minW:
			coreW -= xa
		default:
			return TilePlan{}, &ResourceError{Required: floor, Budget: budget}
		}
	}

	// Rebalance to spread the remainder evenly. Rounding up to the
	// alignment never exceeds the budgeted core size.
	nx := (roi.Width + coreW - 1) / coreW
	ny := (roi.Height + coreH - 1) / coreH
	coreW = ceilMultiple((roi.Width+nx-1)/nx, xa)
	coreH = ceilMultiple((roi.Height+ny-1)/ny, ya)

	plan := TilePlan{
		Tiles:        make([]Tile, 0, nx*ny),
		SingleShot:   nx == 1 && ny == 1,
		PerTileBytes: tileFootprint(spec, coreW, coreH),
	}
	for ty := 0; ty < ny; ty++ {
		y0 := ty * coreH
		if y0 >= roi.Height {
			break
		}
		y1 := minInt(y0+coreH, roi.Height)
		for tx := 0; tx < nx; tx++ {
			x0 := tx * coreW
			if x0 >= roi.Width {
				break
			}
			x1 := minInt(x0+coreW, roi.Width)
			out := image.Rect(x0, y0, x1, y1)
			in := image.Rect(
				maxInt(x0-spec.OverlapPx, 0),
				maxInt(y0-spec.OverlapPx, 0),
				minInt(x1+spec.OverlapPx, roi.Width),
				minInt(y1+spec.OverlapPx, roi.Height),
			)
			plan.Tiles = append(plan.Tiles, Tile{In: in, Out: out})
		}
	}
	logger().Debug("tile plan",
		"tiles", len(plan.Tiles),
		"coreWidth", coreW,
		"coreHeight", coreH,
		"perTileBytes", plan.PerTileBytes)
	return plan, nil
}

func tileFootprint(spec TilingSpec, coreW, coreH int) int64 {
	w := float64(coreW + 2*spec.OverlapPx)
	h := float64(coreH + 2*spec.OverlapPx)
	return int64(spec.Factor*w*h)*bytesPerOutputPixel + spec.OverheadBytes
}

// singleFootprint is the working set of an unpartitioned run over roi.
func singleFootprint(spec TilingSpec, roi ROI) int64 {
	return int64(spec.Factor*float64(roi.Width)*float64(roi.Height))*bytesPerOutputPixel + spec.OverheadBytes
}

// minTileSize is the smallest admissible tile core for the spec within
// the ROI, respecting alignment.
func minTileSize(spec TilingSpec, roi ROI) (minW, minH int) {
	xa, ya := spec.XAlign, spec.YAlign
	if xa < 1 {
		xa = 1
	}
	if ya < 1 {
		ya = 1
	}
	minW = ceilMultiple(minTileSide, xa)
	minH = ceilMultiple(minTileSide, ya)
	if minW > roi.Width {
		minW = ceilMultiple(roi.Width, xa)
	}
	if minH > roi.Height {
		minH = ceilMultiple(roi.Height, ya)
	}
	return minW, minH
}

// minTileFootprint is the smallest working set any tiling of roi can
// reach, the figure a ResourceError reports as required.
func minTileFootprint(spec TilingSpec, roi ROI) int64 {
	minW, minH := minTileSize(spec, roi)
	return tileFootprint(spec, minW, minH)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
