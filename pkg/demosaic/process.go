package demosaic

import (
	"context"
	"errors"
	"fmt"
	"image"
)

// Process reconstructs a full-color image from a raw mosaic on the CPU.
// The method request in p is resolved against the mosaic's pattern, the
// frame is conditioned (hot pixel suppression, green equalization), tiled
// to the memory budget and reconstructed. A nil ctx disables cancellation
// checks.
func Process(m *Mosaic, p Params, opts Options, ctx context.Context) (*Result, error) {
	return process(m, p, opts, false, ctx)
}

// ProcessAccelerated behaves like Process but offers eligible
// reconstructions to the registered accelerator first. If the backend
// declines or fails, the CPU path recomputes the full result; the output
// never mixes backends.
func ProcessAccelerated(m *Mosaic, p Params, opts Options, ctx context.Context) (*Result, error) {
	return process(m, p, opts, true, ctx)
}

func process(m *Mosaic, p Params, opts Options, tryAccel bool, ctx context.Context) (*Result, error) {
	if err := validateMosaic(m); err != nil {
		return nil, err
	}
	rp := CommitParams(p, m.CFA)
	workers := opts.Workers
	roi := ROI{Width: m.Width, Height: m.Height, Scale: 1}
	spec := strategyFor(rp.Method).tiling

	// Conditioning works on full-frame buffers, so its cost comes off the
	// budget before the planner sees it.
	condition := rp.HotpixelThreshold > 0 || rp.GreenEq != GreenEqDisabled
	frameBytes := int64(m.Width) * int64(m.Height)
	var reserved int64
	if condition {
		reserved += frameBytes * 8 // mosaic copy plus one scratch plane
	}
	budget := opts.MemoryBudget

	var plan TilePlan
	var err error
	if rp.Method.IsDual() {
		// The dual blend never tiles: its contrast mask is a whole-image
		// statistic and tile borders would seam it. The budget check is
		// direct instead, both passes' buffers plus the mask planes.
		lfSpec := strategyFor(lowFreqMethod(m.CFA)).tiling
		required := reserved + singleFootprint(spec, roi) +
			singleFootprint(lfSpec, roi) + frameBytes*20
		if budget > 0 && required > budget {
			return nil, &ResourceError{Required: required, Budget: budget}
		}
		plan, err = planTiling(spec, roi, 0)
	} else {
		if budget > 0 {
			budget -= reserved
			if budget <= 0 {
				return nil, &ResourceError{
					Required: reserved + minTileFootprint(spec, roi),
					Budget:   opts.MemoryBudget,
				}
			}
		}
		plan, err = planTiling(spec, roi, budget)
	}
	if err != nil {
		return nil, raiseResourceError(err, reserved, opts.MemoryBudget)
	}

	src := m
	var hot int64
	if condition {
		src = cloneMosaic(m)
		hot = suppressHotPixels(src, rp.HotpixelThreshold, workers)
		greenEqualize(src, rp.GreenEq, rp.GreenEqThreshold, workers)
	}

	img := NewImage(roi.Width, roi.Height)
	accelerated := false
	if tryAccel && rp.AccelEligible {
		if a := ActiveAccelerator(); a != nil && a.CanAccelerate(rp.Method, m.CFA) {
			err := runAccelerated(a, img, src, rp.Method, plan, ctx)
			switch {
			case err == nil:
				accelerated = true
			case ctx != nil && ctx.Err() != nil:
				return nil, ctx.Err()
			default:
				logger().Warn("accelerated demosaic failed, using CPU path",
					"backend", a.Name(), "error", err)
			}
		}
	}
	if !accelerated {
		if err := runTiles(img, src, rp.Method.Base(), &rp, plan, workers, ctx); err != nil {
			return nil, err
		}
	}

	var mask []float32
	if rp.Method.IsDual() {
		lf := lowFreqMethod(m.CFA)
		lfPlan, err := planTiling(strategyFor(lf).tiling, roi, 0)
		if err != nil {
			return nil, err
		}
		smooth := NewImage(roi.Width, roi.Height)
		if err := runTiles(smooth, src, lf, &rp, lfPlan, workers, ctx); err != nil {
			return nil, err
		}
		mask = blendDual(img, smooth, rp.DualThreshold, workers)
	}

	colorSmooth(img, rp.ColorSmoothingPasses, workers)

	// Strategies may leave scratch in the fourth channel; finalize it to
	// opaque alpha.
	parallelRows(workers, 0, roi.Height, func(start, end int) {
		for y := start; y < end; y++ {
			base := y * roi.Width * 4
			for x := 0; x < roi.Width; x++ {
				img.Pix[base+x*4+3] = 1
			}
		}
	})

	logger().Debug("demosaic complete",
		"method", rp.Method.String(),
		"tiles", len(plan.Tiles),
		"accelerated", accelerated,
		"hotpixels", hot)
	return &Result{
		RGB:        img,
		DetailMask: mask,
		Stats: ProcessStats{
			Method:      rp.Method.String(),
			Tiles:       len(plan.Tiles),
			Accelerated: accelerated,
			Hotpixels:   hot,
		},
		Plan: plan,
	}, nil
}

func validateMosaic(m *Mosaic) error {
	if m == nil || m.Width <= 0 || m.Height <= 0 {
		return errors.New("demosaic: empty mosaic")
	}
	want := 1
	if m.CFA.Kind == PatternFourBayer {
		want = 4
	}
	if m.Channels != want {
		return fmt.Errorf("demosaic: mosaic has %d channels, %s data needs %d",
			m.Channels, m.CFA.Kind, want)
	}
	if len(m.Pix) < m.Width*m.Height*m.Channels {
		return fmt.Errorf("demosaic: pixel buffer holds %d samples, need %d",
			len(m.Pix), m.Width*m.Height*m.Channels)
	}
	return nil
}

func cloneMosaic(m *Mosaic) *Mosaic {
	c := *m
	c.Pix = make([]float32, len(m.Pix))
	copy(c.Pix, m.Pix)
	return &c
}

// raiseResourceError folds the reserved full-frame bytes back into a
// planner ResourceError so the caller sees the true totals.
func raiseResourceError(err error, reserved, budget int64) error {
	var re *ResourceError
	if errors.As(err, &re) {
		re.Required += reserved
		re.Budget = budget
	}
	return err
}

func ctxErr(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

// runTiles reconstructs every tile of the plan with the method's CPU
// strategy. Single-shot plans alias the mosaic storage directly.
func runTiles(dst *Image, m *Mosaic, method Method, rp *ResolvedParams, plan TilePlan, workers int, ctx context.Context) error {
	entry := strategyFor(method)
	if plan.SingleShot && len(plan.Tiles) == 1 {
		if err := ctxErr(ctx); err != nil {
			return err
		}
		t := &rawTile{
			pix:      m.Pix,
			width:    m.Width,
			height:   m.Height,
			channels: m.Channels,
			x0:       m.OffsetX,
			y0:       m.OffsetY,
			cfa:      m.CFA,
			workers:  workers,
		}
		entry.run(dst, t, rp)
		return nil
	}
	for _, tile := range plan.Tiles {
		if err := ctxErr(ctx); err != nil {
			return err
		}
		rt := extractTile(m, tile.In, workers)
		tdst := NewImage(rt.width, rt.height)
		entry.run(tdst, rt, rp)
		copyCore(dst, tdst, tile)
	}
	return nil
}

// runAccelerated feeds the plan's tiles to the backend. Any failure
// abandons the whole attempt so no partial accelerated output survives.
func runAccelerated(a Accelerator, dst *Image, m *Mosaic, method Method, plan TilePlan, ctx context.Context) error {
	if m.Channels != 1 {
		return ErrBackendUnavailable
	}
	for _, tile := range plan.Tiles {
		if err := ctxErr(ctx); err != nil {
			return err
		}
		tw, th := tile.In.Dx(), tile.In.Dy()
		window := make([]float32, tw*th)
		for y := 0; y < th; y++ {
			srcOff := (tile.In.Min.Y+y)*m.Width + tile.In.Min.X
			copy(window[y*tw:(y+1)*tw], m.Pix[srcOff:srcOff+tw])
		}
		out, err := a.Demosaic(window, tw, th,
			m.OffsetX+tile.In.Min.X, m.OffsetY+tile.In.Min.Y, m.CFA, method)
		if err != nil {
			return err
		}
		if len(out) != tw*th*4 {
			return ErrBackendUnavailable
		}
		copyCore(dst, &Image{Pix: out, Width: tw, Height: th}, tile)
	}
	return nil
}

// extractTile copies a mosaic window including halo into tile-local
// storage.
func extractTile(m *Mosaic, in image.Rectangle, workers int) *rawTile {
	tw, th := in.Dx(), in.Dy()
	rt := &rawTile{
		pix:      make([]float32, tw*th*m.Channels),
		width:    tw,
		height:   th,
		channels: m.Channels,
		x0:       m.OffsetX + in.Min.X,
		y0:       m.OffsetY + in.Min.Y,
		cfa:      m.CFA,
		workers:  workers,
	}
	rowLen := tw * m.Channels
	for y := 0; y < th; y++ {
		srcOff := ((in.Min.Y+y)*m.Width + in.Min.X) * m.Channels
		copy(rt.pix[y*rowLen:(y+1)*rowLen], m.Pix[srcOff:srcOff+rowLen])
	}
	return rt
}

// copyCore places a tile's core region into the assembled output.
func copyCore(dst *Image, tile *Image, t Tile) {
	ox := t.Out.Min.X - t.In.Min.X
	oy := t.Out.Min.Y - t.In.Min.Y
	wOut := t.Out.Dx()
	for y := 0; y < t.Out.Dy(); y++ {
		srcOff := ((oy+y)*tile.Width + ox) * 4
		dstOff := ((t.Out.Min.Y+y)*dst.Width + t.Out.Min.X) * 4
		copy(dst.Pix[dstOff:dstOff+wOut*4], tile.Pix[srcOff:srcOff+wOut*4])
	}
}
