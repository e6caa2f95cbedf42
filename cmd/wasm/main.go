//go:build js && wasm

package main

import (
	"context"
	"math"
	"syscall/js"

	dm "demosaic/pkg/demosaic"
)

var lastResult *dm.Result

func main() {
	js.Global().Set("demosaicImage", js.FuncOf(demosaicImage))
	js.Global().Set("renderOverlay", js.FuncOf(renderOverlay))
	select {} // block forever
}

// demosaicImage reconstructs a raw FITS frame into canvas-ready RGBA bytes.
// Called from JS as demosaicImage(fitsBytes, method, options) where options
// may carry dualThreshold, greenEq, hotpixel, smooth, pattern and budget.
func demosaicImage(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("usage: demosaicImage(fitsBytes, method, options)")
	}

	// Extract file bytes
	jsBytes := args[0]
	length := jsBytes.Get("length").Int()
	fileBytes := make([]byte, length)
	js.CopyBytesToGo(fileBytes, jsBytes)

	params := dm.DefaultParams()
	if len(args) >= 2 && args[1].Type() == js.TypeString && args[1].String() != "" {
		m, err := dm.ParseMethod(args[1].String())
		if err != nil {
			return errorResult(err.Error())
		}
		params.Method = m
	}

	procOpts := dm.Options{}
	patternOverride := ""
	if len(args) >= 3 && args[2].Type() == js.TypeObject {
		opts := args[2]
		if v := opts.Get("dualThreshold"); v.Type() == js.TypeNumber {
			params.DualThreshold = float32(v.Float())
		}
		if v := opts.Get("greenEq"); v.Type() == js.TypeString {
			mode, err := dm.ParseGreenEqMode(v.String())
			if err != nil {
				return errorResult(err.Error())
			}
			params.GreenEq = mode
		}
		if v := opts.Get("hotpixel"); v.Type() == js.TypeNumber {
			params.HotpixelThreshold = float32(v.Float())
		}
		if v := opts.Get("smooth"); v.Type() == js.TypeNumber {
			params.ColorSmoothingPasses = v.Int()
		}
		if v := opts.Get("pattern"); v.Type() == js.TypeString {
			patternOverride = v.String()
		}
		if v := opts.Get("budget"); v.Type() == js.TypeNumber {
			procOpts.MemoryBudget = int64(v.Float()) << 20
		}
	}

	// Parse FITS
	mosaic, _, err := dm.ReadRawFITSFromBytes(fileBytes)
	if err != nil {
		return errorResult("FITS parse error: " + err.Error())
	}
	if patternOverride != "" {
		cfa, err := dm.ParseCFAPattern(patternOverride)
		if err != nil {
			return errorResult(err.Error())
		}
		mosaic.CFA = cfa
	}

	res, err := dm.Process(mosaic, params, procOpts, context.Background())
	if err != nil {
		return errorResult("demosaic error: " + err.Error())
	}
	lastResult = res

	// Create Uint8Array and copy pixels
	rgba := encodeRGBA8(res.RGB)
	uint8Array := js.Global().Get("Uint8Array").New(len(rgba))
	js.CopyBytesToJS(uint8Array, rgba)

	return js.ValueOf(map[string]interface{}{
		"width":     res.RGB.Width,
		"height":    res.RGB.Height,
		"pattern":   mosaic.CFA.PatternString(),
		"method":    res.Stats.Method,
		"tiles":     res.Stats.Tiles,
		"hotpixels": int(res.Stats.Hotpixels),
		"rgba":      uint8Array,
	})
}

func renderOverlay(this js.Value, args []js.Value) interface{} {
	if lastResult == nil {
		return js.Null()
	}

	jpegBytes, err := dm.RenderRunOverlayBytes(lastResult, lastResult.Plan)
	if err != nil {
		return js.Null()
	}

	// Create Uint8Array and copy bytes
	uint8Array := js.Global().Get("Uint8Array").New(len(jpegBytes))
	js.CopyBytesToJS(uint8Array, jpegBytes)
	return uint8Array
}

func errorResult(msg string) interface{} {
	return js.ValueOf(map[string]interface{}{
		"error": msg,
	})
}

// encodeRGBA8 converts the linear float image to sRGB-encoded bytes in the
// layout a canvas ImageData buffer expects.
func encodeRGBA8(img *dm.Image) []byte {
	out := make([]byte, img.Width*img.Height*4)
	for i := 0; i < img.Width*img.Height; i++ {
		out[i*4] = displayByte(img.Pix[i*4])
		out[i*4+1] = displayByte(img.Pix[i*4+1])
		out[i*4+2] = displayByte(img.Pix[i*4+2])
		out[i*4+3] = 0xff
	}
	return out
}

func displayByte(v float32) byte {
	e := float64(v)
	if e <= 0.0031308 {
		e = 12.92 * e
	} else {
		e = 1.055*math.Pow(e, 1/2.4) - 0.055
	}
	if e <= 0 {
		return 0
	}
	if e >= 1 {
		return 0xff
	}
	return byte(e*255 + 0.5)
}
