package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	dm "demosaic/pkg/demosaic"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type cliOptions struct {
	method     string
	paramsPath string
	savePath   string
	output     string
	overlay    string
	preview    string
	maskPath   string
	pattern    string
	matrix     string
	greenEq    string
	dualThresh float64
	hotpixel   float64
	smoothing  int
	budgetMiB  int64
	workers    int
	accel      bool
	verbose    bool
}

func run(args []string) error {
	fs := flag.NewFlagSet("demosaic", flag.ContinueOnError)
	var opt cliOptions
	fs.StringVar(&opt.method, "method", "", "reconstruction method (rcd, ppg, vng4, lmmse, amaze, markesteijn, ...)")
	fs.StringVar(&opt.paramsPath, "params", "", "YAML params file")
	fs.StringVar(&opt.savePath, "save-params", "", "write the effective params to this YAML file")
	fs.StringVar(&opt.output, "o", "", "output path, .png or .hdr (default <input>_rgb.png)")
	fs.StringVar(&opt.overlay, "overlay", "", "write a diagnostic overlay JPEG")
	fs.StringVar(&opt.preview, "preview", "", "write a downscaled 8-bit PNG preview")
	fs.StringVar(&opt.maskPath, "mask", "", "write the dual-demosaic detail mask as PNG")
	fs.StringVar(&opt.pattern, "pattern", "", "CFA pattern override (RGGB, BGGR, GRBG, GBRG, XTRANS, MONO)")
	fs.StringVar(&opt.matrix, "matrix", "", "sRGB-to-camera 3x3 matrix, nine comma-separated values")
	fs.StringVar(&opt.greenEq, "green-eq", "", "green equalization mode (disabled, local, full, both)")
	fs.Float64Var(&opt.dualThresh, "dual-threshold", -1, "dual-demosaic contrast threshold")
	fs.Float64Var(&opt.hotpixel, "hotpixel", -1, "hot pixel threshold in deviations (0 disables)")
	fs.IntVar(&opt.smoothing, "smooth", -1, "color smoothing passes (0-5)")
	fs.Int64Var(&opt.budgetMiB, "budget", 0, "tiling memory budget in MiB (0 = unlimited)")
	fs.IntVar(&opt.workers, "workers", 0, "worker goroutines (0 = all CPUs)")
	fs.BoolVar(&opt.accel, "accel", false, "try the accelerated backend before the CPU path")
	fs.BoolVar(&opt.verbose, "v", false, "verbose logging")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: demosaic [options] <input.fits|input.pgm>")
		fmt.Fprintln(fs.Output(), "options:")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("usage: demosaic [options] <input-file>")
	}
	inputFilePath := fs.Arg(0)

	level := slog.LevelWarn
	if opt.verbose {
		level = slog.LevelDebug
	}
	dm.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	params, err := resolveParams(&opt)
	if err != nil {
		return err
	}
	if opt.savePath != "" {
		if err := dm.SaveParams(params, opt.savePath); err != nil {
			return err
		}
		fmt.Printf("Params saved: %s\n", opt.savePath)
	}

	fmt.Printf("Loading: %s\n", inputFilePath)
	mosaic, err := loadInput(inputFilePath, opt.pattern)
	if err != nil {
		return err
	}

	if opt.accel {
		if err := registerAccelerator(); err != nil {
			fmt.Printf("Accelerated backend unavailable: %v\n", err)
			opt.accel = false
		} else {
			defer dm.UnregisterAccelerator()
		}
	}

	procOpts := dm.Options{
		MemoryBudget: opt.budgetMiB << 20,
		Workers:      opt.workers,
	}
	startTime := time.Now()
	var res *dm.Result
	if opt.accel {
		res, err = dm.ProcessAccelerated(mosaic, params, procOpts, context.Background())
	} else {
		res, err = dm.Process(mosaic, params, procOpts, context.Background())
	}
	if err != nil {
		return fmt.Errorf("demosaicing: %w", err)
	}
	elapsed := time.Since(startTime)

	fmt.Println()
	fmt.Printf("=== Demosaic Results (%.1fs) ===\n", elapsed.Seconds())
	fmt.Printf("  Image size:      %d x %d\n", res.RGB.Width, res.RGB.Height)
	fmt.Printf("  Pattern:         %s\n", patternLabel(mosaic.CFA))
	fmt.Printf("  Method:          %s\n", res.Stats.Method)
	fmt.Printf("  Tiles:           %d\n", res.Stats.Tiles)
	fmt.Printf("  Accelerated:     %v\n", res.Stats.Accelerated)
	fmt.Printf("  Hot pixels:      %d\n", res.Stats.Hotpixels)
	fmt.Println("==============================")

	if opt.matrix != "" {
		vals, err := parseMatrix(opt.matrix)
		if err != nil {
			return err
		}
		applied, err := applyCameraMatrix(res.RGB, vals)
		if err != nil {
			return err
		}
		if !applied {
			fmt.Println("Color matrix is singular, left output in camera space")
		}
	}

	outputPath := opt.output
	if outputPath == "" {
		ext := filepath.Ext(inputFilePath)
		outputPath = strings.TrimSuffix(inputFilePath, ext) + "_rgb.png"
	}
	if err := writeOutput(res.RGB, outputPath); err != nil {
		return err
	}
	fmt.Printf("Saved: %s\n", outputPath)

	if opt.preview != "" {
		if err := writePreviewPNG(res.RGB, opt.preview, 1024); err != nil {
			return err
		}
		fmt.Printf("Preview: %s\n", opt.preview)
	}
	if opt.maskPath != "" {
		if res.DetailMask == nil {
			fmt.Println("No detail mask: method is not a dual demosaicer")
		} else {
			if err := writeMaskPNG(res.DetailMask, res.RGB.Width, res.RGB.Height, opt.maskPath); err != nil {
				return err
			}
			fmt.Printf("Mask: %s\n", opt.maskPath)
		}
	}
	if opt.overlay != "" {
		if err := dm.RenderRunOverlay(res, res.Plan, opt.overlay); err != nil {
			return fmt.Errorf("rendering overlay: %w", err)
		}
		fmt.Printf("Overlay: %s\n", opt.overlay)
	}
	return nil
}

// resolveParams layers the flag overrides over the params file, which in
// turn layers over the built-in defaults.
func resolveParams(opt *cliOptions) (dm.Params, error) {
	params := dm.DefaultParams()
	if opt.paramsPath != "" {
		p, err := dm.LoadParams(opt.paramsPath)
		if err != nil {
			return params, err
		}
		params = p
	}
	if opt.method != "" {
		m, err := dm.ParseMethod(opt.method)
		if err != nil {
			return params, err
		}
		params.Method = m
	}
	if opt.greenEq != "" {
		mode, err := dm.ParseGreenEqMode(opt.greenEq)
		if err != nil {
			return params, err
		}
		params.GreenEq = mode
	}
	if opt.dualThresh >= 0 {
		params.DualThreshold = float32(opt.dualThresh)
	}
	if opt.hotpixel >= 0 {
		params.HotpixelThreshold = float32(opt.hotpixel)
	}
	if opt.smoothing >= 0 {
		params.ColorSmoothingPasses = opt.smoothing
	}
	return params, nil
}

// loadInput reads the mosaic by extension: FITS with its header metadata,
// PGM as bare 16-bit sensor data, anything else through the image loader
// selected at build time.
func loadInput(inputFilePath, patternOverride string) (*dm.Mosaic, error) {
	lowerPath := strings.ToLower(inputFilePath)
	var mosaic *dm.Mosaic
	switch {
	case strings.HasSuffix(lowerPath, ".fits"), strings.HasSuffix(lowerPath, ".fit"), strings.HasSuffix(lowerPath, ".fts"):
		m, meta, err := dm.ReadRawFITS(inputFilePath)
		if err != nil {
			return nil, fmt.Errorf("reading FITS: %w", err)
		}
		fmt.Printf("FITS loaded: %dx%d, %s\n", m.Width, m.Height, patternLabel(m.CFA))
		if cam := meta.CameraName(); cam != "" {
			fmt.Printf("Camera: %s\n", cam)
		}
		if exp, ok := meta.ExposureTime(); ok {
			fmt.Printf("Exposure: %.1fs\n", exp)
		}
		mosaic = m
	case strings.HasSuffix(lowerPath, ".pgm"):
		m, err := readPGM16(inputFilePath)
		if err != nil {
			return nil, fmt.Errorf("reading PGM: %w", err)
		}
		fmt.Printf("PGM loaded: %dx%d\n", m.Width, m.Height)
		mosaic = m
	default:
		m, err := loadRawImage(inputFilePath)
		if err != nil {
			return nil, err
		}
		fmt.Printf("Image loaded: %dx%d\n", m.Width, m.Height)
		mosaic = m
	}
	if patternOverride != "" {
		cfa, err := dm.ParseCFAPattern(patternOverride)
		if err != nil {
			return nil, err
		}
		mosaic.CFA = cfa
	}
	if mosaic.CFA.Kind == dm.PatternMonochrome && patternOverride == "" {
		fmt.Println("No CFA pattern in input, treating as monochrome (use -pattern to override)")
	}
	return mosaic, nil
}

func patternLabel(c dm.CFA) string {
	switch c.Kind {
	case dm.PatternBayer, dm.PatternFourBayer:
		return fmt.Sprintf("%s %s", c.Kind, c.PatternString())
	default:
		return c.Kind.String()
	}
}

func writeOutput(img *dm.Image, outputPath string) error {
	switch strings.ToLower(filepath.Ext(outputPath)) {
	case ".png":
		return writePNG16(img, outputPath)
	case ".hdr":
		return writeHDR(img, outputPath)
	default:
		return fmt.Errorf("unsupported output format %q (use .png or .hdr)", filepath.Ext(outputPath))
	}
}
