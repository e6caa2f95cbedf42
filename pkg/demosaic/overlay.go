package demosaic

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// RenderRunOverlay generates a JPG diagnostic of a demosaic run and writes
// it to a file: the reconstructed image at reduced resolution, the dual
// detail mask tinted over it, the tile grid, and a run summary.
func RenderRunOverlay(res *Result, plan TilePlan, outputPath string) error {
	img, err := renderRunImage(res, plan)
	if err != nil {
		return err
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create overlay file: %w", err)
	}
	defer f.Close()

	return jpeg.Encode(f, img, &jpeg.Options{Quality: 90})
}

// RenderRunOverlayBytes generates the run diagnostic and returns it as JPEG
// bytes.
func RenderRunOverlayBytes(res *Result, plan TilePlan) ([]byte, error) {
	img, err := renderRunImage(res, plan)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// renderRunImage creates the overlay image in memory.
func renderRunImage(res *Result, plan TilePlan) (*image.RGBA, error) {
	if res == nil || res.RGB == nil {
		return nil, fmt.Errorf("no demosaic result")
	}
	src := res.RGB

	// Render at reduced resolution (800px wide, proportional height)
	const targetWidth = 800
	scale := float64(targetWidth) / float64(src.Width)
	imgW := targetWidth
	imgH := int(float64(src.Height) * scale)
	if imgH < 100 {
		imgH = 100
	}

	// Reserve space for summary text at bottom
	summaryH := 60
	totalH := imgH + summaryH

	img := image.NewRGBA(image.Rect(0, 0, imgW, totalH))

	// Black background
	for y := 0; y < totalH; y++ {
		for x := 0; x < imgW; x++ {
			img.Set(x, y, color.RGBA{0, 0, 0, 255})
		}
	}

	// Reconstructed image, display-encoded, with the detail mask tinted
	// toward orange where the blend kept the detailed pass.
	for y := 0; y < imgH; y++ {
		sy := int(float64(y) / scale)
		if sy >= src.Height {
			sy = src.Height - 1
		}
		for x := 0; x < imgW; x++ {
			sx := int(float64(x) / scale)
			if sx >= src.Width {
				sx = src.Width - 1
			}
			off := (sy*src.Width + sx) * 4
			r := gammaEncode(float64(clamp32(src.Pix[off], 0, 1)))
			g := gammaEncode(float64(clamp32(src.Pix[off+1], 0, 1)))
			b := gammaEncode(float64(clamp32(src.Pix[off+2], 0, 1)))
			if res.DetailMask != nil {
				m := float64(res.DetailMask[sy*src.Width+sx]) * 0.6
				r += (1 - r) * m
				g += (0.47 - g) * m
				b -= b * m
			}
			img.Set(x, y, color.RGBA{
				uint8(clampFloat64(r, 0, 1) * 255),
				uint8(clampFloat64(g, 0, 1) * 255),
				uint8(clampFloat64(b, 0, 1) * 255),
				255,
			})
		}
	}

	// Draw tile borders (white, 1px)
	gridColor := color.RGBA{255, 255, 255, 180}
	for _, t := range plan.Tiles {
		x0 := int(float64(t.Out.Min.X) * scale)
		x1 := int(float64(t.Out.Max.X) * scale)
		y0 := int(float64(t.Out.Min.Y) * scale)
		y1 := int(float64(t.Out.Max.Y) * scale)
		if x1 > imgW {
			x1 = imgW
		}
		if y1 > imgH {
			y1 = imgH
		}
		for x := x0; x < x1; x++ {
			img.Set(x, y0, gridColor)
			img.Set(x, y1-1, gridColor)
		}
		for y := y0; y < y1; y++ {
			img.Set(x0, y, gridColor)
			img.Set(x1-1, y, gridColor)
		}
	}

	// Label tiles when the grid is coarse enough to read
	face := basicfont.Face7x13
	textColor := color.RGBA{255, 255, 255, 255}
	if n := len(plan.Tiles); n > 1 && n <= 64 {
		for i, t := range plan.Tiles {
			cx := int(float64(t.Out.Min.X+t.Out.Max.X) / 2 * scale)
			cy := int(float64(t.Out.Min.Y+t.Out.Max.Y) / 2 * scale)
			drawCenteredText(img, face, fmt.Sprintf("%d", i), cx, cy, textColor)
		}
	}

	// Summary text at bottom
	summaryColor := color.RGBA{220, 220, 220, 255}
	summaryY := imgH + 15
	runStr := fmt.Sprintf("Method: %s  tiles: %d  accelerated: %v",
		res.Stats.Method, res.Stats.Tiles, res.Stats.Accelerated)
	detailStr := fmt.Sprintf("Hot pixels: %d", res.Stats.Hotpixels)
	if res.DetailMask != nil {
		detailStr += fmt.Sprintf("  detail coverage: %.1f%%", maskCoverage(res.DetailMask)*100)
	}

	drawText(img, face, runStr, 10, summaryY, summaryColor)
	drawText(img, face, detailStr, 10, summaryY+18, summaryColor)

	return img, nil
}

// maskCoverage returns the mean of a detail mask.
func maskCoverage(mask []float32) float64 {
	if len(mask) == 0 {
		return 0
	}
	var sum float64
	for _, v := range mask {
		sum += float64(v)
	}
	return sum / float64(len(mask))
}

// drawText draws a string at (x, y) using the given font face.
func drawText(img *image.RGBA, face font.Face, s string, x, y int, c color.RGBA) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

// drawCenteredText draws a string centered at (cx, cy).
func drawCenteredText(img *image.RGBA, face font.Face, s string, cx, cy int, c color.RGBA) {
	advance := font.MeasureString(face, s)
	x := cx - advance.Round()/2
	drawText(img, face, s, x, cy, c)
}
