package main

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/mdouchement/hdr"
	"github.com/mdouchement/hdr/codec/rgbe"
	"github.com/mdouchement/hdr/hdrcolor"
	xdraw "golang.org/x/image/draw"
	"gonum.org/v1/gonum/mat"

	dm "demosaic/pkg/demosaic"
)

// writePNG16 stores the reconstruction as a 16-bit PNG with sRGB encoding.
func writePNG16(img *dm.Image, outputPath string) error {
	out := image.NewRGBA64(image.Rect(0, 0, img.Width, img.Height))
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			off := (y*img.Width + x) * 4
			out.SetRGBA64(x, y, color.RGBA64{
				R: encode16(img.Pix[off]),
				G: encode16(img.Pix[off+1]),
				B: encode16(img.Pix[off+2]),
				A: 0xffff,
			})
		}
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("error creating output file: %w", err)
	}
	defer f.Close()
	if err := png.Encode(f, out); err != nil {
		return fmt.Errorf("error encoding PNG: %w", err)
	}
	return nil
}

// writeHDR stores the reconstruction linearly in Radiance RGBE format.
func writeHDR(img *dm.Image, outputPath string) error {
	out := hdr.NewRGB(image.Rect(0, 0, img.Width, img.Height))
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			off := (y*img.Width + x) * 4
			out.SetRGB(x, y, hdrcolor.RGB{
				R: float64(img.Pix[off]),
				G: float64(img.Pix[off+1]),
				B: float64(img.Pix[off+2]),
			})
		}
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("error creating output file: %w", err)
	}
	defer f.Close()
	if err := rgbe.Encode(f, out); err != nil {
		return fmt.Errorf("error encoding HDR: %w", err)
	}
	return nil
}

// writePreviewPNG stores an 8-bit preview no wider than maxWidth,
// downscaled with the Catmull-Rom kernel.
func writePreviewPNG(img *dm.Image, outputPath string, maxWidth int) error {
	full := image.NewRGBA(image.Rect(0, 0, img.Width, img.Height))
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			off := (y*img.Width + x) * 4
			full.SetRGBA(x, y, color.RGBA{
				R: encode8(img.Pix[off]),
				G: encode8(img.Pix[off+1]),
				B: encode8(img.Pix[off+2]),
				A: 0xff,
			})
		}
	}
	out := full
	if img.Width > maxWidth {
		h := img.Height * maxWidth / img.Width
		if h < 1 {
			h = 1
		}
		out = image.NewRGBA(image.Rect(0, 0, maxWidth, h))
		xdraw.CatmullRom.Scale(out, out.Bounds(), full, full.Bounds(), xdraw.Src, nil)
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("error creating preview file: %w", err)
	}
	defer f.Close()
	if err := png.Encode(f, out); err != nil {
		return fmt.Errorf("error encoding preview: %w", err)
	}
	return nil
}

// writeMaskPNG stores a [0, 1] mask plane as an 8-bit grayscale PNG.
func writeMaskPNG(mask []float32, width, height int, outputPath string) error {
	if len(mask) != width*height {
		return fmt.Errorf("mask size %d does not match %dx%d", len(mask), width, height)
	}
	out := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := mask[y*width+x]
			if v < 0 {
				v = 0
			} else if v > 1 {
				v = 1
			}
			out.SetGray(x, y, color.Gray{Y: uint8(v*255 + 0.5)})
		}
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("error creating mask file: %w", err)
	}
	defer f.Close()
	if err := png.Encode(f, out); err != nil {
		return fmt.Errorf("error encoding mask: %w", err)
	}
	return nil
}

// encode16 maps a linear channel value to a 16-bit sRGB code.
func encode16(v float32) uint16 {
	e := srgbEncode(float64(v))
	if e <= 0 {
		return 0
	}
	if e >= 1 {
		return 0xffff
	}
	return uint16(e*65535 + 0.5)
}

// encode8 maps a linear channel value to an 8-bit sRGB code.
func encode8(v float32) uint8 {
	e := srgbEncode(float64(v))
	if e <= 0 {
		return 0
	}
	if e >= 1 {
		return 0xff
	}
	return uint8(e*255 + 0.5)
}

func srgbEncode(v float64) float64 {
	if v <= 0.0031308 {
		return 12.92 * v
	}
	return 1.055*math.Pow(v, 1/2.4) - 0.055
}

// readPGM16 reads a binary PGM (P5) file as single-channel sensor data
// normalized to [0, 1]. The CFA stays monochrome until the caller assigns
// one, PGM carries no pattern metadata.
func readPGM16(inputFilePath string) (*dm.Mosaic, error) {
	f, err := os.Open(inputFilePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r := bufio.NewReader(f)

	magic, err := pgmToken(r)
	if err != nil {
		return nil, err
	}
	if magic != "P5" {
		return nil, fmt.Errorf("not a binary PGM file (magic %q)", magic)
	}
	width, err := pgmInt(r)
	if err != nil {
		return nil, fmt.Errorf("bad width: %w", err)
	}
	height, err := pgmInt(r)
	if err != nil {
		return nil, fmt.Errorf("bad height: %w", err)
	}
	maxval, err := pgmInt(r)
	if err != nil {
		return nil, fmt.Errorf("bad maxval: %w", err)
	}
	if width <= 0 || height <= 0 || maxval <= 0 || maxval > 65535 {
		return nil, fmt.Errorf("bad PGM geometry %dx%d maxval %d", width, height, maxval)
	}

	m := dm.NewMosaic(width, height, dm.MonochromeCFA())
	scale := 1 / float32(maxval)
	if maxval > 255 {
		buf := make([]byte, width*2)
		for y := 0; y < height; y++ {
			if _, err := io.ReadFull(r, buf); err != nil {
				return nil, fmt.Errorf("truncated pixel data: %w", err)
			}
			for x := 0; x < width; x++ {
				v := uint16(buf[x*2])<<8 | uint16(buf[x*2+1])
				m.Pix[y*width+x] = float32(v) * scale
			}
		}
	} else {
		buf := make([]byte, width)
		for y := 0; y < height; y++ {
			if _, err := io.ReadFull(r, buf); err != nil {
				return nil, fmt.Errorf("truncated pixel data: %w", err)
			}
			for x := 0; x < width; x++ {
				m.Pix[y*width+x] = float32(buf[x]) * scale
			}
		}
	}
	return m, nil
}

// pgmToken returns the next whitespace-delimited header token, skipping
// comment lines.
func pgmToken(r *bufio.Reader) (string, error) {
	var sb strings.Builder
	for {
		b, err := r.ReadByte()
		if err != nil {
			if sb.Len() > 0 {
				return sb.String(), nil
			}
			return "", err
		}
		switch {
		case b == '#' && sb.Len() == 0:
			if _, err := r.ReadString('\n'); err != nil {
				return "", err
			}
		case b == ' ' || b == '\t' || b == '\r' || b == '\n':
			if sb.Len() > 0 {
				return sb.String(), nil
			}
		default:
			sb.WriteByte(b)
		}
	}
}

func pgmInt(r *bufio.Reader) (int, error) {
	tok, err := pgmToken(r)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(tok)
}

// parseMatrix reads nine comma-separated floats in row-major order.
func parseMatrix(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 9 {
		return nil, fmt.Errorf("matrix needs 9 values, got %d", len(parts))
	}
	vals := make([]float64, 9)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("bad matrix value %q", p)
		}
		vals[i] = v
	}
	return vals, nil
}

// applyCameraMatrix converts camera-space pixels to sRGB by inverting the
// supplied sRGB-to-camera matrix. A near-singular matrix is reported and
// the image stays untouched.
func applyCameraMatrix(img *dm.Image, vals []float64) (bool, error) {
	cam := mat.NewDense(3, 3, vals)
	if math.Abs(mat.Det(cam)) < 1e-8 {
		return false, nil
	}
	var inv mat.Dense
	if err := inv.Inverse(cam); err != nil {
		return false, nil
	}
	var m [9]float32
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			m[r*3+c] = float32(inv.At(r, c))
		}
	}
	for i := 0; i < len(img.Pix); i += 4 {
		r, g, b := img.Pix[i], img.Pix[i+1], img.Pix[i+2]
		img.Pix[i] = m[0]*r + m[1]*g + m[2]*b
		img.Pix[i+1] = m[3]*r + m[4]*g + m[5]*b
		img.Pix[i+2] = m[6]*r + m[7]*g + m[8]*b
	}
	return true, nil
}
