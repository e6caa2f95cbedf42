package demosaic

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
)

// FrameMeta holds parsed FITS header key-value pairs.
type FrameMeta struct {
	Headers map[string]string
}

// NewFrameMeta creates an empty FrameMeta.
func NewFrameMeta() *FrameMeta {
	return &FrameMeta{Headers: make(map[string]string)}
}

func (m *FrameMeta) GetString(key string) string {
	if v, ok := m.Headers[strings.ToUpper(key)]; ok {
		return v
	}
	return ""
}

func (m *FrameMeta) GetDouble(key string) (float64, bool) {
	v, ok := m.Headers[strings.ToUpper(key)]
	if !ok {
		return 0, false
	}
	d, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, false
	}
	return d, true
}

func (m *FrameMeta) GetInt(key string) (int, bool) {
	v, ok := m.Headers[strings.ToUpper(key)]
	if !ok {
		return 0, false
	}
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, false
	}
	return i, true
}

func (m *FrameMeta) GetDateTime(key string) (time.Time, bool) {
	v, ok := m.Headers[strings.ToUpper(key)]
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(v))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Convenience accessors for the headers raw converters commonly write.
func (m *FrameMeta) CameraName() string { return m.GetString("INSTRUME") }
func (m *FrameMeta) ImageType() string  { return m.GetString("IMAGETYP") }
func (m *FrameMeta) Filter() string     { return m.GetString("FILTER") }

func (m *FrameMeta) ExposureTime() (float64, bool) {
	if v, ok := m.GetDouble("EXPTIME"); ok {
		return v, true
	}
	return m.GetDouble("EXPOSURE")
}

func (m *FrameMeta) Gain() (float64, bool) { return m.GetDouble("GAIN") }

func (m *FrameMeta) ObservationTime() (time.Time, bool) {
	return m.GetDateTime("DATE-OBS")
}

// BayerPattern returns the BAYERPAT header, empty for mono sensors.
func (m *FrameMeta) BayerPattern() string { return m.GetString("BAYERPAT") }

// BayerOffset returns the XBAYROFF/YBAYROFF pattern origin shift.
func (m *FrameMeta) BayerOffset() (x, y int) {
	x, _ = m.GetInt("XBAYROFF")
	y, _ = m.GetInt("YBAYROFF")
	return x, y
}

// ReadRawFITS reads a raw sensor frame from a FITS file. Pixel values are
// normalized to [0, 1] and the CFA descriptor is taken from the BAYERPAT,
// XBAYROFF and YBAYROFF headers; frames without BAYERPAT load as
// monochrome.
func ReadRawFITS(filePath string) (*Mosaic, *FrameMeta, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening FITS file: %w", err)
	}
	defer f.Close()
	return readRawFITSFromReader(f)
}

// ReadRawFITSFromBytes reads a raw sensor frame from an in-memory FITS
// image.
func ReadRawFITSFromBytes(data []byte) (*Mosaic, *FrameMeta, error) {
	return readRawFITSFromReader(bytes.NewReader(data))
}

func readRawFITSFromReader(r io.Reader) (*Mosaic, *FrameMeta, error) {

	var bitpix, naxis, width, height int
	bzero := 0.0
	bscale := 1.0
	headerDone := false
	meta := NewFrameMeta()

	recordBuf := make([]byte, 80)

	for !headerDone {
		for i := 0; i < 36; i++ {
			_, err := io.ReadFull(r, recordBuf)
			if err != nil {
				return nil, nil, fmt.Errorf("reading FITS header record: %w", err)
			}
			record := string(recordBuf)
			keyword := strings.TrimSpace(record[:8])

			if keyword == "END" {
				headerDone = true
				remaining := 35 - i
				if remaining > 0 {
					skipBuf := make([]byte, remaining*80)
					io.ReadFull(r, skipBuf)
				}
				break
			}

			if len(record) > 10 && record[8] == '=' && record[9] == ' ' {
				rawValue := strings.TrimSpace(strings.SplitN(record[10:], "/", 2)[0])
				parsedValue := parseFitsValue(rawValue)

				if keyword != "" && parsedValue != "" {
					meta.Headers[strings.ToUpper(keyword)] = parsedValue
				}

				switch keyword {
				case "BITPIX":
					bitpix, _ = strconv.Atoi(strings.TrimSpace(rawValue))
				case "NAXIS":
					naxis, _ = strconv.Atoi(strings.TrimSpace(rawValue))
				case "NAXIS1":
					width, _ = strconv.Atoi(strings.TrimSpace(rawValue))
				case "NAXIS2":
					height, _ = strconv.Atoi(strings.TrimSpace(rawValue))
				case "BZERO":
					bzero, _ = strconv.ParseFloat(strings.TrimSpace(rawValue), 64)
				case "BSCALE":
					bscale, _ = strconv.ParseFloat(strings.TrimSpace(rawValue), 64)
				}
			}
		}
	}

	if naxis < 2 || width == 0 || height == 0 {
		return nil, nil, fmt.Errorf("invalid FITS: NAXIS=%d, NAXIS1=%d, NAXIS2=%d", naxis, width, height)
	}

	cfa := MonochromeCFA()
	if pat := meta.BayerPattern(); pat != "" {
		parsed, err := ParseCFAPattern(pat)
		if err != nil {
			return nil, nil, fmt.Errorf("FITS BAYERPAT: %w", err)
		}
		cfa = parsed
	}

	numPixels := width * height
	pixels := make([]float32, numPixels)

	switch bitpix {
	case 16:
		rawBytes := make([]byte, numPixels*2)
		if _, err := io.ReadFull(r, rawBytes); err != nil {
			return nil, nil, fmt.Errorf("reading 16-bit pixel data: %w", err)
		}
		for i := 0; i < numPixels; i++ {
			signedVal := int16(binary.BigEndian.Uint16(rawBytes[i*2:]))
			physicalVal := float64(signedVal)*bscale + bzero
			pixels[i] = float32(clampFloat64(physicalVal, 0, 65535) / 65535)
		}

	case -32:
		rawBytes := make([]byte, numPixels*4)
		if _, err := io.ReadFull(r, rawBytes); err != nil {
			return nil, nil, fmt.Errorf("reading -32 float pixel data: %w", err)
		}
		for i := 0; i < numPixels; i++ {
			intBits := binary.BigEndian.Uint32(rawBytes[i*4:])
			floatVal := math.Float32frombits(intBits)
			// Float FITS frames store normalized data already.
			physicalVal := float64(floatVal)*bscale + bzero
			pixels[i] = float32(clampFloat64(physicalVal, 0, 1))
		}

	case 8:
		rawBytes := make([]byte, numPixels)
		if _, err := io.ReadFull(r, rawBytes); err != nil {
			return nil, nil, fmt.Errorf("reading 8-bit pixel data: %w", err)
		}
		for i := 0; i < numPixels; i++ {
			physicalVal := float64(rawBytes[i])*bscale + bzero
			pixels[i] = float32(clampFloat64(physicalVal, 0, 255) / 255)
		}

	case 32:
		rawBytes := make([]byte, numPixels*4)
		if _, err := io.ReadFull(r, rawBytes); err != nil {
			return nil, nil, fmt.Errorf("reading 32-bit pixel data: %w", err)
		}
		for i := 0; i < numPixels; i++ {
			intVal := int32(binary.BigEndian.Uint32(rawBytes[i*4:]))
			physicalVal := float64(intVal)*bscale + bzero
			pixels[i] = float32(clampFloat64(physicalVal, 0, 65535) / 65535)
		}

	default:
		return nil, nil, fmt.Errorf("unsupported BITPIX: %d", bitpix)
	}

	offX, offY := meta.BayerOffset()
	return &Mosaic{
		Pix:      pixels,
		Width:    width,
		Height:   height,
		Channels: 1,
		OffsetX:  offX,
		OffsetY:  offY,
		CFA:      cfa,
	}, meta, nil
}

func clampFloat64(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func parseFitsValue(rawValue string) string {
	if rawValue == "" {
		return ""
	}
	if rawValue == "T" {
		return "True"
	}
	if rawValue == "F" {
		return "False"
	}
	if strings.HasPrefix(rawValue, "'") {
		endQuote := strings.LastIndex(rawValue, "'")
		if endQuote > 0 {
			return strings.TrimRight(rawValue[1:endQuote], " ")
		}
		return strings.TrimLeft(strings.TrimRight(rawValue, " "), "'")
	}
	return rawValue
}
