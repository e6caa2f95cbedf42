package demosaic

// Mosaic is a raw sensor reading: one photosite value per pixel for regular
// CFAs, or four planes per pixel for 4-Bayer sensors. Pixel (0, 0) of the
// buffer sits at sensor coordinate (OffsetX, OffsetY), which keeps the CFA
// phase correct for windows that do not start at the sensor origin.
type Mosaic struct {
	Pix      []float32
	Width    int
	Height   int
	Channels int // 1, or 4 for 4-Bayer plane data
	OffsetX  int
	OffsetY  int
	CFA      CFA
}

// NewMosaic allocates a zeroed mosaic for the given CFA.
func NewMosaic(width, height int, cfa CFA) *Mosaic {
	channels := 1
	if cfa.Kind == PatternFourBayer {
		channels = 4
	}
	return &Mosaic{
		Pix:      make([]float32, width*height*channels),
		Width:    width,
		Height:   height,
		Channels: channels,
		CFA:      cfa,
	}
}

// At returns the photosite value at buffer coordinate (x, y). For 4-Bayer
// data the value comes from the plane owned by that photosite's filter.
func (m *Mosaic) At(x, y int) float32 {
	if m.Channels == 1 {
		return m.Pix[y*m.Width+x]
	}
	c := m.CFA.ColorAt(m.OffsetX+x, m.OffsetY+y)
	return m.Pix[(y*m.Width+x)*4+c]
}

// Set stores a photosite value at buffer coordinate (x, y).
func (m *Mosaic) Set(x, y int, v float32) {
	if m.Channels == 1 {
		m.Pix[y*m.Width+x] = v
		return
	}
	c := m.CFA.ColorAt(m.OffsetX+x, m.OffsetY+y)
	m.Pix[(y*m.Width+x)*4+c] = v
}

// Image is a reconstructed pixel buffer with four interleaved float32
// channels per pixel: R, G, B and a norm/alpha channel. During
// reconstruction the fourth channel may hold scratch values; Process
// finalizes it to opaque alpha before returning.
type Image struct {
	Pix    []float32
	Width  int
	Height int
}

// NewImage allocates a zeroed 4-channel image.
func NewImage(width, height int) *Image {
	return &Image{
		Pix:    make([]float32, width*height*4),
		Width:  width,
		Height: height,
	}
}

// Options carries per-call execution limits.
type Options struct {
	// MemoryBudget caps the working set in bytes. Zero means unlimited.
	MemoryBudget int64
	// Workers caps row-parallel goroutines. Zero means GOMAXPROCS.
	Workers int
}

// ProcessStats reports what one reconstruction call actually did.
type ProcessStats struct {
	Method      string
	Tiles       int
	Accelerated bool
	Hotpixels   int64
}

// Result is the output of one reconstruction call.
type Result struct {
	RGB *Image
	// DetailMask holds the dual-demosaic contrast mask in [0, 1], one value
	// per output pixel. Nil unless a dual method ran.
	DetailMask []float32
	Stats      ProcessStats
	// Plan is the tile layout the run executed, kept for diagnostics.
	Plan TilePlan
}

// rawTile is the window a reconstruction strategy works on: a tile-local
// copy of the mosaic including halo, its absolute sensor origin, and the
// worker budget. Reads outside the tile clamp to the nearest edge pixel.
type rawTile struct {
	pix      []float32
	width    int
	height   int
	channels int
	x0, y0   int // absolute sensor coordinate of pix[0]
	cfa      CFA
	workers  int
}

func (t *rawTile) at(x, y int) float32 {
	if x < 0 {
		x = 0
	} else if x >= t.width {
		x = t.width - 1
	}
	if y < 0 {
		y = 0
	} else if y >= t.height {
		y = t.height - 1
	}
	if t.channels == 1 {
		return t.pix[y*t.width+x]
	}
	c := t.cfa.ColorAt(t.x0+x, t.y0+y)
	return t.pix[(y*t.width+x)*4+c]
}

// color returns the CFA channel of tile-local (x, y), clamped the same way
// as at so that value and channel always describe the same photosite.
func (t *rawTile) color(x, y int) int {
	if x < 0 {
		x = 0
	} else if x >= t.width {
		x = t.width - 1
	}
	if y < 0 {
		y = 0
	} else if y >= t.height {
		y = t.height - 1
	}
	return t.cfa.ColorAt(t.x0+x, t.y0+y)
}

