package demosaic

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// GreenEqMode selects how the two green photosite populations are
// equalized before reconstruction.
type GreenEqMode int

const (
	// GreenEqDisabled leaves the green photosites untouched.
	GreenEqDisabled GreenEqMode = iota
	// GreenEqLocal averages paired greens inside flat neighborhoods.
	GreenEqLocal
	// GreenEqFull applies one global gain per green population.
	GreenEqFull
	// GreenEqBoth applies the global gain first, then the local pass.
	GreenEqBoth
)

// String returns a human-readable name for the mode.
func (m GreenEqMode) String() string {
	switch m {
	case GreenEqDisabled:
		return "disabled"
	case GreenEqLocal:
		return "local"
	case GreenEqFull:
		return "full"
	case GreenEqBoth:
		return "both"
	default:
		return "Unknown"
	}
}

// ParseGreenEqMode resolves a mode name as written in params files.
func ParseGreenEqMode(s string) (GreenEqMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "disabled", "off", "":
		return GreenEqDisabled, nil
	case "local":
		return GreenEqLocal, nil
	case "full":
		return GreenEqFull, nil
	case "both":
		return GreenEqBoth, nil
	}
	return 0, fmt.Errorf("unknown green equalization mode %q", s)
}

func (m GreenEqMode) MarshalYAML() (interface{}, error) {
	return m.String(), nil
}

func (m *GreenEqMode) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseGreenEqMode(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Params holds the user-facing demosaic parameters. Methods and modes
// persist by name, so a params file survives renumbering of the internal
// ids.
type Params struct {
	// Method is the requested reconstruction method. The sensor pattern
	// may remap it, see Resolve.
	Method Method `yaml:"method"`

	// MedianThreshold enables PPG's edge-sensitive green prefilter when
	// positive. Other methods ignore it.
	MedianThreshold float32 `yaml:"medianThreshold"`

	// GreenEq selects green equalization for single-channel Bayer data.
	GreenEq GreenEqMode `yaml:"greenEq"`

	// GreenEqThreshold bounds the local gradient below which paired
	// greens are averaged.
	GreenEqThreshold float32 `yaml:"greenEqThreshold"`

	// ColorSmoothingPasses runs 0 to 5 chroma median passes after
	// reconstruction.
	ColorSmoothingPasses int `yaml:"colorSmoothingPasses"`

	// DualThreshold scales the detail mask of dual-demosaic blending. A
	// value of zero or below disables the dual pass entirely.
	DualThreshold float32 `yaml:"dualThreshold"`

	// LMMSERefine is the number of LMMSE refinement steps, 0 to 4.
	LMMSERefine int `yaml:"lmmseRefine"`

	// HotpixelThreshold suppresses photosites that exceed the local
	// median by this many deviations. Zero disables the pass.
	HotpixelThreshold float32 `yaml:"hotpixelThreshold"`
}

// DefaultParams returns the parameter set used when no params file is
// present.
func DefaultParams() Params {
	return Params{
		Method:           MethodRCD,
		GreenEq:          GreenEqDisabled,
		GreenEqThreshold: 0.04,
		DualThreshold:    0.20,
		LMMSERefine:      1,
	}
}

// LoadParams reads a params file. A missing file yields DefaultParams.
func LoadParams(path string) (Params, error) {
	p := DefaultParams()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return p, nil
	}
	if err != nil {
		return p, fmt.Errorf("error reading params file: %w", err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("error parsing params file: %w", err)
	}
	return p, nil
}

// SaveParams writes the params file, creating parent directories as
// needed.
func SaveParams(p Params, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating params directory: %w", err)
	}
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("error marshaling params: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("error writing params file: %w", err)
	}
	return nil
}
