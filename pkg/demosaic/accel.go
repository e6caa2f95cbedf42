package demosaic

import (
	"errors"
	"sync"
)

// ErrBackendUnavailable indicates the accelerated backend cannot handle a
// reconstruction. The caller falls back to the CPU path and the pipeline
// result is unaffected.
var ErrBackendUnavailable = errors.New("demosaic: accelerated backend unavailable")

// Accelerator is an optional hardware demosaic provider.
//
// When registered via RegisterAccelerator, eligible reconstructions try
// the accelerator first, one tile at a time. If any tile fails the whole
// accelerated attempt is discarded and the CPU path recomputes the full
// result, so a partial accelerated output can never leak.
//
// Implementations are provided by backend packages and register
// themselves from init or from a cmd wiring file.
type Accelerator interface {
	// Name identifies the backend in logs and stats.
	Name() string

	// Init acquires backend resources. Called once during registration.
	Init() error

	// Close releases backend resources.
	Close()

	// CanAccelerate reports whether the backend supports this method and
	// pattern combination. A fast check used to skip the backend
	// entirely.
	CanAccelerate(m Method, cfa CFA) bool

	// Demosaic reconstructs one single-channel mosaic window into
	// interleaved RGBA float32. The offsets give the window's absolute
	// sensor origin so the CFA phase is preserved. Returns
	// ErrBackendUnavailable when the window cannot be handled.
	Demosaic(pix []float32, width, height, offsetX, offsetY int, cfa CFA, m Method) ([]float32, error)
}

var (
	accelMu sync.RWMutex
	accel   Accelerator
)

// RegisterAccelerator installs an accelerated demosaic backend. Only one
// backend is active at a time; registering another replaces and closes
// the previous one. The backend's Init is called during registration and
// a failure leaves the previous backend in place.
func RegisterAccelerator(a Accelerator) error {
	if a == nil {
		return errors.New("demosaic: accelerator must not be nil")
	}
	if err := a.Init(); err != nil {
		return err
	}
	accelMu.Lock()
	old := accel
	accel = a
	accelMu.Unlock()
	if old != nil {
		old.Close()
	}
	logger().Info("demosaic accelerator registered", "name", a.Name())
	return nil
}

// UnregisterAccelerator removes and closes the active backend, if any.
func UnregisterAccelerator() {
	accelMu.Lock()
	old := accel
	accel = nil
	accelMu.Unlock()
	if old != nil {
		old.Close()
	}
}

// ActiveAccelerator returns the registered backend, or nil when
// reconstruction is CPU-only.
func ActiveAccelerator() Accelerator {
	accelMu.RLock()
	a := accel
	accelMu.RUnlock()
	return a
}
