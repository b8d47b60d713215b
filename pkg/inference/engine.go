// Package inference wraps the pretrained demosaicking model behind a small
// engine interface. The reconstruction engine treats it as an opaque
// mapping from a mosaic patch plus a scalar noise level to a demosaicked
// color patch with a fixed amount of unreliable border removed.
package inference

import (
	"errors"

	"demosaicnet/pkg/raster"
)

// ErrBackendUnavailable is returned when the inference backend cannot be
// loaded or fails to execute. It is fatal; no partial reconstruction is
// ever returned on top of it.
var ErrBackendUnavailable = errors.New("inference backend unavailable")

// DefaultCrop is the per-side border loss assumed when a model does not
// declare static input/output tile sizes to compare.
const DefaultCrop = 17

// Engine is the patch inference contract. Implementations must be
// deterministic within one session and must produce, for an even-sided
// h x w mosaic patch, a 3-channel patch of size (h-2*Crop) x (w-2*Crop).
type Engine interface {
	// Infer runs one forward pass over a single-channel mosaic patch.
	// Engines that are not noise-aware ignore the noise argument.
	Infer(patch *raster.Image, noise float64) (*raster.Image, error)

	// Crop reports the fixed number of border pixels the engine consumes
	// from each side of a patch. Constant for the engine's lifetime.
	Crop() int

	// NoiseAware reports whether the underlying model conditions on the
	// noise level input.
	NoiseAware() bool

	// Close releases backend resources.
	Close() error
}
