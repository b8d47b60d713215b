package inference

import (
	"fmt"

	"demosaicnet/pkg/mosaic"
	"demosaicnet/pkg/raster"
)

// bilinearCrop is the per-side border loss of the bilinear engine. Border
// interpolation replicates neighbors, so a 2-pixel ring is unreliable.
const bilinearCrop = 2

// BilinearEngine is a pure-Go fallback backend that demosaicks Bayer
// patches by bilinear interpolation. It needs no model artifacts, ignores
// the noise level, and exists so the pipeline (and its tests) can run
// without ONNX Runtime on the machine.
type BilinearEngine struct{}

// NewBilinearEngine returns a bilinear demosaicking engine for the given
// pattern. Only the Bayer pattern has a bilinear reconstruction here.
func NewBilinearEngine(pattern mosaic.Pattern) (*BilinearEngine, error) {
	if pattern != mosaic.Bayer {
		return nil, fmt.Errorf("%w: bilinear fallback supports bayer only, got %s",
			ErrBackendUnavailable, pattern)
	}
	return &BilinearEngine{}, nil
}

// Crop reports the fixed per-side border loss.
func (e *BilinearEngine) Crop() int { return bilinearCrop }

// NoiseAware reports false: the noise argument is silently ignored.
func (e *BilinearEngine) NoiseAware() bool { return false }

// Close is a no-op; the engine holds no resources.
func (e *BilinearEngine) Close() error { return nil }

// Infer demosaicks an even-sided RGGB patch and returns its interior,
// cropped by Crop() on each side.
func (e *BilinearEngine) Infer(patch *raster.Image, _ float64) (*raster.Image, error) {
	if patch.Channels != 1 {
		return nil, fmt.Errorf("%w: patch must be single-channel, got %d channels",
			ErrBackendUnavailable, patch.Channels)
	}

	w, h := patch.Width, patch.Height
	if w <= 2*bilinearCrop || h <= 2*bilinearCrop {
		return nil, fmt.Errorf("%w: %dx%d patch too small for crop %d",
			ErrBackendUnavailable, w, h, bilinearCrop)
	}

	// Neighbor lookups clamp at the patch border; the unreliable ring this
	// produces is removed by the final interior crop.
	px := func(x, y int) float32 {
		if x < 0 {
			x = 0
		} else if x >= w {
			x = w - 1
		}
		if y < 0 {
			y = 0
		} else if y >= h {
			y = h - 1
		}
		return patch.At(x, y, 0)
	}

	full := raster.New(w, h, 3)
	for y := 0; y < h; y++ {
		evenRow := y%2 == 0
		for x := 0; x < w; x++ {
			evenCol := x%2 == 0
			var r, g, b float32

			switch {
			case evenRow && evenCol: // red site
				r = px(x, y)
				g = (px(x-1, y) + px(x+1, y) + px(x, y-1) + px(x, y+1)) / 4
				b = (px(x-1, y-1) + px(x+1, y-1) + px(x-1, y+1) + px(x+1, y+1)) / 4
			case evenRow && !evenCol: // green site on red row
				r = (px(x-1, y) + px(x+1, y)) / 2
				g = px(x, y)
				b = (px(x, y-1) + px(x, y+1)) / 2
			case !evenRow && evenCol: // green site on blue row
				r = (px(x, y-1) + px(x, y+1)) / 2
				g = px(x, y)
				b = (px(x-1, y) + px(x+1, y)) / 2
			default: // blue site
				r = (px(x-1, y-1) + px(x+1, y-1) + px(x-1, y+1) + px(x+1, y+1)) / 4
				g = (px(x-1, y) + px(x+1, y) + px(x, y-1) + px(x, y+1)) / 4
				b = px(x, y)
			}

			full.Set(x, y, 0, r)
			full.Set(x, y, 1, g)
			full.Set(x, y, 2, b)
		}
	}

	return full.SubImage(bilinearCrop, bilinearCrop, w-bilinearCrop, h-bilinearCrop), nil
}
