// Package reconstruction drives tiled patch inference over a full sensor
// mosaic and stitches the per-tile outputs into a seamless full-resolution
// color image. Tile placement honors the 2-pixel periodicity of the
// color-filter array and the fixed border crop of the inference engine,
// so every interior pixel is written exactly once and boundary tiles are
// shifted inward instead of shrunk.
package reconstruction

import (
	"errors"
	"fmt"
	"time"

	"demosaicnet/pkg/inference"
	"demosaicnet/pkg/raster"
)

// Admissible noise-level range. The pretrained models are calibrated for
// noise standard deviations up to 20/255 in normalized units; anything
// outside is rejected before processing begins.
const (
	MinNoiseLevel = 0.0
	MaxNoiseLevel = 0.0784
)

var (
	// ErrNoiseOutOfRange is returned when the requested noise level lies
	// outside [MinNoiseLevel, MaxNoiseLevel].
	ErrNoiseOutOfRange = errors.New("noise level out of admissible range")

	// ErrTileTooSmall is returned when the effective tile side cannot
	// accommodate the engine's border crop.
	ErrTileTooSmall = errors.New("tile size too small for model crop")
)

// Params holds the reconstruction configuration.
type Params struct {
	// NoiseLevel is the noise standard deviation the model is conditioned
	// on, in normalized pixel units. Must lie in [MinNoiseLevel, MaxNoiseLevel].
	NoiseLevel float64

	// MaxTileSide is the upper bound on the square tile side in pixels.
	// The effective side is clamped to the image dimensions and forced
	// even to preserve mosaic-pattern alignment across tiles.
	MaxTileSide int

	// Progress, when non-nil, is invoked after each tile with the number
	// of completed tiles and the total. Observability only; it has no
	// effect on the result.
	Progress func(done, total int)

	// Verbose enables a per-tile progress meter on stdout.
	Verbose bool
}

// Reconstructor runs the tiled inference-and-reconstruction pipeline for
// one mosaic image using one inference engine.
type Reconstructor struct {
	params *Params
	engine inference.Engine
}

// NewReconstructor creates a reconstructor with the provided parameters
// and inference engine.
func NewReconstructor(params *Params, engine inference.Engine) *Reconstructor {
	return &Reconstructor{
		params: params,
		engine: engine,
	}
}

// ValidateNoiseLevel rejects noise levels the models were not calibrated
// for. Called before any processing so an invalid run does no work.
func ValidateNoiseLevel(noise float64) error {
	if noise < MinNoiseLevel || noise > MaxNoiseLevel {
		return fmt.Errorf("%w: %.4f not in [%.4f, %.4f]",
			ErrNoiseOutOfRange, noise, MinNoiseLevel, MaxNoiseLevel)
	}
	return nil
}

// Reconstruct demosaicks a single-channel mosaic into a full-resolution
// 3-channel image. It traverses tile origins x-outer/y-inner on a grid
// with step psize-2*crop, shifts edge tiles inward to an even boundary
// when the image dimension is not an exact multiple of the stride, and
// writes each tile's interior into the output buffer. Overlapping writes
// occur only at shifted boundary tiles, where the later tile wins.
//
// Returns the clamped reconstruction and the elapsed wall-clock time in
// milliseconds. On any error the partially filled buffer is discarded.
func (r *Reconstructor) Reconstruct(mos *raster.Image) (*raster.Image, float64, error) {
	if err := ValidateNoiseLevel(r.params.NoiseLevel); err != nil {
		return nil, 0, err
	}
	if mos.Channels != 1 {
		return nil, 0, fmt.Errorf("mosaic must be single-channel, got %d channels", mos.Channels)
	}

	h, w := mos.Height, mos.Width
	crop := r.engine.Crop()

	psize := r.params.MaxTileSide
	if h < psize {
		psize = h
	}
	if w < psize {
		psize = w
	}
	psize &^= 1 // force even for pattern alignment

	stride := psize - 2*crop
	if stride <= 0 {
		return nil, 0, fmt.Errorf("%w: tile side %d, crop %d", ErrTileTooSmall, psize, crop)
	}

	start := time.Now()
	out := raster.New(w, h, 3)

	totalTiles := tilesAlong(w, crop, stride) * tilesAlong(h, crop, stride)
	done := 0

	for startX := 0; startX < w-2*crop; startX += stride {
		endX := startX + psize
		sx := startX
		if endX > w {
			// Shift the final column of tiles inward rather than shrinking
			// it: round the right edge down to even so the tile keeps the
			// mosaic phase, then recompute the origin for a full tile.
			endX = w &^ 1
			sx = endX - psize
		}

		for startY := 0; startY < h-2*crop; startY += stride {
			endY := startY + psize
			sy := startY
			if endY > h {
				endY = h &^ 1
				sy = endY - psize
			}

			patch := mos.SubImage(sx, sy, endX, endY)
			tile, err := r.engine.Infer(patch, r.params.NoiseLevel)
			if err != nil {
				return nil, 0, fmt.Errorf("tile at (%d, %d): %w", sx, sy, err)
			}

			writeTile(out, tile, sx+crop, sy+crop)

			done++
			if r.params.Progress != nil {
				r.params.Progress(done, totalTiles)
			}
			if r.params.Verbose {
				fmt.Printf("\rReconstructing: %d/%d tiles", done, totalTiles)
			}
		}
	}
	if r.params.Verbose {
		fmt.Println()
	}

	out.Clamp01()
	elapsed := float64(time.Since(start)) / float64(time.Millisecond)
	return out, elapsed, nil
}

// tilesAlong counts tile origins along one dimension: the usable extent is
// dim-2*crop, covered in steps of stride with the final tile shifted.
func tilesAlong(dim, crop, stride int) int {
	usable := dim - 2*crop
	return (usable + stride - 1) / stride
}

// writeTile copies a 3-channel tile into the buffer at offset (ox, oy).
// Rows are contiguous in both images, so each row is a single copy.
func writeTile(dst, tile *raster.Image, ox, oy int) {
	rowLen := tile.Width * dst.Channels
	for y := 0; y < tile.Height; y++ {
		src := y * rowLen
		off := ((oy+y)*dst.Width + ox) * dst.Channels
		copy(dst.Pix[off:off+rowLen], tile.Pix[src:src+rowLen])
	}
}
