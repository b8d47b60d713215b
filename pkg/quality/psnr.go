// Package quality scores a reconstruction against a known-good reference.
package quality

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"demosaicnet/pkg/raster"
)

// ErrDimensionMismatch is returned when the two images differ in shape.
// It is fatal to the metric call only; a reconstruction can still be
// saved without a score.
var ErrDimensionMismatch = errors.New("image dimension mismatch")

// PSNR computes the peak signal-to-noise ratio between two images over an
// interior region with crop pixels removed from each spatial edge.
// maxValue is the peak sample value (1.0 for normalized images). A zero
// mean squared error yields +Inf, which callers must tolerate.
func PSNR(a, b *raster.Image, crop int, maxValue float64) (float64, error) {
	if a.Width != b.Width || a.Height != b.Height || a.Channels != b.Channels {
		return 0, fmt.Errorf("%w: %dx%dx%d vs %dx%dx%d", ErrDimensionMismatch,
			a.Width, a.Height, a.Channels, b.Width, b.Height, b.Channels)
	}

	x0, y0 := crop, crop
	x1, y1 := a.Width-crop, a.Height-crop
	if crop < 0 || x1 <= x0 || y1 <= y0 {
		return 0, fmt.Errorf("crop %d leaves no pixels in a %dx%d image", crop, a.Width, a.Height)
	}

	sq := make([]float64, 0, (x1-x0)*(y1-y0)*a.Channels)
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			for c := 0; c < a.Channels; c++ {
				d := float64(a.At(x, y, c)) - float64(b.At(x, y, c))
				sq = append(sq, d*d)
			}
		}
	}

	mse := stat.Mean(sq, nil)
	if mse == 0 {
		return math.Inf(1), nil
	}
	return -10 * math.Log10(mse/(maxValue*maxValue)), nil
}
