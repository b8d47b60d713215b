// Package mosaic synthesizes single-channel sensor mosaics from full-color
// images by sampling one color channel per pixel according to a periodic
// color-filter-array pattern. It supports the 2x2 Bayer pattern and the
// 6x6 Fujifilm X-Trans pattern.
package mosaic

import (
	"errors"
	"fmt"

	"demosaicnet/pkg/raster"
)

// ErrUnknownPattern is returned when a pattern name cannot be parsed.
var ErrUnknownPattern = errors.New("unknown mosaic pattern")

// Pattern selects the color-filter-array layout used for synthesis.
type Pattern int

const (
	// Bayer is the canonical 2x2 RGGB arrangement:
	//
	//	R G
	//	G B
	Bayer Pattern = iota

	// XTrans is the 6x6 Fujifilm X-Trans arrangement.
	XTrans
)

// bayerCFA maps (y%2, x%2) to a channel index (0=R, 1=G, 2=B).
var bayerCFA = [2][2]int{
	{0, 1},
	{1, 2},
}

// xtransCFA maps (y%6, x%6) to a channel index. Canonical X-Trans layout:
// green-heavy with isolated red/blue sites so every row and column samples
// all three colors.
var xtransCFA = [6][6]int{
	{1, 2, 1, 1, 0, 1},
	{0, 1, 0, 2, 1, 2},
	{1, 2, 1, 1, 0, 1},
	{1, 0, 1, 1, 2, 1},
	{2, 1, 2, 0, 1, 0},
	{1, 0, 1, 1, 2, 1},
}

// ParsePattern converts a pattern name from the CLI or a config file into
// a Pattern value.
func ParsePattern(name string) (Pattern, error) {
	switch name {
	case "bayer":
		return Bayer, nil
	case "xtrans":
		return XTrans, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownPattern, name)
	}
}

// String returns the CLI-facing name of the pattern.
func (p Pattern) String() string {
	switch p {
	case Bayer:
		return "bayer"
	case XTrans:
		return "xtrans"
	default:
		return fmt.Sprintf("pattern(%d)", int(p))
	}
}

// Period returns the spatial period of the pattern in pixels.
func (p Pattern) Period() int {
	if p == XTrans {
		return 6
	}
	return 2
}

// channelAt returns the sampled channel index for pixel (x, y).
func (p Pattern) channelAt(x, y int) int {
	if p == XTrans {
		return xtransCFA[y%6][x%6]
	}
	return bayerCFA[y%2][x%2]
}

// Synthesize builds a single-channel mosaic from a 3-channel image by
// keeping, at each pixel, the one channel the pattern assigns to it.
// The result has the same spatial dimensions as the input.
func Synthesize(img *raster.Image, pattern Pattern) (*raster.Image, error) {
	if img.Channels != 3 {
		return nil, fmt.Errorf("mosaic synthesis needs a 3-channel image, got %d channels", img.Channels)
	}
	if pattern != Bayer && pattern != XTrans {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPattern, int(pattern))
	}

	out := raster.New(img.Width, img.Height, 1)
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			out.Set(x, y, 0, img.At(x, y, pattern.channelAt(x, y)))
		}
	}
	return out, nil
}

// ShiftPhase crops offsetX columns from the left and offsetY rows from the
// top. Grayscale inputs that are already mosaics but were captured with an
// unknown pattern phase can be realigned with 1-pixel offsets before
// reconstruction.
func ShiftPhase(img *raster.Image, offsetX, offsetY int) *raster.Image {
	if offsetX == 0 && offsetY == 0 {
		return img
	}
	return img.SubImage(offsetX, offsetY, img.Width, img.Height)
}
