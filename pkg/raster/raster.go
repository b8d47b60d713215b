// Package raster provides the float-image representation shared by the
// demosaicking pipeline, together with the fixed-point conversions used
// at the file-format boundary. All internal processing operates on
// normalized float samples; integer pixel formats exist only at the edges.
package raster

// Image is a dense row-major image with interleaved channels (HWC layout).
// Full-color images carry 3 channels; sensor mosaics carry 1.
type Image struct {
	// Pix holds the samples, indexed as (y*Width+x)*Channels + c.
	Pix []float32

	// Width and Height are the spatial dimensions in pixels.
	Width  int
	Height int

	// Channels is the number of samples per pixel (1 or 3).
	Channels int
}

// New allocates a zero-initialized image of the given shape.
func New(width, height, channels int) *Image {
	return &Image{
		Pix:      make([]float32, width*height*channels),
		Width:    width,
		Height:   height,
		Channels: channels,
	}
}

// At returns the sample at pixel (x, y), channel c.
func (m *Image) At(x, y, c int) float32 {
	return m.Pix[(y*m.Width+x)*m.Channels+c]
}

// Set stores a sample at pixel (x, y), channel c.
func (m *Image) Set(x, y, c int, v float32) {
	m.Pix[(y*m.Width+x)*m.Channels+c] = v
}

// SubImage copies the rectangle [x0:x1, y0:y1) into a new image.
// The caller guarantees the rectangle is within bounds.
func (m *Image) SubImage(x0, y0, x1, y1 int) *Image {
	sub := New(x1-x0, y1-y0, m.Channels)
	rowLen := (x1 - x0) * m.Channels
	for y := y0; y < y1; y++ {
		src := (y*m.Width + x0) * m.Channels
		dst := (y - y0) * rowLen
		copy(sub.Pix[dst:dst+rowLen], m.Pix[src:src+rowLen])
	}
	return sub
}

// Clone returns a deep copy of the image.
func (m *Image) Clone() *Image {
	out := New(m.Width, m.Height, m.Channels)
	copy(out.Pix, m.Pix)
	return out
}

// Clamp01 clamps every sample to [0, 1] in place. Slightly out-of-range
// values after reconstruction are expected and silently folded back.
func (m *Image) Clamp01() {
	for i, v := range m.Pix {
		if v < 0 {
			m.Pix[i] = 0
		} else if v > 1 {
			m.Pix[i] = 1
		}
	}
}

// FromUint8 converts an 8-bit integer sample to a normalized float.
// The 1/256 scale is the reference scale for the whole pipeline; values
// are not clamped here, later stages clamp where required.
func FromUint8(v uint8) float32 {
	return float32(v) / 256.0
}

// FromUint16 converts a 16-bit integer sample to a normalized float.
func FromUint16(v uint16) float32 {
	return float32(v) / 65536.0
}

// ToUint8 converts a normalized float sample back to an 8-bit integer,
// rounding to nearest and clamping to the representable range.
func ToUint8(v float32) uint8 {
	scaled := v*256.0 + 0.5
	if scaled < 0 {
		return 0
	}
	if scaled > 255 {
		return 255
	}
	return uint8(scaled)
}
