// Package imageio is the file-format boundary of the pipeline. It decodes
// 8- and 16-bit PNG, JPEG, and TIFF files into normalized float rasters
// and encodes results back to disk. All other pixel formats are rejected;
// everything past this boundary operates on floats.
package imageio

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/tiff"

	"demosaicnet/pkg/raster"
)

// ErrUnsupportedFormat is returned for pixel formats outside the 8/16-bit
// unsigned grayscale and color families.
var ErrUnsupportedFormat = errors.New("unsupported pixel format")

// Load decodes an image file into a normalized float raster. Grayscale
// files become 1-channel rasters, color files 3-channel. The integer bit
// depth is taken from the decoded pixel format.
func Load(path string) (*raster.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return FromImage(img)
}

// FromImage converts a decoded image into a normalized float raster.
func FromImage(img image.Image) (*raster.Image, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	switch src := img.(type) {
	case *image.Gray:
		out := raster.New(w, h, 1)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				out.Set(x, y, 0, raster.FromUint8(src.GrayAt(b.Min.X+x, b.Min.Y+y).Y))
			}
		}
		return out, nil

	case *image.Gray16:
		out := raster.New(w, h, 1)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				out.Set(x, y, 0, raster.FromUint16(src.Gray16At(b.Min.X+x, b.Min.Y+y).Y))
			}
		}
		return out, nil

	case *image.RGBA64, *image.NRGBA64:
		out := raster.New(w, h, 3)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
				out.Set(x, y, 0, raster.FromUint16(uint16(r)))
				out.Set(x, y, 1, raster.FromUint16(uint16(g)))
				out.Set(x, y, 2, raster.FromUint16(uint16(bl)))
			}
		}
		return out, nil

	case *image.RGBA, *image.NRGBA, *image.YCbCr, *image.CMYK, *image.Paletted:
		out := raster.New(w, h, 3)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				// RGBA() upscales 8-bit samples to 16 bits; shift back down.
				r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
				out.Set(x, y, 0, raster.FromUint8(uint8(r>>8)))
				out.Set(x, y, 1, raster.FromUint8(uint8(g>>8)))
				out.Set(x, y, 2, raster.FromUint8(uint8(bl>>8)))
			}
		}
		return out, nil

	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedFormat, img)
	}
}

// ToImage converts a float raster to an 8-bit image for encoding.
// Single-channel rasters become grayscale, 3-channel rasters color.
func ToImage(src *raster.Image) (image.Image, error) {
	switch src.Channels {
	case 1:
		img := image.NewGray(image.Rect(0, 0, src.Width, src.Height))
		for y := 0; y < src.Height; y++ {
			for x := 0; x < src.Width; x++ {
				img.Pix[y*img.Stride+x] = raster.ToUint8(src.At(x, y, 0))
			}
		}
		return img, nil

	case 3:
		img := image.NewNRGBA(image.Rect(0, 0, src.Width, src.Height))
		for y := 0; y < src.Height; y++ {
			for x := 0; x < src.Width; x++ {
				off := y*img.Stride + x*4
				img.Pix[off+0] = raster.ToUint8(src.At(x, y, 0))
				img.Pix[off+1] = raster.ToUint8(src.At(x, y, 1))
				img.Pix[off+2] = raster.ToUint8(src.At(x, y, 2))
				img.Pix[off+3] = 0xff
			}
		}
		return img, nil

	default:
		return nil, fmt.Errorf("%w: %d channels", ErrUnsupportedFormat, src.Channels)
	}
}

// Save encodes a float raster to disk at 8-bit depth. The format is
// chosen from the file extension.
func Save(path string, src *raster.Image) error {
	img, err := ToImage(src)
	if err != nil {
		return err
	}
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return nil
}
