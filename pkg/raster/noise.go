package raster

import (
	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/stat/distuv"
)

// AddGaussianNoise returns a copy of the image with zero-mean Gaussian
// noise of the given standard deviation added to every sample. The input
// is left untouched so it can serve as the clean reference for scoring.
// Samples are not clamped; the reconstruction stage clamps its output.
func AddGaussianNoise(img *Image, sigma float64, seed uint64) *Image {
	out := img.Clone()
	if sigma <= 0 {
		return out
	}

	dist := distuv.Normal{
		Mu:    0,
		Sigma: sigma,
		Src:   rand.NewSource(seed),
	}

	for i := range out.Pix {
		out.Pix[i] += float32(dist.Rand())
	}
	return out
}
