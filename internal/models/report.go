// Package models holds the run-level value types shared by the command
// line entry point.
package models

import (
	"fmt"
	"io"
	"math"
)

// Report summarizes one reconstruction run for display.
type Report struct {
	// Input is the source image path.
	Input string

	// Output is the path the reconstruction was written to.
	Output string

	// Pattern is the color-filter-array layout used.
	Pattern string

	// Backend names the inference backend (onnx or bilinear).
	Backend string

	// NoiseLevel is the injected/conditioned noise standard deviation.
	NoiseLevel float64

	// TileSize is the requested maximum tile side in pixels.
	TileSize int

	// Crop is the per-side border loss of the inference engine.
	Crop int

	// ElapsedMS is the reconstruction wall-clock time in milliseconds.
	ElapsedMS float64

	// PSNR is the reconstruction quality score against the reference.
	// Only meaningful when HasReference is true.
	PSNR float64

	// HasReference reports whether a clean reference existed to score
	// against (false for grayscale inputs that are already mosaics).
	HasReference bool
}

// Print writes a human-readable summary of the run.
func (r *Report) Print(w io.Writer) {
	fmt.Fprintf(w, "\nReconstruction summary\n")
	fmt.Fprintf(w, "======================\n")
	fmt.Fprintf(w, "Input:       %s\n", r.Input)
	fmt.Fprintf(w, "Output:      %s\n", r.Output)
	fmt.Fprintf(w, "Pattern:     %s\n", r.Pattern)
	fmt.Fprintf(w, "Backend:     %s (crop=%d)\n", r.Backend, r.Crop)
	fmt.Fprintf(w, "Noise level: %.4f\n", r.NoiseLevel)
	fmt.Fprintf(w, "Tile size:   %d\n", r.TileSize)
	fmt.Fprintf(w, "Elapsed:     %.1f ms\n", r.ElapsedMS)
	if r.HasReference {
		if math.IsInf(r.PSNR, 1) {
			fmt.Fprintf(w, "PSNR:        inf dB (exact reconstruction)\n")
		} else {
			fmt.Fprintf(w, "PSNR:        %.2f dB\n", r.PSNR)
		}
	} else {
		fmt.Fprintf(w, "PSNR:        n/a (no ground truth reference)\n")
	}
}
