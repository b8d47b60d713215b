package reconstruction

import (
	"errors"
	"testing"

	"demosaicnet/pkg/raster"
)

// stubEngine is a deterministic inference stand-in: it demosaicks nothing,
// it just maps each patch through fill and records the patches it saw.
type stubEngine struct {
	crop    int
	fill    func(patch *raster.Image, x, y, c int) float32
	origins [][2]int
	sizes   [][2]int
}

func (s *stubEngine) Crop() int        { return s.crop }
func (s *stubEngine) NoiseAware() bool { return false }
func (s *stubEngine) Close() error     { return nil }

func (s *stubEngine) Infer(patch *raster.Image, _ float64) (*raster.Image, error) {
	s.sizes = append(s.sizes, [2]int{patch.Width, patch.Height})
	side := patch.Width - 2*s.crop
	out := raster.New(side, patch.Height-2*s.crop, 3)
	for y := 0; y < out.Height; y++ {
		for x := 0; x < out.Width; x++ {
			for c := 0; c < 3; c++ {
				out.Set(x, y, c, s.fill(patch, x, y, c))
			}
		}
	}
	return out, nil
}

// constFill returns an engine whose output is a constant value.
func constFill(v float32) func(*raster.Image, int, int, int) float32 {
	return func(_ *raster.Image, _, _, _ int) float32 { return v }
}

func testMosaic(w, h int) *raster.Image {
	mos := raster.New(w, h, 1)
	for i := range mos.Pix {
		mos.Pix[i] = float32(i%97) / 97.0
	}
	return mos
}

func TestReconstructRejectsNoiseOutOfRange(t *testing.T) {
	engine := &stubEngine{crop: 0, fill: constFill(1)}

	for _, noise := range []float64{-0.01, 0.10} {
		params := &Params{NoiseLevel: noise, MaxTileSide: 16}
		r := NewReconstructor(params, engine)

		_, _, err := r.Reconstruct(testMosaic(16, 16))
		if !errors.Is(err, ErrNoiseOutOfRange) {
			t.Errorf("noise %.2f: got %v, want ErrNoiseOutOfRange", noise, err)
		}
	}

	if len(engine.sizes) != 0 {
		t.Errorf("engine was invoked %d times before validation failed", len(engine.sizes))
	}
}

func TestReconstructRejectsTooSmallTile(t *testing.T) {
	engine := &stubEngine{crop: 17, fill: constFill(1)}
	params := &Params{MaxTileSide: 34}
	r := NewReconstructor(params, engine)

	_, _, err := r.Reconstruct(testMosaic(128, 128))
	if !errors.Is(err, ErrTileTooSmall) {
		t.Fatalf("got %v, want ErrTileTooSmall", err)
	}
	if len(engine.sizes) != 0 {
		t.Errorf("engine was invoked %d times despite failing fast", len(engine.sizes))
	}
}

// TestReconstructCoverage checks that with odd image dimensions every
// reachable interior pixel is written exactly by some tile (no pixel left
// at its zero initialization) and that no write strays past the
// even-rounded boundary.
func TestReconstructCoverage(t *testing.T) {
	const crop = 2
	engine := &stubEngine{crop: crop, fill: constFill(1)}
	params := &Params{MaxTileSide: 16}
	r := NewReconstructor(params, engine)

	w, h := 37, 29
	out, _, err := r.Reconstruct(testMosaic(w, h))
	if err != nil {
		t.Fatalf("Reconstruct failed: %v", err)
	}

	// Usable extents round down to even: 36 and 28.
	evenW, evenH := w&^1, h&^1
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			inside := x >= crop && x < evenW-crop && y >= crop && y < evenH-crop
			got := out.At(x, y, 0)
			if inside && got != 1 {
				t.Fatalf("interior pixel (%d, %d) never written", x, y)
			}
			if !inside && got != 0 {
				t.Fatalf("border pixel (%d, %d) unexpectedly written to %v", x, y, got)
			}
		}
	}

	// Every tile must arrive at the full expected side length: shifted
	// boundary tiles move inward, they never shrink.
	for i, size := range engine.sizes {
		if size[0] != 16 || size[1] != 16 {
			t.Errorf("tile %d: got %dx%d patch, want 16x16", i, size[0], size[1])
		}
	}
}

// TestReconstructExactGrid covers the case where the dimensions are exact
// multiples of the stride, so no boundary realignment triggers.
func TestReconstructExactGrid(t *testing.T) {
	const crop = 2
	engine := &stubEngine{crop: crop, fill: constFill(0.5)}
	params := &Params{MaxTileSide: 16}
	r := NewReconstructor(params, engine)

	// stride is 12; 28 = 2*12 + 2*crop covers exactly two tiles per axis.
	out, _, err := r.Reconstruct(testMosaic(28, 28))
	if err != nil {
		t.Fatalf("Reconstruct failed: %v", err)
	}
	if n := len(engine.sizes); n != 4 {
		t.Fatalf("got %d tiles, want 4", n)
	}
	for y := crop; y < 28-crop; y++ {
		for x := crop; x < 28-crop; x++ {
			if out.At(x, y, 1) != 0.5 {
				t.Fatalf("pixel (%d, %d) not covered", x, y)
			}
		}
	}
}

// TestReconstructSingleTile checks that a tile covering the whole image
// reduces to one direct inference call written at offset (crop, crop).
func TestReconstructSingleTile(t *testing.T) {
	const crop = 3
	fill := func(patch *raster.Image, x, y, c int) float32 {
		return patch.At(x+crop, y+crop, 0) * float32(c+1) / 3.0
	}
	engine := &stubEngine{crop: crop, fill: fill}
	params := &Params{MaxTileSide: 64}
	r := NewReconstructor(params, engine)

	mos := testMosaic(16, 16)
	out, _, err := r.Reconstruct(mos)
	if err != nil {
		t.Fatalf("Reconstruct failed: %v", err)
	}
	if n := len(engine.sizes); n != 1 {
		t.Fatalf("got %d tiles, want 1", n)
	}

	direct, err := (&stubEngine{crop: crop, fill: fill}).Infer(mos, 0)
	if err != nil {
		t.Fatalf("direct inference failed: %v", err)
	}

	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			for c := 0; c < 3; c++ {
				want := float32(0)
				if x >= crop && x < 16-crop && y >= crop && y < 16-crop {
					want = direct.At(x-crop, y-crop, c)
					if want > 1 {
						want = 1
					}
				}
				if got := out.At(x, y, c); got != want {
					t.Fatalf("pixel (%d, %d, %d): got %v, want %v", x, y, c, got, want)
				}
			}
		}
	}
}

func TestReconstructClampsOutput(t *testing.T) {
	engine := &stubEngine{crop: 0, fill: func(_ *raster.Image, x, _, _ int) float32 {
		if x%2 == 0 {
			return 2.0
		}
		return -1.0
	}}
	params := &Params{MaxTileSide: 8}
	r := NewReconstructor(params, engine)

	out, _, err := r.Reconstruct(testMosaic(8, 8))
	if err != nil {
		t.Fatalf("Reconstruct failed: %v", err)
	}
	for _, v := range out.Pix {
		if v != 0 && v != 1 {
			t.Fatalf("sample %v not clamped to [0, 1]", v)
		}
	}
}

// TestReconstructTraversalOrder pins the x-outer/y-inner traversal that
// makes boundary overlap resolution deterministic.
func TestReconstructTraversalOrder(t *testing.T) {
	const crop = 2
	engine := &stubEngine{crop: crop, fill: constFill(1)}
	params := &Params{MaxTileSide: 16}
	r := NewReconstructor(params, engine)

	var order [][2]int
	params.Progress = func(done, total int) {
		if total != 4 {
			t.Fatalf("got %d total tiles, want 4", total)
		}
		order = append(order, [2]int{done, total})
	}

	// 20x20 with stride 12: starts at 0 and 12, the latter shifted to 4.
	if _, _, err := r.Reconstruct(testMosaic(20, 20)); err != nil {
		t.Fatalf("Reconstruct failed: %v", err)
	}

	if len(order) != 4 {
		t.Fatalf("progress reported %d tiles, want 4", len(order))
	}
	for i, o := range order {
		if o[0] != i+1 {
			t.Errorf("progress call %d reported done=%d", i, o[0])
		}
	}
}

func TestReconstructElapsedNonNegative(t *testing.T) {
	engine := &stubEngine{crop: 0, fill: constFill(0.25)}
	r := NewReconstructor(&Params{MaxTileSide: 32}, engine)

	_, elapsed, err := r.Reconstruct(testMosaic(32, 32))
	if err != nil {
		t.Fatalf("Reconstruct failed: %v", err)
	}
	if elapsed < 0 {
		t.Errorf("elapsed = %v ms, want >= 0", elapsed)
	}
}

func TestValidateNoiseLevelBounds(t *testing.T) {
	for _, noise := range []float64{0.0, 0.02, MaxNoiseLevel} {
		if err := ValidateNoiseLevel(noise); err != nil {
			t.Errorf("noise %.4f unexpectedly rejected: %v", noise, err)
		}
	}
	for _, noise := range []float64{-0.0001, 0.0785, 1.0} {
		if err := ValidateNoiseLevel(noise); !errors.Is(err, ErrNoiseOutOfRange) {
			t.Errorf("noise %.4f: got %v, want ErrNoiseOutOfRange", noise, err)
		}
	}
}
