package mosaic

import (
	"errors"
	"testing"

	"demosaicnet/pkg/raster"
)

// colorRamp builds an image where each channel carries a distinct value at
// every pixel, so the synthesized mosaic reveals which channel was picked.
func colorRamp(w, h int) *raster.Image {
	img := raster.New(w, h, 3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			base := float32(y*w+x) / float32(w*h)
			img.Set(x, y, 0, base)
			img.Set(x, y, 1, base+1)
			img.Set(x, y, 2, base+2)
		}
	}
	return img
}

func TestParsePattern(t *testing.T) {
	tests := []struct {
		name    string
		want    Pattern
		wantErr bool
	}{
		{"bayer", Bayer, false},
		{"xtrans", XTrans, false},
		{"rggb", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		got, err := ParsePattern(tt.name)
		if tt.wantErr {
			if !errors.Is(err, ErrUnknownPattern) {
				t.Errorf("ParsePattern(%q): got %v, want ErrUnknownPattern", tt.name, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParsePattern(%q) failed: %v", tt.name, err)
		} else if got != tt.want {
			t.Errorf("ParsePattern(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestSynthesizeBayerPhases(t *testing.T) {
	img := colorRamp(4, 4)
	mos, err := Synthesize(img, Bayer)
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if mos.Channels != 1 || mos.Width != 4 || mos.Height != 4 {
		t.Fatalf("got %dx%dx%d mosaic, want 4x4x1", mos.Width, mos.Height, mos.Channels)
	}

	// RGGB: red at even/even, green on the other even-parity sites, blue
	// at odd/odd.
	wantChannel := func(x, y int) int {
		switch {
		case y%2 == 0 && x%2 == 0:
			return 0
		case y%2 == 1 && x%2 == 1:
			return 2
		default:
			return 1
		}
	}

	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			want := img.At(x, y, wantChannel(x, y))
			if got := mos.At(x, y, 0); got != want {
				t.Errorf("pixel (%d, %d): got %v, want channel %d value %v",
					x, y, got, wantChannel(x, y), want)
			}
		}
	}
}

func TestSynthesizeXTransDensity(t *testing.T) {
	img := colorRamp(6, 6)
	mos, err := Synthesize(img, XTrans)
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}

	// One X-Trans period samples green 20 times and red/blue 8 times each.
	counts := [3]int{}
	for y := 0; y < 6; y++ {
		for x := 0; x < 6; x++ {
			got := mos.At(x, y, 0)
			for c := 0; c < 3; c++ {
				if got == img.At(x, y, c) {
					counts[c]++
					break
				}
			}
		}
	}
	if counts[0] != 8 || counts[1] != 20 || counts[2] != 8 {
		t.Errorf("channel density R/G/B = %v, want [8 20 8]", counts)
	}
}

func TestSynthesizeXTransPeriodicity(t *testing.T) {
	img := colorRamp(12, 12)
	mos, err := Synthesize(img, XTrans)
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}

	for y := 0; y < 12; y++ {
		for x := 0; x < 12; x++ {
			c := XTrans.channelAt(x, y)
			if c != XTrans.channelAt(x%6, y%6) {
				t.Fatalf("pattern not 6-periodic at (%d, %d)", x, y)
			}
			if got, want := mos.At(x, y, 0), img.At(x, y, c); got != want {
				t.Errorf("pixel (%d, %d): got %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestSynthesizeRejectsWrongChannels(t *testing.T) {
	gray := raster.New(4, 4, 1)
	if _, err := Synthesize(gray, Bayer); err == nil {
		t.Fatal("Synthesize accepted a single-channel input")
	}
}

func TestSynthesizeRejectsUnknownPattern(t *testing.T) {
	img := colorRamp(4, 4)
	if _, err := Synthesize(img, Pattern(42)); !errors.Is(err, ErrUnknownPattern) {
		t.Fatalf("got %v, want ErrUnknownPattern", err)
	}
}

func TestShiftPhase(t *testing.T) {
	img := raster.New(4, 4, 1)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, 0, float32(y*4+x))
		}
	}

	shifted := ShiftPhase(img, 1, 1)
	if shifted.Width != 3 || shifted.Height != 3 {
		t.Fatalf("got %dx%d, want 3x3", shifted.Width, shifted.Height)
	}
	if got := shifted.At(0, 0, 0); got != 5 {
		t.Errorf("shifted origin = %v, want 5", got)
	}

	if same := ShiftPhase(img, 0, 0); same != img {
		t.Error("zero offsets should return the input unchanged")
	}
}
