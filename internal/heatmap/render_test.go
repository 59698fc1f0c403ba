package heatmap

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/careband/pressure-monitor/internal/sensor"
)

func gradientFrame() sensor.Frame {
	f := make(sensor.Frame, sensor.FrameSize)
	for i := range f {
		f[i] = float64(i)
	}
	return f
}

func TestImage_Geometry(t *testing.T) {
	r := NewRenderer()

	img := r.Image(gradientFrame(), ClassicTheme)
	bounds := img.Bounds()
	if bounds.Dx() != ImageSize || bounds.Dy() != ImageSize {
		t.Errorf("image is %dx%d, want %dx%d", bounds.Dx(), bounds.Dy(), ImageSize, ImageSize)
	}
}

func TestImage_NormalizesAgainstFrameBounds(t *testing.T) {
	r := NewRenderer()
	img := r.Image(gradientFrame(), ClassicTheme)

	// The lowest and highest cells must land at the palette's extremes,
	// so their colors differ regardless of the frame's absolute values.
	lo := img.At(0, 0)
	hi := img.At(ImageSize-1, ImageSize-1)
	if sameColor(lo, hi) {
		t.Error("min and max cells rendered with the same color")
	}

	// Scaling all samples preserves the rendering.
	scaled := gradientFrame()
	for i := range scaled {
		scaled[i] *= 1000
	}
	img2 := r.Image(scaled, ClassicTheme)
	if !sameColor(img.At(0, 0), img2.At(0, 0)) || !sameColor(img.At(ImageSize-1, ImageSize-1), img2.At(ImageSize-1, ImageSize-1)) {
		t.Error("normalization is not scale invariant")
	}
}

func TestImage_FlatFrame(t *testing.T) {
	r := NewRenderer()

	flat := make(sensor.Frame, sensor.FrameSize)
	for i := range flat {
		flat[i] = 42
	}

	// Must not panic or divide by zero; every cell gets one color.
	img := r.Image(flat, ThermalTheme)
	if !sameColor(img.At(0, 0), img.At(ImageSize-1, ImageSize-1)) {
		t.Error("flat frame rendered with varying colors")
	}
}

func TestImage_EmptyFrame(t *testing.T) {
	r := NewRenderer()
	img := r.Image(nil, GrayscaleTheme)
	if img.Bounds().Dx() != ImageSize {
		t.Errorf("empty frame image width = %d, want %d", img.Bounds().Dx(), ImageSize)
	}
}

func TestImage_CellBlocks(t *testing.T) {
	r := NewRenderer()
	img := r.Image(gradientFrame(), GrayscaleTheme)

	// All pixels inside one cell's block share its color.
	base := img.At(0, 0)
	for y := 0; y < cellScale; y++ {
		for x := 0; x < cellScale; x++ {
			if !sameColor(base, img.At(x, y)) {
				t.Fatalf("pixel (%d,%d) differs within its cell block", x, y)
			}
		}
	}
}

func TestThemes(t *testing.T) {
	for _, theme := range Themes() {
		if !ValidTheme(string(theme)) {
			t.Errorf("ValidTheme(%q) = false", theme)
		}
	}
	if ValidTheme("plasma") {
		t.Error("ValidTheme accepted an unknown palette")
	}
}

func TestPNGSequence(t *testing.T) {
	dir := t.TempDir()

	seq, err := NewPNGSequence(dir)
	if err != nil {
		t.Fatalf("NewPNGSequence: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := seq.RenderFrame(gradientFrame(), ClassicTheme); err != nil {
			t.Fatalf("RenderFrame %d: %v", i, err)
		}
	}

	if seq.Count() != 3 {
		t.Errorf("Count = %d, want 3", seq.Count())
	}

	for _, name := range []string{"frame_0000.png", "frame_0001.png", "frame_0002.png"} {
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("missing output %s: %v", name, err)
		}
		if info.Size() == 0 {
			t.Errorf("%s is empty", name)
		}
	}
}

func sameColor(a, b color.Color) bool {
	ar, ag, ab, aa := a.RGBA()
	br, bg, bb, ba := b.RGBA()
	return ar == br && ag == bg && ab == bb && aa == ba
}
