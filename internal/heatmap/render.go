package heatmap

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"

	"github.com/careband/pressure-monitor/internal/sensor"
)

const (
	// cellScale blows each sensor cell up to an 8x8 pixel block, giving a
	// 256x256 image for the 32x32 grid.
	cellScale = 8

	// ImageSize is the width and height of a rendered heatmap in pixels.
	ImageSize = sensor.Cols * cellScale
)

// Renderer turns frames into palette-mapped heatmap images. Palette
// lookup tables are built once per theme and reused.
type Renderer struct {
	mu   sync.Mutex
	maps map[Theme]*colorMap
}

// NewRenderer creates a heatmap renderer.
func NewRenderer() *Renderer {
	return &Renderer{maps: make(map[Theme]*colorMap)}
}

func (r *Renderer) colorMapFor(theme Theme) *colorMap {
	r.mu.Lock()
	defer r.mu.Unlock()

	cm, ok := r.maps[theme]
	if !ok {
		cm = newColorMap(theme)
		r.maps[theme] = cm
	}
	return cm
}

// Image renders a frame as an ImageSize x ImageSize heatmap. Samples are
// normalized against the frame's own observed min and max before color
// mapping, so every frame uses the palette's full dynamic range. A nil
// or empty frame renders as the palette's zero color.
func (r *Renderer) Image(f sensor.Frame, theme Theme) *image.RGBA {
	cm := r.colorMapFor(theme)

	img := image.NewRGBA(image.Rect(0, 0, ImageSize, ImageSize))
	if len(f) == 0 {
		draw.Draw(img, img.Bounds(), image.NewUniform(cm.at(0)), image.Point{}, draw.Src)
		return img
	}

	min, max := f.Bounds()
	span := max - min

	for row := 0; row < sensor.Rows; row++ {
		for col := 0; col < sensor.Cols; col++ {
			t := (f.At(row, col) - min) / span
			fillCell(img, row, col, cm.at(t))
		}
	}
	return img
}

// fillCell paints one sensor cell's pixel block.
func fillCell(img *image.RGBA, row, col int, c color.Color) {
	x0, y0 := col*cellScale, row*cellScale
	for y := y0; y < y0+cellScale; y++ {
		for x := x0; x < x0+cellScale; x++ {
			img.Set(x, y, c)
		}
	}
}

// FrameLabel describes the info-bar text for an annotated frame.
func FrameLabel(index int, min, max float64, theme Theme) string {
	return fmt.Sprintf("frame %04d  min %.1f  max %.1f  [%s]", index, min, max, theme)
}
