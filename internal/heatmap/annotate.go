package heatmap

import (
	"fmt"
	"image"
	"image/draw"
	"os"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
)

const (
	dpi          = 120.0
	fontSize     = 10.0
	barHeight    = 24
	labelPadding = 6
)

// Annotator draws an information bar below a rendered heatmap. The font
// is loaded from a TTF file at construction; rendering without an
// annotator simply produces an unlabelled image.
type Annotator struct {
	font     *truetype.Font
	fontFace font.Face
}

// NewAnnotator loads a TTF font from disk.
func NewAnnotator(fontPath string) (*Annotator, error) {
	data, err := os.ReadFile(fontPath)
	if err != nil {
		return nil, fmt.Errorf("reading font file: %w", err)
	}

	parsedFont, err := freetype.ParseFont(data)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}

	return &Annotator{
		font: parsedFont,
		fontFace: truetype.NewFace(parsedFont, &truetype.Options{
			Size:    fontSize,
			DPI:     dpi,
			Hinting: font.HintingNone,
		}),
	}, nil
}

// Close releases the font face.
func (a *Annotator) Close() error {
	if a.fontFace != nil {
		return a.fontFace.Close()
	}
	return nil
}

// Annotate returns a copy of img extended by a white bar at the bottom
// carrying the given label.
func (a *Annotator) Annotate(img *image.RGBA, label string) (*image.RGBA, error) {
	bounds := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()+barHeight))

	draw.Draw(out, out.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(out, bounds, img, bounds.Min, draw.Src)

	ctx := freetype.NewContext()
	ctx.SetDPI(dpi)
	ctx.SetFont(a.font)
	ctx.SetFontSize(fontSize)
	ctx.SetHinting(font.HintingNone)
	ctx.SetSrc(image.Black)
	ctx.SetClip(out.Bounds())
	ctx.SetDst(out)

	metrics := a.fontFace.Metrics()
	fontHeight := (metrics.Ascent + metrics.Descent).Round()
	textY := bounds.Dy() + (barHeight+fontHeight)/2 - metrics.Descent.Round()

	pt := freetype.Pt(labelPadding, textY)
	if _, err := ctx.DrawString(label, pt); err != nil {
		return nil, fmt.Errorf("drawing label: %w", err)
	}
	return out, nil
}
