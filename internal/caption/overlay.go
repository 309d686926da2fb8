// Package caption renders slide captions into a transparent, frame-sized
// overlay that is composited over every frame of the slide.
package caption

import (
	"image"
	"image/color"

	"github.com/ivlev/slideshow/internal/config"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

var (
	// Margin is the distance of the caption box from the left and bottom frame edges.
	Margin = image.Point{X: 50, Y: 10}
	// Padding separates the text from the box edges.
	Padding = image.Point{X: 8, Y: 6}

	BoxColor  = color.NRGBA{A: 140}
	TextColor = color.White
)

// Overlay is a precomputed caption layer. A nil *Overlay draws nothing.
type Overlay struct {
	img  *image.RGBA
	box  image.Rectangle
	text image.Point // Top-left corner of the text
}

// Layout computes the caption box and text origin for a text of the given
// rendered size, anchored to the bottom-left corner of res.
func Layout(textW, textH int, res config.Resolution) (box image.Rectangle, text image.Point) {
	text = image.Point{
		X: Margin.X + Padding.X,
		Y: res.Height - Margin.Y - Padding.Y - textH,
	}
	box = image.Rect(
		Margin.X,
		res.Height-Margin.Y-textH-2*Padding.Y,
		Margin.X+2*Padding.X+textW,
		res.Height-Margin.Y,
	)
	return box, text
}

// Measure returns the pixel size of s set in face: advance width by line height.
func Measure(face font.Face, s string) (int, int) {
	m := face.Metrics()
	return font.MeasureString(face, s).Ceil(), (m.Ascent + m.Descent).Ceil()
}

// New renders text into a res-sized transparent overlay.
// Empty text yields a nil overlay.
func New(text string, face font.Face, res config.Resolution) *Overlay {
	if text == "" || face == nil {
		return nil
	}

	w, h := Measure(face, text)
	box, origin := Layout(w, h, res)

	img := image.NewRGBA(image.Rect(0, 0, res.Width, res.Height))
	draw.Draw(img, box, image.NewUniform(BoxColor), image.Point{}, draw.Over)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(TextColor),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(origin.X), Y: fixed.I(origin.Y) + face.Metrics().Ascent},
	}
	d.DrawString(text)

	return &Overlay{img: img, box: box, text: origin}
}

// Apply composites the overlay onto dst using the overlay's own alpha.
func (o *Overlay) Apply(dst draw.Image) {
	if o == nil {
		return
	}
	draw.Draw(dst, dst.Bounds(), o.img, image.Point{}, draw.Over)
}

// Box is the caption rectangle in frame coordinates.
func (o *Overlay) Box() image.Rectangle {
	if o == nil {
		return image.Rectangle{}
	}
	return o.box
}

// Image exposes the overlay layer.
func (o *Overlay) Image() *image.RGBA {
	if o == nil {
		return nil
	}
	return o.img
}
