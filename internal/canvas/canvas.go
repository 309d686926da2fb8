// Package canvas places decoded images onto fixed-aspect canvases without
// cropping: the leftover area is filled with the background color.
package canvas

import (
	"image"
	"image/color"

	"github.com/ivlev/slideshow/internal/config"
	"golang.org/x/image/draw"
)

// Background fills letterbox and pillarbox bars.
var Background = color.RGBA{A: 255}

// ToRGBA returns img as a zero-origin *image.RGBA with a packed stride,
// copying only when it is not one already.
func ToRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) && rgba.Stride == b.Dx()*4 {
		return rgba
	}
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// Fill paints the whole image with c.
func Fill(dst *image.RGBA, c color.RGBA) {
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: c}, image.Point{}, draw.Src)
}

// FitSize is the largest size with the aspect of w x h fitting into res.
// Images already inside res keep their size.
func FitSize(w, h int, res config.Resolution) (int, int) {
	if w <= res.Width && h <= res.Height {
		return w, h
	}
	// Сравниваем w/h и W/H без деления
	if int64(w)*int64(res.Height) > int64(h)*int64(res.Width) {
		nh := int(int64(h) * int64(res.Width) / int64(w))
		return res.Width, max(1, nh)
	}
	nw := int(int64(w) * int64(res.Height) / int64(h))
	return max(1, nw), res.Height
}

// CenterOffset is the floor of (outer - inner) / 2 for each axis.
func CenterOffset(outerW, outerH, innerW, innerH int) image.Point {
	return image.Point{X: floorHalf(outerW - innerW), Y: floorHalf(outerH - innerH)}
}

func floorHalf(v int) int {
	if v >= 0 {
		return v / 2
	}
	return (v - 1) / 2
}

// FitAndPad downscales src with an antialiasing filter so it fits inside res,
// then centers it on a res-sized canvas.
func FitAndPad(src image.Image, res config.Resolution) *image.RGBA {
	b := src.Bounds()
	w, h := FitSize(b.Dx(), b.Dy(), res)

	dst := image.NewRGBA(image.Rect(0, 0, res.Width, res.Height))
	Fill(dst, Background)

	off := CenterOffset(res.Width, res.Height, w, h)
	target := image.Rect(off.X, off.Y, off.X+w, off.Y+h)
	if w == b.Dx() && h == b.Dy() {
		draw.Draw(dst, target, src, b.Min, draw.Src)
	} else {
		draw.CatmullRom.Scale(dst, target, src, b, draw.Src, nil)
	}
	return dst
}

// CoverSize is the smallest size containing w x h whose aspect ratio equals res.
func CoverSize(w, h int, res config.Resolution) (int, int) {
	if int64(w)*int64(res.Height) > int64(h)*int64(res.Width) {
		return w, int(int64(w) * int64(res.Height) / int64(res.Width))
	}
	return int(int64(h) * int64(res.Width) / int64(res.Height)), h
}

// CoverToAspect pads src, without scaling, to the aspect ratio of res.
// The result is the surface sampled by pan/zoom: any sub-rectangle with the
// aspect of res that lies inside it is valid image area.
func CoverToAspect(src image.Image, res config.Resolution) *image.RGBA {
	b := src.Bounds()
	w, h := CoverSize(b.Dx(), b.Dy(), res)
	if w == b.Dx() && h == b.Dy() {
		return ToRGBA(src)
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	Fill(dst, Background)
	off := CenterOffset(w, h, b.Dx(), b.Dy())
	draw.Draw(dst, image.Rect(off.X, off.Y, off.X+b.Dx(), off.Y+b.Dy()), src, b.Min, draw.Src)
	return dst
}
