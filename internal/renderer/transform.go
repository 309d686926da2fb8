package renderer

import (
	"image"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// Window is a sub-pixel rectangle on a canvas, in canvas pixels.
type Window struct {
	X0, Y0, X1, Y1 float64
}

func (w Window) Dx() float64 { return w.X1 - w.X0 }
func (w Window) Dy() float64 { return w.Y1 - w.Y0 }

// SampleWindow converts a camera state into the source rectangle on a
// canvas of the given size: center ± half the scaled canvas.
func SampleWindow(cam CameraState, canvasW, canvasH int) Window {
	width := float64(canvasW) * cam.Scale
	height := float64(canvasH) * cam.Scale
	cx := cam.Center.X * float64(canvasW)
	cy := cam.Center.Y * float64(canvasH)
	return Window{
		X0: cx - width/2,
		Y0: cy - height/2,
		X1: cx + width/2,
		Y1: cy + height/2,
	}
}

// Extent resamples the window of src onto the whole of dst with a
// Catmull-Rom (bicubic) kernel. The mapping keeps sub-pixel precision so
// slow pans do not step. Destination pixels whose source falls outside
// src keep their previous value, so dst should be cleared first.
func Extent(dst *image.RGBA, src image.Image, win Window) {
	db := dst.Bounds()
	if win.Dx() <= 0 || win.Dy() <= 0 || db.Empty() {
		return
	}
	sx := float64(db.Dx()) / win.Dx()
	sy := float64(db.Dy()) / win.Dy()

	// src -> dst: d = (s - win.min) * scale + dst.min
	s2d := f64.Aff3{
		sx, 0, float64(db.Min.X) - win.X0*sx,
		0, sy, float64(db.Min.Y) - win.Y0*sy,
	}
	draw.CatmullRom.Transform(dst, s2d, src, src.Bounds(), draw.Src, nil)
}
