package caption

import (
	"image"
	"image/color"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/ivlev/slideshow/internal/config"
)

var res = config.Resolution{Width: 1024, Height: 768}

func frame(c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, res.Width, res.Height))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func TestLayout(t *testing.T) {
	box, text := Layout(100, 18, res)

	wantBox := image.Rect(50, 728, 166, 758)
	if box != wantBox {
		t.Errorf("Expected box %v, got %v", wantBox, box)
	}
	if text != (image.Point{X: 58, Y: 734}) {
		t.Errorf("Expected text origin (58,734), got %v", text)
	}

	// Padding surrounds the text on every side
	if text.X-box.Min.X != Padding.X || box.Max.X-(text.X+100) != Padding.X {
		t.Errorf("Horizontal padding broken: box %v text %v", box, text)
	}
	if text.Y-box.Min.Y != Padding.Y || box.Max.Y-(text.Y+18) != Padding.Y {
		t.Errorf("Vertical padding broken: box %v text %v", box, text)
	}
}

func TestNew(t *testing.T) {
	face, err := LoadFace("", 15)
	if err != nil {
		t.Fatalf("LoadFace failed: %v", err)
	}

	if New("", face, res) != nil {
		t.Error("Expected nil overlay for empty caption")
	}

	o := New("August 2008", face, res)
	if o == nil {
		t.Fatal("Expected overlay")
	}
	if o.Image().Bounds() != image.Rect(0, 0, res.Width, res.Height) {
		t.Errorf("Overlay must cover the frame, got %v", o.Image().Bounds())
	}

	w, h := Measure(face, "August 2008")
	wantBox, _ := Layout(w, h, res)
	if o.Box() != wantBox {
		t.Errorf("Expected box %v, got %v", wantBox, o.Box())
	}

	// Outside the box the overlay is fully transparent
	if a := o.Image().RGBAAt(10, 10).A; a != 0 {
		t.Errorf("Expected transparent overlay outside box, got alpha %d", a)
	}
	// Box corner carries the translucent fill
	if a := o.Image().RGBAAt(o.Box().Min.X, o.Box().Min.Y).A; a != BoxColor.A {
		t.Errorf("Expected box alpha %d, got %d", BoxColor.A, a)
	}
}

func TestApply(t *testing.T) {
	o := New("July 2010", FallbackFace(), res)
	box := o.Box()

	dst := frame(color.RGBA{255, 255, 255, 255})
	o.Apply(dst)

	corner := dst.RGBAAt(box.Min.X, box.Min.Y)
	// 255 * (255-140)/255 = 115
	if corner.R < 113 || corner.R > 117 || corner.A != 255 {
		t.Errorf("Expected darkened corner ~115, got %v", corner)
	}
	if got := dst.RGBAAt(10, 10); got.R != 255 {
		t.Errorf("Pixels outside the box must not change, got %v", got)
	}

	// Text is solid white on a black frame
	dark := frame(color.RGBA{A: 255})
	o.Apply(dark)
	bright := 0
	for y := box.Min.Y; y < box.Max.Y; y++ {
		for x := box.Min.X; x < box.Max.X; x++ {
			if dark.RGBAAt(x, y).R == 255 {
				bright++
			}
		}
	}
	if bright == 0 {
		t.Error("Expected white text pixels inside the box")
	}

	var none *Overlay
	none.Apply(dst)
	if none.Box() != (image.Rectangle{}) || none.Image() != nil {
		t.Error("Nil overlay must be inert")
	}
}

func TestLoadFaceErrors(t *testing.T) {
	if _, err := LoadFace(filepath.Join(t.TempDir(), "missing.ttf"), 15); err == nil {
		t.Error("Expected error for missing font")
	}
	bad := filepath.Join(t.TempDir(), "bad.ttf")
	os.WriteFile(bad, []byte("not a font"), 0644)
	if _, err := LoadFace(bad, 15); err == nil {
		t.Error("Expected error for corrupt font")
	}
}

func TestDateCaptionNeverFails(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dir := t.TempDir()

	if got := DateCaption(filepath.Join(dir, "missing.jpg"), logger); got != "" {
		t.Errorf("Expected empty caption for missing file, got %q", got)
	}

	plain := filepath.Join(dir, "plain.jpg")
	os.WriteFile(plain, []byte("no metadata here"), 0644)
	if got := DateCaption(plain, logger); got != "" {
		t.Errorf("Expected empty caption without exif, got %q", got)
	}
}
