package video

import (
	"fmt"
	"image"
	"io"
)

// frameEncoder serializes one frame in the encoder's input format.
type frameEncoder interface {
	Encode(w io.Writer, img *image.RGBA) error
}

func newFrameEncoder(format string) (frameEncoder, error) {
	switch format {
	case "", "rgba":
		return &rawEncoder{}, nil
	case "ppm":
		return &ppmEncoder{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown pixel format %q", ErrSink, format)
	}
}

// rawEncoder writes packed row-major RGBA, 4 bytes per pixel.
type rawEncoder struct {
	row []byte
}

func (e *rawEncoder) Encode(w io.Writer, img *image.RGBA) error {
	b := img.Bounds()
	rowLen := b.Dx() * 4
	if img.Stride == rowLen && len(img.Pix) == rowLen*b.Dy() {
		_, err := w.Write(img.Pix)
		return err
	}

	// Sub-images carry a wider stride
	for y := b.Min.Y; y < b.Max.Y; y++ {
		off := img.PixOffset(b.Min.X, y)
		if _, err := w.Write(img.Pix[off : off+rowLen]); err != nil {
			return err
		}
	}
	return nil
}

// ppmEncoder writes binary PPM (P6): a text header followed by RGB triples.
// Alpha is dropped; frames are always opaque.
type ppmEncoder struct {
	buf []byte
}

func (e *ppmEncoder) Encode(w io.Writer, img *image.RGBA) error {
	b := img.Bounds()
	if _, err := fmt.Fprintf(w, "P6\n%d %d\n255\n", b.Dx(), b.Dy()); err != nil {
		return err
	}

	n := b.Dx() * b.Dy() * 3
	if cap(e.buf) < n {
		e.buf = make([]byte, n)
	}
	out := e.buf[:n]
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		off := img.PixOffset(b.Min.X, y)
		row := img.Pix[off : off+b.Dx()*4]
		for x := 0; x < len(row); x += 4 {
			out[i], out[i+1], out[i+2] = row[x], row[x+1], row[x+2]
			i += 3
		}
	}
	_, err := w.Write(out)
	return err
}
