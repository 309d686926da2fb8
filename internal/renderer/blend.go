package renderer

import (
	"fmt"
	"image"
)

// Blend writes the pixel-wise linear mix (1-alpha)*from + alpha*to into dst.
// All three images must share the same bounds and be packed RGBA.
func Blend(dst, from, to *image.RGBA, alpha float64) error {
	if from.Rect != dst.Rect || to.Rect != dst.Rect {
		return fmt.Errorf("blend size mismatch: dst %v, from %v, to %v", dst.Rect, from.Rect, to.Rect)
	}
	switch {
	case alpha <= 0:
		copy(dst.Pix, from.Pix)
		return nil
	case alpha >= 1:
		copy(dst.Pix, to.Pix)
		return nil
	}

	// 8.8 fixed point weights
	wt := uint32(alpha*256 + 0.5)
	wf := 256 - wt
	for i := range dst.Pix {
		dst.Pix[i] = uint8((uint32(from.Pix[i])*wf + uint32(to.Pix[i])*wt + 128) >> 8)
	}
	return nil
}
