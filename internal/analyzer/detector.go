// Package analyzer finds visually busy regions in an image. The director
// uses them to aim the Ken Burns zoom at something worth looking at.
package analyzer

import "image"

// Block is a detected region of interest, in source image coordinates.
type Block struct {
	Rect       image.Rectangle
	Type       string  // "text", "detail", "unknown"
	Confidence float64 // 0.0-1.0
}

// Area is the block size in pixels.
func (b Block) Area() int {
	return b.Rect.Dx() * b.Rect.Dy()
}

// Detector is the interface for image analysis strategies
type Detector interface {
	Detect(img image.Image) ([]Block, error)
}
