package analyzer

import (
	"image"
	"math"

	"golang.org/x/image/draw"
)

// ContrastDetector finds regions with dense edges. Photos are large, so the
// analysis runs on a thumbnail and the blocks are mapped back afterwards.
type ContrastDetector struct {
	MinBlockArea  int     // Minimum area in thumbnail pixels²
	EdgeThreshold float64 // Sobel gradient magnitude threshold
	MaxSide       int     // Longer thumbnail side
	DilateRadius  int     // Joins edges closer than 2*radius+1 pixels
}

// NewContrastDetector creates a new contrast-based detector with default settings
func NewContrastDetector() *ContrastDetector {
	return &ContrastDetector{
		MinBlockArea:  500,
		EdgeThreshold: 30.0,
		MaxSide:       256,
		DilateRadius:  2,
	}
}

func (d *ContrastDetector) Detect(img image.Image) ([]Block, error) {
	src := img.Bounds()
	if src.Empty() {
		return nil, nil
	}

	gray := thumbnail(img, d.MaxSide)
	tw, th := gray.Rect.Dx(), gray.Rect.Dy()
	mask := dilate(sobel(gray, d.EdgeThreshold), tw, th, d.DilateRadius)

	sx := float64(src.Dx()) / float64(tw)
	sy := float64(src.Dy()) / float64(th)

	var blocks []Block
	for _, r := range components(mask, tw, th) {
		if r.Dx()*r.Dy() < d.MinBlockArea {
			continue
		}
		blocks = append(blocks, Block{
			Rect: image.Rect(
				src.Min.X+int(math.Floor(float64(r.Min.X)*sx)),
				src.Min.Y+int(math.Floor(float64(r.Min.Y)*sy)),
				src.Min.X+int(math.Ceil(float64(r.Max.X)*sx)),
				src.Min.Y+int(math.Ceil(float64(r.Max.Y)*sy)),
			).Intersect(src),
			Type:       "unknown",
			Confidence: 0.7,
		})
	}
	return blocks, nil
}

// thumbnail converts img to grayscale, shrinking it so the longer side is at
// most maxSide. Smaller images keep their size.
func thumbnail(img image.Image, maxSide int) *image.Gray {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxSide > 0 && (w > maxSide || h > maxSide) {
		if w >= h {
			w, h = maxSide, max(1, h*maxSide/w)
		} else {
			w, h = max(1, w*maxSide/h), maxSide
		}
	}
	gray := image.NewGray(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(gray, gray.Rect, img, b, draw.Src, nil)
	return gray
}

// sobel marks pixels whose gradient magnitude exceeds threshold.
func sobel(gray *image.Gray, threshold float64) []bool {
	w, h := gray.Rect.Dx(), gray.Rect.Dy()
	edges := make([]bool, w*h)
	at := func(x, y int) float64 {
		return float64(gray.Pix[y*gray.Stride+x])
	}

	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			gx := at(x+1, y-1) + 2*at(x+1, y) + at(x+1, y+1) -
				at(x-1, y-1) - 2*at(x-1, y) - at(x-1, y+1)
			gy := at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1) -
				at(x-1, y-1) - 2*at(x, y-1) - at(x+1, y-1)
			edges[y*w+x] = math.Hypot(gx, gy) > threshold
		}
	}
	return edges
}

// dilate grows the mask by a square of the given radius, one axis at a time.
func dilate(mask []bool, w, h, radius int) []bool {
	if radius <= 0 {
		return mask
	}
	rows := make([]bool, len(mask))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			for k := max(0, x-radius); k <= min(w-1, x+radius); k++ {
				if mask[y*w+k] {
					rows[y*w+x] = true
					break
				}
			}
		}
	}
	out := make([]bool, len(mask))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			for k := max(0, y-radius); k <= min(h-1, y+radius); k++ {
				if rows[k*w+x] {
					out[y*w+x] = true
					break
				}
			}
		}
	}
	return out
}

// components returns the bounding box of every 4-connected region of the mask.
func components(mask []bool, w, h int) []image.Rectangle {
	seen := make([]bool, len(mask))
	var rects []image.Rectangle
	var queue []int

	for start := range mask {
		if !mask[start] || seen[start] {
			continue
		}
		seen[start] = true
		queue = append(queue[:0], start)
		r := image.Rect(start%w, start/w, start%w+1, start/w+1)

		for len(queue) > 0 {
			i := queue[len(queue)-1]
			queue = queue[:len(queue)-1]
			x, y := i%w, i/w
			r = r.Union(image.Rect(x, y, x+1, y+1))

			for _, n := range [4][2]int{{x + 1, y}, {x - 1, y}, {x, y + 1}, {x, y - 1}} {
				if n[0] < 0 || n[0] >= w || n[1] < 0 || n[1] >= h {
					continue
				}
				j := n[1]*w + n[0]
				if mask[j] && !seen[j] {
					seen[j] = true
					queue = append(queue, j)
				}
			}
		}
		rects = append(rects, r)
	}
	return rects
}
