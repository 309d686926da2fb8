package director

import (
	"fmt"
	"image"
	"math"
	"sort"

	"github.com/ivlev/slideshow/internal/analyzer"
	"github.com/ivlev/slideshow/internal/canvas"
	"github.com/ivlev/slideshow/internal/config"
	"github.com/ivlev/slideshow/internal/effects"
	"github.com/ivlev/slideshow/internal/renderer"
	"github.com/ivlev/slideshow/internal/source"
)

// Planner picks the motion of the slide at index. A nil motion keeps the
// slide static.
type Planner interface {
	Plan(index int, path string) (*effects.Motion, error)
}

// EffectPlanner applies an effect preset without looking at the image.
type EffectPlanner struct {
	Effect effects.Effect
}

func (p EffectPlanner) Plan(index int, _ string) (*effects.Motion, error) {
	m, ok := p.Effect.Motion(index)
	if !ok {
		return nil, nil
	}
	return &m, nil
}

// Director aims the zoom at the busiest region of each image
type Director struct {
	Resolution config.Resolution
	Detector   analyzer.Detector
	Loader     source.Loader
	MaxZoom    float64 // Upper bound of the magnification at the end of the slide
	Padding    float64 // Share of the frame the focus block may fill
	Alternate  bool    // Zoom out instead of in on every other slide
}

// NewDirector creates a new Director with default settings
func NewDirector(res config.Resolution, det analyzer.Detector, loader source.Loader) *Director {
	return &Director{
		Resolution: res,
		Detector:   det,
		Loader:     loader,
		MaxZoom:    3.0,
		Padding:    0.9,
	}
}

func (d *Director) Plan(index int, path string) (*effects.Motion, error) {
	img, err := d.Loader.Load(path)
	if err != nil {
		return nil, err
	}
	blocks, err := d.Detector.Detect(img)
	if err != nil {
		return nil, fmt.Errorf("analyze %s: %w", path, err)
	}
	if len(blocks) == 0 {
		return nil, nil
	}

	m := d.MotionToward(img.Bounds(), d.pickFocus(blocks).Rect)
	if d.Alternate && index%2 == 1 {
		m.StartScale, m.EndScale = m.EndScale, m.StartScale
		m.StartPos, m.EndPos = m.EndPos, m.StartPos
	}
	return &m, nil
}

// pickFocus prefers the largest block, then reading order
// (top-to-bottom, left-to-right).
func (d *Director) pickFocus(blocks []analyzer.Block) analyzer.Block {
	sorted := make([]analyzer.Block, len(blocks))
	copy(sorted, blocks)

	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Area() != sorted[j].Area() {
			return sorted[i].Area() > sorted[j].Area()
		}
		// Threshold for "same row" (20 pixels)
		if yDiff := sorted[i].Rect.Min.Y - sorted[j].Rect.Min.Y; abs(yDiff) > 20 {
			return yDiff < 0
		}
		return sorted[i].Rect.Min.X < sorted[j].Rect.Min.X
	})
	return sorted[0]
}

// MotionToward zooms from the full canvas to focus. Both rectangles are in
// source image coordinates; the motion is expressed on the canvas padded to
// the output aspect ratio, the surface a Ken Burns slide samples.
func (d *Director) MotionToward(src, focus image.Rectangle) effects.Motion {
	cw, ch := canvas.CoverSize(src.Dx(), src.Dy(), d.Resolution)
	off := canvas.CenterOffset(cw, ch, src.Dx(), src.Dy())

	focus = focus.Intersect(src)
	fx := float64(off.X+focus.Min.X-src.Min.X) + float64(focus.Dx())/2
	fy := float64(off.Y+focus.Min.Y-src.Min.Y) + float64(focus.Dy())/2

	scale := d.calculateScale(float64(focus.Dx())/float64(cw), float64(focus.Dy())/float64(ch))
	end := renderer.Point{
		X: clamp(fx/float64(cw), scale/2, 1-scale/2),
		Y: clamp(fy/float64(ch), scale/2, 1-scale/2),
	}

	return effects.Motion{
		StartScale: 1,
		StartPos:   renderer.Point{X: 0.5, Y: 0.5},
		EndScale:   scale,
		EndPos:     end,
	}
}

// calculateScale is the visible canvas fraction that fits a block of the
// given relative size into Padding of the frame.
func (d *Director) calculateScale(w, h float64) float64 {
	padding := d.Padding
	if padding <= 0 {
		padding = 1
	}
	minScale := 1.0
	if d.MaxZoom > 1 {
		minScale = 1 / d.MaxZoom
	}
	return clamp(math.Max(w, h)/padding, minScale, 1)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// abs returns absolute value of an integer
func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
