package effects

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/ivlev/slideshow/internal/renderer"
)

// Effect picks the animation of the slide at a given position in the show.
// ok is false for slides that should stay static.
type Effect interface {
	Motion(index int) (m Motion, ok bool)
}

// StaticEffect leaves every slide without motion.
type StaticEffect struct{}

func (StaticEffect) Motion(int) (Motion, bool) { return Motion{}, false }

// PresetEffect zooms every slide toward (or out from) an anchor.
type PresetEffect struct {
	Mode string
	Zoom float64 // Peak magnification, e.g. 1.25
	Seed int64
}

var anchors = map[string]renderer.Point{
	"center":       {X: 0.5, Y: 0.5},
	"top-left":     {X: 0, Y: 0},
	"top-right":    {X: 1, Y: 0},
	"bottom-left":  {X: 0, Y: 1},
	"bottom-right": {X: 1, Y: 1},
}

var randomModes = []string{"center", "top-left", "top-right", "bottom-left", "bottom-right"}

// NewPresetEffect validates mode. Modes prefixed with "out-" zoom out instead of in.
func NewPresetEffect(mode string, zoom float64, seed int64) (*PresetEffect, error) {
	mode = strings.ToLower(strings.TrimSpace(mode))
	base := strings.TrimPrefix(mode, "out-")
	if _, ok := anchors[base]; !ok && base != "random" {
		return nil, fmt.Errorf("unknown zoom mode %q", mode)
	}
	if zoom < 1 {
		return nil, fmt.Errorf("%w: zoom %g must be >= 1", ErrInvalidMotion, zoom)
	}
	return &PresetEffect{Mode: mode, Zoom: zoom, Seed: seed}, nil
}

func (e *PresetEffect) Motion(index int) (Motion, bool) {
	mode := e.Mode
	out := strings.HasPrefix(mode, "out-")
	base := strings.TrimPrefix(mode, "out-")
	if base == "random" {
		r := rand.New(rand.NewSource(e.Seed + int64(index*99)))
		base = randomModes[r.Intn(len(randomModes))]
	}

	scale := 1 / e.Zoom
	// Keep the zoomed window inside the canvas
	anchor := anchors[base]
	end := renderer.Point{
		X: scale/2 + anchor.X*(1-scale),
		Y: scale/2 + anchor.Y*(1-scale),
	}
	m := Motion{
		StartScale: 1,
		StartPos:   renderer.Point{X: 0.5, Y: 0.5},
		EndScale:   scale,
		EndPos:     end,
	}
	if out {
		m.StartScale, m.EndScale = m.EndScale, m.StartScale
		m.StartPos, m.EndPos = m.EndPos, m.StartPos
	}
	return m, true
}
