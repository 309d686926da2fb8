package effects

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ivlev/slideshow/internal/renderer"
)

// ErrInvalidMotion is wrapped by every rejected set of animation parameters.
var ErrInvalidMotion = errors.New("invalid motion")

// Motion is a linear pan/zoom from one camera state to another over a
// slide's whole timeline.
type Motion struct {
	StartScale float64        `yaml:"start_scale"`
	StartPos   renderer.Point `yaml:"start_pos"`
	EndScale   float64        `yaml:"end_scale"`
	EndPos     renderer.Point `yaml:"end_pos"`
}

// Validate checks that scales are in (0,1] and positions in [0,1]².
func (m Motion) Validate() error {
	for _, s := range []float64{m.StartScale, m.EndScale} {
		if !(s > 0 && s <= 1) {
			return fmt.Errorf("%w: scale %g outside (0,1]", ErrInvalidMotion, s)
		}
	}
	for _, p := range []renderer.Point{m.StartPos, m.EndPos} {
		if !(p.X >= 0 && p.X <= 1 && p.Y >= 0 && p.Y <= 1) {
			return fmt.Errorf("%w: position (%g,%g) outside [0,1]", ErrInvalidMotion, p.X, p.Y)
		}
	}
	return nil
}

// At returns the camera state at progress in [0,1].
func (m Motion) At(progress float64) renderer.CameraState {
	return renderer.Interpolate(
		renderer.CameraState{Center: m.StartPos, Scale: m.StartScale},
		renderer.CameraState{Center: m.EndPos, Scale: m.EndScale},
		progress,
	)
}

// String formats the motion as "ss:sx:sy:es:ex:ey", the slide-list form.
func (m Motion) String() string {
	vals := []float64{m.StartScale, m.StartPos.X, m.StartPos.Y, m.EndScale, m.EndPos.X, m.EndPos.Y}
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, ":")
}

// ParseMotion parses "ss:sx:sy:es:ex:ey" and validates the result.
func ParseMotion(s string) (Motion, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 6 {
		return Motion{}, fmt.Errorf("%w: expected 6 values ss:sx:sy:es:ex:ey, got %q", ErrInvalidMotion, s)
	}
	var v [6]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Motion{}, fmt.Errorf("%w: %q: %v", ErrInvalidMotion, p, err)
		}
		v[i] = f
	}
	m := Motion{
		StartScale: v[0],
		StartPos:   renderer.Point{X: v[1], Y: v[2]},
		EndScale:   v[3],
		EndPos:     renderer.Point{X: v[4], Y: v[5]},
	}
	return m, m.Validate()
}
