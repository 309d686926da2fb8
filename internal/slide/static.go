package slide

import (
	"image"

	"github.com/ivlev/slideshow/internal/canvas"
)

// Static shows the same letterboxed, captioned image for its whole timeline.
type Static struct {
	base
	frame *image.RGBA
}

func NewStatic(path, text string, slideFrames int, s Settings) (*Static, error) {
	b, err := newBase(path, text, slideFrames, s)
	if err != nil {
		return nil, err
	}
	return &Static{base: b}, nil
}

func (s *Static) Load() error {
	if s.state == loaded {
		return nil
	}
	img, err := s.decode()
	if err != nil {
		return err
	}
	s.frame = canvas.FitAndPad(img, s.settings.Resolution)
	s.overlay.Apply(s.frame)
	s.state = loaded
	return nil
}

func (s *Static) Frame(n int) (*image.RGBA, error) {
	if err := s.check(n); err != nil {
		return nil, err
	}
	return s.frame, nil
}

func (s *Static) Destroy() {
	s.frame = nil
	s.overlay = nil
	s.state = destroyed
}
