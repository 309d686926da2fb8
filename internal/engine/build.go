package engine

import (
	"fmt"

	"github.com/ivlev/slideshow/internal/director"
	"github.com/ivlev/slideshow/internal/slide"
)

// BuildSlides turns list entries into unloaded slides. Entries without a
// frame count show for slideFrames. Invalid animation parameters are
// rejected here, before anything is rendered.
func BuildSlides(entries []director.Entry, slideFrames int, settings slide.Settings) ([]slide.Slide, error) {
	slides := make([]slide.Slide, 0, len(entries))
	for i, e := range entries {
		frames := slideFrames
		if e.Frames > 0 {
			frames = e.Frames
		}
		s, err := slide.New(e.Path, e.Caption, frames, e.Motion, settings)
		if err != nil {
			return nil, fmt.Errorf("slide %d: %w", i+1, err)
		}
		slides = append(slides, s)
	}
	return slides, nil
}
