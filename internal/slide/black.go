package slide

import (
	"fmt"
	"image"

	"github.com/ivlev/slideshow/internal/canvas"
	"github.com/ivlev/slideshow/internal/system"
)

// Black is the zero-length sentinel that brackets the show, giving the first
// and last cross-fades a well-defined neighbor.
type Black struct {
	settings Settings
	frame    *image.RGBA
	state    state
}

func NewBlack(s Settings) *Black {
	return &Black{settings: s}
}

func (b *Black) Path() string     { return "" }
func (b *Black) Caption() string  { return "" }
func (b *Black) SlideFrames() int { return 0 }
func (b *Black) NFrames() int     { return 2 * b.settings.TransitionFrames }

func (b *Black) Load() error {
	if b.state == loaded {
		return nil
	}
	if b.state == destroyed {
		return fmt.Errorf("black slide: %w", ErrDestroyed)
	}
	b.frame = system.GetImage(b.settings.frameRect())
	canvas.Fill(b.frame, canvas.Background)
	b.state = loaded
	return nil
}

// Frame accepts any non-negative index: the sentinel has no timeline of its own.
func (b *Black) Frame(n int) (*image.RGBA, error) {
	switch b.state {
	case unloaded:
		return nil, fmt.Errorf("black slide: %w", ErrNotLoaded)
	case destroyed:
		return nil, fmt.Errorf("black slide: %w", ErrDestroyed)
	}
	if n < 0 {
		return nil, fmt.Errorf("black slide: frame %d: %w", n, ErrFrameOutOfRange)
	}
	return b.frame, nil
}

func (b *Black) Destroy() {
	system.PutImage(b.frame)
	b.frame = nil
	b.state = destroyed
}
