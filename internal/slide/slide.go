// Package slide implements the frame generators of a slideshow.
//
// Every slide has a local timeline of NFrames() frames. For a slide showing
// s frames at full opacity between transitions of t frames the timeline is
// 2t+s long:
//
//	[0, t)        incoming cross-fade
//	[t, t+s)      full-opacity display
//	[t+s, 2t+s)   outgoing cross-fade, sampled while the slide is "previous"
//
// A slide is cheap to construct. Load decodes and fits the image, Frame is a
// pure function of the local index, and Destroy releases the buffers.
package slide

import (
	"errors"
	"fmt"
	"image"

	"github.com/ivlev/slideshow/internal/caption"
	"github.com/ivlev/slideshow/internal/config"
	"github.com/ivlev/slideshow/internal/effects"
	"github.com/ivlev/slideshow/internal/source"
	"golang.org/x/image/font"
)

var (
	ErrNotLoaded       = errors.New("slide not loaded")
	ErrDestroyed       = errors.New("slide destroyed")
	ErrFrameOutOfRange = errors.New("frame index out of range")
	ErrInvalidMotion   = effects.ErrInvalidMotion
)

// Slide produces frames of exactly Settings.Resolution.
// The image returned by Frame belongs to the slide: it stays valid until the
// next Frame or Destroy call and must not be modified.
type Slide interface {
	Path() string
	Caption() string
	NFrames() int
	SlideFrames() int
	Load() error
	Frame(n int) (*image.RGBA, error)
	Destroy()
}

// Settings is the read-only render configuration shared by all slides.
type Settings struct {
	Resolution       config.Resolution
	TransitionFrames int
	Face             font.Face // Caption font; nil selects a bitmap fallback
	Loader           source.Loader
}

// NewSettings derives slide settings from the render configuration.
func NewSettings(cfg *config.Config, face font.Face, loader source.Loader) Settings {
	return Settings{
		Resolution:       cfg.Resolution,
		TransitionFrames: cfg.TransitionFrames,
		Face:             face,
		Loader:           loader,
	}
}

func (s Settings) frameRect() image.Rectangle {
	return image.Rect(0, 0, s.Resolution.Width, s.Resolution.Height)
}

func (s Settings) face() font.Face {
	if s.Face == nil {
		return caption.FallbackFace()
	}
	return s.Face
}

func (s Settings) loader() source.Loader {
	if s.Loader == nil {
		return source.FileLoader{}
	}
	return s.Loader
}

// New builds a KenBurns slide when motion is set, a Static slide otherwise.
func New(path, text string, slideFrames int, motion *effects.Motion, s Settings) (Slide, error) {
	if motion != nil {
		return NewKenBurns(path, text, slideFrames, *motion, s)
	}
	return NewStatic(path, text, slideFrames, s)
}

type state int

const (
	unloaded state = iota
	loaded
	destroyed
)

// base carries what every image-backed slide shares.
type base struct {
	path        string
	caption     string
	slideFrames int
	settings    Settings
	state       state
	overlay     *caption.Overlay
}

func newBase(path, text string, slideFrames int, s Settings) (base, error) {
	if slideFrames < 0 {
		return base{}, fmt.Errorf("slide %s: negative slide frames %d", path, slideFrames)
	}
	if s.TransitionFrames < 0 {
		return base{}, fmt.Errorf("slide %s: negative transition frames %d", path, s.TransitionFrames)
	}
	if s.Resolution.Width <= 0 || s.Resolution.Height <= 0 {
		return base{}, fmt.Errorf("slide %s: bad resolution %s", path, s.Resolution)
	}
	return base{path: path, caption: text, slideFrames: slideFrames, settings: s}, nil
}

func (b *base) Path() string     { return b.path }
func (b *base) Caption() string  { return b.caption }
func (b *base) SlideFrames() int { return b.slideFrames }
func (b *base) NFrames() int     { return 2*b.settings.TransitionFrames + b.slideFrames }

// decode reads the source image and renders the caption layer.
func (b *base) decode() (image.Image, error) {
	if b.state == destroyed {
		return nil, fmt.Errorf("%s: %w", b.path, ErrDestroyed)
	}
	img, err := b.settings.loader().Load(b.path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", b.path, err)
	}
	b.overlay = caption.New(b.caption, b.settings.face(), b.settings.Resolution)
	return img, nil
}

func (b *base) check(n int) error {
	switch b.state {
	case unloaded:
		return fmt.Errorf("%s: %w", b.path, ErrNotLoaded)
	case destroyed:
		return fmt.Errorf("%s: %w", b.path, ErrDestroyed)
	}
	if n < 0 || n >= b.NFrames() {
		return fmt.Errorf("%s: frame %d of %d: %w", b.path, n, b.NFrames(), ErrFrameOutOfRange)
	}
	return nil
}

// CaptionBox is the caption rectangle in frame coordinates, empty without a caption.
func (b *base) CaptionBox() image.Rectangle {
	return b.overlay.Box()
}
