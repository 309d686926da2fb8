package slide

import (
	"fmt"
	"image"

	"github.com/ivlev/slideshow/internal/canvas"
	"github.com/ivlev/slideshow/internal/effects"
	"github.com/ivlev/slideshow/internal/renderer"
	"github.com/ivlev/slideshow/internal/system"
)

// KenBurns pans and zooms across the image. The motion spans the whole
// local timeline, transitions included, so it never restarts at a fade.
type KenBurns struct {
	base
	motion effects.Motion
	canvas *image.RGBA // Source padded to the output aspect ratio
	out    *image.RGBA
}

func NewKenBurns(path, text string, slideFrames int, motion effects.Motion, s Settings) (*KenBurns, error) {
	if err := motion.Validate(); err != nil {
		return nil, fmt.Errorf("slide %s: %w", path, err)
	}
	b, err := newBase(path, text, slideFrames, s)
	if err != nil {
		return nil, err
	}
	return &KenBurns{base: b, motion: motion}, nil
}

func (k *KenBurns) Motion() effects.Motion { return k.motion }

func (k *KenBurns) Load() error {
	if k.state == loaded {
		return nil
	}
	img, err := k.decode()
	if err != nil {
		return err
	}
	k.canvas = canvas.CoverToAspect(img, k.settings.Resolution)
	k.out = system.GetImage(k.settings.frameRect())
	k.state = loaded
	return nil
}

// Camera is the camera state at local frame n.
func (k *KenBurns) Camera(n int) renderer.CameraState {
	return k.motion.At(renderer.Progress(n, k.NFrames()))
}

func (k *KenBurns) Frame(n int) (*image.RGBA, error) {
	if err := k.check(n); err != nil {
		return nil, err
	}
	b := k.canvas.Bounds()
	win := renderer.SampleWindow(k.Camera(n), b.Dx(), b.Dy())

	canvas.Fill(k.out, canvas.Background)
	renderer.Extent(k.out, k.canvas, win)
	k.overlay.Apply(k.out)
	return k.out, nil
}

func (k *KenBurns) Destroy() {
	system.PutImage(k.out)
	k.out = nil
	k.canvas = nil
	k.overlay = nil
	k.state = destroyed
}
