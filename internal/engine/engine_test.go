package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/ivlev/slideshow/internal/config"
	"github.com/ivlev/slideshow/internal/director"
	"github.com/ivlev/slideshow/internal/effects"
	"github.com/ivlev/slideshow/internal/renderer"
	"github.com/ivlev/slideshow/internal/slide"
	"github.com/ivlev/slideshow/internal/video"
)

var res = config.Resolution{Width: 32, Height: 24}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recordSink keeps a copy of every frame it receives.
type recordSink struct {
	frames  []*image.RGBA
	writes  int
	failAt  int // Fail the write with this 0-based index; -1 never fails
	closed  bool
	aborted bool
}

func newRecordSink() *recordSink { return &recordSink{failAt: -1} }

func (s *recordSink) WriteFrame(frame *image.RGBA) error {
	idx := s.writes
	s.writes++
	if s.failAt >= 0 && idx >= s.failAt {
		return fmt.Errorf("%w: broken pipe", video.ErrSink)
	}
	cp := image.NewRGBA(frame.Rect)
	copy(cp.Pix, frame.Pix)
	s.frames = append(s.frames, cp)
	return nil
}

func (s *recordSink) Close() error { s.closed = true; return nil }
func (s *recordSink) Abort() error { s.aborted = true; return nil }

// memLoader serves solid images of the output size by path.
type memLoader map[string]color.RGBA

func (l memLoader) Load(path string) (image.Image, error) {
	c, ok := l[path]
	if !ok {
		return nil, fmt.Errorf("open %s: %w", path, os.ErrNotExist)
	}
	img := image.NewRGBA(image.Rect(0, 0, res.Width, res.Height))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img, nil
}

func settings(t int, loader memLoader) slide.Settings {
	return slide.Settings{Resolution: res, TransitionFrames: t, Loader: loader}
}

func TestPlannedFrames(t *testing.T) {
	s := settings(18, nil)
	var slides []slide.Slide
	for _, frames := range []int{90, 30, 0} {
		sl, err := slide.NewStatic("x.jpg", "", frames, s)
		if err != nil {
			t.Fatal(err)
		}
		slides = append(slides, sl)
	}
	if got := PlannedFrames(slides, 18); got != 18+(90+18)+(30+18)+(0+18) {
		t.Errorf("Unexpected planned frames %d", got)
	}
	if got := PlannedFrames(nil, 18); got != 18 {
		t.Errorf("Empty show is one fade, got %d", got)
	}
}

func TestRenderSingleStaticSlide(t *testing.T) {
	white := color.RGBA{255, 255, 255, 255}
	s := settings(18, memLoader{"a.jpg": white})
	st, err := slide.NewStatic("a.jpg", "", 90, s)
	if err != nil {
		t.Fatal(err)
	}

	sink := newRecordSink()
	var reports []Progress
	r := NewRenderer(s, sink, ObserverFunc(func(p Progress) { reports = append(reports, p) }), quietLogger())
	if err := r.Render(context.Background(), []slide.Slide{st}); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	if len(sink.frames) != 126 {
		t.Fatalf("Expected 126 frames, got %d", len(sink.frames))
	}
	if !sink.closed || sink.aborted {
		t.Errorf("Expected closed sink, closed=%v aborted=%v", sink.closed, sink.aborted)
	}
	for i, f := range sink.frames {
		if f.Bounds() != image.Rect(0, 0, res.Width, res.Height) {
			t.Fatalf("Frame %d has size %v", i, f.Bounds())
		}
	}

	at := func(i int) uint8 { return sink.frames[i].Pix[0] }

	// Fade in from black: the first frame is pure black
	if at(0) != 0 {
		t.Errorf("Frame 0 must be black, got %d", at(0))
	}
	for i := 1; i < 18; i++ {
		if at(i) <= at(i-1) || at(i) == 255 {
			t.Errorf("Fade-in not rising at frame %d: %d after %d", i, at(i), at(i-1))
		}
	}
	// Full-opacity display
	for i := 18; i < 108; i++ {
		if at(i) != 255 {
			t.Fatalf("Frame %d must be the static image, got %d", i, at(i))
		}
	}
	// Fade out to black
	if at(108) != 255 {
		t.Errorf("Fade-out starts from the slide, got %d", at(108))
	}
	for i := 109; i < 126; i++ {
		if at(i) >= at(i-1) || at(i) == 0 {
			t.Errorf("Fade-out not falling at frame %d: %d after %d", i, at(i), at(i-1))
		}
	}

	last := reports[len(reports)-1]
	if last.Emitted != 126 || last.Total != 126 || last.Percent() != 100 {
		t.Errorf("Unexpected final progress %+v", last)
	}
	for i := 1; i < len(reports); i++ {
		if reports[i].Emitted < reports[i-1].Emitted {
			t.Fatalf("Progress went backwards at report %d", i)
		}
	}
	if r.Emitted() != 126 || r.Stats().Frames != 126 {
		t.Errorf("Expected stats for 126 frames, got %+v", r.Stats())
	}
}

// fakeSlide encodes its id and the requested local index in every frame.
type fakeSlide struct {
	id, frames, t int
	live, peak    *int
	calls         []int
	frame         *image.RGBA
	destroyed     bool
}

func (f *fakeSlide) Path() string     { return fmt.Sprintf("fake%d.jpg", f.id) }
func (f *fakeSlide) Caption() string  { return "" }
func (f *fakeSlide) SlideFrames() int { return f.frames }
func (f *fakeSlide) NFrames() int     { return 2*f.t + f.frames }

func (f *fakeSlide) Load() error {
	f.frame = image.NewRGBA(image.Rect(0, 0, res.Width, res.Height))
	*f.live++
	*f.peak = max(*f.peak, *f.live)
	return nil
}

func (f *fakeSlide) Frame(n int) (*image.RGBA, error) {
	if f.frame == nil {
		return nil, slide.ErrNotLoaded
	}
	if n < 0 || n >= f.NFrames() {
		return nil, slide.ErrFrameOutOfRange
	}
	f.calls = append(f.calls, n)
	for i := 0; i < len(f.frame.Pix); i += 4 {
		f.frame.Pix[i], f.frame.Pix[i+1], f.frame.Pix[i+2], f.frame.Pix[i+3] = uint8(f.id*40), uint8(n), 0, 255
	}
	return f.frame, nil
}

func (f *fakeSlide) Destroy() {
	if f.frame != nil {
		*f.live--
	}
	f.frame = nil
	f.destroyed = true
}

func TestRenderSchedule(t *testing.T) {
	const tr = 4
	var live, peak int
	var slides []slide.Slide
	var fakes []*fakeSlide
	for i, frames := range []int{5, 3, 6, 2} {
		f := &fakeSlide{id: i + 1, frames: frames, t: tr, live: &live, peak: &peak}
		fakes = append(fakes, f)
		slides = append(slides, f)
	}

	sink := newRecordSink()
	r := NewRenderer(settings(tr, nil), sink, nil, quietLogger())
	if err := r.Render(context.Background(), slides); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	if want := PlannedFrames(slides, tr); len(sink.frames) != want {
		t.Fatalf("Expected %d frames, got %d", want, len(sink.frames))
	}
	if peak > 2 {
		t.Errorf("At most two slides may be loaded at once, peak was %d", peak)
	}
	if live != 0 {
		t.Errorf("All slides must be destroyed, %d still live", live)
	}

	for _, f := range fakes {
		// Head fade, full display, then the tail fade while "previous"
		var want []int
		for n := 0; n < f.NFrames(); n++ {
			want = append(want, n)
		}
		if fmt.Sprint(f.calls) != fmt.Sprint(want) {
			t.Errorf("Slide %d sampled %v, expected %v", f.id, f.calls, want)
		}
		if !f.destroyed {
			t.Errorf("Slide %d not destroyed", f.id)
		}
	}

	// Full-opacity frames of slide 2 follow slide 1's display and the fade
	start := tr + 5 + tr
	for j := 0; j < 3; j++ {
		px := sink.frames[start+j].Pix
		if px[0] != 80 || px[1] != uint8(tr+j) {
			t.Errorf("Frame %d: expected slide 2 local %d, got R=%d G=%d", start+j, tr+j, px[0], px[1])
		}
	}

	// Cross-fade into slide 2 starts as pure slide 1 (tail of its timeline)
	fade := sink.frames[tr+5].Pix
	if fade[0] != 40 || fade[1] != uint8(tr+5) {
		t.Errorf("First fade frame must equal the previous slide, got R=%d G=%d", fade[0], fade[1])
	}
}

func TestRenderNoTransitions(t *testing.T) {
	var live, peak int
	f := &fakeSlide{id: 1, frames: 3, t: 0, live: &live, peak: &peak}

	sink := newRecordSink()
	r := NewRenderer(settings(0, nil), sink, nil, quietLogger())
	if err := r.Render(context.Background(), []slide.Slide{f}); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if len(sink.frames) != 3 {
		t.Errorf("Expected 3 frames without transitions, got %d", len(sink.frames))
	}
}

func TestRenderMissingImage(t *testing.T) {
	s := settings(4, memLoader{"a.jpg": {R: 200, A: 255}})
	a, _ := slide.NewStatic("a.jpg", "", 5, s)
	missing, _ := slide.NewStatic("missing.jpg", "", 5, s)
	c, _ := slide.NewStatic("a.jpg", "", 5, s)

	sink := newRecordSink()
	r := NewRenderer(s, sink, nil, quietLogger())
	err := r.Render(context.Background(), []slide.Slide{a, missing, c})
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("Expected load error, got %v", err)
	}
	if !strings.Contains(err.Error(), "missing.jpg") {
		t.Errorf("Error should name the image: %v", err)
	}

	// Only the first slide's fade-in and display were emitted
	if len(sink.frames) != 4+5 {
		t.Errorf("Expected %d frames before the failure, got %d", 4+5, len(sink.frames))
	}
	if !sink.aborted || sink.closed {
		t.Errorf("Expected aborted sink, closed=%v aborted=%v", sink.closed, sink.aborted)
	}
	if _, err := a.Frame(0); !errors.Is(err, slide.ErrDestroyed) {
		t.Errorf("Previous slide must be released, got %v", err)
	}
}

func TestRenderSinkFailure(t *testing.T) {
	var live, peak int
	f1 := &fakeSlide{id: 1, frames: 10, t: 3, live: &live, peak: &peak}
	f2 := &fakeSlide{id: 2, frames: 10, t: 3, live: &live, peak: &peak}

	sink := newRecordSink()
	sink.failAt = 7
	r := NewRenderer(settings(3, nil), sink, nil, quietLogger())
	err := r.Render(context.Background(), []slide.Slide{f1, f2})
	if !errors.Is(err, video.ErrSink) {
		t.Fatalf("Expected ErrSink, got %v", err)
	}
	if sink.writes != 8 {
		t.Errorf("No writes may follow a sink failure, got %d", sink.writes)
	}
	if !sink.aborted {
		t.Error("Expected sink abort")
	}
	if f2.frame != nil || f2.calls != nil {
		t.Error("Slide 2 must never be rendered")
	}
	if live != 0 {
		t.Errorf("Buffers leaked: %d slides live", live)
	}
}

func TestRenderCancelled(t *testing.T) {
	s := settings(2, memLoader{"a.jpg": {G: 200, A: 255}})
	a, _ := slide.NewStatic("a.jpg", "", 50, s)

	ctx, cancel := context.WithCancel(context.Background())
	sink := newRecordSink()
	obs := ObserverFunc(func(p Progress) {
		if p.Emitted == 10 {
			cancel()
		}
	})
	err := NewRenderer(s, sink, obs, quietLogger()).Render(ctx, []slide.Slide{a})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if len(sink.frames) != 10 || !sink.aborted {
		t.Errorf("Expected abort after 10 frames, got %d frames aborted=%v", len(sink.frames), sink.aborted)
	}
}

// killedSink fails like an encoder killed by a cancelled context.
type killedSink struct {
	recordSink
	cancel context.CancelFunc
	after  int
}

func (s *killedSink) WriteFrame(frame *image.RGBA) error {
	if s.writes == s.after {
		s.writes++
		s.cancel()
		return fmt.Errorf("%w: write frame %d: broken pipe", video.ErrSink, s.after)
	}
	return s.recordSink.WriteFrame(frame)
}

func TestRenderCancelledDuringWrite(t *testing.T) {
	s := settings(2, memLoader{"a.jpg": {G: 200, A: 255}})
	a, _ := slide.NewStatic("a.jpg", "", 20, s)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sink := &killedSink{recordSink: recordSink{failAt: -1}, cancel: cancel, after: 5}

	err := NewRenderer(s, sink, nil, quietLogger()).Render(ctx, []slide.Slide{a})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if len(sink.frames) != 5 || !sink.aborted {
		t.Errorf("Expected abort after 5 frames, got %d frames aborted=%v", len(sink.frames), sink.aborted)
	}
}

func TestKenBurnsContinuesThroughFade(t *testing.T) {
	s := settings(6, memLoader{"a.jpg": {B: 255, A: 255}})
	m := effects.Motion{StartScale: 1, StartPos: renderer.Point{X: 0.5, Y: 0.5}, EndScale: 0.5, EndPos: renderer.Point{X: 0.25, Y: 0.75}}
	kb, err := slide.NewKenBurns("a.jpg", "", 12, m, s)
	if err != nil {
		t.Fatal(err)
	}

	sink := newRecordSink()
	if err := NewRenderer(s, sink, nil, quietLogger()).Render(context.Background(), []slide.Slide{kb}); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if len(sink.frames) != 6+12+6 {
		t.Errorf("Expected %d frames, got %d", 24, len(sink.frames))
	}

	// The camera keeps moving over the full 2t+s timeline
	prev := kb.Camera(0).Scale
	for n := 1; n < kb.NFrames(); n++ {
		cur := kb.Camera(n).Scale
		if cur >= prev {
			t.Fatalf("Zoom stalled at local frame %d", n)
		}
		prev = cur
	}
}

func TestBuildSlides(t *testing.T) {
	s := settings(18, nil)
	m := effects.Motion{StartScale: 1, StartPos: renderer.Point{X: 0.5, Y: 0.5}, EndScale: 0.8, EndPos: renderer.Point{X: 0.5, Y: 0.5}}

	slides, err := BuildSlides([]director.Entry{
		{Path: "a.jpg", Caption: "March 2009"},
		{Path: "b.jpg", Motion: &m, Frames: 45},
	}, 90, s)
	if err != nil {
		t.Fatalf("BuildSlides failed: %v", err)
	}
	if _, ok := slides[0].(*slide.Static); !ok {
		t.Errorf("Expected static slide, got %T", slides[0])
	}
	if _, ok := slides[1].(*slide.KenBurns); !ok {
		t.Errorf("Expected Ken Burns slide, got %T", slides[1])
	}
	if slides[0].SlideFrames() != 90 || slides[1].SlideFrames() != 45 {
		t.Errorf("Unexpected frame counts %d, %d", slides[0].SlideFrames(), slides[1].SlideFrames())
	}
	if slides[1].NFrames() != 2*18+45 {
		t.Errorf("Expected timeline %d, got %d", 2*18+45, slides[1].NFrames())
	}

	bad := effects.Motion{StartScale: 0, EndScale: 1}
	if _, err := BuildSlides([]director.Entry{{Path: "a.jpg", Motion: &bad}}, 90, s); !errors.Is(err, slide.ErrInvalidMotion) {
		t.Errorf("Expected ErrInvalidMotion, got %v", err)
	}
}

func TestConsoleProgress(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleProgress(&buf)
	c.Progress(Progress{Emitted: 63, Total: 126, Stage: "Rendering slide 1 (frame 45 of 90)"})
	c.Progress(Progress{Emitted: 63, Total: 126, Stage: "Rendering slide 1 (frame 45 of 90)"})
	c.Done()

	out := buf.String()
	if !strings.HasPrefix(out, "\r[ 50%] Rendering slide 1") {
		t.Errorf("Unexpected status line %q", out)
	}
	if strings.Count(out, "\r") != 1 {
		t.Errorf("Identical lines must not be redrawn: %q", out)
	}
	if !strings.HasSuffix(out, "\n") {
		t.Error("Done must end the line")
	}
	if (Progress{}).Percent() != 100 {
		t.Error("Empty plan is complete")
	}
}
