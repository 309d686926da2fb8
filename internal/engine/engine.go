// Package engine sequences slides into the final frame stream: it loads
// each slide in turn, cross-fades it with its predecessor, and pushes every
// frame into the sink in presentation order.
package engine

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/ivlev/slideshow/internal/renderer"
	"github.com/ivlev/slideshow/internal/slide"
	"github.com/ivlev/slideshow/internal/system"
	"github.com/ivlev/slideshow/internal/video"
)

// PlannedFrames is the length of the rendered show: the opening fade plus,
// for every slide, its full-opacity frames and the fade that follows it.
func PlannedFrames(slides []slide.Slide, transitionFrames int) int {
	total := transitionFrames
	for _, s := range slides {
		total += s.SlideFrames() + transitionFrames
	}
	return total
}

// Renderer drives a whole render in one sequential pass. At most two slides
// hold image buffers at any time: the current one and its predecessor.
type Renderer struct {
	settings slide.Settings
	sink     video.Sink
	observer Observer
	logger   *slog.Logger

	blend   *image.RGBA
	emitted int
	total   int
	stage   string
	stats   Stats
}

// NewRenderer writes frames to sink. A nil observer disables progress reports.
func NewRenderer(settings slide.Settings, sink video.Sink, observer Observer, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{
		settings: settings,
		sink:     sink,
		observer: observer,
		logger:   logger,
	}
}

// Render emits the show and finalizes the sink. On any failure the sink is
// aborted: a render either produces every planned frame or nothing.
func (r *Renderer) Render(ctx context.Context, slides []slide.Slide) error {
	start := time.Now()
	r.emitted = 0
	r.total = PlannedFrames(slides, r.settings.TransitionFrames)
	r.stats = Stats{Slides: len(slides), Planned: r.total}
	r.logger.Info("rendering", "slides", len(slides), "frames", r.total,
		"resolution", r.settings.Resolution.String(), "transition_frames", r.settings.TransitionFrames)

	err := r.run(ctx, slides)
	if err == nil {
		r.report("Finishing")
		err = r.sink.Close()
	} else {
		r.sink.Abort()
	}

	r.stats.Frames = r.emitted
	r.stats.Elapsed = time.Since(start)
	r.sampleMemory()
	if err != nil {
		return err
	}
	r.logger.Debug("render complete", "frames", r.emitted, "elapsed", r.stats.Elapsed)
	return nil
}

func (r *Renderer) run(ctx context.Context, slides []slide.Slide) error {
	r.blend = system.GetImage(image.Rect(0, 0, r.settings.Resolution.Width, r.settings.Resolution.Height))
	defer func() {
		system.PutImage(r.blend)
		r.blend = nil
	}()

	var prev slide.Slide = slide.NewBlack(r.settings)
	if err := prev.Load(); err != nil {
		return err
	}
	defer func() {
		if prev != nil {
			prev.Destroy()
		}
	}()

	schedule := make([]slide.Slide, 0, len(slides)+1)
	schedule = append(schedule, slides...)
	schedule = append(schedule, slide.NewBlack(r.settings))

	for i, cur := range schedule {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.play(ctx, i, prev, cur, i == len(schedule)-1); err != nil {
			cur.Destroy()
			return err
		}

		// The previous slide's outgoing fade is fully consumed
		prev.Destroy()
		prev = cur
		r.sampleMemory()
	}

	if r.emitted != r.total {
		return fmt.Errorf("emitted %d frames, planned %d", r.emitted, r.total)
	}
	return nil
}

// play loads cur and emits its incoming cross-fade from prev followed by its
// full-opacity frames.
func (r *Renderer) play(ctx context.Context, i int, prev, cur slide.Slide, sentinel bool) error {
	t := r.settings.TransitionFrames

	if !sentinel {
		r.stage = fmt.Sprintf("Loading slide %d", i+1)
		r.report(r.stage)
	}
	if err := cur.Load(); err != nil {
		return fmt.Errorf("slide %d (%s): %w", i+1, cur.Path(), err)
	}

	for j := 0; j < t; j++ {
		r.stage = fmt.Sprintf("Rendering transition (frame %d of %d)", j+1, t)
		from, err := prev.Frame(j + t + prev.SlideFrames())
		if err != nil {
			return fmt.Errorf("slide %d outgoing fade: %w", i, err)
		}
		to, err := cur.Frame(j)
		if err != nil {
			return fmt.Errorf("slide %d incoming fade: %w", i+1, err)
		}
		if err := renderer.Blend(r.blend, from, to, float64(j)/float64(t)); err != nil {
			return err
		}
		if err := r.emit(ctx, r.blend); err != nil {
			return err
		}
	}

	for j := 0; j < cur.SlideFrames(); j++ {
		r.stage = fmt.Sprintf("Rendering slide %d (frame %d of %d)", i+1, j+1, cur.SlideFrames())
		frame, err := cur.Frame(j + t)
		if err != nil {
			return fmt.Errorf("slide %d: %w", i+1, err)
		}
		if err := r.emit(ctx, frame); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) emit(ctx context.Context, frame *image.RGBA) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := r.sink.WriteFrame(frame); err != nil {
		// A cancelled context kills the encoder mid-write
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		return fmt.Errorf("frame %d: %w", r.emitted, err)
	}
	r.emitted++
	r.report(r.stage)
	return nil
}

func (r *Renderer) report(stage string) {
	if r.observer != nil {
		r.observer.Progress(Progress{Emitted: r.emitted, Total: r.total, Stage: stage})
	}
}

func (r *Renderer) sampleMemory() {
	rss, err := system.ProcessRSS()
	if err != nil {
		return
	}
	r.stats.PeakRSS = max(r.stats.PeakRSS, rss)
}

// Emitted is the number of frames written by the last Render.
func (r *Renderer) Emitted() int { return r.emitted }

// Stats describes the last Render.
func (r *Renderer) Stats() Stats { return r.stats }
