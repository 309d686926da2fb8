// Package video streams rendered frames into an external encoder process.
package video

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ivlev/slideshow/internal/config"
	"github.com/ivlev/slideshow/internal/system"
)

// ErrSink is wrapped by every encoder failure. A failed sink never accepts
// another frame.
var ErrSink = errors.New("frame sink failed")

// Sink consumes frames in presentation order.
type Sink interface {
	// WriteFrame blocks until the frame has been handed to the encoder.
	WriteFrame(frame *image.RGBA) error
	// Close finishes the stream and waits for the encoder to exit.
	Close() error
	// Abort stops the encoder and discards its output.
	Abort() error
}

// Options configures an ffmpeg sink.
type Options struct {
	FFmpegPath string // Empty means "ffmpeg" from PATH
	Output     string
	Partial    string // Written while encoding, renamed to Output on success
	Resolution config.Resolution
	FPS        int
	Format     string // rgba or ppm
	Encoder    string // libx264, h264_nvenc, h264_videotoolbox
	Bitrate    string
	Logger     *slog.Logger
}

// PartialPath is a unique sibling of output that keeps its extension, so
// ffmpeg still picks the container from it.
func PartialPath(output string) string {
	ext := filepath.Ext(output)
	base := strings.TrimSuffix(filepath.Base(output), ext)
	return filepath.Join(filepath.Dir(output), fmt.Sprintf(".%s.%s.partial%s", base, uuid.New().String()[:8], ext))
}

// Args builds the ffmpeg command line for streaming frames to stdin.
func (o Options) Args() []string {
	args := []string{"-hide_banner", "-loglevel", "error", "-y"}

	fps := fmt.Sprintf("%d", o.FPS)
	switch o.Format {
	case "ppm":
		args = append(args, "-f", "image2pipe", "-vcodec", "ppm", "-framerate", fps)
	default:
		args = append(args,
			"-f", "rawvideo",
			"-pixel_format", "rgba",
			"-video_size", o.Resolution.String(),
			"-framerate", fps,
		)
	}
	args = append(args, "-i", "-")

	encoder := o.Encoder
	if encoder == "" || encoder == "auto" {
		encoder = "libx264"
	}
	args = append(args, "-c:v", encoder)
	args = append(args, system.QualityArgs(encoder, o.Bitrate)...)
	args = append(args, "-pix_fmt", "yuv420p", "-r", fps, o.Partial)
	return args
}

// NewFFmpegSink starts ffmpeg writing opts.Output.
func NewFFmpegSink(ctx context.Context, opts Options) (*PipeSink, error) {
	if opts.Partial == "" {
		opts.Partial = PartialPath(opts.Output)
	}
	name := opts.FFmpegPath
	if name == "" {
		name = "ffmpeg"
	}
	return Start(ctx, opts, name, opts.Args()...)
}

// PipeSink writes frames to the stdin of a subprocess. Writes block while
// the process is busy, which throttles the renderer to the encoder's pace.
type PipeSink struct {
	opts   Options
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	enc    frameEncoder
	group  *errgroup.Group
	stderr *tailBuffer
	logger *slog.Logger

	frames int
	err    error
	done   bool
}

// Start launches name with args and returns a sink feeding its stdin. The
// process must write opts.Partial; it is moved to opts.Output by Close.
func Start(ctx context.Context, opts Options, name string, args ...string) (*PipeSink, error) {
	enc, err := newFrameEncoder(opts.Format)
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.WaitDelay = 5 * time.Second

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: stdin pipe: %v", ErrSink, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: stderr pipe: %v", ErrSink, err)
	}

	logger.Debug("starting encoder", "cmd", name, "args", strings.Join(args, " "))
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: start %s: %v", ErrSink, name, err)
	}

	s := &PipeSink{
		opts:   opts,
		cmd:    cmd,
		stdin:  stdin,
		enc:    enc,
		group:  new(errgroup.Group),
		stderr: &tailBuffer{max: 4096},
		logger: logger,
	}
	s.group.Go(func() error {
		return readLines(stderr, maxLineLen, func(line string) {
			s.stderr.WriteLine(line)
			logger.Debug("encoder", "line", line)
		})
	})
	return s, nil
}

// maxLineLen caps a single line of encoder output kept for diagnostics.
const maxLineLen = 1024

// readLines calls fn for every line of r until EOF. Lines longer than limit
// are cut; the rest of such a line is still consumed so the writer never
// blocks on a full pipe.
func readLines(r io.Reader, limit int, fn func(line string)) error {
	br := bufio.NewReader(r)
	var line []byte
	for {
		chunk, more, err := br.ReadLine()
		if room := limit - len(line); room > 0 {
			line = append(line, chunk[:min(len(chunk), room)]...)
		}
		if err != nil {
			if len(line) > 0 {
				fn(string(line))
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if !more {
			fn(string(line))
			line = line[:0]
		}
	}
}

// Frames is the number of frames written so far.
func (s *PipeSink) Frames() int { return s.frames }

func (s *PipeSink) WriteFrame(frame *image.RGBA) error {
	if s.err != nil {
		return s.err
	}
	if s.done {
		return fmt.Errorf("%w: write after close", ErrSink)
	}
	if b := frame.Bounds(); b.Dx() != s.opts.Resolution.Width || b.Dy() != s.opts.Resolution.Height {
		s.err = fmt.Errorf("%w: frame %d is %dx%d, stream is %s", ErrSink, s.frames, b.Dx(), b.Dy(), s.opts.Resolution)
		return s.err
	}
	if err := s.enc.Encode(s.stdin, frame); err != nil {
		s.err = fmt.Errorf("%w: write frame %d: %v%s", ErrSink, s.frames, err, s.stderr.Suffix())
		return s.err
	}
	s.frames++
	return nil
}

// Close ends the input stream, waits for the encoder, and publishes the
// output file. A non-zero exit status fails the render.
func (s *PipeSink) Close() error {
	if s.done {
		return s.err
	}
	s.done = true

	if err := s.stdin.Close(); err != nil {
		s.logger.Warn("cannot close encoder input", "error", err)
	}
	derr := s.group.Wait()
	werr := s.cmd.Wait()

	if s.err != nil {
		s.removePartial()
		return s.err
	}
	if werr != nil {
		s.err = fmt.Errorf("%w: encoder exited: %v%s", ErrSink, werr, s.stderr.Suffix())
		s.removePartial()
		return s.err
	}
	if derr != nil {
		s.err = fmt.Errorf("%w: read encoder output: %v", ErrSink, derr)
		s.removePartial()
		return s.err
	}

	if s.opts.Output != "" && s.opts.Partial != "" {
		if err := os.Rename(s.opts.Partial, s.opts.Output); err != nil {
			s.err = fmt.Errorf("%w: publish %s: %v", ErrSink, s.opts.Output, err)
			return s.err
		}
	}
	s.logger.Debug("encoder finished", "frames", s.frames, "output", s.opts.Output)
	return nil
}

// Abort kills the encoder and removes the partial file.
func (s *PipeSink) Abort() error {
	if s.done {
		return nil
	}
	s.done = true
	if s.err == nil {
		s.err = fmt.Errorf("%w: aborted", ErrSink)
	}

	s.stdin.Close()
	if s.cmd.Process != nil {
		s.cmd.Process.Kill()
	}
	s.group.Wait()
	s.cmd.Wait()
	s.removePartial()
	return nil
}

func (s *PipeSink) removePartial() {
	if s.opts.Partial == "" || s.opts.Output == "" {
		return
	}
	if err := os.Remove(s.opts.Partial); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Warn("cannot remove partial output", "path", s.opts.Partial, "error", err)
	}
}

// tailBuffer keeps the last lines of encoder output for error messages.
type tailBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
	max int
}

func (t *tailBuffer) WriteLine(line string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf.WriteString(line)
	t.buf.WriteByte('\n')
	if over := t.buf.Len() - t.max; over > 0 {
		t.buf.Next(over)
	}
}

func (t *tailBuffer) Suffix() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.buf.Len() == 0 {
		return ""
	}
	return ", output: " + strings.TrimSpace(t.buf.String())
}
