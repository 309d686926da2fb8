package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/ivlev/slideshow/internal/analyzer"
	"github.com/ivlev/slideshow/internal/caption"
	"github.com/ivlev/slideshow/internal/config"
	"github.com/ivlev/slideshow/internal/director"
	"github.com/ivlev/slideshow/internal/effects"
	"github.com/ivlev/slideshow/internal/engine"
	"github.com/ivlev/slideshow/internal/slide"
	"github.com/ivlev/slideshow/internal/source"
	"github.com/ivlev/slideshow/internal/system"
	"github.com/ivlev/slideshow/internal/video"
)

// Set with -ldflags "-X main.version=..."
var version = "dev"

// options are the flags that are not part of config.Config.
type options struct {
	generate  string
	render    string
	zoomMode  string
	zoom      float64
	maxZoom   float64
	seed      int64
	alternate bool
}

func main() {
	def := config.Default()

	generatePtr := flag.String("generate", "", "Append slides for the given images to FILE (.txt list or .yaml scenario)")
	renderPtr := flag.String("render", "", "Render the slides of FILE into the OUTPUT video")
	configPtr := flag.String("config", "", "YAML configuration file")
	envPtr := flag.String("env", ".env", "File with SLIDESHOW_* environment overrides")
	widthPtr := flag.Int("width", def.Resolution.Width, "Frame width")
	heightPtr := flag.Int("height", def.Resolution.Height, "Frame height")
	fpsPtr := flag.Int("fps", def.FPS, "FPS")
	transitionPtr := flag.Int("transition-frames", def.TransitionFrames, "Cross-fade length in frames (0 disables fades)")
	slideFramesPtr := flag.Int("slide-frames", def.SlideFrames, "Full-opacity frames per slide")
	fontPtr := flag.String("font", def.FontPath, "TrueType/OpenType caption font (default: embedded Go Regular)")
	fontSizePtr := flag.Float64("font-size", def.FontSize, "Caption font size")
	encoderPtr := flag.String("encoder", def.VideoEncoder, "H.264 encoder: auto, libx264, h264_nvenc, h264_videotoolbox")
	bitratePtr := flag.String("bitrate", def.Bitrate, "Video bitrate")
	formatPtr := flag.String("format", def.PixelFormat, "Frame format on the encoder pipe: rgba, ppm")
	ffmpegPtr := flag.String("ffmpeg", def.FFmpegPath, "Path to ffmpeg (default: from PATH)")
	dpiPtr := flag.Int("dpi", def.DPI, "DPI for PDF pages")
	workersPtr := flag.Int("workers", def.Workers, "Parallel workers in generate mode")
	statsPtr := flag.Bool("stats", def.ShowStats, "Print a performance report and append it to the benchmark log")
	debugPtr := flag.Bool("debug", def.Debug, "Enable debug logging")
	zoomModePtr := flag.String("zoom-mode", "none", "Generate mode zoom: none, smart, center, top-left, top-right, bottom-left, bottom-right, random, out-<mode>")
	zoomPtr := flag.Float64("zoom", 1.25, "Peak magnification of preset zoom modes")
	maxZoomPtr := flag.Float64("max-zoom", 3, "Upper bound of the smart zoom magnification")
	seedPtr := flag.Int64("seed", 1, "Seed of the random zoom mode")
	alternatePtr := flag.Bool("alternate", false, "Smart zoom: zoom out on every other slide")
	versionPtr := flag.Bool("version", false, "Show version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage:\n")
		fmt.Fprintf(os.Stderr, "  slideshow -generate FILE [flags] [IMAGE|DIR ...]   (paths from stdin when none given)\n")
		fmt.Fprintf(os.Stderr, "  slideshow -render FILE [flags] OUTPUT\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *versionPtr {
		fmt.Printf("slideshow %s\n", version)
		os.Exit(0)
	}

	opts := options{
		generate:  *generatePtr,
		render:    *renderPtr,
		zoomMode:  *zoomModePtr,
		zoom:      *zoomPtr,
		maxZoom:   *maxZoomPtr,
		seed:      *seedPtr,
		alternate: *alternatePtr,
	}
	if (opts.generate == "") == (opts.render == "") {
		fmt.Fprintf(os.Stderr, "[-] Exactly one of -generate and -render is required\n\n")
		flag.Usage()
		os.Exit(2)
	}
	if opts.render != "" && flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "[-] -render needs exactly one OUTPUT argument\n\n")
		flag.Usage()
		os.Exit(2)
	}

	if err := config.LoadDotEnv(*envPtr); err != nil {
		fmt.Fprintf(os.Stderr, "[-] %v\n", err)
		os.Exit(1)
	}
	cfg := def
	if *configPtr != "" {
		var err error
		if cfg, err = config.Load(*configPtr); err != nil {
			fmt.Fprintf(os.Stderr, "[-] %v\n", err)
			os.Exit(1)
		}
	}
	if err := config.ApplyEnv(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "[-] %v\n", err)
		os.Exit(1)
	}

	// Flags win only when given explicitly
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "width":
			cfg.Resolution.Width = *widthPtr
		case "height":
			cfg.Resolution.Height = *heightPtr
		case "fps":
			cfg.FPS = *fpsPtr
		case "transition-frames":
			cfg.TransitionFrames = *transitionPtr
		case "slide-frames":
			cfg.SlideFrames = *slideFramesPtr
		case "font":
			cfg.FontPath = *fontPtr
		case "font-size":
			cfg.FontSize = *fontSizePtr
		case "encoder":
			cfg.VideoEncoder = *encoderPtr
		case "bitrate":
			cfg.Bitrate = *bitratePtr
		case "format":
			cfg.PixelFormat = *formatPtr
		case "ffmpeg":
			cfg.FFmpegPath = *ffmpegPtr
		case "dpi":
			cfg.DPI = *dpiPtr
		case "workers":
			cfg.Workers = *workersPtr
		case "stats":
			cfg.ShowStats = *statsPtr
		case "debug":
			cfg.Debug = *debugPtr
		}
	})
	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "[-] %v\n", err)
		os.Exit(1)
	}
	cfg.BuildVersion = version

	logLevel := slog.LevelInfo
	if cfg.Debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	if opts.generate != "" {
		err = runGenerate(ctx, cfg, opts, logger, flag.Args())
	} else {
		err = runRender(ctx, cfg, opts.render, flag.Arg(0), logger)
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintf(os.Stderr, "[-] Interrupted\n")
			os.Exit(130)
		}
		fmt.Fprintf(os.Stderr, "[-] Error: %v\n", err)
		os.Exit(1)
	}
}

func runGenerate(ctx context.Context, cfg *config.Config, opts options, logger *slog.Logger, args []string) error {
	var (
		paths []string
		err   error
	)
	if len(args) > 0 {
		paths, err = system.ExpandImages(args)
	} else {
		fmt.Fprintf(os.Stderr, "[*] Reading image paths from stdin\n")
		paths, err = director.ReadQuoted(os.Stdin)
	}
	if err != nil {
		return err
	}
	if paths, err = source.ExpandPages(paths); err != nil {
		return err
	}
	if len(paths) == 0 {
		return errors.New("no images given")
	}

	planner, err := newPlanner(cfg, opts)
	if err != nil {
		return err
	}

	gen := &director.Generator{
		Captioner: func(path string) string {
			if source.IsPDF(path) {
				return ""
			}
			return caption.DateCaption(path, logger)
		},
		Planner: planner,
		Workers: cfg.Workers,
		Logger:  logger,
	}
	entries, err := gen.Generate(ctx, paths)
	if err != nil {
		return err
	}
	if err := director.Save(opts.generate, entries); err != nil {
		return err
	}

	fmt.Printf("[+++] Added %d slides to %s\n", len(entries), opts.generate)
	return nil
}

// newPlanner maps -zoom-mode to a motion planner. "none" keeps slides static.
func newPlanner(cfg *config.Config, opts options) (director.Planner, error) {
	switch strings.ToLower(opts.zoomMode) {
	case "", "none":
		return nil, nil
	case "smart":
		det, err := analyzer.NewDetector("contrast")
		if err != nil {
			return nil, err
		}
		d := director.NewDirector(cfg.Resolution, det, source.FileLoader{DPI: cfg.DPI})
		d.MaxZoom = opts.maxZoom
		d.Alternate = opts.alternate
		return d, nil
	default:
		eff, err := effects.NewPresetEffect(opts.zoomMode, opts.zoom, opts.seed)
		if err != nil {
			return nil, err
		}
		return director.EffectPlanner{Effect: eff}, nil
	}
}

func runRender(ctx context.Context, cfg *config.Config, listPath, output string, logger *slog.Logger) error {
	entries, err := director.Load(listPath)
	if err != nil {
		return err
	}
	fmt.Printf("[*] Loaded %d slides.\n", len(entries))

	face, err := caption.LoadFace(cfg.FontPath, cfg.FontSize)
	if err != nil {
		return err
	}
	settings := slide.NewSettings(cfg, face, source.FileLoader{DPI: cfg.DPI})
	slides, err := engine.BuildSlides(entries, cfg.SlideFrames, settings)
	if err != nil {
		return err
	}

	ffmpeg, err := system.FFmpegPath(cfg.FFmpegPath)
	if err != nil {
		return err
	}
	encoder := cfg.VideoEncoder
	if encoder == "auto" {
		encoder = system.GetBestH264Encoder(ffmpeg)
		if encoder != "libx264" {
			fmt.Printf("[*] Hardware acceleration detected: %s\n", encoder)
		}
	}

	if dir := filepath.Dir(output); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	sink, err := video.NewFFmpegSink(ctx, video.Options{
		FFmpegPath: ffmpeg,
		Output:     output,
		Resolution: cfg.Resolution,
		FPS:        cfg.FPS,
		Format:     cfg.PixelFormat,
		Encoder:    encoder,
		Bitrate:    cfg.Bitrate,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	progress := engine.NewConsoleProgress(os.Stderr)
	r := engine.NewRenderer(settings, sink, progress, logger)
	err = r.Render(ctx, slides)
	progress.Done()

	if cfg.ShowStats {
		stats := r.Stats()
		fmt.Print(stats.Report(cfg.BuildVersion))
		if logErr := system.AppendBenchmark(cfg.BenchmarkLog, stats.LogEntry(cfg.BuildVersion, listPath)); logErr != nil {
			logger.Warn("benchmark log not written", "path", cfg.BenchmarkLog, "error", logErr)
		}
	}
	if err != nil {
		return err
	}

	fmt.Printf("[+++] Done! Output: %s\n", output)
	return nil
}
