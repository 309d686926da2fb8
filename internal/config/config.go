package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Resolution is the fixed output frame size of a render.
type Resolution struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

func (r Resolution) String() string {
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}

type Config struct {
	Resolution       Resolution `yaml:"resolution"`
	FPS              int        `yaml:"fps"`
	TransitionFrames int        `yaml:"transition_frames"`
	SlideFrames      int        `yaml:"slide_frames"`
	FontPath         string     `yaml:"font_path"`
	FontSize         float64    `yaml:"font_size"`
	VideoEncoder     string     `yaml:"video_encoder"` // auto, libx264, h264_nvenc, h264_videotoolbox
	Bitrate          string     `yaml:"bitrate"`
	FFmpegPath       string     `yaml:"ffmpeg"`       // Empty looks ffmpeg up in PATH
	DPI              int        `yaml:"dpi"`          // Rasterization density of PDF pages
	PixelFormat      string     `yaml:"pixel_format"` // rgba, ppm
	Workers          int        `yaml:"workers"`
	ShowStats        bool       `yaml:"show_stats"`
	BenchmarkLog     string     `yaml:"benchmark_log"`
	Debug            bool       `yaml:"debug"`
	BuildVersion     string     `yaml:"-"`
}

// Default returns the settings of the classic 1024x768 slideshow:
// 3 seconds per slide and 18-frame cross-fades at 30 fps.
func Default() *Config {
	return &Config{
		Resolution:       Resolution{Width: 1024, Height: 768},
		FPS:              30,
		TransitionFrames: 18,
		SlideFrames:      3 * 30,
		FontSize:         15,
		VideoEncoder:     "auto",
		Bitrate:          "5000k",
		DPI:              150,
		PixelFormat:      "rgba",
		Workers:          4,
		BenchmarkLog:     "benchmark.log",
	}
}

// Load reads a YAML configuration file on top of Default.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// NFrames is the full local timeline of a slide showing slideFrames at full opacity.
func (c *Config) NFrames(slideFrames int) int {
	return 2*c.TransitionFrames + slideFrames
}

// Validate checks the configuration and fills in defaults for optional fields.
func Validate(cfg *Config) error {
	if cfg.Resolution.Width <= 0 || cfg.Resolution.Height <= 0 {
		return fmt.Errorf("%w: resolution must be positive, got %s", ErrInvalid, cfg.Resolution)
	}
	if cfg.FPS <= 0 {
		return fmt.Errorf("%w: fps must be > 0", ErrInvalid)
	}
	if cfg.TransitionFrames < 0 {
		return fmt.Errorf("%w: transition_frames must be >= 0", ErrInvalid)
	}
	if cfg.SlideFrames < 0 {
		return fmt.Errorf("%w: slide_frames must be >= 0", ErrInvalid)
	}
	if cfg.FontSize <= 0 {
		cfg.FontSize = 15
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 150
	}
	if cfg.VideoEncoder == "" {
		cfg.VideoEncoder = "auto"
	}

	switch cfg.PixelFormat {
	case "":
		cfg.PixelFormat = "rgba"
	case "rgba", "ppm":
	default:
		return fmt.Errorf("%w: pixel_format must be rgba or ppm, got %q", ErrInvalid, cfg.PixelFormat)
	}

	return nil
}

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SLIDESHOW_"

// LoadDotEnv exports the variables of a .env file that are not already set.
// A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides cfg with SLIDESHOW_* environment variables.
func ApplyEnv(cfg *Config) error {
	strs := map[string]*string{
		"FONT":     &cfg.FontPath,
		"ENCODER":  &cfg.VideoEncoder,
		"BITRATE":  &cfg.Bitrate,
		"FORMAT":   &cfg.PixelFormat,
		"FFMPEG":   &cfg.FFmpegPath,
		"BENCHLOG": &cfg.BenchmarkLog,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"WIDTH":             &cfg.Resolution.Width,
		"HEIGHT":            &cfg.Resolution.Height,
		"FPS":               &cfg.FPS,
		"TRANSITION_FRAMES": &cfg.TransitionFrames,
		"SLIDE_FRAMES":      &cfg.SlideFrames,
		"WORKERS":           &cfg.Workers,
		"DPI":               &cfg.DPI,
	}
	for key, dst := range ints {
		v, ok := os.LookupEnv(EnvPrefix + key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %s%s=%q is not an integer", ErrInvalid, EnvPrefix, key, v)
		}
		*dst = n
	}

	floats := map[string]*float64{
		"FONT_SIZE": &cfg.FontSize,
	}
	for key, dst := range floats {
		v, ok := os.LookupEnv(EnvPrefix + key)
		if !ok {
			continue
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("%w: %s%s=%q is not a number", ErrInvalid, EnvPrefix, key, v)
		}
		*dst = f
	}

	if v, ok := os.LookupEnv(EnvPrefix + "DEBUG"); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %sDEBUG=%q is not a boolean", ErrInvalid, EnvPrefix, v)
		}
		cfg.Debug = b
	}
	return nil
}
