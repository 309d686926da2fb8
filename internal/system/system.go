package system

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp", ".tif", ".tiff", ".pdf"}

// IsSlideSource reports whether path has an extension the source package can decode.
func IsSlideSource(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range imageExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// ExpandImages разворачивает пути: файлы остаются как есть, папки заменяются
// отсортированным списком изображений внутри них.
func ExpandImages(paths []string) ([]string, error) {
	var out []string
	for _, p := range paths {
		fi, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !fi.IsDir() {
			out = append(out, p)
			continue
		}

		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, err
		}
		var found []string
		for _, entry := range entries {
			if !entry.IsDir() && IsSlideSource(entry.Name()) {
				found = append(found, filepath.Join(p, entry.Name()))
			}
		}
		if len(found) == 0 {
			return nil, fmt.Errorf("в папке %s не найдено изображений", p)
		}
		sort.Strings(found)
		out = append(out, found...)
	}
	return out, nil
}

// FFmpegPath ищет ffmpeg в PATH, если путь не задан явно.
func FFmpegPath(configured string) (string, error) {
	name := configured
	if name == "" {
		name = "ffmpeg"
	}
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("ffmpeg не найден в PATH: %w", err)
	}
	return path, nil
}

// GetBestH264Encoder picks the fastest H.264 encoder the given ffmpeg offers.
func GetBestH264Encoder(ffmpeg string) string {
	// Приоритеты:
	// 1. MacOS (VideoToolbox)
	// 2. NVIDIA (NVENC)
	// 3. Software (libx264)
	out, err := exec.Command(ffmpeg, "-hide_banner", "-encoders").CombinedOutput()
	if err != nil {
		return "libx264"
	}
	for _, name := range []string{"h264_videotoolbox", "h264_nvenc"} {
		if strings.Contains(string(out), name) {
			return name
		}
	}
	return "libx264"
}

// QualityArgs возвращает аргументы битрейта для выбранного кодека.
func QualityArgs(encoderName, bitrate string) []string {
	switch encoderName {
	case "h264_videotoolbox":
		// VideoToolbox не поддерживает CRF, только битрейт
		return []string{"-b:v", bitrate}
	case "h264_nvenc":
		return []string{"-rc", "vbr", "-b:v", bitrate}
	default: // libx264
		return []string{"-b:v", bitrate, "-preset", "medium"}
	}
}

// ProcessRSS returns the resident set size of the current process in bytes.
func ProcessRSS() (uint64, error) {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return 0, err
	}
	info, err := p.MemoryInfo()
	if err != nil {
		return 0, err
	}
	return info.RSS, nil
}

// AppendBenchmark дописывает строку отчета в лог производительности.
func AppendBenchmark(path, entry string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = fmt.Fprintf(f, "[%s] %s\n", time.Now().Format("2006-01-02 15:04:05"), entry)
	return err
}
