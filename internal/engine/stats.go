package engine

import (
	"fmt"
	"path/filepath"
	"time"
)

// Stats summarizes a render.
type Stats struct {
	Slides  int
	Planned int
	Frames  int
	Elapsed time.Duration
	PeakRSS uint64 // bytes
}

// FPS is the effective rendering speed.
func (s Stats) FPS() float64 {
	if s.Elapsed <= 0 {
		return 0
	}
	return float64(s.Frames) / s.Elapsed.Seconds()
}

// Report formats the stats for the console.
func (s Stats) Report(build string) string {
	return fmt.Sprintf(
		"--- [PERFORMANCE REPORT] ---\n"+
			"Build: %s\n"+
			"Slides: %d\n"+
			"Frames: %d/%d\n"+
			"Total Time: %.2fs\n"+
			"Effective FPS: %.2f\n"+
			"Peak RSS: %.1f MiB\n"+
			"----------------------------\n",
		build, s.Slides, s.Frames, s.Planned, s.Elapsed.Seconds(), s.FPS(), float64(s.PeakRSS)/(1<<20),
	)
}

// LogEntry is the one-line form appended to the benchmark log.
func (s Stats) LogEntry(build, input string) string {
	return fmt.Sprintf("Build: %s | Input: %s | Slides: %d | Frames: %d | Total: %.2fs | FPS: %.2f | RSS: %.1fMiB",
		build, filepath.Base(input), s.Slides, s.Frames, s.Elapsed.Seconds(), s.FPS(), float64(s.PeakRSS)/(1<<20))
}
