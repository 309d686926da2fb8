package director

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ivlev/slideshow/internal/effects"
)

// ErrParse is wrapped by every malformed slide list or scenario.
var ErrParse = errors.New("slide list parse error")

// Entry is one slide of a show as it is stored on disk.
type Entry struct {
	Path    string          `yaml:"input"`
	Caption string          `yaml:"caption,omitempty"`
	Motion  *effects.Motion `yaml:"motion,omitempty"` // nil for a static slide
	Frames  int             `yaml:"frames,omitempty"` // 0 uses the configured slide length
}

// ParseList reads the tab-separated slide list format:
//
//	path[<TAB>caption[<TAB>ss:sx:sy:es:ex:ey]]
//
// Blank lines and lines starting with '#' are skipped.
func ParseList(r io.Reader) ([]Entry, error) {
	var entries []Entry
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r")
		if trimmed := strings.TrimSpace(line); trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		parts := strings.Split(line, "\t")
		if len(parts) > 3 {
			return nil, fmt.Errorf("%w: line %d: expected at most 3 fields, got %d", ErrParse, lineNo, len(parts))
		}
		e := Entry{Path: strings.TrimSpace(parts[0])}
		if e.Path == "" {
			return nil, fmt.Errorf("%w: line %d: empty path", ErrParse, lineNo)
		}
		if len(parts) > 1 {
			e.Caption = strings.TrimSpace(parts[1])
		}
		if len(parts) > 2 && strings.TrimSpace(parts[2]) != "" {
			m, err := effects.ParseMotion(parts[2])
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %w", ErrParse, lineNo, err)
			}
			e.Motion = &m
		}
		entries = append(entries, e)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read slide list: %w", err)
	}
	return entries, nil
}

// ReadList parses the slide list file at path.
func ReadList(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseList(f)
}

// FormatEntry renders e as one slide list line, without the newline.
func FormatEntry(e Entry) string {
	caption := fieldCleaner.Replace(e.Caption)
	if e.Motion != nil {
		return fmt.Sprintf("%s\t%s\t%s", e.Path, caption, e.Motion.String())
	}
	return fmt.Sprintf("%s\t%s", e.Path, caption)
}

// Tabs and line breaks would split a caption into extra fields or lines.
var fieldCleaner = strings.NewReplacer("\t", " ", "\r", " ", "\n", " ")

// AppendList appends entries to the list file at path, creating it if needed.
func AppendList(path string, entries []Entry) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	for _, e := range entries {
		fmt.Fprintln(w, FormatEntry(e))
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// IsScenario reports whether path names a YAML scenario rather than a slide list.
func IsScenario(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// Load reads either format, chosen by extension.
func Load(path string) ([]Entry, error) {
	if IsScenario(path) {
		sc, err := ReadScenario(path)
		if err != nil {
			return nil, err
		}
		return sc.Entries(), nil
	}
	return ReadList(path)
}

// Save writes entries in the format chosen by extension. Slide lists are
// appended to; scenarios are replaced.
func Save(path string, entries []Entry) error {
	if IsScenario(path) {
		return WriteScenario(NewScenario(entries), path)
	}
	return AppendList(path, entries)
}
