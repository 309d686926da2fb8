package director

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"
)

// SplitQuoted splits a line of shell-quoted paths such as
// 'IMG 01.jpg' 'IMG 02.jpg' into words. Single and double quotes group
// characters; a backslash outside single quotes escapes the next one.
func SplitQuoted(line string) ([]string, error) {
	var (
		words   []string
		cur     strings.Builder
		inWord  bool
		quote   rune
		escaped bool
	)
	for _, r := range line {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case quote == '\'':
			if r == '\'' {
				quote = 0
			} else {
				cur.WriteRune(r)
			}
		case r == '\\':
			escaped, inWord = true, true
		case quote == '"':
			if r == '"' {
				quote = 0
			} else {
				cur.WriteRune(r)
			}
		case r == '\'' || r == '"':
			quote, inWord = r, true
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			if inWord {
				words = append(words, cur.String())
				cur.Reset()
				inWord = false
			}
		default:
			cur.WriteRune(r)
			inWord = true
		}
	}
	if quote != 0 || escaped {
		return nil, fmt.Errorf("%w: unterminated quote in %q", ErrParse, line)
	}
	if inWord {
		words = append(words, cur.String())
	}
	return words, nil
}

// ReadQuoted collects the paths of every line of r.
func ReadQuoted(r io.Reader) ([]string, error) {
	var paths []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		words, err := SplitQuoted(sc.Text())
		if err != nil {
			return nil, err
		}
		paths = append(paths, words...)
	}
	return paths, sc.Err()
}

// Generator turns image paths into slide list entries.
type Generator struct {
	Captioner func(path string) string // nil leaves captions empty
	Planner   Planner                  // nil keeps every slide static
	Workers   int
	Logger    *slog.Logger
}

// Generate builds one entry per path, in input order. Captions and motions
// are best effort: a failure leaves the slide uncaptioned or static.
func (g *Generator) Generate(ctx context.Context, paths []string) ([]Entry, error) {
	logger := g.Logger
	if logger == nil {
		logger = slog.Default()
	}

	entries := make([]Entry, len(paths))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(max(1, g.Workers))

	for i, path := range paths {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			e := Entry{Path: path}
			if g.Captioner != nil {
				e.Caption = g.Captioner(path)
			}
			if g.Planner != nil {
				m, err := g.Planner.Plan(i, path)
				if err != nil {
					logger.Warn("no motion planned, slide stays static", "path", path, "error", err)
				} else {
					e.Motion = m
				}
			}
			entries[i] = e
			logger.Debug("slide prepared", "index", i+1, "path", path, "caption", e.Caption)
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return entries, nil
}
