package engine

import (
	"fmt"
	"io"
	"sync"
)

// Progress is reported after every emitted frame. It is advisory only.
type Progress struct {
	Emitted int
	Total   int
	Stage   string
}

// Percent is the share of planned frames already emitted, 0-100.
func (p Progress) Percent() int {
	if p.Total <= 0 {
		return 100
	}
	return min(100, 100*p.Emitted/p.Total)
}

// Observer receives render progress.
type Observer interface {
	Progress(p Progress)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(p Progress)

func (f ObserverFunc) Progress(p Progress) { f(p) }

// ConsoleProgress redraws a single "[ 42%] stage" status line.
type ConsoleProgress struct {
	mu   sync.Mutex
	w    io.Writer
	last string
}

func NewConsoleProgress(w io.Writer) *ConsoleProgress {
	return &ConsoleProgress{w: w}
}

func (c *ConsoleProgress) Progress(p Progress) {
	line := fmt.Sprintf("[%3d%%] %s", p.Percent(), p.Stage)
	c.mu.Lock()
	defer c.mu.Unlock()
	if line == c.last {
		return
	}
	c.last = line
	fmt.Fprintf(c.w, "\r%-80s", line)
}

// Done ends the status line.
func (c *ConsoleProgress) Done() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last != "" {
		fmt.Fprintln(c.w)
		c.last = ""
	}
}
