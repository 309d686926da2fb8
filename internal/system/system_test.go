package system

import (
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestImagePool(t *testing.T) {
	pool := NewImagePool()
	rect := image.Rect(0, 0, 64, 48)

	img := pool.Get(rect)
	if img.Rect != rect {
		t.Fatalf("Expected rect %v, got %v", rect, img.Rect)
	}
	pool.Put(img)

	other := pool.Get(image.Rect(0, 0, 32, 32))
	if other.Rect.Dx() != 32 || other.Rect.Dy() != 32 {
		t.Errorf("Expected 32x32 buffer, got %v", other.Rect)
	}

	// Buffers of unknown size are ignored
	pool.Put(image.NewRGBA(image.Rect(0, 0, 7, 7)))
	pool.Put(nil)
}

func TestExpandImages(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.jpg", "a.PNG", "notes.txt", "c.pdf"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	single := filepath.Join(dir, "notes.txt")

	paths, err := ExpandImages([]string{dir, single})
	if err != nil {
		t.Fatalf("ExpandImages failed: %v", err)
	}

	want := []string{"a.PNG", "b.jpg", "c.pdf", "notes.txt"}
	if len(paths) != len(want) {
		t.Fatalf("Expected %d paths, got %v", len(want), paths)
	}
	for i, w := range want {
		if filepath.Base(paths[i]) != w {
			t.Errorf("Path %d: expected %s, got %s", i, w, paths[i])
		}
	}

	if _, err := ExpandImages([]string{filepath.Join(dir, "missing.jpg")}); err == nil {
		t.Error("Expected error for missing path")
	}
}

func TestQualityArgs(t *testing.T) {
	args := QualityArgs("libx264", "5000k")
	if !strings.Contains(strings.Join(args, " "), "-b:v 5000k") {
		t.Errorf("Expected bitrate args, got %v", args)
	}
}

func TestAppendBenchmark(t *testing.T) {
	path := filepath.Join(t.TempDir(), "benchmark.log")
	if err := AppendBenchmark(path, "first"); err != nil {
		t.Fatal(err)
	}
	if err := AppendBenchmark(path, "second"); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if lines := strings.Count(string(data), "\n"); lines != 2 {
		t.Errorf("Expected 2 lines, got %d: %q", lines, data)
	}
}

func TestProcessRSS(t *testing.T) {
	rss, err := ProcessRSS()
	if err != nil {
		t.Skipf("process memory not available: %v", err)
	}
	if rss == 0 {
		t.Error("Expected non-zero RSS")
	}
}
