package source

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Loader decodes the image behind a slide path.
type Loader interface {
	Load(path string) (image.Image, error)
}

// FileLoader reads images from disk. PDF paths are rasterized at DPI.
type FileLoader struct {
	DPI int
}

func (l FileLoader) Load(path string) (image.Image, error) {
	if IsPDF(path) {
		return l.loadPage(path)
	}
	return DecodeFile(path)
}

func (l FileLoader) loadPage(path string) (image.Image, error) {
	doc, page, err := SplitPage(path)
	if err != nil {
		return nil, err
	}
	src, err := NewFitzPDFSource(doc)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	dpi := l.DPI
	if dpi <= 0 {
		dpi = 150
	}
	return src.RenderPage(page, dpi)
}

// DecodeFile decodes any registered image format.
func DecodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// Dimensions reads only the image header.
func Dimensions(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}
