package source

import (
	"fmt"
	"image"
	"strconv"
	"strings"

	"github.com/gen2brain/go-fitz"
)

// FitzPDFSource renders the pages of a PDF document.
type FitzPDFSource struct {
	doc  *fitz.Document
	path string
}

func NewFitzPDFSource(path string) (*FitzPDFSource, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, err
	}
	return &FitzPDFSource{doc: doc, path: path}, nil
}

func (f *FitzPDFSource) PageCount() int {
	return f.doc.NumPage()
}

func (f *FitzPDFSource) RenderPage(index int, dpi int) (image.Image, error) {
	if index < 0 || index >= f.doc.NumPage() {
		return nil, fmt.Errorf("page %d out of range (document has %d pages)", index+1, f.doc.NumPage())
	}
	return f.doc.ImageDPI(index, float64(dpi))
}

func (f *FitzPDFSource) Close() error {
	return f.doc.Close()
}

// PagePath names a single page of a PDF in a slide list, e.g. "deck.pdf#3".
// Pages are 1-based.
func PagePath(path string, page int) string {
	return fmt.Sprintf("%s#%d", path, page)
}

// SplitPage splits "deck.pdf#3" into the document path and a 0-based page
// index. Paths without a page selector address the first page.
func SplitPage(path string) (string, int, error) {
	i := strings.LastIndex(path, "#")
	if i < 0 || !isPDF(path[:i]) {
		return path, 0, nil
	}
	page, err := strconv.Atoi(path[i+1:])
	if err != nil || page < 1 {
		return "", 0, fmt.Errorf("bad page selector in %q", path)
	}
	return path[:i], page - 1, nil
}

// ExpandPages replaces every whole PDF in paths with one path per page.
// Page selectors and other files are kept as they are.
func ExpandPages(paths []string) ([]string, error) {
	var out []string
	for _, p := range paths {
		if !isPDF(p) {
			out = append(out, p)
			continue
		}
		doc, err := NewFitzPDFSource(p)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", p, err)
		}
		n := doc.PageCount()
		doc.Close()
		if n == 0 {
			return nil, fmt.Errorf("%s has no pages", p)
		}
		for page := 1; page <= n; page++ {
			out = append(out, PagePath(p, page))
		}
	}
	return out, nil
}

func isPDF(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), ".pdf")
}

// IsPDF reports whether a slide path refers to a PDF document or one of its pages.
func IsPDF(path string) bool {
	doc, _, err := SplitPage(path)
	return err == nil && isPDF(doc)
}
