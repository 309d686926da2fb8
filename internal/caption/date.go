package caption

import (
	"log/slog"
	"os"

	"github.com/rwcarlsen/goexif/exif"
)

// DateLayout formats captions as "March 2009".
const DateLayout = "January 2006"

// DateCaption returns the EXIF capture month of the image at path, or an
// empty string when the file has no usable metadata. It never fails.
func DateCaption(path string, logger *slog.Logger) string {
	if logger == nil {
		logger = slog.Default()
	}

	f, err := os.Open(path)
	if err != nil {
		logger.Warn("caption: cannot open image", "path", path, "error", err)
		return ""
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		logger.Warn("caption: no exif", "path", path, "error", err)
		return ""
	}
	t, err := x.DateTime()
	if err != nil {
		logger.Warn("caption: no exif date", "path", path, "error", err)
		return ""
	}
	return t.Format(DateLayout)
}
