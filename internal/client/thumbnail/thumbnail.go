// Package thumbnail produces small JPEG previews for image and video
// files. Every failure is reported as an error and the upload simply
// proceeds without a preview.
package thumbnail

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/akarpov/mediavault/internal/common"
	"github.com/akarpov/mediavault/internal/logging"
)

var imageExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".bmp": true, ".webp": true,
}

var videoExts = map[string]bool{
	".mp4": true, ".mov": true, ".avi": true, ".mkv": true,
	".webm": true, ".flv": true, ".wmv": true, ".m4v": true,
}

// Generator renders previews bounded by MaxSide on the longest edge.
type Generator struct {
	log logging.Logger

	maxSide     int
	jpegQuality int
	ffmpegPath  string
}

func NewGenerator(log logging.Logger) *Generator {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Generator{
		log:         log,
		maxSide:     common.ThumbnailMaxSide,
		jpegQuality: common.ThumbnailJPEGQuality,
		ffmpegPath:  "ffmpeg",
	}
}

// Generate returns JPEG bytes for a preview of the file at path, or an
// error when the file is not a supported media type or rendering fails.
func (g *Generator) Generate(ctx context.Context, path string) ([]byte, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case imageExts[ext]:
		return g.fromImage(path)
	case videoExts[ext]:
		return g.fromVideo(ctx, path)
	default:
		return nil, fmt.Errorf("%s: %w", ext, common.ErrUnsupportedMedia)
	}
}

// bounded shrinks (w, h) so the longest side is at most maxSide,
// preserving aspect ratio. Smaller inputs keep their size.
func (g *Generator) bounded(w, h int) (int, int) {
	longest := w
	if h > longest {
		longest = h
	}
	if longest <= g.maxSide {
		return w, h
	}
	scale := float64(g.maxSide) / float64(longest)
	tw := int(float64(w) * scale)
	th := int(float64(h) * scale)
	if tw < 1 {
		tw = 1
	}
	if th < 1 {
		th = 1
	}
	return tw, th
}
