package thumbnail

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"

	"github.com/akarpov/mediavault/internal/common"
)

// fromVideo extracts one frame with ffmpeg and scales it to the bound.
// It seeks one second in to skip black lead-in frames; clips shorter than
// that are retried from the start. The whole extraction is capped by a
// deadline so a wedged ffmpeg never stalls an upload.
func (g *Generator) fromVideo(ctx context.Context, path string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, common.VideoThumbnailTimeout)
	defer cancel()

	seek := common.VideoSeekOffset.Seconds()
	frame, err := g.extractFrame(ctx, path, seek)
	if err != nil && ctx.Err() == nil {
		frame, err = g.extractFrame(ctx, path, 0)
	}
	if err != nil {
		return nil, fmt.Errorf("ffmpeg %s: %w", path, err)
	}
	if len(frame) == 0 {
		return nil, fmt.Errorf("%s: empty frame: %w", path, common.ErrNoThumbnail)
	}
	return frame, nil
}

func (g *Generator) extractFrame(ctx context.Context, path string, seek float64) ([]byte, error) {
	args := []string{
		"-ss", strconv.FormatFloat(seek, 'f', -1, 64),
		"-i", path,
		"-frames:v", "1",
		"-vf", fmt.Sprintf("scale=%d:-1", g.maxSide),
		"-q:v", "2",
		"-f", "image2",
		"-",
	}

	cmd := exec.CommandContext(ctx, g.ffmpegPath, args...)
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%w: %s", err, lastLine(stderr.Bytes()))
	}
	return out.Bytes(), nil
}

// lastLine picks the final stderr line, which is where ffmpeg puts the
// actual failure reason.
func lastLine(b []byte) string {
	b = bytes.TrimRight(b, "\n")
	if i := bytes.LastIndexByte(b, '\n'); i >= 0 {
		b = b[i+1:]
	}
	return string(b)
}
