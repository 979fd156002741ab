package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"golang.org/x/term"

	"github.com/akarpov/mediavault/internal/client/upload"
)

// isTerminal is a test seam for terminal detection.
var isTerminal = func() bool { return term.IsTerminal(int(os.Stdout.Fd())) }

func formatSize(size int64) string {
	return humanize.IBytes(uint64(size))
}

// formatTask renders one queue row. On a terminal the progress is drawn
// as a bar, otherwise as a bare percentage so piped output stays clean.
func formatTask(v upload.TaskView) string {
	progress := fmt.Sprintf("%3d%%", v.Progress)
	if isTerminal() {
		progress = fmt.Sprintf("%s %3d%%", progressBar(v.Progress, 20), v.Progress)
	}
	return fmt.Sprintf("%s  %-9s %s  %-10s %s", v.ID, v.Status, progress, formatSize(v.Size), v.Name)
}

func progressBar(percent, width int) string {
	filled := percent * width / 100
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", width-filled) + "]"
}
