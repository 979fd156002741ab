package upload

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusTerminal(t *testing.T) {
	tests := []struct {
		status   Status
		terminal bool
	}{
		{StatusWaiting, false},
		{StatusUploading, false},
		{StatusSuccess, true},
		{StatusError, true},
		{StatusSkipped, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.terminal, tt.status.Terminal(), string(tt.status))
	}
}

func TestSetProgress_Monotonic(t *testing.T) {
	task := &Task{}
	task.setProgress(60)
	task.setProgress(30)
	assert.Equal(t, 60, task.progress)
	task.setProgress(100)
	assert.Equal(t, 100, task.progress)
}

func TestPathMetadata(t *testing.T) {
	tests := []struct {
		rel     string
		album   string
		subject string
	}{
		{"img.jpg", "", ""},
		{"holiday/img.jpg", "holiday", ""},
		{"holiday/beach/img.jpg", "holiday", "beach"},
		{"holiday/beach/day1/img.jpg", "holiday", "beach"},
	}
	for _, tt := range tests {
		album, subject := PathMetadata(tt.rel)
		assert.Equal(t, tt.album, album, tt.rel)
		assert.Equal(t, tt.subject, subject, tt.rel)
	}
}
