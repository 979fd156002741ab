package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/akarpov/mediavault/internal/flagx"
	"github.com/akarpov/mediavault/internal/timex"
)

// jsonConfig is the DTO for the optional JSON config file. Durations may
// be strings like "30s" or integer nanoseconds.
type jsonConfig struct {
	ServerURL      string         `json:"server_url"`
	RequestTimeout timex.Duration `json:"request_timeout"`
	HistoryDSN     string         `json:"history_dsn"`
	Thumbnails     *bool          `json:"thumbnails"`
}

// parseJSON overlays Config with values from the file named by -c/-config.
// No file means no overlay. Read or parse errors panic, matching the
// flag-parsing behavior above.
func parseJSON(cfg *Config) {
	path := flagx.JSONConfigFlags()
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	var jc jsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.ServerURL != "" {
		cfg.ServerURL = jc.ServerURL
	}
	if jc.RequestTimeout.Duration != 0 {
		cfg.RequestTimeout = time.Duration(jc.RequestTimeout.Duration)
	}
	if jc.HistoryDSN != "" {
		cfg.HistoryDSN = jc.HistoryDSN
	}
	if jc.Thumbnails != nil {
		cfg.Thumbnails = *jc.Thumbnails
	}
}
