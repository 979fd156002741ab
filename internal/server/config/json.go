package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/akarpov/mediavault/internal/flagx"
	"github.com/akarpov/mediavault/internal/timex"
)

// jsonConfig is the DTO for the optional JSON config file. Durations may
// be strings like "5s" or integer nanoseconds.
type jsonConfig struct {
	EndpointAddr    string         `json:"endpoint_addr"`
	DatabaseDSN     string         `json:"database_dsn"`
	Storage         string         `json:"storage"`
	MediaDir        string         `json:"media_dir"`
	ShutdownTimeout timex.Duration `json:"shutdown_timeout"`
	S3RootUser      string         `json:"s3_root_user"`
	S3RootPassword  string         `json:"s3_root_password"`
	S3Bucket        string         `json:"s3_bucket"`
	S3Region        string         `json:"s3_region"`
	S3BaseEndpoint  string         `json:"s3_base_endpoint"`
}

// parseJSON overlays Config with values from the file named by -c/-config.
// No file means no overlay. Read or parse errors panic, matching the
// flag-parsing behavior.
func parseJSON(config *Config) {
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

	if jc.EndpointAddr != "" {
		config.EndpointAddr = jc.EndpointAddr
	}
	if jc.DatabaseDSN != "" {
		config.DatabaseDSN = jc.DatabaseDSN
	}
	if jc.Storage != "" {
		config.Storage = jc.Storage
	}
	if jc.MediaDir != "" {
		config.MediaDir = jc.MediaDir
	}
	if jc.ShutdownTimeout.Duration != 0 {
		config.ShutdownTimeout = time.Duration(jc.ShutdownTimeout.Duration)
	}
	if jc.S3RootUser != "" {
		config.S3RootUser = jc.S3RootUser
	}
	if jc.S3RootPassword != "" {
		config.S3RootPassword = jc.S3RootPassword
	}
	if jc.S3Bucket != "" {
		config.S3Bucket = jc.S3Bucket
	}
	if jc.S3Region != "" {
		config.S3Region = jc.S3Region
	}
	if jc.S3BaseEndpoint != "" {
		config.S3BaseEndpoint = jc.S3BaseEndpoint
	}
}
