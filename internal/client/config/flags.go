package config

import (
	"flag"
	"os"
	"time"

	"github.com/akarpov/mediavault/internal/flagx"
)

// parseFlags overlays Config with command-line flags.
//
//	-a string   base URL of the media store
//	-t int      per-request timeout in seconds
//	-d string   path of the local upload history database
//	-no-thumbs  disable client-side thumbnail generation
//
// os.Args is filtered to the flags handled here so flags consumed by
// other components do not trip the parser.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-t", "-d", "-no-thumbs"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "base URL of the media store")
	timeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")
	fs.StringVar(&cfg.HistoryDSN, "d", cfg.HistoryDSN, "path of the upload history database")
	noThumbs := fs.Bool("no-thumbs", !cfg.Thumbnails, "disable thumbnail generation")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.RequestTimeout = time.Duration(*timeout) * time.Second
	cfg.Thumbnails = !*noThumbs
}
