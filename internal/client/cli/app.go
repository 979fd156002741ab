package cli

import (
	"bufio"
	"context"
	"os"

	"github.com/akarpov/mediavault/internal/client/config"
	"github.com/akarpov/mediavault/internal/client/history"
	"github.com/akarpov/mediavault/internal/client/store"
	"github.com/akarpov/mediavault/internal/client/thumbnail"
	"github.com/akarpov/mediavault/internal/client/upload"
	"github.com/akarpov/mediavault/internal/logging"
)

type App struct {
	config  *config.Config
	manager *upload.Manager
	history *history.Store
	log     logging.Logger
	reader  *bufio.Reader
}

func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	hist, err := history.Open(ctx, c.HistoryDSN)
	if err != nil {
		return nil, err
	}

	st := store.NewHTTPClient(c.ServerURL, c.RequestTimeout)

	var thumbs upload.Thumbnailer
	if c.Thumbnails {
		thumbs = thumbnail.NewGenerator(log)
	}

	mgr := upload.NewManager(st, thumbs, hist, log)

	return &App{
		config:  c,
		manager: mgr,
		history: hist,
		log:     log,
		reader:  bufio.NewReader(os.Stdin),
	}, nil
}

func (a *App) Run(ctx context.Context) {
	defer a.history.Close()
	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, scanner)
}
