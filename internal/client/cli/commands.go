package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/akarpov/mediavault/internal/client/upload"
)

// Add queues a single file. Album and subject can be given as arguments;
// when omitted the user is prompted and may leave them empty.
func (a *App) Add(ctx context.Context, args []string) error {
	path := args[0]
	meta := upload.Metadata{GenerateThumbnail: a.config.Thumbnails}

	switch {
	case len(args) >= 3:
		meta.Album, meta.Subject = args[1], args[2]
	case len(args) == 2:
		meta.Album = args[1]
	default:
		album, err := GetSimpleText(a.reader, "Album (optional)", os.Stdout)
		if err != nil {
			return err
		}
		subject, err := GetSimpleText(a.reader, "Subject (optional)", os.Stdout)
		if err != nil {
			return err
		}
		meta.Album, meta.Subject = album, subject
	}

	v, err := a.manager.Enqueue(path, meta)
	if err != nil {
		return err
	}
	printlnFn(fmt.Sprintf("queued %s (%s, %d chunks)", v.Name, formatSize(v.Size), v.TotalChunks))
	return nil
}

// AddDir queues every regular file under a directory tree. Album and
// subject are derived from each file's path inside the tree.
func (a *App) AddDir(ctx context.Context, args []string) error {
	meta := upload.Metadata{GenerateThumbnail: a.config.Thumbnails}
	views, err := a.manager.EnqueueDir(args[0], meta)
	if err != nil {
		return err
	}
	printlnFn(fmt.Sprintf("queued %d files", len(views)))
	return nil
}

func (a *App) Remove(ctx context.Context, args []string) error {
	if err := a.manager.Remove(args[0]); err != nil {
		return err
	}
	printlnFn("removed", args[0])
	return nil
}

func (a *App) List(ctx context.Context) error {
	tasks := a.manager.Tasks()
	if len(tasks) == 0 {
		printlnFn("queue is empty")
		return nil
	}
	for _, v := range tasks {
		printlnFn(formatTask(v))
	}
	s := a.manager.Stats()
	printlnFn(fmt.Sprintf("total %d: %d waiting, %d uploading, %d success, %d error, %d skipped",
		s.Total, s.Waiting, s.Uploading, s.Success, s.Error, s.Skipped))
	return nil
}

// Start uploads everything that is waiting and blocks until every task
// reaches a terminal state.
func (a *App) Start(ctx context.Context) error {
	s := a.manager.Stats()
	if s.Waiting == 0 {
		printlnFn("nothing to upload")
		return nil
	}
	printlnFn(fmt.Sprintf("uploading %d tasks...", s.Waiting))

	done := a.manager.StartAll(ctx)
	printlnFn(fmt.Sprintf("done: %d success, %d error, %d skipped",
		done.Success, done.Error, done.Skipped))

	for _, v := range a.manager.Tasks() {
		if v.Status == upload.StatusError && v.Err != nil {
			printlnFn(fmt.Sprintf("  %s: %s", v.Name, v.Err.Error()))
		}
	}
	return nil
}

func (a *App) History(ctx context.Context) error {
	recs, err := a.history.List(ctx, 20)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		printlnFn("no uploads recorded")
		return nil
	}
	for _, r := range recs {
		printlnFn(fmt.Sprintf("%s  %-10s %-8s %s %s",
			r.FinishedAt.Format("2006-01-02 15:04"), formatSize(r.Size), r.Status, r.Name, r.FileCode))
	}
	return nil
}

func (a *App) Clear(ctx context.Context) error {
	if err := a.manager.Clear(); err != nil {
		return err
	}
	printlnFn("queue cleared")
	return nil
}
