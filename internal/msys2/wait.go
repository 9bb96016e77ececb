package msys2

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/SZPU-RoboMaster-Embedded-Team/install/internal/errs"
)

// DefaultWaitTimeout bounds how long an extracted runtime may take to appear.
const DefaultWaitTimeout = 60 * time.Second

// WaitForFile blocks until path exists or timeout elapses. It watches the
// nearest existing ancestor directory and also polls once a second, since
// some extractors rename whole trees into place.
func WaitForFile(ctx context.Context, path string, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultWaitTimeout
	}
	if exists(path) {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var events chan fsnotify.Event
	if w, err := fsnotify.NewWatcher(); err == nil {
		defer w.Close()
		if err := w.Add(existingAncestor(path)); err == nil {
			events = w.Events
		}
	}
	tick := time.NewTicker(time.Second)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			if exists(path) {
				return nil
			}
			return errs.NotFoundf("%s did not appear within %s", path, timeout)
		case <-events:
		case <-tick.C:
		}
		if exists(path) {
			return nil
		}
	}
}

func existingAncestor(p string) string {
	dir := filepath.Dir(p)
	for {
		if fi, err := os.Stat(dir); err == nil && fi.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}

func exists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
