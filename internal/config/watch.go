package config

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"time"
)

// WatchFile calls onChange whenever the modification time of path moves
// forward. onChange is not called for the initial state; the caller has
// already loaded it. Errors from onChange leave the previous mtime in place
// so the next tick retries.
func WatchFile(ctx context.Context, path string, interval time.Duration, onChange func() error) error {
	if interval <= 0 {
		interval = 30 * time.Second
	}

	// A path that does not exist yet is watched from the zero time, so its
	// first appearance counts as a change.
	var lastMod time.Time
	info, err := os.Stat(path)
	switch {
	case err == nil:
		lastMod = info.ModTime()
	case !errors.Is(err, fs.ErrNotExist):
		return err
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				info, err := os.Stat(path)
				if err != nil {
					continue // transient errors
				}
				if !info.ModTime().After(lastMod) {
					continue
				}
				if err := onChange(); err != nil {
					continue
				}
				lastMod = info.ModTime()
			}
		}
	}()

	return nil
}
