// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package watch triggers a callback when any file in a set changes.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/z5labs/typedapi"
)

// DefaultDebounce is the quiet period applied when none is configured.
const DefaultDebounce = 100 * time.Millisecond

// Options configure [Files].
type Options struct {
	// Debounce coalesces bursts of events, e.g. an editor's atomic save,
	// into a single callback.
	Debounce time.Duration
	Logger   *slog.Logger
}

// Files blocks until ctx is cancelled, calling onChange every time one of
// the given files is written or recreated. The parent directories are
// watched rather than the files themselves so atomic renames are seen.
//
// An error returned by onChange is logged and does not stop the watch.
func Files(ctx context.Context, paths []string, opts Options, onChange func(context.Context) error) (err error) {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Logger == nil {
		opts.Logger = typedapi.Logger("github.com/z5labs/typedapi/internal/watch")
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: create watcher: %w", err)
	}
	defer func() {
		cerr := w.Close()
		if err == nil && cerr != nil {
			err = cerr
		}
	}()

	files := make(map[string]struct{}, len(paths))
	dirs := make(map[string]struct{})
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("watch: resolve %s: %w", p, err)
		}
		files[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for dir := range dirs {
		err := w.Add(dir)
		if err != nil {
			return fmt.Errorf("watch: add %s: %w", dir, err)
		}
	}

	timer := time.NewTimer(opts.Debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			name, err := filepath.Abs(event.Name)
			if err != nil {
				continue
			}
			if _, ok := files[name]; !ok {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			opts.Logger.DebugContext(ctx, "file changed", slog.String("file", name), slog.String("op", event.Op.String()))
			timer.Reset(opts.Debounce)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			opts.Logger.ErrorContext(ctx, "file watcher error", slog.Any("error", err))
		case <-timer.C:
			err := onChange(ctx)
			if err != nil {
				opts.Logger.ErrorContext(ctx, "change handler failed", slog.Any("error", err))
			}
		}
	}
}
