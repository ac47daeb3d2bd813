package source

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/okian/fightelo/pkg/logger"
)

// DefaultDebounce is the settle time Watch waits for by default.
const DefaultDebounce = 250 * time.Millisecond

// Watch monitors paths and calls onChange once writes to any of them have
// settled. It runs until ctx is cancelled.
//
// The parent directories are watched rather than the files, so a file
// replaced by rename (atomic save) keeps being tracked. Other files in those
// directories are ignored.
func Watch(ctx context.Context, paths []string, onChange func(context.Context), opts ...WatchOption) error {
	if len(paths) == 0 {
		return ErrNoSources
	}
	cfg := watchConfig{debounce: DefaultDebounce}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = logger.Get().Named("source")
	}

	targets := make(map[string]struct{}, len(paths))
	dirs := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", p, err)
		}
		targets[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	cfg.logger.Info(ctx, "watching fight sources", logger.Int("files", len(targets)))

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if _, tracked := targets[filepath.Clean(event.Name)]; !tracked {
				continue
			}
			cfg.logger.Debug(ctx, "fight source event",
				logger.String("path", event.Name),
				logger.String("op", event.Op.String()),
			)
			if timer == nil {
				timer = time.NewTimer(cfg.debounce)
			} else {
				timer.Reset(cfg.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			cfg.logger.Info(ctx, "fight sources changed")
			onChange(ctx)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			cfg.logger.Error(ctx, "watcher error", logger.Error(err))
		}
	}
}
