// Package source reads fight records from the JSON files written by the
// event scraper and watches them for changes.
package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/okian/fightelo/internal/domain/model"
	"github.com/okian/fightelo/pkg/logger"
	"github.com/okian/fightelo/pkg/metrics"
)

// Loader reads fight files with a bounded worker pool.
type Loader struct {
	workers int
	logger  logger.Logger
}

// NewLoader creates a loader with configuration options.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{workers: 1}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = logger.Get().Named("source")
	}
	return l
}

// Load reads every path and returns their fights concatenated in path order.
// Files are decoded concurrently; if any file fails, the errors of all
// failing files are joined and no fights are returned.
func (l *Loader) Load(ctx context.Context, paths []string) ([]model.Fight, error) {
	if len(paths) == 0 {
		return nil, ErrNoSources
	}
	start := time.Now()

	results := make([][]model.Fight, len(paths))
	errs := make([]error, len(paths))

	workers := l.workers
	if workers > len(paths) {
		workers = len(paths)
	}

	indices := make(chan int)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for index := range indices {
				results[index], errs[index] = ReadFile(paths[index])
				if errs[index] != nil {
					metrics.RecordSourceLoadError()
					continue
				}
				metrics.RecordSourceFileRead()
			}
		}()
	}

	go func() {
		defer close(indices)
		for i := range paths {
			select {
			case <-ctx.Done():
				return
			case indices <- i:
			}
		}
	}()

	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("load fights: %w", err)
	}
	if err := errors.Join(errs...); err != nil {
		l.logger.Error(ctx, "fight sources failed to load", logger.Error(err))
		return nil, err
	}

	total := 0
	for _, r := range results {
		total += len(r)
	}
	fights := make([]model.Fight, 0, total)
	for _, r := range results {
		fights = append(fights, r...)
	}

	l.logger.Info(ctx, "fight sources loaded",
		logger.Int("files", len(paths)),
		logger.Int("fights", len(fights)),
		logger.Duration("elapsed", time.Since(start)),
	)
	return fights, nil
}

// ReadFile decodes one fight file.
func ReadFile(path string) ([]model.Fight, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrReadSource, path, err)
	}
	defer func() { _ = f.Close() }()

	fights, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return fights, nil
}

// Decode reads a JSON array of fight objects. Missing fields decode as empty
// strings and null elements as empty records, so the engine can report them.
func Decode(r io.Reader) ([]model.Fight, error) {
	var fights []model.Fight
	if err := json.NewDecoder(r).Decode(&fights); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return fights, nil
}
