// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/fightelo/internal/adapters/export"
	"github.com/okian/fightelo/internal/adapters/repository"
	"github.com/okian/fightelo/internal/adapters/source"
	"github.com/okian/fightelo/internal/domain/dedupe"
	"github.com/okian/fightelo/internal/domain/rating"
	"github.com/okian/fightelo/internal/domain/types"
	"github.com/okian/fightelo/pkg/logger"
	"github.com/okian/fightelo/pkg/metrics"
)

// Service owns the published ranking. Every rebuild folds the full fight
// history into a fresh store and swaps it in, so readers always see one
// complete batch.
type Service struct {
	mu        sync.Mutex // guards lifecycle
	rebuildMu sync.Mutex // serializes rebuilds

	store    atomic.Pointer[repository.RatingStore]
	last     atomic.Pointer[types.Stats]
	rebuilds atomic.Int64

	// Configuration
	paths           []string
	loaderWorkers   int
	dedupe          bool
	dedupeSize      int
	drawUpdatesPeak bool
	watch           bool
	watchDebounce   time.Duration
	exportPath      string

	// State
	started bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithFightsFiles sets the fight sources, processed in the given order.
func WithFightsFiles(paths ...string) Option {
	return func(s *Service) {
		if len(paths) > 0 {
			s.paths = append([]string(nil), paths...)
		}
	}
}

// WithLoaderWorkers sets how many source files are decoded concurrently.
func WithLoaderWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.loaderWorkers = n
		}
	}
}

// WithDedupe drops repeated identical fight records, remembering at most
// size fight IDs.
func WithDedupe(size int) Option {
	return func(s *Service) {
		s.dedupe = true
		s.dedupeSize = size
	}
}

// WithDrawPeakTracking lets draws raise peak ratings.
func WithDrawPeakTracking(enabled bool) Option {
	return func(s *Service) {
		s.drawUpdatesPeak = enabled
	}
}

// WithWatch rebuilds the ranking whenever a source file changes.
func WithWatch(enabled bool) Option {
	return func(s *Service) {
		s.watch = enabled
	}
}

// WithWatchDebounce sets how long source writes must settle before a rebuild.
func WithWatchDebounce(d time.Duration) Option {
	return func(s *Service) {
		s.watchDebounce = d
	}
}

// WithExportCSV writes the ranking to path after every successful rebuild.
func WithExportCSV(path string) Option {
	return func(s *Service) {
		s.exportPath = path
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration. Until the first
// rebuild the published ranking is empty.
func New(opts ...Option) *Service {
	s := &Service{
		paths:         []string{"fights.json"},
		loaderWorkers: 1,
		watchDebounce: source.DefaultDebounce,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	s.store.Store(repository.NewRatingStore())
	return s
}

// Start publishes the first ranking and, if configured, begins watching the
// sources. A failed first rebuild fails Start.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	log := s.logger
	log.Info(ctx, "starting ranking service...")

	if _, err := s.Rebuild(ctx); err != nil && !errors.Is(err, ErrExport) {
		return err
	}

	if s.watch {
		watchCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		s.cancel = cancel
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			err := source.Watch(watchCtx, s.paths, s.onSourcesChanged,
				source.WithDebounce(s.watchDebounce),
				source.WithWatchLogger(log.Named("watch")),
			)
			if err != nil {
				log.Error(watchCtx, "source watcher stopped", logger.Error(err))
			}
		}()
	}

	s.started = true
	log.Info(ctx, "ranking service started",
		logger.Int("sources", len(s.paths)),
		logger.Bool("watch", s.watch),
		logger.Bool("dedupe", s.dedupe),
	)
	return nil
}

// Stop gracefully shuts down the service. The last published ranking stays
// readable.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping ranking service...")

	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.wg.Wait()

	s.started = false
	s.logger.Info(ctx, "ranking service stopped")
}

// onSourcesChanged keeps the previous ranking when a rebuild fails.
func (s *Service) onSourcesChanged(ctx context.Context) {
	if _, err := s.Rebuild(ctx); err != nil {
		s.logger.Warn(ctx, "rebuild after source change failed, keeping previous ranking", logger.Error(err))
	}
}

// Rebuild loads every source, folds the fights into a fresh store and
// publishes it. On a load or processing error nothing is published. An
// export failure is reported as ErrExport after the new ranking is live.
func (s *Service) Rebuild(ctx context.Context) (rating.Report, error) {
	s.rebuildMu.Lock()
	defer s.rebuildMu.Unlock()

	log := s.logger
	start := time.Now()

	fights, err := source.NewLoader(
		source.WithWorkers(s.loaderWorkers),
		source.WithLogger(log.Named("source")),
	).Load(ctx, s.paths)
	if err != nil {
		metrics.RecordRebuild("error", 0)
		return rating.Report{}, fmt.Errorf("%w: %w", ErrRebuild, err)
	}

	duplicates := 0
	if s.dedupe {
		fights, duplicates = dedupe.Filter(ctx, dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize)), fights)
		if duplicates > 0 {
			log.Info(ctx, "dropped duplicate fight records", logger.Int("count", duplicates))
		}
	}

	store := repository.NewRatingStore()
	engine := rating.NewEngine(
		rating.WithLogger(log.Named("rating")),
		rating.WithDrawPeakTracking(s.drawUpdatesPeak),
	)
	report, err := engine.Process(ctx, store, fights)
	if err != nil {
		metrics.RecordRebuild("error", 0)
		return report, fmt.Errorf("%w: %w", ErrRebuild, err)
	}

	s.store.Store(store)
	finished := time.Now()
	count := store.Count(ctx)
	s.last.Store(&types.Stats{
		Sources:     append([]string(nil), s.paths...),
		Competitors: count,
		Fights:      report.Total,
		Decisive:    report.Decisive,
		Draws:       report.Draws,
		Unknown:     report.Unknown,
		Invalid:     len(report.Invalid),
		Duplicates:  duplicates,
		Undated:     report.Undated,
		BadDates:    report.BadDates,
		Rebuilds:    s.rebuilds.Add(1),
		LastRebuild: finished.UTC(),
		RebuildMS:   finished.Sub(start).Milliseconds(),
	})

	metrics.UpdateCompetitors(count)
	if top, err := store.TopN(ctx, 1); err == nil && len(top) > 0 {
		metrics.UpdateTopRating(top[0].Rating)
	}
	metrics.RecordRebuild("ok", float64(finished.Unix()))

	log.Info(ctx, "ranking published",
		logger.Int("competitors", count),
		logger.Int("fights", report.Total),
		logger.Duration("elapsed", finished.Sub(start)),
	)

	if s.exportPath != "" {
		if err := export.SnapshotToFile(ctx, store, s.exportPath); err != nil {
			log.Error(ctx, "csv export failed", logger.String("path", s.exportPath), logger.Error(err))
			return report, fmt.Errorf("%w: %w", ErrExport, err)
		}
		log.Info(ctx, "ranking exported", logger.String("path", s.exportPath))
	}
	return report, nil
}

// Ranking returns the currently published store.
func (s *Service) Ranking() repository.Reader {
	return s.store.Load()
}

// TopN returns the top N leaderboard entries.
func (s *Service) TopN(ctx context.Context, n int) ([]types.Entry, error) {
	standings, err := s.store.Load().TopN(ctx, n)
	if err != nil {
		return nil, err
	}
	entries := make([]types.Entry, len(standings))
	for i, st := range standings {
		entries[i] = toEntry(st)
	}
	return entries, nil
}

// Rank returns the standing of one fighter.
func (s *Service) Rank(ctx context.Context, fighterID string) (types.Entry, error) {
	st, err := s.store.Load().Rank(ctx, fighterID)
	if err != nil {
		return types.Entry{}, err
	}
	return toEntry(st), nil
}

// History returns a fighter's decisive fights in processing order.
func (s *Service) History(ctx context.Context, fighterID string) ([]types.HistoryItem, error) {
	history, err := s.store.Load().History(ctx, fighterID)
	if err != nil {
		return nil, err
	}
	items := make([]types.HistoryItem, len(history))
	for i, h := range history {
		items[i] = types.HistoryItem{
			Opponent:    h.Opponent,
			Result:      h.Result.String(),
			RatingAfter: h.RatingAfter,
		}
	}
	return items, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) types.Stats {
	var stats types.Stats
	if last := s.last.Load(); last != nil {
		stats = *last
		stats.Sources = append([]string(nil), last.Sources...)
	} else {
		stats.Sources = append([]string(nil), s.paths...)
	}

	s.mu.Lock()
	stats.Started = s.started
	s.mu.Unlock()

	stats.Competitors = s.store.Load().Count(ctx)
	return stats
}

func toEntry(st repository.Standing) types.Entry {
	return types.Entry{
		Rank:       st.Rank,
		FighterID:  st.ID,
		Rating:     st.Rating,
		PeakRating: st.PeakRating,
		Matches:    st.MatchCount,
	}
}
