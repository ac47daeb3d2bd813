package rating

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/okian/fightelo/internal/adapters/repository"
	"github.com/okian/fightelo/internal/domain/model"
	"github.com/okian/fightelo/pkg/logger"
	"github.com/okian/fightelo/pkg/metrics"
)

// Store is the rating state the engine folds fights into.
type Store interface {
	Ensure(ctx context.Context, id string) repository.Competitor
	SetRating(ctx context.Context, id string, rating float64, trackPeak bool)
	AppendHistory(ctx context.Context, id string, entry model.HistoryEntry)
}

// Update describes the rating change produced by one fight.
type Update struct {
	Subject        string
	Opponent       string
	SubjectBefore  float64
	SubjectAfter   float64
	OpponentBefore float64
	OpponentAfter  float64
	// Expected is the subject's expected score before the fight.
	Expected    float64
	Sensitivity float64
}

// Report summarizes one batch.
type Report struct {
	Total    int
	Decisive int
	Draws    int
	// Unknown counts results other than win, loss or draw; they are skipped.
	Unknown int
	// Invalid holds one *InvalidRecordError per skipped malformed record.
	Invalid []error
	// Undated and BadDates count fights that sorted as Epoch.
	Undated  int
	BadDates int
	Duration time.Duration
}

// Engine applies Elo updates to a Store. It holds no rating state of its own;
// each call works against the store it is given and must not run
// concurrently with another call on the same store.
type Engine struct {
	logger          logger.Logger
	drawUpdatesPeak bool
}

// NewEngine creates an engine with configuration options.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logger.Get().Named("rating")
	}
	return e
}

// Process sorts fights chronologically and folds them one at a time into
// store. Malformed records are skipped and listed in the report. A cancelled
// ctx stops the fold between records and the partial report is returned with
// the context error.
func (e *Engine) Process(ctx context.Context, store Store, fights []model.Fight) (report Report, err error) {
	start := time.Now()
	ordered, stats := chronological(fights)
	report = Report{
		Total:    len(fights),
		Undated:  stats.undated,
		BadDates: stats.badDates,
	}
	defer func() {
		report.Duration = time.Since(start)
		metrics.RecordBatchDuration(float64(report.Duration.Milliseconds()))
		metrics.UpdateBatchSize(report.Total)
	}()

	if stats.badDates > 0 {
		e.logger.Warn(ctx, "fights with unparseable dates sorted as epoch", logger.Int("count", stats.badDates))
	}

	for _, d := range ordered {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return report, fmt.Errorf("process fights: %w", ctxErr)
		}
		e.apply(ctx, store, d, &report)
	}

	e.logger.Info(ctx, "batch processed",
		logger.Int("total", report.Total),
		logger.Int("decisive", report.Decisive),
		logger.Int("draws", report.Draws),
		logger.Int("unknown", report.Unknown),
		logger.Int("invalid", len(report.Invalid)),
	)
	return report, nil
}

// apply routes one record through the decisive or draw rule.
func (e *Engine) apply(ctx context.Context, store Store, d dated, report *Report) {
	f := d.fight
	if field := missingField(f); field != "" {
		err := &InvalidRecordError{Index: d.index, Field: field}
		report.Invalid = append(report.Invalid, err)
		metrics.RecordFightSkipped("invalid")
		e.logger.Warn(ctx, "skipping fight record", logger.Error(err))
		return
	}

	outcome := f.Outcome()
	finish := IsFinish(f.Method)
	switch outcome {
	case model.OutcomeWin:
		e.UpdateElo(ctx, store, f.Fighter1, f.Fighter2, finish)
		report.Decisive++
	case model.OutcomeLoss:
		e.UpdateElo(ctx, store, f.Fighter2, f.Fighter1, finish)
		report.Decisive++
	case model.OutcomeDraw:
		e.ApplyDraw(ctx, store, f.Fighter1, f.Fighter2)
		report.Draws++
	default:
		report.Unknown++
		metrics.RecordFightSkipped("unknown_result")
		e.logger.Debug(ctx, "skipping fight with unknown result",
			logger.Int("index", d.index),
			logger.String("result", f.Result),
		)
		return
	}
	metrics.RecordFightProcessed(outcome.String())
}

// missingField names the first blank required field of f, or "". An empty
// method only counts as missing when the record never carried one.
func missingField(f model.Fight) string {
	switch {
	case strings.TrimSpace(f.Fighter1) == "":
		return "fighter_1"
	case strings.TrimSpace(f.Fighter2) == "":
		return "fighter_2"
	case strings.TrimSpace(f.Result) == "":
		return "result"
	case !f.HasMethod():
		return "method"
	}
	return ""
}

// UpdateElo applies a decisive result. K is chosen from the winner's match
// count before this fight and applied to both sides; both competitors then
// gain a history entry, which advances their match counts.
func (e *Engine) UpdateElo(ctx context.Context, store Store, winner, loser string, finish bool) Update {
	w := store.Ensure(ctx, winner)
	l := store.Ensure(ctx, loser)

	expected := ExpectedScore(w.Rating, l.Rating)
	k := Sensitivity(w.MatchCount(), finish)
	delta := k * (1 - expected)

	newWinner := roundHalfUp(w.Rating + delta)
	newLoser := roundHalfUp(l.Rating - delta)

	store.SetRating(ctx, winner, newWinner, true)
	store.SetRating(ctx, loser, newLoser, true)

	store.AppendHistory(ctx, winner, model.HistoryEntry{Opponent: loser, Result: model.OutcomeWin, RatingAfter: newWinner})
	store.AppendHistory(ctx, loser, model.HistoryEntry{Opponent: winner, Result: model.OutcomeLoss, RatingAfter: newLoser})

	return Update{
		Subject:        winner,
		Opponent:       loser,
		SubjectBefore:  w.Rating,
		SubjectAfter:   newWinner,
		OpponentBefore: l.Rating,
		OpponentAfter:  newLoser,
		Expected:       expected,
		Sensitivity:    k,
	}
}

// ApplyDraw applies a draw with fighter1 as the reference subject. Draws use
// a fixed K, add no history and leave match counts alone. Competitors seen
// for the first time in a draw are initialized like in decisive fights.
func (e *Engine) ApplyDraw(ctx context.Context, store Store, fighter1, fighter2 string) Update {
	a := store.Ensure(ctx, fighter1)
	b := store.Ensure(ctx, fighter2)

	expected := ExpectedScore(a.Rating, b.Rating)
	newA := roundHalfUp(a.Rating + DrawSensitivity*(0.5-expected))
	newB := roundHalfUp(b.Rating + DrawSensitivity*(0.5-(1-expected)))

	store.SetRating(ctx, fighter1, newA, e.drawUpdatesPeak)
	store.SetRating(ctx, fighter2, newB, e.drawUpdatesPeak)

	return Update{
		Subject:        fighter1,
		Opponent:       fighter2,
		SubjectBefore:  a.Rating,
		SubjectAfter:   newA,
		OpponentBefore: b.Rating,
		OpponentAfter:  newB,
		Expected:       expected,
		Sensitivity:    DrawSensitivity,
	}
}
