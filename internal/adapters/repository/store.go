// Package repository holds the per-competitor rating state for one batch run.
package repository

import (
	"context"

	"github.com/okian/fightelo/internal/domain/model"
)

// Competitor is the rating record of one entrant.
type Competitor struct {
	ID         string
	Rating     float64
	PeakRating float64
	// History is append-only, one entry per decisive fight in processing order.
	History []model.HistoryEntry
}

// MatchCount returns the number of decisive fights recorded so far.
func (c Competitor) MatchCount() int { return len(c.History) }

// Standing is one row of a ranked snapshot.
type Standing struct {
	Rank       int
	ID         string
	Rating     float64
	PeakRating float64
	MatchCount int
}

// Reader is the read surface consumed by export and the HTTP API.
type Reader interface {
	// Snapshot returns every competitor ordered by descending rating;
	// equal ratings keep first-seen order.
	Snapshot(ctx context.Context) []Standing

	// Rank returns the standing of one competitor or ErrNotFound.
	Rank(ctx context.Context, id string) (Standing, error)

	// TopN returns the first n standings. n < 1 yields ErrInvalidLimit.
	TopN(ctx context.Context, n int) ([]Standing, error)

	// History returns a copy of a competitor's decisive fights or ErrNotFound.
	History(ctx context.Context, id string) ([]model.HistoryEntry, error)

	// Count returns the number of competitors.
	Count(ctx context.Context) int
}
