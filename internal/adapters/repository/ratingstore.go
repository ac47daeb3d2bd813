package repository

import (
	"context"
	"math"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/okian/fightelo/internal/domain/model"
)

// DefaultInitialRating is the rating of a competitor on first appearance.
const DefaultInitialRating = 1000.0

// snapshot is the ranked view of the store, rebuilt lazily after writes.
type snapshot struct {
	standings []Standing
	rankByID  map[string]int // index into standings
}

// RatingStore is an in-memory store keyed by competitor id. One instance
// lives for one batch run; the engine is its only writer.
type RatingStore struct {
	mu            sync.RWMutex
	byID          map[string]*Competitor
	order         []*Competitor
	initialRating float64

	// ranked is nil whenever a write happened since the last read.
	ranked atomic.Pointer[snapshot]
}

// NewRatingStore constructs an empty store.
func NewRatingStore(opts ...Option) *RatingStore {
	s := &RatingStore{
		byID:          make(map[string]*Competitor),
		initialRating: DefaultInitialRating,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ensure returns the record for id, creating it with the initial rating if
// this is its first appearance. The returned History aliases store memory
// and must not be modified.
func (s *RatingStore) Ensure(ctx context.Context, id string) Competitor {
	s.mu.RLock()
	if c, ok := s.byID[id]; ok {
		out := *c
		s.mu.RUnlock()
		return out
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.byID[id]; ok {
		return *c
	}
	c := &Competitor{
		ID:         id,
		Rating:     s.initialRating,
		PeakRating: s.initialRating,
		History:    []model.HistoryEntry{},
	}
	s.byID[id] = c
	s.order = append(s.order, c)
	s.ranked.Store(nil)
	return *c
}

// Lookup returns a deep copy of the record for id.
func (s *RatingStore) Lookup(ctx context.Context, id string) (Competitor, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.byID[id]
	if !ok {
		return Competitor{}, false
	}
	out := *c
	out.History = append([]model.HistoryEntry(nil), c.History...)
	return out, true
}

// SetRating replaces the current rating of an existing competitor. When
// trackPeak is set the peak is raised to the new rating if it is higher.
// Unknown ids are ignored; callers Ensure first.
func (s *RatingStore) SetRating(ctx context.Context, id string, rating float64, trackPeak bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byID[id]
	if !ok {
		return
	}
	c.Rating = rating
	if trackPeak {
		c.PeakRating = math.Max(c.PeakRating, rating)
	}
	s.ranked.Store(nil)
}

// AppendHistory appends a decisive fight to an existing competitor's record,
// which also advances its match count.
func (s *RatingStore) AppendHistory(ctx context.Context, id string, entry model.HistoryEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byID[id]
	if !ok {
		return
	}
	c.History = append(c.History, entry)
	s.ranked.Store(nil)
}

// Snapshot returns all competitors ranked by descending rating.
func (s *RatingStore) Snapshot(ctx context.Context) []Standing {
	snap := s.current()
	return append([]Standing(nil), snap.standings...)
}

// Rank returns the standing of one competitor.
func (s *RatingStore) Rank(ctx context.Context, id string) (Standing, error) {
	snap := s.current()
	i, ok := snap.rankByID[id]
	if !ok {
		return Standing{}, ErrNotFound
	}
	return snap.standings[i], nil
}

// TopN returns the first n standings.
func (s *RatingStore) TopN(ctx context.Context, n int) ([]Standing, error) {
	if n < 1 {
		return nil, ErrInvalidLimit
	}
	snap := s.current()
	if n > len(snap.standings) {
		n = len(snap.standings)
	}
	return append([]Standing(nil), snap.standings[:n]...), nil
}

// History returns a copy of a competitor's decisive fights.
func (s *RatingStore) History(ctx context.Context, id string) ([]model.HistoryEntry, error) {
	c, ok := s.Lookup(ctx, id)
	if !ok {
		return nil, ErrNotFound
	}
	return c.History, nil
}

// Count returns the number of competitors.
func (s *RatingStore) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// current returns the cached ranked view, rebuilding it if stale.
func (s *RatingStore) current() *snapshot {
	if snap := s.ranked.Load(); snap != nil {
		return snap
	}

	// Publish under the read lock so a concurrent write cannot be masked by
	// a snapshot built before it.
	s.mu.RLock()
	defer s.mu.RUnlock()
	if snap := s.ranked.Load(); snap != nil {
		return snap
	}

	standings := make([]Standing, len(s.order))
	for i, c := range s.order {
		standings[i] = Standing{
			ID:         c.ID,
			Rating:     c.Rating,
			PeakRating: c.PeakRating,
			MatchCount: len(c.History),
		}
	}

	// order is insertion order, so a stable sort keeps first-seen ties.
	sort.SliceStable(standings, func(i, j int) bool {
		return standings[i].Rating > standings[j].Rating
	})
	assignRanksWithTies(standings)

	rankByID := make(map[string]int, len(standings))
	for i, st := range standings {
		rankByID[st.ID] = i
	}
	snap := &snapshot{standings: standings, rankByID: rankByID}
	s.ranked.Store(snap)
	return snap
}

// assignRanksWithTies assigns dense ranks: equal ratings share a rank and the
// next distinct rating takes the following rank.
func assignRanksWithTies(standings []Standing) {
	rank := 0
	for i := range standings {
		if i == 0 || standings[i].Rating != standings[i-1].Rating {
			rank++
		}
		standings[i].Rank = rank
	}
}
