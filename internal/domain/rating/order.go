package rating

import (
	"sort"
	"strings"
	"time"

	"github.com/okian/fightelo/internal/domain/model"
)

// Epoch is the date assumed for fights without a usable date.
var Epoch = time.Unix(0, 0).UTC()

// dateLayouts are tried in order. They cover ISO dates, RFC3339 timestamps
// and the long and short month forms used on event listings.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2006-01-02 15:04:05",
	"January 2, 2006",
	"Jan 2, 2006",
	"Jan. 2, 2006",
	"2 January 2006",
	"2006/01/02",
	"01/02/2006",
	time.RFC1123,
}

// ParseDate parses a fight date. ok is false for empty or unrecognized input,
// in which case Epoch is returned.
func ParseDate(raw string) (t time.Time, ok bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Epoch, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return Epoch, false
}

// dated pairs a fight with its sort key and input position.
type dated struct {
	fight model.Fight
	index int
	at    time.Time
}

// orderStats counts date problems seen while ordering.
type orderStats struct {
	undated  int
	badDates int
}

// chronological returns the fights in ascending date order without touching
// the input. Fights without a usable date sort as Epoch. The sort is stable,
// so equal dates keep their input order.
func chronological(fights []model.Fight) ([]dated, orderStats) {
	var stats orderStats
	out := make([]dated, len(fights))
	for i, f := range fights {
		at, ok := ParseDate(f.Date)
		if !ok {
			if strings.TrimSpace(f.Date) == "" {
				stats.undated++
			} else {
				stats.badDates++
			}
		}
		out[i] = dated{fight: f, index: i, at: at}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].at.Before(out[j].at)
	})
	return out, stats
}

// SortChronologically returns a copy of fights in processing order.
func SortChronologically(fights []model.Fight) []model.Fight {
	ordered, _ := chronological(fights)
	out := make([]model.Fight, len(ordered))
	for i, d := range ordered {
		out[i] = d.fight
	}
	return out
}
