// Package model contains domain models passed between layers.
package model

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
)

// Fight is one bout as produced by the acquisition side. Result is relative
// to Fighter1. Date is the raw calendar date string; it may be empty.
// Field tags mirror the fights.json files emitted by the event scraper.
type Fight struct {
	Event    string `json:"event,omitempty"`
	Fighter1 string `json:"fighter_1"`
	Fighter2 string `json:"fighter_2"`
	Result   string `json:"result"`
	Method   string `json:"method"`
	Date     string `json:"date,omitempty"`
	Round    string `json:"round,omitempty"`
	Time     string `json:"time,omitempty"`

	// methodSet is true when a decoded record carried a method key, even an
	// empty one.
	methodSet bool
}

// UnmarshalJSON decodes a record and remembers whether "method" was present.
// JSON null leaves f untouched.
func (f *Fight) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	type plain Fight
	var raw struct {
		plain
		Method *string `json:"method"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*f = Fight(raw.plain)
	if raw.Method != nil {
		f.Method = *raw.Method
		f.methodSet = true
	}
	return nil
}

// HasMethod reports whether the record names a method. A decoded record with
// an explicit empty method counts; it is rated as a decision.
func (f Fight) HasMethod() bool { return f.Method != "" || f.methodSet }

// Outcome is the normalized result of a fight from Fighter1's point of view.
type Outcome int

const (
	// OutcomeUnknown covers no-contests and anything unrecognized.
	OutcomeUnknown Outcome = iota
	OutcomeWin
	OutcomeLoss
	OutcomeDraw
)

// String returns the lowercase label used in logs and metrics.
func (o Outcome) String() string {
	switch o {
	case OutcomeWin:
		return "win"
	case OutcomeLoss:
		return "loss"
	case OutcomeDraw:
		return "draw"
	default:
		return "unknown"
	}
}

// MarshalText encodes the outcome as its label.
func (o Outcome) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

// ParseOutcome maps a raw result string (case-insensitive) to an Outcome.
func ParseOutcome(result string) Outcome {
	switch strings.ToLower(result) {
	case "win":
		return OutcomeWin
	case "loss":
		return OutcomeLoss
	case "draw":
		return OutcomeDraw
	default:
		return OutcomeUnknown
	}
}

// Outcome returns the parsed result of the fight.
func (f Fight) Outcome() Outcome { return ParseOutcome(f.Result) }

// fightNamespace scopes deterministic fight IDs.
var fightNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/okian/fightelo/fight"))

// ID returns a deterministic UUIDv5 over every field of the record, so two
// identical records share an ID and any differing field yields a new one.
func (f Fight) ID() string {
	key := strings.Join([]string{f.Event, f.Fighter1, f.Fighter2, f.Result, f.Method, f.Date, f.Round, f.Time}, "\x1f")
	return uuid.NewSHA1(fightNamespace, []byte(key)).String()
}

// HistoryEntry records one decisive fight from a competitor's point of view.
type HistoryEntry struct {
	Opponent    string  `json:"opponent"`
	Result      Outcome `json:"result"`
	RatingAfter float64 `json:"rating_after"`
}
