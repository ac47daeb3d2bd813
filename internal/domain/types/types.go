// Package types contains common read shapes shared by the service and the HTTP API.
package types

import "time"

// Entry represents one row of the published ranking.
type Entry struct {
	Rank       int     `json:"rank"`
	FighterID  string  `json:"fighter"`
	Rating     float64 `json:"elo"`
	PeakRating float64 `json:"peak_elo"`
	Matches    int     `json:"matches"`
}

// HistoryItem is one decisive fight in a fighter's record.
type HistoryItem struct {
	Opponent    string  `json:"opponent"`
	Result      string  `json:"result"`
	RatingAfter float64 `json:"elo_after"`
}

// Stats summarizes the published ranking and the rebuild that produced it.
type Stats struct {
	Started     bool      `json:"started"`
	Sources     []string  `json:"sources"`
	Competitors int       `json:"competitors"`
	Fights      int       `json:"fights"`
	Decisive    int       `json:"decisive"`
	Draws       int       `json:"draws"`
	Unknown     int       `json:"unknown"`
	Invalid     int       `json:"invalid"`
	Duplicates  int       `json:"duplicates"`
	Undated     int       `json:"undated"`
	BadDates    int       `json:"bad_dates"`
	Rebuilds    int64     `json:"rebuilds"`
	LastRebuild time.Time `json:"last_rebuild"`
	RebuildMS   int64     `json:"rebuild_ms"`
}
