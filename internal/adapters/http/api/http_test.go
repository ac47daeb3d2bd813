package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/okian/fightelo/internal/adapters/http/api"
	"github.com/okian/fightelo/internal/adapters/repository"
	"github.com/okian/fightelo/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

// mockRanking serves canned reads.
type mockRanking struct {
	entries    []types.Entry
	history    map[string][]types.HistoryItem
	stats      types.Stats
	err        error
	lastLimit  int
	lastLookup string
}

func (m *mockRanking) TopN(_ context.Context, n int) ([]types.Entry, error) {
	m.lastLimit = n
	if m.err != nil {
		return nil, m.err
	}
	if n > len(m.entries) {
		return m.entries, nil
	}
	return m.entries[:n], nil
}

func (m *mockRanking) Rank(_ context.Context, id string) (types.Entry, error) {
	m.lastLookup = id
	if m.err != nil {
		return types.Entry{}, m.err
	}
	for _, e := range m.entries {
		if e.FighterID == id {
			return e, nil
		}
	}
	return types.Entry{}, fmt.Errorf("rank %q: %w", id, repository.ErrNotFound)
}

func (m *mockRanking) History(_ context.Context, id string) ([]types.HistoryItem, error) {
	m.lastLookup = id
	if m.err != nil {
		return nil, m.err
	}
	items, ok := m.history[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return items, nil
}

func (m *mockRanking) GetStats(context.Context) types.Stats { return m.stats }

func newMock() *mockRanking {
	return &mockRanking{
		entries: []types.Entry{
			{Rank: 1, FighterID: "Jon Jones", Rating: 1290, PeakRating: 1301, Matches: 22},
			{Rank: 2, FighterID: "Georges St-Pierre", Rating: 1250, PeakRating: 1262, Matches: 20},
			{Rank: 2, FighterID: "Anderson Silva", Rating: 1250, PeakRating: 1280, Matches: 25},
		},
		history: map[string][]types.HistoryItem{
			"Jon Jones": {{Opponent: "Daniel Cormier", Result: "win", RatingAfter: 1290}},
			"Rookie":    nil,
		},
		stats: types.Stats{Started: true, Competitors: 3, Fights: 40},
	}
}

func serve(mux *http.ServeMux, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decodeError(w *httptest.ResponseRecorder) map[string]string {
	var body map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return body
}

func TestServer_Register(t *testing.T) {
	Convey("Given a new API server", t, func() {
		deps := newMock()
		mux := http.NewServeMux()
		api.NewServer(deps, 2).Register(context.Background(), mux)

		Convey("Then the health endpoint serves metrics", func() {
			w := serve(mux, http.MethodGet, "/healthz")
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("Then the stats endpoint returns the provider's stats", func() {
			w := serve(mux, http.MethodGet, "/stats")
			So(w.Code, ShouldEqual, http.StatusOK)
			var stats types.Stats
			So(json.Unmarshal(w.Body.Bytes(), &stats), ShouldBeNil)
			So(stats.Competitors, ShouldEqual, 3)
			So(stats.Fights, ShouldEqual, 40)
		})

		Convey("Then unknown paths are not found", func() {
			So(serve(mux, http.MethodGet, "/unknown").Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("Then writes are not routed", func() {
			So(serve(mux, http.MethodPost, "/leaderboard?limit=1").Code, ShouldEqual, http.StatusNotFound)
			So(serve(mux, http.MethodDelete, "/rank/Jon%20Jones").Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestLeaderboardHandler(t *testing.T) {
	Convey("Given the leaderboard endpoint capped at 2", t, func() {
		deps := newMock()
		mux := http.NewServeMux()
		api.NewServer(deps, 2).Register(context.Background(), mux)

		Convey("When asking for the top 2", func() {
			w := serve(mux, http.MethodGet, "/leaderboard?limit=2")

			Convey("Then the first two entries are returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldStartWith, "application/json")
				var entries []types.Entry
				So(json.Unmarshal(w.Body.Bytes(), &entries), ShouldBeNil)
				So(entries, ShouldResemble, deps.entries[:2])
			})
		})

		Convey("When the limit is omitted", func() {
			w := serve(mux, http.MethodGet, "/leaderboard")

			Convey("Then the default is capped by the maximum", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.lastLimit, ShouldEqual, 2)
			})
		})

		Convey("When the limit exceeds the maximum", func() {
			w := serve(mux, http.MethodGet, "/leaderboard?limit=3")

			Convey("Then it is rejected", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decodeError(w)["code"], ShouldEqual, "limit_exceeded")
			})
		})

		Convey("When the limit is not a positive integer", func() {
			for _, limit := range []string{"0", "-1", "ten", "1.5"} {
				w := serve(mux, http.MethodGet, "/leaderboard?limit="+limit)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decodeError(w)["code"], ShouldEqual, "bad_request")
			}
		})

		Convey("When the ranking fails", func() {
			deps.err = errors.New("boom")
			w := serve(mux, http.MethodGet, "/leaderboard?limit=1")

			Convey("Then a server error is returned", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				So(decodeError(w)["message"], ShouldContainSubstring, "boom")
			})
		})
	})
}

func TestRankHandler(t *testing.T) {
	Convey("Given the rank endpoint", t, func() {
		deps := newMock()
		mux := http.NewServeMux()
		api.NewServer(deps, 10).Register(context.Background(), mux)

		Convey("When the fighter name contains spaces", func() {
			w := serve(mux, http.MethodGet, "/rank/Anderson%20Silva")

			Convey("Then the decoded name is looked up", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.lastLookup, ShouldEqual, "Anderson Silva")
				var entry types.Entry
				So(json.Unmarshal(w.Body.Bytes(), &entry), ShouldBeNil)
				So(entry.Rank, ShouldEqual, 2)
				So(entry.PeakRating, ShouldEqual, 1280)
			})
		})

		Convey("When the fighter is unknown", func() {
			w := serve(mux, http.MethodGet, "/rank/Nobody")

			Convey("Then 404 is returned", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
				So(decodeError(w)["code"], ShouldEqual, "not_found")
			})
		})

		Convey("When the fighter segment is empty or nested", func() {
			So(serve(mux, http.MethodGet, "/rank/").Code, ShouldEqual, http.StatusBadRequest)
			So(serve(mux, http.MethodGet, "/rank/a/b").Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestHistoryHandler(t *testing.T) {
	Convey("Given the history endpoint", t, func() {
		deps := newMock()
		mux := http.NewServeMux()
		api.NewServer(deps, 10).Register(context.Background(), mux)

		Convey("When a fighter has decisive fights", func() {
			w := serve(mux, http.MethodGet, "/history/Jon%20Jones")

			Convey("Then they are listed", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(strings.TrimSpace(w.Body.String()), ShouldEqual,
					`{"fighter":"Jon Jones","fights":[{"opponent":"Daniel Cormier","result":"win","elo_after":1290}]}`)
			})
		})

		Convey("When a known fighter only has draws", func() {
			w := serve(mux, http.MethodGet, "/history/Rookie")

			Convey("Then an empty list is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(strings.TrimSpace(w.Body.String()), ShouldEqual, `{"fighter":"Rookie","fights":[]}`)
			})
		})

		Convey("When the fighter is unknown", func() {
			So(serve(mux, http.MethodGet, "/history/Nobody").Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestMetricsMiddleware(t *testing.T) {
	Convey("Given a wrapped handler that fails", t, func() {
		handler := api.MetricsMiddleware(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTeapot)
			_, _ = w.Write([]byte("short and stout"))
		}, "teapot")

		w := httptest.NewRecorder()
		handler(w, httptest.NewRequest(http.MethodGet, "/teapot", nil))

		Convey("Then the response passes through unchanged", func() {
			So(w.Code, ShouldEqual, http.StatusTeapot)
			So(w.Body.String(), ShouldEqual, "short and stout")
		})
	})
}

func TestWithRatingStore(t *testing.T) {
	Convey("Given the API over a real store", t, func() {
		ctx := context.Background()
		store := repository.NewRatingStore()
		store.Ensure(ctx, "A")
		store.Ensure(ctx, "B")
		store.SetRating(ctx, "A", 1030, true)
		store.SetRating(ctx, "B", 970, true)

		deps := &storeAdapter{store: store}
		mux := http.NewServeMux()
		api.NewServer(deps, 10).Register(ctx, mux)

		Convey("Then the leaderboard reflects the store", func() {
			w := serve(mux, http.MethodGet, "/leaderboard?limit=10")
			So(w.Code, ShouldEqual, http.StatusOK)
			var entries []types.Entry
			So(json.Unmarshal(w.Body.Bytes(), &entries), ShouldBeNil)
			So(entries, ShouldHaveLength, 2)
			So(entries[0].FighterID, ShouldEqual, "A")
			So(entries[1].Rank, ShouldEqual, 2)
		})

		Convey("Then a missing fighter maps to 404", func() {
			So(serve(mux, http.MethodGet, "/rank/C").Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

// storeAdapter exposes a RatingStore through the API read shapes.
type storeAdapter struct {
	store *repository.RatingStore
}

func (a *storeAdapter) TopN(ctx context.Context, n int) ([]types.Entry, error) {
	standings, err := a.store.TopN(ctx, n)
	if err != nil {
		return nil, err
	}
	out := make([]types.Entry, len(standings))
	for i, s := range standings {
		out[i] = types.Entry{Rank: s.Rank, FighterID: s.ID, Rating: s.Rating, PeakRating: s.PeakRating, Matches: s.MatchCount}
	}
	return out, nil
}

func (a *storeAdapter) Rank(ctx context.Context, id string) (types.Entry, error) {
	s, err := a.store.Rank(ctx, id)
	if err != nil {
		return types.Entry{}, err
	}
	return types.Entry{Rank: s.Rank, FighterID: s.ID, Rating: s.Rating, PeakRating: s.PeakRating, Matches: s.MatchCount}, nil
}

func (a *storeAdapter) History(ctx context.Context, id string) ([]types.HistoryItem, error) {
	h, err := a.store.History(ctx, id)
	if err != nil {
		return nil, err
	}
	out := make([]types.HistoryItem, len(h))
	for i, e := range h {
		out[i] = types.HistoryItem{Opponent: e.Opponent, Result: e.Result.String(), RatingAfter: e.RatingAfter}
	}
	return out, nil
}

func (a *storeAdapter) GetStats(ctx context.Context) types.Stats {
	return types.Stats{Competitors: a.store.Count(ctx)}
}
