package api

import (
	"context"
	"net/http"

	"github.com/okian/fightelo/internal/domain/types"
)

// HistoryDependencies defines the interface for fight history lookups.
type HistoryDependencies interface {
	History(ctx context.Context, fighterID string) ([]types.HistoryItem, error)
}

// HistoryHandler handles history requests.
type HistoryHandler struct {
	deps HistoryDependencies
}

// NewHistoryHandler creates a new history handler.
func NewHistoryHandler(deps HistoryDependencies) *HistoryHandler {
	return &HistoryHandler{deps: deps}
}

type historyResponse struct {
	Fighter string              `json:"fighter"`
	Fights  []types.HistoryItem `json:"fights"`
}

// HandleGetHistory handles GET /history/{fighter} requests.
func (h *HistoryHandler) HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_history"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id, ok := fighterParam(r, "/history/")
	if !ok {
		writeError(w, http.StatusBadRequest, "bad_request", Wrap(op, ErrBadRequest))
		return
	}
	items, err := h.deps.History(r.Context(), id)
	if err != nil {
		writeLookupError(w, op, err)
		return
	}
	if items == nil {
		items = []types.HistoryItem{}
	}
	writeJSON(w, http.StatusOK, historyResponse{Fighter: id, Fights: items})
}
