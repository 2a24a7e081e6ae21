package events

import (
	"net/http"
	"strings"

	"github.com/noah-isme/backend-billing/internal/common"
)

// Handler exposes the activity feed.
type Handler struct {
	Store Store
}

// List returns recent events, newest first, optionally filtered by topic.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "event store not configured", nil)
		return
	}
	topic := strings.TrimSpace(r.URL.Query().Get("topic"))
	page, perPage := common.ParsePagination(r, 50)
	items, total, err := h.Store.ListEvents(r.Context(), topic, perPage, (page-1)*perPage)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "list events", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       items,
		"pagination": common.Pagination{Page: page, PerPage: perPage, TotalItems: int(total)},
	})
}
