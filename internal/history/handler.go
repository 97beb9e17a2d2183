// AngelaMos | 2026
// handler.go

package history

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/habitmoney/habit-ledger/internal/core"
	"github.com/habitmoney/habit-ledger/internal/middleware"
)

type Handler struct {
	reader *Reader
}

func NewHandler(reader *Reader) *Handler {
	return &Handler{reader: reader}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireSelf("userID"))
		r.Get("/history/{userID}", h.Pending)
		r.Get("/completed-history/{userID}/{resetID}", h.Archived)
		r.Get("/balance-history/{userID}", h.Resets)
	})
}

func (h *Handler) Pending(w http.ResponseWriter, r *http.Request) {
	entries, err := h.reader.Pending(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToEntryResponseList(entries))
}

func (h *Handler) Archived(w http.ResponseWriter, r *http.Request) {
	entries, err := h.reader.Archived(
		r.Context(),
		chi.URLParam(r, "userID"),
		chi.URLParam(r, "resetID"),
	)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToEntryResponseList(entries))
}

func (h *Handler) Resets(w http.ResponseWriter, r *http.Request) {
	receipts, err := h.reader.Resets(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToResetReceiptResponseList(receipts))
}
