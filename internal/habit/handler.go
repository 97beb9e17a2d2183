// AngelaMos | 2026
// handler.go

package habit

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/habitmoney/habit-ledger/internal/core"
	"github.com/habitmoney/habit-ledger/internal/middleware"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// RegisterRoutes mounts the registry. GET and DELETE share the {id} segment:
// it is a user id for the listing and a habit id for the delete.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/habits", h.Create)
	r.With(middleware.RequireSelf("id")).Get("/habits/{id}", h.List)
	r.Delete("/habits/{id}", h.Delete)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateHabitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	if !middleware.CanActAs(r.Context(), req.UserID) {
		core.Forbidden(w, "cannot create habits for another user")
		return
	}

	created, err := h.service.Create(r.Context(), req.UserID, req.Name, *req.Value)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.Created(w, CreateHabitResponse{ID: created.ID})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	habits, err := h.service.List(r.Context(), userID)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToHabitResponseList(habits))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	habitID := chi.URLParam(r, "id")

	existing, err := h.service.Get(r.Context(), habitID)
	switch {
	case errors.Is(err, core.ErrNotFound):
		core.NoContent(w)
		return
	case err != nil:
		core.InternalServerError(w, err)
		return
	}

	if !middleware.CanActAs(r.Context(), existing.UserID) {
		core.Forbidden(w, "cannot delete another user's habit")
		return
	}

	if err := h.service.SoftDelete(r.Context(), habitID); err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.NoContent(w)
}
