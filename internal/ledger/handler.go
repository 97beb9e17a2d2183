// AngelaMos | 2026
// handler.go

package ledger

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/habitmoney/habit-ledger/internal/core"
	"github.com/habitmoney/habit-ledger/internal/middleware"
)

const idempotencyHeader = "Idempotency-Key"

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

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/complete-habit", h.Complete)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireSelf("userID"))
		r.Get("/balance/{userID}", h.Balance)
		r.Post("/reset-balance/{userID}", h.Reset)
	})
}

func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	var req CompleteHabitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	if !middleware.CanActAs(r.Context(), req.UserID) {
		core.Forbidden(w, "cannot record completions for another user")
		return
	}

	key := strings.TrimSpace(r.Header.Get(idempotencyHeader))

	err := h.service.RecordCompletion(
		r.Context(),
		req.UserID,
		req.HabitID,
		*req.Value,
		key,
	)
	if errors.Is(err, core.ErrDuplicateKey) {
		core.JSONError(w, core.DuplicateError("completion"))
		return
	}
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, MessageResponse{Message: "completion recorded"})
}

func (h *Handler) Balance(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	balance, err := h.service.Balance(r.Context(), userID)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, BalanceResponse{Balance: balance})
}

func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	result, err := h.service.ResetBalance(r.Context(), userID)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToResetResponse(result))
}
