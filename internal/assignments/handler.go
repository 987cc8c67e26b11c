package assignments

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/coursedesk/coursedesk/internal/authz"
	"github.com/coursedesk/coursedesk/internal/platform/httpx"
)

// Handler wires HTTP endpoints for assignments.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	guard     authz.Middleware
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard authz.Middleware) *Handler {
	return &Handler{logger: logger, service: service, guard: guard, validator: validator.New()}
}

// MountRoutes registers assignment routes. Each route declares exactly one
// required permission.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.guard.Require(authz.PermAssignmentsCreate)).Post("/", h.create)
	r.With(h.guard.Require(authz.PermAssignmentsView)).Get("/", h.list)
	r.With(h.guard.Require(authz.PermAssignmentsView)).Get("/{id}", h.get)
	r.With(h.guard.Require(authz.PermAssignmentsUpdate)).Put("/{id}", h.update)
	r.With(h.guard.Require(authz.PermAssignmentsDelete)).Delete("/{id}", h.delete)
}

type assignmentRequest struct {
	Title       string    `json:"title" validate:"required,min=3"`
	Description string    `json:"description"`
	DueDate     time.Time `json:"dueDate" validate:"required"`
}

type assignmentPayload struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DueDate     time.Time `json:"dueDate"`
	TeacherID   string    `json:"teacherId"`
	TeacherName string    `json:"teacherName"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	req, principal, ok := h.decode(w, r)
	if !ok {
		return
	}
	a, err := h.service.Create(r.Context(), principal, Input{Title: req.Title, Description: req.Description, DueDate: req.DueDate})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toPayload(a))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	principal, _ := authz.PrincipalFromContext(r.Context())
	list, err := h.service.List(r.Context(), principal)
	if err != nil {
		h.logger.Error("list assignments", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	payload := make([]assignmentPayload, len(list))
	for i := range list {
		payload[i] = toPayload(&list[i])
	}
	httpx.JSON(w, http.StatusOK, payload)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	principal, _ := authz.PrincipalFromContext(r.Context())
	view, err := h.service.Get(r.Context(), principal, chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	req, principal, ok := h.decode(w, r)
	if !ok {
		return
	}
	a, err := h.service.Update(r.Context(), principal, chi.URLParam(r, "id"), Input{Title: req.Title, Description: req.Description, DueDate: req.DueDate})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toPayload(a))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	principal, _ := authz.PrincipalFromContext(r.Context())
	if err := h.service.Delete(r.Context(), principal, chi.URLParam(r, "id")); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (assignmentRequest, authz.Principal, bool) {
	var req assignmentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return req, authz.Principal{}, false
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return req, authz.Principal{}, false
	}
	principal, _ := authz.PrincipalFromContext(r.Context())
	return req, principal, true
}

func toPayload(a *Assignment) assignmentPayload {
	return assignmentPayload{
		ID:          a.ID,
		Title:       a.Title,
		Description: a.Description,
		DueDate:     a.DueDate,
		TeacherID:   a.TeacherID,
		TeacherName: a.TeacherName,
	}
}
