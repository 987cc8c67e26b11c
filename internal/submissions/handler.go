package submissions

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/coursedesk/coursedesk/internal/authz"
	"github.com/coursedesk/coursedesk/internal/platform/httpx"
)

// Handler wires HTTP endpoints for submissions.
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

// MountRoutes registers submission routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.guard.Require(authz.PermSubmissionsCreate)).Post("/", h.create)
	r.With(h.guard.Require(authz.PermSubmissionsView)).Get("/mine", h.listMine)
	r.With(h.guard.Require(authz.PermSubmissionsView)).Get("/{id}", h.get)
	r.With(h.guard.Require(authz.PermSubmissionsGrade)).Put("/{id}/grade", h.grade)
}

// MountAssignmentRoutes registers the roster route under the assignments
// subtree.
func (h *Handler) MountAssignmentRoutes(r chi.Router) {
	r.With(h.guard.Require(authz.PermSubmissionsView)).Get("/{assignmentID}/submissions", h.listForAssignment)
}

type createRequest struct {
	AssignmentID string `json:"assignmentId" validate:"required"`
	Content      string `json:"content" validate:"required"`
}

type gradeRequest struct {
	Grade int `json:"grade" validate:"min=0,max=100"`
}

type submissionPayload struct {
	ID           string     `json:"id"`
	AssignmentID string     `json:"assignmentId"`
	StudentID    string     `json:"studentId"`
	StudentName  string     `json:"studentName"`
	Content      string     `json:"content"`
	Grade        *int       `json:"grade,omitempty"`
	Status       string     `json:"status"`
	SubmittedAt  time.Time  `json:"submittedAt"`
	GradedAt     *time.Time `json:"gradedAt,omitempty"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	principal, _ := authz.PrincipalFromContext(r.Context())
	sub, err := h.service.Create(r.Context(), principal, CreateInput{AssignmentID: req.AssignmentID, Content: req.Content})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toPayload(sub))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	principal, _ := authz.PrincipalFromContext(r.Context())
	sub, err := h.service.Get(r.Context(), principal, chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toPayload(sub))
}

func (h *Handler) listMine(w http.ResponseWriter, r *http.Request) {
	principal, _ := authz.PrincipalFromContext(r.Context())
	list, err := h.service.ListMine(r.Context(), principal)
	if err != nil {
		h.logger.Error("list own submissions", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toPayloads(list))
}

func (h *Handler) listForAssignment(w http.ResponseWriter, r *http.Request) {
	principal, _ := authz.PrincipalFromContext(r.Context())
	list, err := h.service.ListForAssignment(r.Context(), principal, chi.URLParam(r, "assignmentID"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toPayloads(list))
}

func (h *Handler) grade(w http.ResponseWriter, r *http.Request) {
	var req gradeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	principal, _ := authz.PrincipalFromContext(r.Context())
	sub, err := h.service.Grade(r.Context(), principal, chi.URLParam(r, "id"), req.Grade)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toPayload(sub))
}

func toPayload(sub *Submission) submissionPayload {
	return submissionPayload{
		ID:           sub.ID,
		AssignmentID: sub.AssignmentID,
		StudentID:    sub.StudentID,
		StudentName:  sub.StudentName,
		Content:      sub.Content,
		Grade:        sub.Grade,
		Status:       string(sub.Status),
		SubmittedAt:  sub.SubmittedAt,
		GradedAt:     sub.GradedAt,
	}
}

func toPayloads(list []Submission) []submissionPayload {
	out := make([]submissionPayload, len(list))
	for i := range list {
		out[i] = toPayload(&list[i])
	}
	return out
}
