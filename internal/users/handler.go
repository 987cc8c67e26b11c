package users

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/coursedesk/coursedesk/internal/authz"
	"github.com/coursedesk/coursedesk/internal/platform/httpx"
)

// Handler manages the admin user management endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	guard     authz.Middleware
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard authz.Middleware) *Handler {
	return &Handler{logger: logger, service: service, guard: guard, validator: validator.New()}
}

// MountRoutes registers user management routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(authz.PermUsersView))
		r.Get("/users", h.listUsers)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(authz.PermUsersEdit))
		r.Post("/users", h.createUser)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(authz.PermRolesEdit))
		r.Post("/users/{userID}/roles/{role}", h.assignRole)
		r.Delete("/users/{userID}/roles/{role}", h.removeRole)
	})
}

type userPayload struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	IsActive bool     `json:"isActive"`
	Roles    []string `json:"roles"`
}

type createUserRequest struct {
	Name     string `json:"name" validate:"required,min=2"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"required"`
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListUsers(r.Context())
	if err != nil {
		h.logger.Error("list users", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	payload := make([]userPayload, len(list))
	for i, user := range list {
		payload[i] = toPayload(&user)
	}
	httpx.JSON(w, http.StatusOK, payload)
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	principal, _ := authz.PrincipalFromContext(r.Context())
	user, err := h.service.CreateUser(r.Context(), principal.UserID, CreateUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toPayload(user))
}

func (h *Handler) assignRole(w http.ResponseWriter, r *http.Request) {
	principal, _ := authz.PrincipalFromContext(r.Context())
	user, err := h.service.AssignRole(r.Context(), principal.UserID, chi.URLParam(r, "userID"), chi.URLParam(r, "role"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toPayload(user))
}

func (h *Handler) removeRole(w http.ResponseWriter, r *http.Request) {
	principal, _ := authz.PrincipalFromContext(r.Context())
	user, err := h.service.RemoveRole(r.Context(), principal.UserID, chi.URLParam(r, "userID"), chi.URLParam(r, "role"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toPayload(user))
}

func toPayload(user *User) userPayload {
	roles := make([]string, len(user.Roles))
	for i, role := range user.Roles {
		roles[i] = string(role)
	}
	return userPayload{ID: user.ID, Name: user.Name, Email: user.Email, IsActive: user.IsActive, Roles: roles}
}
