package auth

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/coursedesk/coursedesk/internal/platform/httpx"
	"github.com/coursedesk/coursedesk/internal/token"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	issuer    *token.Issuer
	throttle  *LoginThrottle
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, issuer *token.Issuer, throttle *LoginThrottle) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		issuer:    issuer,
		throttle:  throttle,
		validator: validator.New(),
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/login", h.handleLogin)
	r.Post("/register", h.handleRegister)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type registerRequest struct {
	Name     string `json:"name" validate:"required,min=2"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"required"`
}

type userPayload struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Email string   `json:"email"`
	Roles []string `json:"roles"`
}

type loginResponse struct {
	Token string      `json:"token"`
	User  userPayload `json:"user"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}

	allowed, err := h.throttle.Allow(r.Context(), req.Email)
	if err != nil {
		h.logger.Warn("login throttle check", slog.Any("error", err))
	}
	if !allowed {
		httpx.Problem(w, http.StatusTooManyRequests, "Too Many Requests", "too many failed login attempts, try again later")
		return
	}

	user, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if terr := h.throttle.RecordFailure(r.Context(), req.Email); terr != nil {
			h.logger.Warn("login throttle record", slog.Any("error", terr))
		}
		httpx.RespondError(w, err)
		return
	}
	if err := h.throttle.Reset(r.Context(), req.Email); err != nil {
		h.logger.Warn("login throttle reset", slog.Any("error", err))
	}

	signed, err := h.issuer.Issue(user.ID, user.Name, user.Email, user.Roles)
	if err != nil {
		h.logger.Error("issue token", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	httpx.JSON(w, http.StatusOK, loginResponse{
		Token: signed,
		User:  toUserPayload(user),
	})
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}

	user, err := h.service.Register(r.Context(), RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	httpx.JSON(w, http.StatusCreated, toUserPayload(user))
}

func toUserPayload(user *User) userPayload {
	roles := make([]string, len(user.Roles))
	for i, role := range user.Roles {
		roles[i] = string(role)
	}
	return userPayload{ID: user.ID, Name: user.Name, Email: user.Email, Roles: roles}
}
