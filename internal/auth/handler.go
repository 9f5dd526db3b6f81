package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/keygate/keygate/internal/platform/httpx"
	"github.com/keygate/keygate/internal/shared"
	"github.com/keygate/keygate/internal/token"
	"github.com/keygate/keygate/internal/users"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger    *slog.Logger
	users     *users.Service
	issuer    *token.Issuer
	revoker   *token.Revoker
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, usersvc *users.Service, issuer *token.Issuer, revoker *token.Revoker) *Handler {
	return &Handler{
		logger:    logger,
		users:     usersvc,
		issuer:    issuer,
		revoker:   revoker,
		validator: httpx.NewValidator(),
	}
}

// MountRoutes registers the unauthenticated auth routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/login", h.handleLogin)
	r.Post("/register", h.handleRegister)
}

// MountProtectedRoutes registers auth routes that require a valid session.
func (h *Handler) MountProtectedRoutes(r chi.Router) {
	r.Post("/logout", h.handleLogout)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type loginResponse struct {
	AccessToken string        `json:"access_token"`
	TokenType   string        `json:"token_type"`
	ExpiresIn   int           `json:"expires_in"`
	User        users.Profile `json:"user"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Failure(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Failure(w, http.StatusUnprocessableEntity, httpx.FirstValidationError(err))
		return
	}

	user, err := h.users.VerifyCredentials(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, shared.ErrInvalidCredentials) {
			httpx.Failure(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		h.logger.Error("verify credentials", slog.Any("error", err))
		httpx.Failure(w, http.StatusInternalServerError, "Server Error")
		return
	}

	raw, err := h.issuer.Issue(user.ID)
	if err != nil {
		h.logger.Error("issue token", slog.Any("error", err))
		httpx.Failure(w, http.StatusInternalServerError, "Server Error")
		return
	}

	httpx.Success(w, http.StatusOK, "Logged Successfully", loginResponse{
		AccessToken: raw,
		TokenType:   "bearer",
		ExpiresIn:   int(h.issuer.TTL().Seconds()),
		User:        user.Profile(),
	})
}

type registerRequest struct {
	Name                 string `json:"name" validate:"required"`
	Email                string `json:"email" validate:"required,email"`
	Password             string `json:"password" validate:"required,min=6"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Failure(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Failure(w, http.StatusBadRequest, httpx.FirstValidationError(err))
		return
	}

	user, err := h.users.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		if !errors.Is(err, shared.ErrDuplicateEmail) {
			h.logger.Error("register user", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}

	httpx.Success(w, http.StatusCreated, "User successfully registered", user.Profile())
}

// handleLogout denylists the presented token for the remainder of its
// lifetime. The token itself stays cryptographically valid; the denylist is
// what makes the session unusable.
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	ident := shared.IdentityFromContext(r.Context())
	if ident == nil {
		httpx.Failure(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	if err := h.revoker.Revoke(r.Context(), ident.TokenID, ident.ExpiresAt); err != nil {
		h.logger.Error("revoke token", slog.Any("error", err))
		httpx.Failure(w, http.StatusInternalServerError, "Server Error")
		return
	}
	httpx.Success(w, http.StatusOK, "User successfully signed out", nil)
}
