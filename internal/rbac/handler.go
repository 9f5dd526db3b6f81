package rbac

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/keygate/keygate/internal/platform/httpx"
	"github.com/keygate/keygate/internal/shared"
	"github.com/keygate/keygate/internal/users"
)

// Handler wires the role/permission management and check endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	evaluator *Evaluator
	users     *users.Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, evaluator *Evaluator, usersvc *users.Service) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		evaluator: evaluator,
		users:     usersvc,
		validator: httpx.NewValidator(),
	}
}

// MountAdminRoutes registers the super-admin management endpoints. The
// caller is expected to wrap them in RequireAuth + RequireSuperAdmin.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.Get("/permissions", h.listPermissions)
	r.Post("/permission/create", h.createPermission)
	r.Post("/permission/assign", h.assignPermissions)
	r.Post("/permission/can", h.checkPermission)
	r.Get("/roles", h.listRoles)
	r.Post("/role/create", h.createRole)
	r.Post("/role/assign", h.assignRoles)
	r.Post("/role/can", h.checkRole)
}

// MountAuthedRoutes registers the self-check endpoints available to any
// authenticated caller.
func (h *Handler) MountAuthedRoutes(r chi.Router) {
	r.Post("/permission/can", h.checkOwnPermission)
	r.Post("/role/can", h.checkOwnRole)
}

func (h *Handler) listPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := h.service.ListPermissions(r.Context())
	if err != nil {
		h.logger.Error("list permissions", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if perms == nil {
		perms = []Permission{}
	}
	httpx.Success(w, http.StatusOK, "", perms)
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.service.ListRoles(r.Context())
	if err != nil {
		h.logger.Error("list roles", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if roles == nil {
		roles = []Role{}
	}
	httpx.Success(w, http.StatusOK, "", roles)
}

type createPermissionRequest struct {
	Name string `json:"name" validate:"required"`
}

func (h *Handler) createPermission(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeValid[createPermissionRequest](h, w, r)
	if !ok {
		return
	}
	perm, err := h.service.CreatePermission(r.Context(), req.Name)
	if err != nil {
		h.respondServiceError(w, "create permission", err)
		return
	}
	httpx.Success(w, http.StatusCreated, "Permission Created Successfully", perm)
}

type createRoleRequest struct {
	Name        string  `json:"name" validate:"required,min=3"`
	Permissions []int64 `json:"permissions" validate:"required,min=1,dive,gt=0"`
}

func (h *Handler) createRole(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeValid[createRoleRequest](h, w, r)
	if !ok {
		return
	}
	role, err := h.service.CreateRole(r.Context(), req.Name, req.Permissions)
	if err != nil {
		h.respondServiceError(w, "create role", err)
		return
	}
	httpx.Success(w, http.StatusCreated, "Role Create Sucessfully", role)
}

type assignPermissionsRequest struct {
	UserID      int64   `json:"user_id" validate:"required,gt=0"`
	Permissions []int64 `json:"permissions" validate:"required,min=1,dive,gt=0"`
}

func (h *Handler) assignPermissions(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeValid[assignPermissionsRequest](h, w, r)
	if !ok {
		return
	}
	if err := h.service.AssignPermissions(r.Context(), req.UserID, req.Permissions); err != nil {
		h.respondServiceError(w, "assign permissions", err)
		return
	}
	h.respondWithUser(w, r, req.UserID, "Assign Permissions to User Successfully")
}

type assignRolesRequest struct {
	UserID int64   `json:"user_id" validate:"required,gt=0"`
	Roles  []int64 `json:"roles" validate:"required,min=1,dive,gt=0"`
}

func (h *Handler) assignRoles(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeValid[assignRolesRequest](h, w, r)
	if !ok {
		return
	}
	if err := h.service.AssignRoles(r.Context(), req.UserID, req.Roles); err != nil {
		h.respondServiceError(w, "assign roles", err)
		return
	}
	h.respondWithUser(w, r, req.UserID, "Assign roles to User Successfully")
}

type checkPermissionRequest struct {
	UserID     int64 `json:"user_id" validate:"required,gt=0"`
	Permission int64 `json:"permission" validate:"required,gt=0"`
}

// checkPermission answers "does user U hold permission P" for a super-admin
// caller naming the target user.
func (h *Handler) checkPermission(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeValid[checkPermissionRequest](h, w, r)
	if !ok {
		return
	}
	if !h.requireUser(w, r, req.UserID) {
		return
	}
	has, err := h.evaluator.HasPermission(r.Context(), req.UserID, req.Permission)
	if err != nil {
		h.respondServiceError(w, "check permission", err)
		return
	}
	respondPermissionCheck(w, has)
}

type checkRoleRequest struct {
	UserID int64 `json:"user_id" validate:"required,gt=0"`
	Role   int64 `json:"role" validate:"required,gt=0"`
}

// checkRole answers "does user U hold role R" for a super-admin caller
// naming the target user.
func (h *Handler) checkRole(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeValid[checkRoleRequest](h, w, r)
	if !ok {
		return
	}
	if !h.requireUser(w, r, req.UserID) {
		return
	}
	has, err := h.evaluator.HasRole(r.Context(), req.UserID, req.Role)
	if err != nil {
		h.respondServiceError(w, "check role", err)
		return
	}
	respondRoleCheck(w, has)
}

type checkOwnPermissionRequest struct {
	Permission int64 `json:"permission" validate:"required,gt=0"`
}

// checkOwnPermission is the self-check variant: the target is the caller
// identity resolved from the bearer token, no elevated privilege needed.
func (h *Handler) checkOwnPermission(w http.ResponseWriter, r *http.Request) {
	ident := shared.IdentityFromContext(r.Context())
	if ident == nil {
		httpx.Failure(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	req, ok := decodeValid[checkOwnPermissionRequest](h, w, r)
	if !ok {
		return
	}
	has, err := h.evaluator.HasPermission(r.Context(), ident.UserID, req.Permission)
	if err != nil {
		h.respondServiceError(w, "check own permission", err)
		return
	}
	respondPermissionCheck(w, has)
}

type checkOwnRoleRequest struct {
	Role int64 `json:"role" validate:"required,gt=0"`
}

func (h *Handler) checkOwnRole(w http.ResponseWriter, r *http.Request) {
	ident := shared.IdentityFromContext(r.Context())
	if ident == nil {
		httpx.Failure(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	req, ok := decodeValid[checkOwnRoleRequest](h, w, r)
	if !ok {
		return
	}
	has, err := h.evaluator.HasRole(r.Context(), ident.UserID, req.Role)
	if err != nil {
		h.respondServiceError(w, "check own role", err)
		return
	}
	respondRoleCheck(w, has)
}

func respondPermissionCheck(w http.ResponseWriter, has bool) {
	if has {
		httpx.Success(w, http.StatusOK, "User has this permission", nil)
		return
	}
	httpx.Failure(w, http.StatusForbidden, "User Not has this permission")
}

func respondRoleCheck(w http.ResponseWriter, has bool) {
	if has {
		httpx.Success(w, http.StatusOK, "User has this role", nil)
		return
	}
	httpx.Failure(w, http.StatusForbidden, "User Not has this role")
}

// requireUser resolves the named target user, translating a miss into the
// 400 unknown-user failure.
func (h *Handler) requireUser(w http.ResponseWriter, r *http.Request, userID int64) bool {
	if _, err := h.users.FindByID(r.Context(), userID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			httpx.RespondError(w, shared.ErrUnknownUser)
			return false
		}
		h.logger.Error("resolve user", slog.Any("error", err))
		httpx.RespondError(w, err)
		return false
	}
	return true
}

func (h *Handler) respondWithUser(w http.ResponseWriter, r *http.Request, userID int64, message string) {
	user, err := h.users.FindByID(r.Context(), userID)
	if err != nil {
		h.logger.Error("load user after assign", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.Success(w, http.StatusOK, message, user.Profile())
}

func (h *Handler) respondServiceError(w http.ResponseWriter, op string, err error) {
	if !isDomainError(err) {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

func isDomainError(err error) bool {
	return errors.Is(err, shared.ErrDuplicateName) ||
		errors.Is(err, shared.ErrUnknownUser) ||
		errors.Is(err, shared.ErrUnknownRole) ||
		errors.Is(err, shared.ErrUnknownPermission) ||
		errors.Is(err, shared.ErrNotFound)
}

func decodeValid[T any](h *Handler, w http.ResponseWriter, r *http.Request) (T, bool) {
	var req T
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Failure(w, http.StatusBadRequest, "invalid request body")
		return req, false
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Failure(w, http.StatusBadRequest, httpx.FirstValidationError(err))
		return req, false
	}
	return req, true
}
