package auth

import (
	"log/slog"
	"net/http"

	"github.com/FACorreiaa/go-auth-service/internal/api"
	"github.com/FACorreiaa/go-auth-service/internal/types"
)

type AuthHandler struct {
	AuthService AuthService
	logger      *slog.Logger
}

func NewAuthHandler(authService AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		logger:      logger,
		AuthService: authService,
	}
}

// writeServiceError maps a service failure to its status code. Details of
// internal failures stay in the logs.
func (h *AuthHandler) writeServiceError(w http.ResponseWriter, r *http.Request, l *slog.Logger, err error) {
	ctx := r.Context()
	switch types.KindOf(err) {
	case types.KindValidation:
		api.ErrorResponse(w, r, http.StatusBadRequest, validationMessage(err))
	case types.KindUserAlreadyExists:
		api.ErrorResponse(w, r, http.StatusConflict, "User already exists")
	case types.KindInvalidCredentials:
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Invalid credentials")
	case types.KindTokenExpired:
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Token expired.")
	case types.KindTokenInvalid:
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Invalid token.")
	case types.KindConfiguration:
		l.ErrorContext(ctx, "Server configuration error", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Server configuration error.")
	default:
		l.ErrorContext(ctx, "Request failed", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Internal server error")
	}
}

// Register godoc
// @Summary      Register a new user
// @Description  Creates an account and returns it together with a bearer token.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body body RegisterRequest true "Registration details"
// @Success      201 {object} types.AuthResult
// @Failure      400 {object} types.Response "Validation error"
// @Failure      409 {object} types.Response "User already exists"
// @Failure      500 {object} types.Response "Internal Server Error"
// @Router       /auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "Register"))

	var req RegisterRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Failed to decode request", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	result, err := h.AuthService.Register(ctx, req.Email, req.Password, req.Name)
	if err != nil {
		h.writeServiceError(w, r, l, err)
		return
	}

	api.WriteJSONResponse(w, r, http.StatusCreated, result)
}

// Login godoc
// @Summary      Log in
// @Description  Verifies credentials and returns the user together with a bearer token.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body body LoginRequest true "Credentials"
// @Success      200 {object} types.AuthResult
// @Failure      400 {object} types.Response "Validation error"
// @Failure      401 {object} types.Response "Invalid credentials"
// @Failure      500 {object} types.Response "Internal Server Error"
// @Router       /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "Login"))

	var req LoginRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Failed to decode request", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	result, err := h.AuthService.Login(ctx, req.Email, req.Password)
	if err != nil {
		h.writeServiceError(w, r, l, err)
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, result)
}

// Me godoc
// @Summary      Current user
// @Description  Returns the user identified by the bearer token.
// @Tags         Auth
// @Produce      json
// @Success      200 {object} types.CurrentUserResponse
// @Failure      401 {object} types.Response "Unauthorized"
// @Failure      404 {object} types.Response "User not found"
// @Failure      500 {object} types.Response "Internal Server Error"
// @Security     BearerAuth
// @Router       /auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "Me"))

	userID, ok := GetUserIDFromContext(ctx)
	if !ok || userID == "" {
		l.WarnContext(ctx, "User ID not found in context")
		api.ErrorResponse(w, r, http.StatusUnauthorized, "User not authenticated")
		return
	}

	user, err := h.AuthService.GetCurrentUser(ctx, userID)
	if err != nil {
		h.writeServiceError(w, r, l, err)
		return
	}
	if user == nil {
		// A valid token can outlive its account.
		attrs := []any{slog.String("userID", userID)}
		if claims, ok := GetClaimsFromContext(ctx); ok {
			attrs = append(attrs, slog.String("email", claims.Email))
		}
		l.WarnContext(ctx, "Token refers to a missing user", attrs...)
		api.ErrorResponse(w, r, http.StatusNotFound, "User not found")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, types.CurrentUserResponse{User: user})
}
