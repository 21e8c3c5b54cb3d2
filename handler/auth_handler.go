package handler

import (
	"context"
	"net/http"

	"skillswap-api/common"
	"skillswap-api/logger"
	"skillswap-api/model"
	"skillswap-api/service"
)

// SessionService is the part of service.AuthService the HTTP layer drives.
type SessionService interface {
	Register(ctx context.Context, req model.RegisterRequest) (*service.AuthResult, error)
	Login(ctx context.Context, email, password string) (*service.AuthResult, error)
	RefreshSession(ctx context.Context, rawRefreshToken string) (*service.AuthResult, error)
	RevokeRefreshToken(ctx context.Context, rawRefreshToken string) error
	RevokeAllSessions(ctx context.Context, userID int) error
}

type AuthHandler struct {
	sessions SessionService
}

func NewAuthHandler(sessions SessionService) *AuthHandler {
	return &AuthHandler{sessions: sessions}
}

// Register godoc
// @Summary      Register a new user
// @Description  Creates a user account and opens its first session
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        user  body      model.RegisterRequest  true  "Registration payload"
// @Success      201   {object}  service.AuthResult
// @Failure      400   {object}  common.AppError
// @Failure      409   {object}  common.AppError
// @Failure      429   {object}  common.AppError
// @Router       /register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.RegisterRequest
	if appErr := common.ValidateAndDecode(r, &req); appErr != nil {
		return appErr
	}

	result, err := h.sessions.Register(r.Context(), req)
	if err != nil {
		return mapServiceError(w, err, "Could not register user")
	}

	common.WriteJSON(w, http.StatusCreated, result)
	return nil
}

// Login godoc
// @Summary      Log in
// @Description  Authenticates with email and password and returns a token pair
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        credentials  body      model.LoginRequest  true  "Login credentials"
// @Success      200          {object}  service.AuthResult
// @Failure      400          {object}  common.AppError
// @Failure      401          {object}  common.AppError
// @Failure      429          {object}  common.AppError
// @Router       /login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.LoginRequest
	if appErr := common.ValidateAndDecode(r, &req); appErr != nil {
		return appErr
	}

	result, err := h.sessions.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		return mapServiceError(w, err, "Could not log in")
	}

	common.WriteJSON(w, http.StatusOK, result)
	return nil
}

// Refresh godoc
// @Summary      Rotate a refresh token
// @Description  Consumes the refresh token and returns a new token pair. A token can be used once.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        token  body      model.RefreshRequest  true  "Refresh token"
// @Success      200    {object}  service.AuthResult
// @Failure      400    {object}  common.AppError
// @Failure      401    {object}  common.AppError
// @Failure      429    {object}  common.AppError
// @Router       /api/token/refresh [post]
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.RefreshRequest
	if appErr := common.ValidateAndDecode(r, &req); appErr != nil {
		return appErr
	}

	result, err := h.sessions.RefreshSession(r.Context(), req.RefreshToken)
	if err != nil {
		return mapServiceError(w, err, "Could not refresh session")
	}

	common.WriteJSON(w, http.StatusOK, result)
	return nil
}

// Logout godoc
// @Summary      Log out
// @Description  Revokes the given refresh token. Unknown tokens are ignored.
// @Tags         auth
// @Accept       json
// @Param        token  body  model.RefreshRequest  true  "Refresh token"
// @Success      204
// @Failure      400  {object}  common.AppError
// @Router       /api/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.RefreshRequest
	if appErr := common.ValidateAndDecode(r, &req); appErr != nil {
		return appErr
	}

	if err := h.sessions.RevokeRefreshToken(r.Context(), req.RefreshToken); err != nil {
		return mapServiceError(w, err, "Could not log out")
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}

// LogoutAll godoc
// @Summary      Log out everywhere
// @Description  Revokes every refresh token of the authenticated user
// @Tags         auth
// @Security     BearerAuth
// @Success      204
// @Failure      401  {object}  common.AppError
// @Router       /api/logout/all [post]
func (h *AuthHandler) LogoutAll(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Invalid user ID in token", nil)
	}

	if err := h.sessions.RevokeAllSessions(r.Context(), userID); err != nil {
		return mapServiceError(w, err, "Could not log out")
	}

	logger.Log.WithField("user_id", userID).Info("Logout from all sessions requested")
	w.WriteHeader(http.StatusNoContent)
	return nil
}
