package handler

import (
	"context"
	"net/http"

	"skillswap-api/common"
	"skillswap-api/model"
)

type ProfileService interface {
	GetProfile(ctx context.Context, userID int) (*model.User, error)
}

type UserHandler struct {
	profiles ProfileService
}

func NewUserHandler(profiles ProfileService) *UserHandler {
	return &UserHandler{profiles: profiles}
}

// Me godoc
// @Summary      Current user
// @Description  Returns the profile of the authenticated user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  model.User
// @Failure      401  {object}  common.AppError
// @Failure      404  {object}  common.AppError
// @Router       /api/me [get]
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Invalid user ID in token", nil)
	}

	user, err := h.profiles.GetProfile(r.Context(), userID)
	if err != nil {
		return mapServiceError(w, err, "Could not load profile")
	}

	common.WriteJSON(w, http.StatusOK, user)
	return nil
}
