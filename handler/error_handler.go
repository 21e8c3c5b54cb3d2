package handler

import (
	"errors"
	"net/http"
	"strconv"

	"skillswap-api/common"
	"skillswap-api/ratelimit"
	"skillswap-api/service"
)

func ErrorHandlingMiddleware(next func(http.ResponseWriter, *http.Request) *common.AppError) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := next(w, r); err != nil {
			err.Send(w)
		}
	}
}

// mapServiceError turns a session or limiter error into the response the client sees.
func mapServiceError(w http.ResponseWriter, err error, fallback string) *common.AppError {
	var tooMany *ratelimit.TooManyRequestsError
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		return common.NewAppError(http.StatusUnauthorized, "Invalid credentials", nil)
	case errors.Is(err, service.ErrEmailTaken):
		return common.NewAppError(http.StatusConflict, "Email is already registered", nil)
	case errors.Is(err, service.ErrUserNotFound):
		return common.NewAppError(http.StatusNotFound, "User not found", nil)
	case errors.As(err, &tooMany):
		w.Header().Set("Retry-After", strconv.Itoa(int(tooMany.RetryAfter.Seconds())))
		return common.NewAppError(http.StatusTooManyRequests, "Too many requests", nil)
	default:
		return common.NewAppError(http.StatusInternalServerError, fallback, err)
	}
}
