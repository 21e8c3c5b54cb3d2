package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"skillswap-api/model"
	"skillswap-api/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestUserHandler_Me(t *testing.T) {
	withUser := func(id int) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		return req.WithContext(context.WithValue(req.Context(), UserIDKey, id))
	}

	t.Run("profile", func(t *testing.T) {
		profiles := new(MockProfileService)
		profiles.On("GetProfile", mock.Anything, 3).
			Return(&model.User{ID: 3, Name: "Grace", Email: "grace@example.com", Password: "hash"}, nil).Once()
		h := NewUserHandler(profiles)

		rr := httptest.NewRecorder()
		ErrorHandlingMiddleware(h.Me).ServeHTTP(rr, withUser(3))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"email":"grace@example.com"`)
		assert.NotContains(t, rr.Body.String(), "hash")
	})

	t.Run("deleted user", func(t *testing.T) {
		profiles := new(MockProfileService)
		profiles.On("GetProfile", mock.Anything, 4).Return(nil, service.ErrUserNotFound).Once()
		h := NewUserHandler(profiles)

		rr := httptest.NewRecorder()
		ErrorHandlingMiddleware(h.Me).ServeHTTP(rr, withUser(4))

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}
