package common

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// ValidateAndDecode decodes the JSON body into payload and runs its validate tags.
func ValidateAndDecode(r *http.Request, payload interface{}) *AppError {
	body := http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(payload); err != nil {
		return NewAppError(http.StatusBadRequest, "Invalid request body", nil)
	}

	if err := validate.Struct(payload); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return NewAppError(http.StatusBadRequest, validationErrors.Error(), nil)
		}
		return NewAppError(http.StatusBadRequest, "Invalid request body", err)
	}

	return nil
}
