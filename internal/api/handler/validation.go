package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/Rrens/kb-assistant/internal/api/response"
)

var validate = validator.New()

// decodeAndValidate reads a JSON body into v and writes a 400 on failure
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		response.BadRequest(w, "invalid request body")
		return false
	}

	if err := validate.Struct(v); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			response.BadRequest(w, fieldErrors(validationErrors))
			return false
		}
		response.BadRequest(w, err.Error())
		return false
	}
	return true
}

func fieldErrors(validationErrors validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(validationErrors))
	for _, e := range validationErrors {
		field := e.Field()
		switch e.Tag() {
		case "required":
			out[field] = "field is required"
		case "max":
			out[field] = "must be at most " + e.Param() + " characters"
		case "oneof":
			out[field] = "must be one of: " + e.Param()
		default:
			out[field] = "validation failed on " + e.Tag()
		}
	}
	return out
}
