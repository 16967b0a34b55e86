package controllers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/cppla/docqa/services"
)

// bindError turns a gin binding failure into a 422 with a readable detail.
func bindError(err error) *services.Error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return services.Validation("Invalid request body", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return services.Validation(strings.Join(msgs, "; "), err)
}

func fieldMessage(fe validator.FieldError) string {
	field := jsonName(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + ": field required"
	case "email":
		return field + ": value is not a valid email address"
	case "max":
		return fmt.Sprintf("%s: must be at most %s characters", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s: must be at least %s characters", field, fe.Param())
	default:
		return field + ": invalid value"
	}
}

// jsonName maps a Go field name such as DocumentID to document_id.
func jsonName(field string) string {
	var sb strings.Builder
	runes := []rune(field)
	for i, r := range runes {
		upper := r >= 'A' && r <= 'Z'
		if upper && i > 0 {
			prevLower := runes[i-1] >= 'a' && runes[i-1] <= 'z'
			nextLower := i+1 < len(runes) && runes[i+1] >= 'a' && runes[i+1] <= 'z'
			if prevLower || nextLower {
				sb.WriteByte('_')
			}
		}
		if upper {
			r += 'a' - 'A'
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
