package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/roguegoose-dev/goose-guidance/internal/failure"
)

// Fallback messages are safe to show to an end user as is.
const (
	ChatFallbackMessage = "Well now, looks like I'm having trouble speaking up. Try again in a bit."
	OCRFallbackMessage  = "Failed to process image with OCR."
	JobsFallbackMessage = "Those job search settings don't look right. Check them and try again."
	JobsFailureMessage  = "Job search is having trouble right now. Try again in a bit."
	noImageMessage      = "No image provided."
)

// HTTPStatus maps an error to an HTTP status code.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case failure.IsInvalidArgument(err):
		return http.StatusBadRequest
	case failure.IsUpstream(err):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// extractValidationErrors converts validator errors into an InvalidArgument
// naming the first offending field.
func extractValidationErrors(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) || len(validationErrs) == 0 {
		return failure.Invalid("", "%v", err)
	}

	messages := make([]string, 0, len(validationErrs))
	for _, ve := range validationErrs {
		messages = append(messages, fmt.Sprintf("%s failed on '%s'", ve.Field(), ve.Tag()))
	}
	return failure.Invalid(validationErrs[0].Field(), "%s", strings.Join(messages, "; "))
}
