// Package response contains the JSON bodies shared by the HTTP handlers and middleware.
package response

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

var (
	EmptyRequestBodyResponse   = ErrorResponse{Error: "Request body is empty"}
	InvalidRequestBodyResponse = ErrorResponse{Error: "Invalid request body"}
	URLRequiredResponse        = ErrorResponse{Error: "URL is required"}
	InvalidURLResponse         = ErrorResponse{Error: "URL is too long"}
	CustomCodeInUseResponse    = ErrorResponse{Error: "Custom code already in Use"}
	URLNotFoundResponse        = ErrorResponse{Error: "URL not Found"}
	CreateFailedResponse       = ErrorResponse{Error: "Failed to create the Short URL"}
	DeleteFailedResponse       = ErrorResponse{Error: "Failed to Delete the URL"}
	ServerErrorResponse        = ErrorResponse{Error: "An internal server error occurred"}
)

type ErrorResponse struct {
	Error  string            `json:"error"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ValidationError struct {
	Field string `json:"field"`
	Value any    `json:"value"`
	Issue string `json:"issue"`
}

func issueForTag(tag, param string) string {
	switch tag {
	case "required":
		return "This field is required."
	case "max":
		return "Must be at most " + param + " characters long."
	case "alphanum":
		return "Only letters and digits are allowed."
	case "notreserved":
		return "This value is reserved."
	default:
		return "Invalid value."
	}
}

func getValidationErrors(err error) []ValidationError {
	var validationErrs []ValidationError

	var errs validator.ValidationErrors
	if errors.As(err, &errs) {
		for _, e := range errs {
			validationErrs = append(validationErrs, ValidationError{
				Field: e.Field(),
				Value: e.Value(),
				Issue: issueForTag(e.Tag(), e.Param()),
			})
		}
	}

	return validationErrs
}

// ValidationErrorResponse builds the body for a request that failed struct validation.
func ValidationErrorResponse(err error) ErrorResponse {
	return ErrorResponse{
		Error:  "Validation error",
		Errors: getValidationErrors(err),
	}
}
