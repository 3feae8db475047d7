package response

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

func TestValidationErrorResponse(t *testing.T) {
	type req struct {
		URL        string `json:"url" validate:"required,max=20"`
		CustomCode string `json:"custom_code" validate:"omitempty,max=10,alphanum"`
	}

	validate := validator.New()

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	tests := []struct {
		name string
		req  req
		want []ValidationError
	}{
		{
			name: "not validation error",
			req: req{
				URL: "example.com",
			},
		},
		{
			name: "one error",
			req: req{
				URL: "",
			},
			want: []ValidationError{
				{
					Field: "url",
					Value: "",
					Issue: "This field is required.",
				},
			},
		},
		{
			name: "two errors",
			req: req{
				URL:        "https://example.com/very/long",
				CustomCode: "my-code",
			},
			want: []ValidationError{
				{
					Field: "url",
					Value: "https://example.com/very/long",
					Issue: "Must be at most 20 characters long.",
				},
				{
					Field: "custom_code",
					Value: "my-code",
					Issue: "Only letters and digits are allowed.",
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validate.Struct(tt.req)
			got := ValidationErrorResponse(err)

			assert.Equal(t, "Validation error", got.Error)
			assert.Equal(t, tt.want, got.Errors)
		})
	}
}

func TestValidationErrorResponse_NotValidationError(t *testing.T) {
	got := ValidationErrorResponse(errors.New("unknown error"))

	assert.Equal(t, "Validation error", got.Error)
	assert.Empty(t, got.Errors)
}
