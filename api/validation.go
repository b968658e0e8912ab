package api

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// getValidator returns the shared validator instance.
func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return field.Name
			}
			return name
		})
	})
	return validate
}

// RecommendationRequest is the body of POST /recommendations.
// GameID falls back to the configured default game when omitted.
type RecommendationRequest struct {
	UserPrompt string `json:"user_prompt" validate:"required,max=4000"`
	GameID     *int64 `json:"game_id" validate:"omitempty,gt=0"`
}

// validateStruct returns a readable message for the first failing fields, or "" if s is valid.
func validateStruct(s interface{}) string {
	err := getValidator().Struct(s)
	if err == nil {
		return ""
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err.Error()
	}

	messages := make([]string, 0, len(validationErrs))
	for _, fieldErr := range validationErrs {
		messages = append(messages, translateError(fieldErr))
	}
	return strings.Join(messages, "; ")
}

func translateError(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid (%s)", field, fe.Tag())
	}
}
