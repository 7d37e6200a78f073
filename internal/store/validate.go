package store

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/saadjs/fittrack-cli/internal/model"
)

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = validate.RegisterValidation("activitytype", func(fl validator.FieldLevel) bool {
		return model.ActivityType(fl.Field().String()).Known()
	})
}

type FieldError struct {
	Field   string
	Message string
}

// ValidationError blocks a submission before it reaches the network.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Message)
	}
	return strings.Join(parts, "; ")
}

var fieldMessages = map[string]string{
	"type":           "Activity type must be one of RUNNING, WALKING, CYCLING, SWIMMING, WEIGHTLIFTING, WEIGHT_TRAINING, YOGA",
	"duration":       "Duration must be between 1 and 1440 minutes",
	"caloriesBurned": "Calories must be between 1 and 5000",
}

func ValidateActivityInput(in model.ActivityInput) error {
	return toValidationError(validate.Struct(in))
}

func ValidateActivityPatch(p model.ActivityPatch) error {
	if p.Empty() {
		return &ValidationError{Fields: []FieldError{{Field: "", Message: "Nothing to update"}}}
	}
	return toValidationError(validate.Struct(p))
}

func toValidationError(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate activity: %w", err)
	}
	out := &ValidationError{}
	for _, fe := range verrs {
		msg, ok := fieldMessages[fe.Field()]
		if !ok {
			msg = fmt.Sprintf("%s must satisfy %s", fe.Field(), fe.Tag())
		}
		out.Fields = append(out.Fields, FieldError{Field: fe.Field(), Message: msg})
	}
	return out
}
