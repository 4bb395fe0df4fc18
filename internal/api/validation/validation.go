package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// LabelPattern restricts issue labels to printable tokens GitHub accepts
var LabelPattern = regexp.MustCompile(`^[^\x00-\x1f,]{1,50}$`)

// New returns a validator with the project's custom rules registered and
// field names reported by their json tag
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "query"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return fld.Name
	})

	RegisterValidators(v)
	return v
}

// RegisterValidators registers all custom validators
func RegisterValidators(v *validator.Validate) {
	_ = v.RegisterValidation("notblank", ValidateNotBlank)
	_ = v.RegisterValidation("issue_label", ValidateIssueLabel)
}

// ValidateNotBlank rejects strings made only of whitespace
func ValidateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// ValidateIssueLabel checks one label of a new issue
func ValidateIssueLabel(fl validator.FieldLevel) bool {
	return LabelPattern.MatchString(fl.Field().String())
}

// Describe turns validator errors into a short human-readable sentence
func Describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describeField(fe))
	}
	return strings.Join(msgs, "; ")
}

func describeField(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return fmt.Sprintf("%s is required", fe.Field())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", fe.Field())
	case "http_url":
		return fmt.Sprintf("%s must be an http or https URL", fe.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param())
	case "gte", "lte":
		return fmt.Sprintf("%s is out of range", fe.Field())
	case "issue_label":
		return fmt.Sprintf("%s contains an invalid label", fe.Field())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}
