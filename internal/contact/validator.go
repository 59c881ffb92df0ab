package contact

import (
	"errors"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// emailRegex is a deliberately conservative shape check: one run of
// non-whitespace/non-@ characters, an @, a domain with at least one dot.
// It mirrors the check the site's form performs client-side.
var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// checkedFields mirrors SanitizedFields with validation tags. Consent
// uses required on purpose: a false checkbox and an absent one are both
// refusals.
type checkedFields struct {
	Name    string `validate:"required"`
	Email   string `validate:"required,contact_email"`
	Message string `validate:"required"`
	Consent bool   `validate:"required"`
}

// validate is the shared validator instance for contact submissions.
var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterValidation("contact_email", func(fl validator.FieldLevel) bool {
		return emailRegex.MatchString(fl.Field().String())
	})
}

// Validate checks the sanitized fields against the form's contract:
// name, email and message are required, email must have a plausible
// shape, and consent must be explicitly given. All failures are
// collected in one pass so the form can highlight every offending
// field at once. It never panics and is deterministic.
func Validate(fields SanitizedFields) ValidationResult {
	err := validate.Struct(checkedFields{
		Name:    fields.Name,
		Email:   fields.Email,
		Message: fields.Message,
		Consent: fields.Consent,
	})
	if err == nil {
		return ValidationResult{Valid: true}
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		// InvalidValidationError cannot happen for a struct value;
		// treat it as a blanket failure rather than panicking.
		return ValidationResult{Valid: false, FieldErrors: map[string]ErrorKind{"_": ErrFormat}}
	}

	fieldErrs := make(map[string]ErrorKind, len(verrs))
	for _, fe := range verrs {
		name := strings.ToLower(fe.StructField())
		switch {
		case name == "consent":
			fieldErrs[name] = ErrConsent
		case fe.Tag() == "required":
			fieldErrs[name] = ErrRequired
		default:
			fieldErrs[name] = ErrFormat
		}
	}
	return ValidationResult{Valid: false, FieldErrors: fieldErrs}
}
