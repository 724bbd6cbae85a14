package psu

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateConfig validates configuration parameters. Every failing field is
// reported; the returned error joins one message per field.
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}

	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]error, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldError(fe))
	}
	return errors.Join(msgs...)
}

func fieldError(fe validator.FieldError) error {
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s cannot be empty", fe.Namespace())
	case "len", "number":
		return fmt.Errorf("%s must be a two-digit number, got: %q", fe.Namespace(), fe.Value())
	case "gte":
		return fmt.Errorf("%s cannot be negative: %v", fe.Namespace(), fe.Value())
	case "oneof":
		return fmt.Errorf("%s must be one of [%s], got: %v", fe.Namespace(), fe.Param(), fe.Value())
	default:
		return fmt.Errorf("%s failed %q validation", fe.Namespace(), fe.Tag())
	}
}
