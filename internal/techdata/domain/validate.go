package domain

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateFieldValue checks a proposed value against the field's required
// flag, select options and validation rule. Called at the HTTP layer before
// a mutation reaches the store; store operations assume validated input.
func ValidateFieldValue(f *Field, value any) error {
	if f.Required && isEmptyValue(value) {
		return fmt.Errorf("field %q is required", f.ID)
	}
	if isEmptyValue(value) {
		return nil
	}

	if f.Type == FieldTypeSelect && len(f.Options) > 0 {
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("field %q expects one of its options", f.ID)
		}
		for _, opt := range f.Options {
			if opt == s {
				return nil
			}
		}
		return fmt.Errorf("field %q: %q is not a valid option", f.ID, s)
	}

	if f.ValidationRule == "" {
		return nil
	}
	if err := validate.Var(value, f.ValidationRule); err != nil {
		return fmt.Errorf("field %q: value does not satisfy rule %q", f.ID, f.ValidationRule)
	}
	return nil
}

func isEmptyValue(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case []string:
		return len(t) == 0
	case []any:
		return len(t) == 0
	default:
		return false
	}
}
