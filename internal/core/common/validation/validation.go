package validation

import (
	"fmt"

	errors "github.com/frahmantamala/emspay-gateway/internal"
)

// rule returns the message and code of a failed check, or ok.
type rule func(value interface{}) (message string, code errors.ErrorCode, ok bool)

// FieldValidator checks one request value. Rules run in the order they were
// added and stop at the first failure, so a field is reported at most once.
type FieldValidator struct {
	name  string
	value interface{}
	rules []rule
}

type ValidationBuilder struct {
	fields []*FieldValidator
}

func NewValidator() *ValidationBuilder {
	return &ValidationBuilder{}
}

func (v *ValidationBuilder) Field(name string, value interface{}) *FieldValidator {
	fv := &FieldValidator{name: name, value: value}
	v.fields = append(v.fields, fv)
	return fv
}

func (fv *FieldValidator) add(r rule) *FieldValidator {
	fv.rules = append(fv.rules, r)
	return fv
}

func (fv *FieldValidator) Required() *FieldValidator {
	return fv.add(func(value interface{}) (string, errors.ErrorCode, bool) {
		missing := false
		switch v := value.(type) {
		case string:
			missing = v == ""
		case *string:
			missing = v == nil || *v == ""
		case int64:
			missing = v == 0
		}
		return fmt.Sprintf("%s is required", fv.name), errors.ErrCodeValidationFailed, !missing
	})
}

func (fv *FieldValidator) MinInt(min int64, code errors.ErrorCode) *FieldValidator {
	return fv.add(func(value interface{}) (string, errors.ErrorCode, bool) {
		v, isInt := value.(int64)
		return fmt.Sprintf("%s must be at least %d", fv.name, min), code, !isInt || v >= min
	})
}

func (fv *FieldValidator) MaxLength(max int) *FieldValidator {
	return fv.add(func(value interface{}) (string, errors.ErrorCode, bool) {
		v, isString := value.(string)
		return fmt.Sprintf("%s must not exceed %d characters", fv.name, max), errors.ErrCodeValidationFailed, !isString || len(v) <= max
	})
}

// OneOf accepts a string that exactly matches one of allowed. Matching is
// case-sensitive. An empty string is left to Required.
func (fv *FieldValidator) OneOf(allowed []string, code errors.ErrorCode) *FieldValidator {
	return fv.add(func(value interface{}) (string, errors.ErrorCode, bool) {
		v, isString := value.(string)
		if !isString || v == "" {
			return "", "", true
		}
		for _, candidate := range allowed {
			if v == candidate {
				return "", "", true
			}
		}
		return fmt.Sprintf("%s %q is not allowed", fv.name, v), code, false
	})
}

func (fv *FieldValidator) check() *errors.ValidationError {
	for _, r := range fv.rules {
		if message, code, ok := r(fv.value); !ok {
			return &errors.ValidationError{Field: fv.name, Message: message, Code: string(code)}
		}
	}
	return nil
}

// Validate reports every failing field in one validation error.
func (v *ValidationBuilder) Validate() *errors.AppError {
	var failed []errors.ValidationError
	for _, field := range v.fields {
		if fe := field.check(); fe != nil {
			failed = append(failed, *fe)
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return errors.NewValidationError("Validation failed", errors.ErrCodeValidationFailed).
		WithDetails(errors.ValidationErrors{Errors: failed})
}

func ValidateOrderID(orderID int64) *errors.AppError {
	validator := NewValidator()
	validator.Field("order_id", orderID).
		Required().
		MinInt(1, errors.ErrCodeInvalidOrderID)
	return validator.Validate()
}
