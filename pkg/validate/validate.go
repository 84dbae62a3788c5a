// Package validate runs go-playground/validator struct-tag validation and
// flattens the result into a field -> message map keyed by JSON field name.
//
// Besides the stock validator rules it registers:
//
//	slug        lowercase letters, digits, hyphens and underscores
//
// and teaches the validator to read decimal.Decimal as a float64, so numeric
// rules work on money fields:
//
//	type Input struct {
//	    Title string          `json:"title" validate:"required,max=255"`
//	    Price decimal.Decimal `json:"price" validate:"required,gt=0"`
//	    Slug  string          `json:"slug"  validate:"required,slug"`
//	}
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var (
	once     sync.Once
	instance *validator.Validate
)

var slugRE = regexp.MustCompile(`^[a-z0-9]+(?:[-_][a-z0-9]+)*$`)

func engine() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())

		v.RegisterTagNameFunc(jsonFieldName)

		v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
			if d, ok := field.Interface().(decimal.Decimal); ok {
				f, _ := d.Float64()
				return f
			}
			return nil
		}, decimal.Decimal{})

		_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
			return slugRE.MatchString(fl.Field().String())
		})

		instance = v
	})
	return instance
}

// Struct validates v and returns fieldName -> message. An empty map means v is valid.
func Struct(v interface{}) map[string]string {
	errs := make(map[string]string)

	err := engine().Struct(v)
	if err == nil {
		return errs
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		// InvalidValidationError: v was not a struct. Nothing to report per field.
		return errs
	}

	for _, fe := range verrs {
		name := fieldPath(fe)
		if _, seen := errs[name]; seen {
			continue // first failing rule per field
		}
		errs[name] = message(name, fe)
	}
	return errs
}

// HasErrors returns true when the errs map is non-empty.
func HasErrors(errs map[string]string) bool { return len(errs) > 0 }

func message(field string, fe validator.FieldError) string {
	param := fe.Param()

	switch fe.Tag() {
	case "required", "required_without", "required_if":
		return fmt.Sprintf("The %s field is required.", field)
	case "email":
		return fmt.Sprintf("The %s must be a valid email address.", field)
	case "slug":
		return fmt.Sprintf("The %s may only contain lowercase letters, numbers, dashes, and underscores.", field)
	case "alphanum":
		return fmt.Sprintf("The %s field must contain only letters and numbers.", field)
	case "min":
		if isNumeric(fe.Kind()) {
			return fmt.Sprintf("The %s must be at least %s.", field, param)
		}
		return fmt.Sprintf("The %s must be at least %s characters.", field, param)
	case "max":
		if isNumeric(fe.Kind()) {
			return fmt.Sprintf("The %s must not be greater than %s.", field, param)
		}
		return fmt.Sprintf("The %s must not exceed %s characters.", field, param)
	case "gt":
		return fmt.Sprintf("The %s must be greater than %s.", field, param)
	case "gte":
		return fmt.Sprintf("The %s must be greater than or equal to %s.", field, param)
	case "lt":
		return fmt.Sprintf("The %s must be less than %s.", field, param)
	case "lte":
		return fmt.Sprintf("The %s must be less than or equal to %s.", field, param)
	case "oneof":
		return fmt.Sprintf("The selected %s is invalid.", field)
	default:
		return fmt.Sprintf("The %s is invalid.", field)
	}
}

// fieldPath drops the top-level struct name from the namespace so nested
// fields read as "items.0.quantity" instead of "Input.items[0].quantity".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if idx := strings.IndexByte(ns, '.'); idx != -1 {
		ns = ns[idx+1:]
	}
	ns = strings.NewReplacer("[", ".", "]", "").Replace(ns)
	if ns == "" {
		return fe.Field()
	}
	return ns
}

func jsonFieldName(f reflect.StructField) string {
	name := f.Tag.Get("json")
	if name == "-" {
		return ""
	}
	if idx := strings.Index(name, ","); idx != -1 {
		name = name[:idx]
	}
	if name == "" {
		return strings.ToLower(f.Name)
	}
	return name
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
