package dialog

import (
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/vantagehq/console/internal/directory"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate

	// referenceTime carries the clock into the custom adult rule; guarded
	// by validateMu because validator funcs take no extra arguments.
	validateMu    sync.Mutex
	referenceTime time.Time
)

const adultAge = 18

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		validate.RegisterValidation("adult", func(fl validator.FieldLevel) bool {
			dob, ok := directory.ParseDOB(fl.Field().String())
			if !ok {
				return false
			}
			return directory.Age(dob, referenceTime) >= adultAge
		})
	})
	return validate
}

// ValidateDraft runs the field rules against a draft and returns a map of
// json field name to user-facing message. An empty map means the draft is
// submittable.
func ValidateDraft(d Draft, now time.Time) map[string]string {
	validateMu.Lock()
	defer validateMu.Unlock()
	referenceTime = now

	err := validatorInstance().Struct(d)
	if err == nil {
		return nil
	}

	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{"": err.Error()}
	}

	out := make(map[string]string, len(errs))
	for _, fe := range errs {
		field := fe.Field()
		if _, seen := out[field]; seen {
			continue
		}
		out[field] = fieldMessage(field, fe.Tag())
	}
	return out
}

func fieldMessage(field, tag string) string {
	switch field {
	case "username":
		if tag == "required" {
			return "Username is required"
		}
		return "Username must be 3-20 characters"
	case "email":
		if tag == "required" {
			return "Email is required"
		}
		return "Please enter a valid email address"
	case "phone":
		if tag == "required" {
			return "Phone number is required"
		}
		return "Phone number must be 10 digits"
	case "dob":
		if tag == "required" {
			return "Date of birth is required"
		}
		return "User must be at least 18 years old"
	case "gender":
		return "Gender is required"
	default:
		return field + " is invalid"
	}
}
