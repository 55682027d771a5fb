package handlers

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
)

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
	})
	return validate
}

// validateSignup runs the registration field rules and returns a map of json
// field name to user-facing message. The backend re-checks everything; these
// rules only stop requests the signup form itself would have blocked.
func validateSignup(req registerRequest, now time.Time) map[string]string {
	out := make(map[string]string)

	err := validatorInstance().Struct(req)
	if errs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range errs {
			field := fe.Field()
			if _, seen := out[field]; seen {
				continue
			}
			out[field] = signupFieldMessage(field, fe.Tag())
		}
	} else if err != nil {
		out[""] = err.Error()
	}

	if _, pending := out["dob"]; !pending && req.DOB != "" {
		dob, ok := directory.ParseDOB(req.DOB)
		switch {
		case !ok:
			out["dob"] = "Please enter a valid date of birth"
		case dob.After(now):
			out["dob"] = "Date of birth cannot be in the future"
		}
	}

	if len(out) == 0 {
		return nil
	}
	return out
}

func signupFieldMessage(field, tag string) string {
	switch field {
	case "username":
		if tag == "required" {
			return "Username is required"
		}
		return "Username must be between 3 and 30 characters"
	case "email":
		if tag == "required" {
			return "Email is required"
		}
		return "Please enter a valid email address"
	case "phone":
		if tag == "required" {
			return "Phone number is required"
		}
		return "Phone number must be exactly 10 digits"
	case "dob":
		return "Date of birth is required"
	case "gender":
		return "Gender is required"
	case "password":
		if tag == "required" {
			return "Password is required"
		}
		return "Password must be at least 6 characters long"
	default:
		return field + " is invalid"
	}
}
