package validation

import (
	"errors"
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

const (
	MinUsernameLength = 3
	MaxUsernameLength = 50

	MinPasswordLength = 8
	// bcrypt ignores everything past 72 bytes
	MaxPasswordLength = 72
)

// PasswordProblem describes why password fails the strength policy, or returns ""
// when it passes.
func PasswordProblem(password string) string {
	if len(password) < MinPasswordLength {
		return "must be at least 8 characters"
	}
	if len(password) > MaxPasswordLength {
		return "must be at most 72 bytes"
	}

	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			special = true
		}
	}
	switch {
	case !upper:
		return "must contain an uppercase letter"
	case !lower:
		return "must contain a lowercase letter"
	case !digit:
		return "must contain a number"
	case !special:
		return "must contain a special character"
	}
	return ""
}

// UsernameProblem describes why username is unusable, or returns "". Usernames
// share the login identifier namespace with emails, so they never contain '@'.
func UsernameProblem(username string) string {
	n := utf8.RuneCountInString(username)
	switch {
	case n < MinUsernameLength:
		return "must be at least 3 characters"
	case n > MaxUsernameLength:
		return "must be at most 50 characters"
	case strings.ContainsRune(username, '@'):
		return "must not contain @"
	}
	return ""
}

// Register adds the custom tags to v and reports fields by their JSON name.
func Register(v *validator.Validate) error {
	v.RegisterTagNameFunc(jsonFieldName)
	if err := v.RegisterValidation("strongpassword", func(fl validator.FieldLevel) bool {
		return PasswordProblem(fl.Field().String()) == ""
	}); err != nil {
		return err
	}
	return v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return UsernameProblem(fl.Field().String()) == ""
	})
}

func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := Register(v); err != nil {
		panic(err)
	}
	return v
}

// Fields flattens validator errors into field -> message. Errors of any other type
// are reported under "body".
func Fields(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"body": "malformed request body"}
	}

	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = message(fe)
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "strongpassword":
		if problem := PasswordProblem(fe.Value().(string)); problem != "" {
			return problem
		}
		return "is too weak"
	case "username":
		if problem := UsernameProblem(stringValue(fe.Value())); problem != "" {
			return problem
		}
		return "is invalid"
	default:
		return "is invalid"
	}
}

func jsonFieldName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}

func stringValue(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case *string:
		if s != nil {
			return *s
		}
	}
	return ""
}
