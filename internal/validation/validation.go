package validation

import (
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	allowedEmail = regexp.MustCompile(`(?i)@(?:duoc\.cl|profesor\.duoc\.cl|gmail\.com)$`)
	runNoise     = regexp.MustCompile(`[^0-9K]`)
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	validate.RegisterValidation("run", func(fl validator.FieldLevel) bool {
		return IsRUNValid(fl.Field().String())
	})
	validate.RegisterValidation("allowed_email", func(fl validator.FieldLevel) bool {
		return IsEmailAllowed(fl.Field().String())
	})
	validate.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		_, err := time.Parse("2006-01-02", fl.Field().String())
		return err == nil
	})
}

// IsEmailAllowed reports whether the email belongs to an accepted domain
func IsEmailAllowed(email string) bool {
	return allowedEmail.MatchString(strings.TrimSpace(email))
}

// CleanRUN uppercases a RUN and strips everything but digits and K
func CleanRUN(run string) string {
	return runNoise.ReplaceAllString(strings.ToUpper(run), "")
}

// RUNCheckDigit computes the modulo-11 check character for a numeric body
func RUNCheckDigit(body string) (string, bool) {
	sum, multiplier := 0, 2
	for i := len(body) - 1; i >= 0; i-- {
		d, err := strconv.Atoi(body[i : i+1])
		if err != nil {
			return "", false
		}
		sum += d * multiplier
		if multiplier == 7 {
			multiplier = 2
		} else {
			multiplier++
		}
	}

	switch rest := 11 - sum%11; rest {
	case 11:
		return "0", true
	case 10:
		return "K", true
	default:
		return strconv.Itoa(rest), true
	}
}

// IsRUNValid validates a RUN (with or without dots and dash) against its check digit
func IsRUNValid(run string) bool {
	cleaned := CleanRUN(run)
	if len(cleaned) < 7 || len(cleaned) > 9 {
		return false
	}
	body, dv := cleaned[:len(cleaned)-1], cleaned[len(cleaned)-1:]
	expected, ok := RUNCheckDigit(body)
	return ok && expected == dv
}

// Errors maps a field name to a user-facing message
type Errors map[string]string

// Add records msg for field unless the field already has a message
func (e Errors) Add(field, msg string) {
	if _, exists := e[field]; !exists {
		e[field] = msg
	}
}

// Empty reports whether no field failed
func (e Errors) Empty() bool {
	return len(e) == 0
}

func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+e[f])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Struct validates s using its validate tags and returns per-field messages
func Struct(s interface{}) Errors {
	errs := Errors{}
	err := validate.Struct(s)
	if err == nil {
		return errs
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		errs.Add("_", err.Error())
		return errs
	}
	for _, fe := range fieldErrs {
		errs.Add(fe.Field(), message(fe))
	}
	return errs
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return "Invalid email format"
	case "allowed_email":
		return "Email domain is not allowed"
	case "run":
		return "Invalid RUN"
	case "isodate":
		return "Date must use the YYYY-MM-DD format"
	case "min":
		return fe.Field() + " must be at least " + fe.Param() + " characters"
	case "max":
		return fe.Field() + " must be at most " + fe.Param() + " characters"
	default:
		return fe.Field() + " is invalid"
	}
}
