package validate

import (
	"errors"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"secondhand/internal/domain"
)

var (
	reQ  = regexp.MustCompile(`^[\p{L}0-9 _'&.,\\-]{1,50}$`)
	reID = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
)

// Q validates a search query: trims, enforces allowed characters and max length
func Q(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if r := []rune(s); len(r) > 50 {
		s = string(r[:50])
	}
	return s, reQ.MatchString(s)
}

// Qty parses a positive quantity. Zero, negatives and junk are rejected rather
// than clamped.
func Qty(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// ID validates a simple resource identifier (product/charge ids).
func ID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && reID.MatchString(s)
}

// Name validates a displayable seller name with a reasonable max length.
func Name(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > 40 {
		return "", false
	}
	return s, true
}

func Status(s string) (domain.ListingStatus, bool) {
	st := domain.ListingStatus(strings.ToLower(strings.TrimSpace(s)))
	return st, st.Valid()
}

// FieldErrors maps a json field name to a human message.
type FieldErrors map[string]string

func (f FieldErrors) Error() string {
	parts := make([]string, 0, len(f))
	for k, v := range f {
		parts = append(parts, k+": "+v)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

var v = newValidator()

func newValidator() *validator.Validate {
	vv := validator.New(validator.WithRequiredStructEnabled())
	vv.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	_ = vv.RegisterValidation("condition", func(fl validator.FieldLevel) bool {
		return domain.Condition(fl.Field().String()).Valid()
	})
	_ = vv.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		return domain.Category(fl.Field().String()).Valid()
	})
	_ = vv.RegisterValidation("cleaning", func(fl validator.FieldLevel) bool {
		return domain.CleaningStatus(fl.Field().String()).Valid()
	})
	return vv
}

// Struct runs tag validation and returns FieldErrors keyed by json name, or nil.
func Struct(s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return err
	}
	out := FieldErrors{}
	for _, fe := range ves {
		out[fe.Field()] = message(fe)
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gte":
		return "must be at least " + fe.Param()
	case "gtfield", "gtefield":
		return "must not be below " + fe.Param()
	case "max":
		return "is too long"
	case "condition", "category", "cleaning":
		return "is not an allowed value"
	}
	return "is invalid"
}
