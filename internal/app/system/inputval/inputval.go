// Package inputval validates decoded request bodies with struct tags and
// reports failures as field errors keyed by JSON name.
package inputval

import (
	"errors"
	"net/url"
	"reflect"
	"strings"

	"github.com/dalemusser/pathway/internal/domain/apperr"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	validate   *validator.Validate
	translator ut.Translator

	// custom validation tags
	notBlankTag = "notblank"
	httpURLTag  = "httpurl"
)

func init() {
	validate = validator.New()

	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(notBlankTag, func(fl validator.FieldLevel) bool {
		s, ok := fl.Field().Interface().(string)
		return ok && strings.TrimSpace(s) != ""
	})
	_ = validate.RegisterValidation(httpURLTag, func(fl validator.FieldLevel) bool {
		return IsValidHTTPURL(fl.Field().String())
	})

	// The default translations are already registered, so the register
	// func is a no-op.
	registerFn := func(ut.Translator) error { return nil }
	for _, tag := range []string{notBlankTag, httpURLTag} {
		_ = validate.RegisterTranslation(tag, translator, registerFn, translateCustom)
	}
}

func translateCustom(_ ut.Translator, fe validator.FieldError) string {
	switch fe.Tag() {
	case notBlankTag:
		return "this field cannot be blank"
	case httpURLTag:
		return "must be an http or https URL"
	}
	return "is invalid"
}

// FieldError is one failed field.
type FieldError struct {
	Field   string
	Message string
}

// Result holds the failures of one Validate call.
type Result struct {
	Errors []FieldError
}

// HasErrors reports whether any field failed.
func (r *Result) HasErrors() bool { return len(r.Errors) > 0 }

// First returns the first message, or "".
func (r *Result) First() string {
	if len(r.Errors) == 0 {
		return ""
	}
	return r.Errors[0].Message
}

// All joins every message with "; ".
func (r *Result) All() string {
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Message
	}
	return strings.Join(msgs, "; ")
}

// Err converts the result into an apperr validation error, or nil.
func (r *Result) Err() error {
	if !r.HasErrors() {
		return nil
	}
	fields := make([]apperr.FieldError, len(r.Errors))
	for i, e := range r.Errors {
		fields[i] = apperr.FieldError{Field: e.Field, Error: e.Message}
	}
	return apperr.Validation("invalid input", fields...)
}

// Validate checks v's `validate` tags.
func Validate(v any) *Result {
	res := &Result{}
	err := validate.Struct(v)
	if err == nil {
		return res
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		res.Errors = append(res.Errors, FieldError{Message: err.Error()})
		return res
	}
	for _, fe := range verrs {
		res.Errors = append(res.Errors, FieldError{Field: fe.Field(), Message: fe.Translate(translator)})
	}
	return res
}

// Check is Validate(v).Err().
func Check(v any) error {
	return Validate(v).Err()
}

// IsValidHTTPURL accepts absolute http and https URLs.
func IsValidHTTPURL(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
