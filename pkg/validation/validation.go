// Package validation wires go-playground/validator with French messages and JSON field names.
package validation

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/locales/fr"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	fr_translations "github.com/go-playground/validator/v10/translations/fr"

	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
)

const (
	notBlankTag  = "notblank"
	clockTimeTag = "clock"
)

// Validator bundles the validator instance with its French translator.
type Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

// New builds a validator reporting JSON field names and French messages.
func New() *Validator {
	validate := validator.New()

	locale := fr.New()
	uni := ut.New(locale, locale)
	translator, _ := uni.GetTranslator("fr")
	_ = fr_translations.RegisterDefaultTranslations(validate, translator)

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(notBlankTag, notBlank)
	_ = validate.RegisterValidation(clockTimeTag, clockTime)
	registerCustomTranslations(validate, translator)

	return &Validator{validate: validate, translator: translator}
}

// Engine exposes the underlying validator for services that only need struct checks.
func (v *Validator) Engine() *validator.Validate {
	return v.validate
}

// Struct validates a payload and converts failures into a 400 error with a per-field map.
func (v *Validator) Struct(payload interface{}) error {
	err := v.validate.Struct(payload)
	if err == nil {
		return nil
	}
	return v.Translate(err)
}

// Translate converts validator errors into the API error shape. Other errors become a plain
// validation error.
func (v *Validator) Translate(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, appErrors.ErrValidation.Message)
	}
	fields := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		key := fe.Field()
		if ns := fe.Namespace(); strings.Contains(ns, ".") {
			key = ns[strings.Index(ns, ".")+1:]
		}
		fields[key] = fe.Translate(v.translator)
	}
	out := appErrors.Validation(appErrors.ErrValidation.Message, fields)
	out.Err = err
	return out
}

func registerCustomTranslations(validate *validator.Validate, translator ut.Translator) {
	registerFn := func(ut.Translator) error { return nil }
	_ = validate.RegisterTranslation(notBlankTag, translator, registerFn, translateCustom)
	_ = validate.RegisterTranslation(clockTimeTag, translator, registerFn, translateCustom)
}

func translateCustom(_ ut.Translator, fe validator.FieldError) string {
	switch fe.Tag() {
	case notBlankTag:
		return fe.Field() + " ne peut pas être vide"
	case clockTimeTag:
		return fe.Field() + " doit être une heure au format HH:MM"
	default:
		return fe.Field() + " est invalide"
	}
}

func notBlank(fl validator.FieldLevel) bool {
	if str, ok := fl.Field().Interface().(string); ok {
		return strings.TrimSpace(str) != ""
	}
	return false
}

func clockTime(fl validator.FieldLevel) bool {
	str, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	_, err := time.Parse("15:04", str)
	return err == nil
}
