package school

import (
	"errors"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/locales/fr"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	fr_translations "github.com/go-playground/validator/v10/translations/fr"

	"github.com/Spok95/gestion-scolaire/internal/models"
)

const (
	notBlankTag  = "notblank"
	notBlankText = "{0} ne peut pas être vide"
	roleTag      = "role"
	roleText     = "{0} doit être admin, teacher, student ou parent"
	statusTag    = "attendance_status"
	statusText   = "{0} doit être present, absent, late ou excused"
	wholeTag     = "wholenum"
	wholeText    = "{0} doit être un nombre entier"
)

type inputValidator struct {
	validate   *validator.Validate
	translator ut.Translator
}

func newValidator() *inputValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	locale := fr.New()
	uni := ut.New(locale, locale)
	trans, _ := uni.GetTranslator("fr")
	_ = fr_translations.RegisterDefaultTranslations(v, trans)

	// Use JSON tag names for errors instead of Go struct names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	iv := &inputValidator{validate: v, translator: trans}
	iv.register(notBlankTag, notBlankText, func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	iv.register(roleTag, roleText, func(fl validator.FieldLevel) bool {
		_, err := models.ParseRole(fl.Field().String())
		return err == nil
	})
	iv.register(statusTag, statusText, func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if s == "" {
			return true
		}
		_, err := models.ParseAttendanceStatus(s)
		return err == nil
	})
	iv.register(wholeTag, wholeText, func(fl validator.FieldLevel) bool {
		f := fl.Field().Float()
		return f == math.Trunc(f)
	})
	return iv
}

func (iv *inputValidator) register(tag, text string, fn validator.Func) {
	_ = iv.validate.RegisterValidation(tag, fn)
	_ = iv.validate.RegisterTranslation(
		tag, iv.translator,
		func(t ut.Translator) error { return t.Add(tag, text, true) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// Struct validates in and converts failures into a *ValidationError.
func (iv *inputValidator) Struct(in any) error {
	err := iv.validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &ValidationError{}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{
			Field:   fieldPath(fe),
			Reason:  fe.Tag(),
			Message: fe.Translate(iv.translator),
		})
	}
	return out
}

// fieldPath drops the root struct name: "SubmitGradeInput.moy_cl" → "moy_cl".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}
