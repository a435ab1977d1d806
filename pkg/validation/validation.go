package validation

import (
	"errors"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
)

// Validator checks struct tags and renders failures as English sentences
// keyed by the json field name.
type Validator struct {
	engine *validator.Validate
	trans  ut.Translator
}

// New builds a Validator with the English translations registered.
func New() *Validator {
	engine := validator.New()
	engine.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	locale := en.New()
	trans, _ := ut.New(locale, locale).GetTranslator("en")
	_ = enTranslations.RegisterDefaultTranslations(engine, trans)
	return &Validator{engine: engine, trans: trans}
}

// Struct validates s.
func (v *Validator) Struct(s interface{}) error {
	return v.engine.Struct(s)
}

// Translate maps every failing field of err to a readable message. Errors
// that are not validation errors end up under "detail".
func (v *Validator) Translate(err error) map[string]string {
	fields := make(map[string]string)
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			fields[fe.Field()] = fe.Translate(v.trans)
		}
		return fields
	}
	if err != nil {
		fields["detail"] = err.Error()
	}
	return fields
}

// Describe joins the translated messages of err in field order.
func (v *Validator) Describe(err error) string {
	fields := v.Translate(err)
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fields[k])
	}
	return strings.Join(parts, "; ")
}
