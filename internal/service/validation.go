package service

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/fr"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	frtranslations "github.com/go-playground/validator/v10/translations/fr"

	"github.com/rryowa/backoffice/internal/util"
)

// Validator checks request structs against their validate tags and reports
// field errors in French, keyed by json field name.
type Validator struct {
	validate *validator.Validate
	trans    ut.Translator
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	locale := fr.New()
	trans, _ := ut.New(locale, locale).GetTranslator(locale.Locale())
	if err := frtranslations.RegisterDefaultTranslations(v, trans); err != nil {
		panic(err)
	}

	return &Validator{validate: v, trans: trans}
}

func (v *Validator) Struct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return util.BadRequest("La requête est invalide")
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Translate(v.trans)
	}
	return util.Validation(fields)
}
