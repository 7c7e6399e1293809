package child

import (
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/jhsobrinho/educareapp-sub009/core"
)

var (
	birthDateTag  = "birthdate"
	birthDateText = "{0} must be a past date formatted as YYYY-MM-DD"

	nowFunc = time.Now // mockable
)

// InitValidators registers the child validators & their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(birthDateTag, birthDateValidation)
	core.RegisterCustomTranslation(validate, translator, birthDateTag, birthDateText)
}

// birthDateValidation checks that the field is a YYYY-MM-DD date that is not in the future.
func birthDateValidation(fl validator.FieldLevel) bool {
	date, err := ParseBirthDate(fl.Field().String())
	if err != nil {
		return false
	}
	return !date.After(nowFunc().UTC())
}
