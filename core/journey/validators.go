package journey

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/jhsobrinho/educareapp-sub009/core"
)

var (
	dimensionTag  = "dimension"
	dimensionText = "{0} must be a valid dimension"

	answerTag  = "answer"
	answerText = "{0} must be 1 (yes), 2 (sometimes) or 3 (no)"
)

// InitValidators registers the journey validators & their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(dimensionTag, func(fl validator.FieldLevel) bool {
		return Dimension(fl.Field().String()).IsValid()
	})
	core.RegisterCustomTranslation(validate, translator, dimensionTag, dimensionText)

	_ = validate.RegisterValidation(answerTag, func(fl validator.FieldLevel) bool {
		return Answer(fl.Field().Int()).IsValid()
	})
	core.RegisterCustomTranslation(validate, translator, answerTag, answerText)
}
