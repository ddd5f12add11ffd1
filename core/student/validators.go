package student

import (
	"regexp"

	"github.com/go-playground/validator/v10"

	"github.com/kavyasri378/student-profile-management1/core"
)

var (
	genderTag  = "gender"
	genderText = "gender must be one of: male, female, other"

	payMethodTag  = "paymethod"
	payMethodText = "payment method must be one of: cash, card, online, cheque"

	phone10Tag   = "phone10"
	phone10Text  = "a valid 10-digit phone number is required"
	phone10Regex = regexp.MustCompile(`^\d{10}$`)
)

func init() {
	_ = core.Validate.RegisterValidation(genderTag, genderValidation)
	core.RegisterCustomTranslation(genderTag, genderText)

	_ = core.Validate.RegisterValidation(payMethodTag, payMethodValidation)
	core.RegisterCustomTranslation(payMethodTag, payMethodText)

	_ = core.Validate.RegisterValidation(phone10Tag, phone10Validation)
	core.RegisterCustomTranslation(phone10Tag, phone10Text)
}

// Custom Validators

func genderValidation(fl validator.FieldLevel) bool {
	return Gender(fl.Field().String()).Valid()
}

func payMethodValidation(fl validator.FieldLevel) bool {
	return PaymentMethod(fl.Field().String()).Valid()
}

// phone10Validation only allows exactly 10 digits.
func phone10Validation(fl validator.FieldLevel) bool {
	return phone10Regex.MatchString(fl.Field().String())
}
