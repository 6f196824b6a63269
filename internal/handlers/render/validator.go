package render

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

func configureValidator(validate *validator.Validate) {
	_ = validate.RegisterValidation("msisdn", validateWalletHandle)
	validate.RegisterTagNameFunc(useJSONTagNames)
}

func useJSONTagNames(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	// skip if tag key says it should be ignored
	if name == "-" {
		return ""
	}
	return name
}

// validateWalletHandle accepts phone-number style handles:
// 7 to 15 digits with an optional leading plus
func validateWalletHandle(fl validator.FieldLevel) bool {
	handle := fl.Field().String()

	handle, _ = strings.CutPrefix(handle, "+")
	if len(handle) < 7 || len(handle) > 15 {
		return false
	}

	for i := 0; i < len(handle); i++ {
		if handle[i] < '0' || handle[i] > '9' {
			return false
		}
	}

	return true
}
