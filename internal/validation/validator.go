package validation

import (
	"regexp"
	"strings"

	validatorv10 "github.com/go-playground/validator/v10"
)

var phonePattern = regexp.MustCompile(`^\d{10}$`)

// IsValidPhone accepts exactly ten ASCII digits.
func IsValidPhone(s string) bool {
	return phonePattern.MatchString(s)
}

// New returns a configured validator. maxCopies bounds DocumentOptions.Copies.
func New(maxCopies int) *validatorv10.Validate {
	v := validatorv10.New()

	_ = v.RegisterValidation("phone10", func(fl validatorv10.FieldLevel) bool {
		return IsValidPhone(fl.Field().String())
	})
	_ = v.RegisterValidation("maxcopies", func(fl validatorv10.FieldLevel) bool {
		return maxCopies <= 0 || fl.Field().Int() <= int64(maxCopies)
	})

	// custom page ranges need the range text
	v.RegisterStructValidation(documentOptionsStructValidation, DocumentOptions{})

	return v
}

func documentOptionsStructValidation(sl validatorv10.StructLevel) {
	opts := sl.Current().Interface().(DocumentOptions)
	if opts.PageSelection == "Custom Pages" && strings.TrimSpace(opts.CustomPages) == "" {
		sl.ReportError(opts.CustomPages, "custom_pages", "CustomPages", "custom_pages_required", "")
	}
}
