package validation

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"
	"go.uber.org/multierr"

	"github.com/imrishuroy/printeasy-orderflow/internal/apperror"
)

// BindAndValidate binds JSON body into `out` and runs validation.
// If validation fails, it writes a 400 response and returns an error for the handler to short-circuit.
func BindAndValidate(c *gin.Context, out interface{}, v *validatorv10.Validate) error {
	if err := c.ShouldBindJSON(out); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid_request_body",
			"msg":   err.Error(),
		})
		return err
	}

	if err := v.Struct(out); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "validation_failed",
			"fields": validationErrorsToMap(err),
		})
		return err
	}
	return nil
}

func validationErrorsToMap(err error) map[string]string {
	out := map[string]string{}
	if ve, ok := err.(validatorv10.ValidationErrors); ok {
		for _, fe := range ve {
			out[fe.StructNamespace()] = message(fe)
		}
	} else {
		out["error"] = err.Error()
	}
	return out
}

// ToAppError converts validator output into ValidationErrors, one per field.
func ToAppError(err error) error {
	ve, ok := err.(validatorv10.ValidationErrors)
	if !ok {
		return &apperror.ValidationError{Message: err.Error()}
	}
	var out error
	for _, fe := range ve {
		out = multierr.Append(out, &apperror.ValidationError{Field: fe.Field(), Message: message(fe)})
	}
	return out
}

func message(fe validatorv10.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "phone10":
		return "must be exactly 10 digits"
	case "maxcopies":
		return "exceeds the maximum number of copies"
	case "custom_pages_required":
		return "page ranges are required for Custom Pages"
	case "oneof":
		return fmt.Sprintf("must be one of %s", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	default:
		return fe.Error()
	}
}
