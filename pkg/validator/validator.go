package validator

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/medrelay/session-api/internal/model"
)

// RegisterBindings installs custom validation rules on gin's binding
// engine. Call once at startup before serving requests.
func RegisterBindings() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}

	if err := v.RegisterValidation("vitaltype", func(fl validator.FieldLevel) bool {
		return model.VitalType(fl.Field().String()).IsValid()
	}); err != nil {
		return err
	}

	return v.RegisterValidation("notetype", func(fl validator.FieldLevel) bool {
		return model.NoteType(fl.Field().String()).IsValid()
	})
}
