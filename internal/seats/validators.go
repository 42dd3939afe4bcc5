package seats

import "github.com/go-playground/validator/v10"

// RegisterValidators adds the seat binding tags to v
func RegisterValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("seattier", func(fl validator.FieldLevel) bool {
		return Tier(fl.Field().String()).IsValid()
	}); err != nil {
		return err
	}
	return v.RegisterValidation("seatstatus", func(fl validator.FieldLevel) bool {
		return Status(fl.Field().String()).IsValid()
	})
}
