package handlers

import (
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/mamadbah2/rental/internal/domain/models"
)

// RegisterValidators adds the "period" (YYYY-MM) and "ymd" (YYYY-MM-DD) tags to gin's validator.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	if err := v.RegisterValidation("period", layoutValidator(models.PeriodLayout)); err != nil {
		return err
	}
	return v.RegisterValidation("ymd", layoutValidator(models.DateLayout))
}

func layoutValidator(layout string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		if value == "" {
			return true
		}
		_, err := time.Parse(layout, value)
		return err == nil
	}
}
