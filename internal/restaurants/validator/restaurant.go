package validator

import (
	"tablereserve/internal/scheduling"
	"tablereserve/pkg/logger"
	"tablereserve/pkg/model"
	"tablereserve/pkg/validation"
)

type RestaurantValidator struct {
	v *validation.Validator
}

func NewRestaurantValidator(log *logger.Logger) *RestaurantValidator {
	v := validation.New(log)
	log.Info("Restaurant validator initialized successfully")
	return &RestaurantValidator{v: v}
}

// Validate checks field rules and that the restaurant opens before it closes.
func (rv *RestaurantValidator) Validate(restaurant *model.Restaurant) error {
	if err := rv.v.Struct(restaurant); err != nil {
		return err
	}
	if err := scheduling.ValidateHours(restaurant.OpenTime, restaurant.CloseTime); err != nil {
		return validation.ValidationErrors{
			validation.ValidationError{
				Field:   "closetime",
				Message: "closetime must be later than opentime",
			},
		}
	}
	return nil
}

func (rv *RestaurantValidator) ValidateUpdate(update *model.RestaurantUpdate) error {
	return rv.v.Struct(update)
}
