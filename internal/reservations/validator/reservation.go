package validator

import (
	"tablereserve/pkg/logger"
	"tablereserve/pkg/model"
	"tablereserve/pkg/validation"
)

type ReservationValidator struct {
	v *validation.Validator
}

func NewReservationValidator(log *logger.Logger) *ReservationValidator {
	v := validation.New(log)
	log.Info("Reservation validator initialized successfully")
	return &ReservationValidator{v: v}
}

func (rv *ReservationValidator) ValidateCreate(req *model.CreateReservationRequest) error {
	return rv.v.Struct(req)
}

func (rv *ReservationValidator) ValidateUpdate(req *model.UpdateReservationRequest) error {
	return rv.v.Struct(req)
}

func (rv *ReservationValidator) ValidateAvailabilityQuery(q *model.AvailabilityQuery) error {
	return rv.v.Struct(q)
}
