package validator

import (
	"tablereserve/pkg/logger"
	"tablereserve/pkg/model"
	"tablereserve/pkg/validation"
)

type NotificationValidator struct {
	v *validation.Validator
}

func NewNotificationValidator(log *logger.Logger) *NotificationValidator {
	return &NotificationValidator{v: validation.New(log)}
}

func (nv *NotificationValidator) Validate(notification *model.Notification) error {
	return nv.v.Struct(notification)
}
