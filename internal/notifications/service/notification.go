package service

import (
	"context"
	"errors"
	"sync"
	notificationserrors "tablereserve/internal/notifications/errors"
	"tablereserve/internal/notifications/repository"
	"tablereserve/internal/notifications/validator"
	"tablereserve/pkg/auth"
	"tablereserve/pkg/config"
	apperrors "tablereserve/pkg/errors"
	"tablereserve/pkg/model"
	"tablereserve/pkg/sanitizer"
	"tablereserve/pkg/validation"
)

type NotificationService interface {
	// Notify stores a notification on behalf of the system.
	Notify(ctx context.Context, userID, title, message string) error
	Create(ctx context.Context, caller auth.Identity, req *model.CreateNotificationRequest) (*model.Notification, error)
	List(ctx context.Context, caller auth.Identity, limit int, offset int64) ([]*model.Notification, int64, error)
}

type notificationService struct {
	repo      repository.NotificationRepository
	validator *validator.NotificationValidator
	cfg       *config.Config
}

func NewNotificationService(repo repository.NotificationRepository, validator *validator.NotificationValidator, cfg *config.Config) NotificationService {
	return &notificationService{
		repo:      repo,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *notificationService) Notify(ctx context.Context, userID, title, message string) error {
	if userID == "" {
		return notificationserrors.ErrInvalidUserID
	}
	_, err := s.store(ctx, userID, title, message)
	return err
}

func (s *notificationService) Create(ctx context.Context, caller auth.Identity, req *model.CreateNotificationRequest) (*model.Notification, error) {
	if caller.UserID == "" {
		return nil, apperrors.Unauthorized("Not authorized to access this route")
	}
	if req == nil {
		return nil, apperrors.InvalidInput("Notification body is required")
	}

	notification, err := s.store(ctx, caller.UserID, req.Title, req.Message)
	if err != nil {
		var verrs validation.ValidationErrors
		if errors.As(err, &verrs) {
			s.cfg.Log.Warn("Notification validation failed", "user_id", caller.UserID, "error", err)
			return nil, apperrors.Validation(verrs.Summary(), map[string]any{"errors": verrs})
		}
		s.cfg.Log.Error("Failed to create notification", "user_id", caller.UserID, "error", err)
		return nil, apperrors.Internal("Failed to create notification", err)
	}
	return notification, nil
}

func (s *notificationService) store(ctx context.Context, userID, title, message string) (*model.Notification, error) {
	notification := &model.Notification{
		UserID:  userID,
		Title:   sanitizer.TrimAndNormalize(title),
		Message: sanitizer.TrimAndNormalize(message),
	}
	if err := s.validator.Validate(notification); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, notification); err != nil {
		return nil, err
	}

	s.cfg.Log.Debug("Notification stored", "notification_id", notification.ID, "user_id", userID)
	return notification, nil
}

// List returns the caller's own notifications, newest first.
func (s *notificationService) List(ctx context.Context, caller auth.Identity, limit int, offset int64) ([]*model.Notification, int64, error) {
	if caller.UserID == "" {
		return nil, 0, apperrors.Unauthorized("Not authorized to access this route")
	}

	var count int64
	var notifications []*model.Notification
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.CountByUser(ctx, caller.UserID)
	}()

	go func() {
		defer wg.Done()
		notifications, errFind = s.repo.FindByUser(ctx, caller.UserID, limit, offset)
	}()

	wg.Wait()
	if err := errors.Join(errCount, errFind); err != nil {
		s.cfg.Log.Error("Failed to list notifications", "user_id", caller.UserID, "error", err)
		return nil, 0, apperrors.Internal("Failed to fetch notifications", err)
	}

	return notifications, count, nil
}
