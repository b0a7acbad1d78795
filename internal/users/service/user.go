package service

import (
	"context"
	"errors"
	"fmt"
	userserrors "tablereserve/internal/users/errors"
	"tablereserve/internal/users/repository"
	"tablereserve/pkg/auth"
	"tablereserve/pkg/config"
	apperrors "tablereserve/pkg/errors"
	"tablereserve/pkg/model"
)

type UserService interface {
	GetPoints(ctx context.Context, caller auth.Identity, id string) (*model.UserPoints, error)
}

type userService struct {
	repo repository.UserRepository
	cfg  *config.Config
}

func NewUserService(repo repository.UserRepository, cfg *config.Config) UserService {
	return &userService{repo: repo, cfg: cfg}
}

// GetPoints returns a user's balance to that user or an administrator.
func (s *userService) GetPoints(ctx context.Context, caller auth.Identity, id string) (*model.UserPoints, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("User ID cannot be empty")
	}
	if !caller.CanAccess(id) {
		return nil, apperrors.Unauthorized(fmt.Sprintf("User %s is not authorized to view this balance", caller.UserID))
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, userserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("user", id)
		}
		if errors.Is(err, userserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid user ID format")
		}
		s.cfg.Log.Error("Failed to get user", "user_id", id, "error", err)
		return nil, apperrors.Internal("Failed to retrieve user", err)
	}

	return &model.UserPoints{
		ID:            user.ID,
		Name:          user.Name,
		Tel:           user.Tel,
		CurrentPoints: user.CurrentPoints,
	}, nil
}
