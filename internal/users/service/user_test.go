package service

import (
	"context"
	"errors"
	"net/http"
	"testing"

	userserrors "tablereserve/internal/users/errors"
	"tablereserve/pkg/auth"
	"tablereserve/pkg/config"
	apperrors "tablereserve/pkg/errors"
	"tablereserve/pkg/logger"
	"tablereserve/pkg/model"
)

type mockUserRepository struct {
	findByIDFunc        func(ctx context.Context, id string) (*model.User, error)
	incrementPointsFunc func(ctx context.Context, id string, amount int) (int, error)
}

func (m *mockUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	return m.findByIDFunc(ctx, id)
}

func (m *mockUserRepository) IncrementPoints(ctx context.Context, id string, amount int) (int, error) {
	return m.incrementPointsFunc(ctx, id, amount)
}

func TestGetPoints(t *testing.T) {
	repo := &mockUserRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.User, error) {
			switch id {
			case "u-alice":
				return &model.User{ID: id, Name: "Alice", Tel: "+66812345678", CurrentPoints: 30}, nil
			case "u-broken":
				return nil, errors.New("connection reset")
			}
			return nil, userserrors.ErrNotFound
		},
	}
	svc := NewUserService(repo, &config.Config{Log: logger.Discard()})

	alice := auth.Identity{UserID: "u-alice", Role: auth.RoleUser}
	admin := auth.Identity{UserID: "u-admin", Role: auth.RoleAdmin}

	tests := []struct {
		name       string
		caller     auth.Identity
		id         string
		wantPoints int
		wantStatus int
	}{
		{name: "owner", caller: alice, id: "u-alice", wantPoints: 30},
		{name: "admin", caller: admin, id: "u-alice", wantPoints: 30},
		{name: "other user", caller: alice, id: "u-bob", wantStatus: http.StatusUnauthorized},
		{name: "missing", caller: admin, id: "u-ghost", wantStatus: http.StatusNotFound},
		{name: "empty id", caller: admin, id: "", wantStatus: http.StatusBadRequest},
		{name: "store failure", caller: admin, id: "u-broken", wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			points, err := svc.GetPoints(context.Background(), tt.caller, tt.id)
			if tt.wantStatus != 0 {
				if err == nil {
					t.Fatalf("expected status %d, got nil error", tt.wantStatus)
				}
				if got := apperrors.AsAppError(err).StatusCode(); got != tt.wantStatus {
					t.Errorf("status = %d, want %d", got, tt.wantStatus)
				}
				return
			}
			if err != nil {
				t.Fatalf("GetPoints() error = %v", err)
			}
			if points.CurrentPoints != tt.wantPoints {
				t.Errorf("CurrentPoints = %d, want %d", points.CurrentPoints, tt.wantPoints)
			}
		})
	}
}
