package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	pointserrors "tablereserve/internal/points/errors"
	"tablereserve/internal/points/repository"
	userserrors "tablereserve/internal/users/errors"
	usersrepository "tablereserve/internal/users/repository"
	"tablereserve/pkg/auth"
	"tablereserve/pkg/config"
	apperrors "tablereserve/pkg/errors"
	"tablereserve/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

const settlementTitle = "Points earned"

var errAlreadySettled = errors.New("reservation already settled")

// Notifier stores an in-app notification for a user.
type Notifier interface {
	Notify(ctx context.Context, userID, title, message string) error
}

type SettlementService interface {
	Settle(ctx context.Context, reservation *model.Reservation) (*model.SettlementResult, error)
	ListTransactions(ctx context.Context, caller auth.Identity, limit int, offset int64) ([]*model.PointTransaction, int64, error)
}

type settlementService struct {
	repo     repository.PointTransactionRepository
	users    usersrepository.UserRepository
	notifier Notifier
	cfg      *config.Config
}

func NewSettlementService(
	repo repository.PointTransactionRepository,
	users usersrepository.UserRepository,
	notifier Notifier,
	cfg *config.Config,
) SettlementService {
	return &settlementService{
		repo:     repo,
		users:    users,
		notifier: notifier,
		cfg:      cfg,
	}
}

// Settle credits the owner of a completed reservation exactly once. The
// ledger entry and the balance increment commit together; the unique ledger
// index turns a repeated call into a read of the current balance.
func (s *settlementService) Settle(ctx context.Context, reservation *model.Reservation) (*model.SettlementResult, error) {
	if reservation == nil || reservation.ID == "" || reservation.UserID == "" {
		return nil, apperrors.InvalidInput("Reservation and its owner are required for settlement")
	}
	if reservation.Status != model.StatusComplete {
		return nil, apperrors.BadState(fmt.Sprintf("Cannot settle a reservation that is %s", reservation.Status))
	}

	reward := s.cfg.PointsPerReservation
	var balance int

	err := s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		entry := &model.PointTransaction{
			UserID:   reservation.UserID,
			Type:     model.TransactionEarn,
			Source:   model.SourceReservation,
			SourceID: reservation.ID,
			Amount:   reward,
			Message:  fmt.Sprintf("Completed reservation on %s at %s", reservation.ResDate, reservation.ResStartTime),
		}
		if err := s.repo.Create(sessCtx, entry); err != nil {
			if errors.Is(err, pointserrors.ErrAlreadyRecorded) {
				return errAlreadySettled
			}
			return err
		}

		newBalance, err := s.users.IncrementPoints(sessCtx, reservation.UserID, reward)
		if err != nil {
			return err
		}
		balance = newBalance
		return nil
	})

	switch {
	case err == nil:
	case errors.Is(err, errAlreadySettled):
		return s.alreadySettled(ctx, reservation)
	case errors.Is(err, userserrors.ErrNotFound), errors.Is(err, userserrors.ErrInvalidID):
		return nil, apperrors.NotFoundWithID("user", reservation.UserID)
	default:
		s.cfg.Log.Error("Failed to settle reservation",
			"reservation_id", reservation.ID,
			"user_id", reservation.UserID,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to settle reservation", err)
	}

	s.cfg.Log.Info("Reservation settled",
		"reservation_id", reservation.ID,
		"user_id", reservation.UserID,
		"amount", reward,
		"current_points", balance,
	)

	message := fmt.Sprintf("You earned %d points for your reservation on %s. Your balance is now %d.", reward, reservation.ResDate, balance)
	if err := s.notifier.Notify(ctx, reservation.UserID, settlementTitle, message); err != nil {
		s.cfg.Log.Warn("Failed to notify user of settlement",
			"reservation_id", reservation.ID,
			"user_id", reservation.UserID,
			"error", err,
		)
	}

	return &model.SettlementResult{NewBalance: balance}, nil
}

func (s *settlementService) alreadySettled(ctx context.Context, reservation *model.Reservation) (*model.SettlementResult, error) {
	user, err := s.users.FindByID(ctx, reservation.UserID)
	if err != nil {
		if errors.Is(err, userserrors.ErrNotFound) || errors.Is(err, userserrors.ErrInvalidID) {
			return nil, apperrors.NotFoundWithID("user", reservation.UserID)
		}
		return nil, apperrors.Internal("Failed to load user balance", err)
	}

	s.cfg.Log.Info("Reservation already settled", "reservation_id", reservation.ID, "user_id", reservation.UserID)
	return &model.SettlementResult{NewBalance: user.CurrentPoints, AlreadySettled: true}, nil
}

// ListTransactions shows a user their own ledger and an administrator every entry.
func (s *settlementService) ListTransactions(ctx context.Context, caller auth.Identity, limit int, offset int64) ([]*model.PointTransaction, int64, error) {
	if caller.UserID == "" {
		return nil, 0, apperrors.Unauthorized("Not authorized to access this route")
	}

	userID := caller.UserID
	if caller.IsAdmin() {
		userID = ""
	}

	var count int64
	var transactions []*model.PointTransaction
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx, userID)
	}()

	go func() {
		defer wg.Done()
		transactions, errFind = s.repo.Find(ctx, userID, limit, offset)
	}()

	wg.Wait()
	if err := errors.Join(errCount, errFind); err != nil {
		s.cfg.Log.Error("Failed to list point transactions", "user_id", caller.UserID, "error", err)
		return nil, 0, apperrors.Internal("Cannot fetch point transactions", err)
	}

	return transactions, count, nil
}
