package inventory

import (
	"context"
	"errors"
	"time"

	"kirana-oms/internal/logger"
	"kirana-oms/internal/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ApplyInput struct {
	ProductID string
	VariantID *string
	Type      MovementType
	Quantity  int64
	OrderID   *string
	ActorID   *string
	Note      string
	// AllowNegative lets explicit backorders drive stock below zero.
	AllowNegative bool
}

type Service interface {
	ApplyMovement(ctx context.Context, in ApplyInput) (*Movement, error)
	History(ctx context.Context, productID string, variantID *string) ([]Movement, error)
	SalesForOrder(ctx context.Context, orderID string) ([]Movement, error)
	// Rebuild recomputes the cached stock value by replaying the ledger and
	// returns the recomputed balance. The ledger is authoritative; this is
	// the self-healing path when the cache and ledger drift.
	Rebuild(ctx context.Context, productID string, variantID *string) (int64, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) ApplyMovement(ctx context.Context, in ApplyInput) (*Movement, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "ApplyMovement"),
		zap.String("product_id", in.ProductID),
		zap.String("type", string(in.Type)),
		zap.Int64("quantity", in.Quantity),
	)

	if !in.Type.Valid() {
		return nil, ErrInvalidMovement
	}
	if in.Quantity <= 0 {
		return nil, ErrInvalidMovement
	}

	// Pre-check gives audit visibility; the unique index is what actually
	// closes the check-then-write race.
	if in.Type == MovementSale && in.OrderID != nil {
		exists, err := s.repo.HasSale(ctx, in.ProductID, in.VariantID, *in.OrderID)
		if err != nil {
			return nil, err
		}
		if exists {
			s.recordDuplicateAttempt(ctx, in, log)
			return nil, ErrDuplicateSale
		}
	}

	m := &Movement{
		ID:        uuid.New().String(),
		ProductID: in.ProductID,
		VariantID: in.VariantID,
		Type:      in.Type,
		Quantity:  in.Quantity,
		OrderID:   in.OrderID,
		ActorID:   in.ActorID,
		Note:      in.Note,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.repo.Apply(ctx, m, in.AllowNegative); err != nil {
		switch {
		case errors.Is(err, ErrDuplicateSale):
			s.recordDuplicateAttempt(ctx, in, log)
			return nil, ErrDuplicateSale
		case errors.Is(err, ErrInsufficientStock):
			metrics.OversellRejectionsTotal.Inc()
			log.Warn("movement rejected: insufficient stock")
			return nil, err
		default:
			log.Error("failed to apply movement", zap.Error(err))
			return nil, err
		}
	}

	log.Info("movement applied", zap.Int64("balance", m.Balance))

	return m, nil
}

func (s *service) recordDuplicateAttempt(ctx context.Context, in ApplyInput, log *zap.Logger) {
	metrics.DuplicateSaleAttemptsTotal.Inc()
	log.Warn("duplicate sale attempt rejected", zap.Stringp("order_id", in.OrderID))

	diag := &Movement{
		ID:        uuid.New().String(),
		ProductID: in.ProductID,
		VariantID: in.VariantID,
		Type:      MovementAdjustment,
		Quantity:  0,
		OrderID:   in.OrderID,
		ActorID:   in.ActorID,
		Note:      DuplicateSaleNote,
		CreatedAt: time.Now().UTC(),
	}

	// Best-effort: losing the diagnostic row must not mask the Conflict.
	if err := s.repo.InsertDiagnostic(ctx, diag); err != nil {
		log.Error("failed to record duplicate sale diagnostic", zap.Error(err))
	}
}

func (s *service) History(ctx context.Context, productID string, variantID *string) ([]Movement, error) {
	return s.repo.List(ctx, productID, variantID)
}

func (s *service) SalesForOrder(ctx context.Context, orderID string) ([]Movement, error) {
	return s.repo.SalesForOrder(ctx, orderID)
}

func (s *service) Rebuild(ctx context.Context, productID string, variantID *string) (int64, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Rebuild"),
		zap.String("product_id", productID),
	)

	balance, err := s.repo.ReplayBalance(ctx, productID, variantID)
	if err != nil {
		log.Error("failed to replay ledger", zap.Error(err))
		return 0, err
	}

	if err := s.repo.SetStock(ctx, productID, variantID, balance); err != nil {
		log.Error("failed to write rebuilt stock", zap.Error(err))
		return 0, err
	}

	log.Info("stock rebuilt from ledger", zap.Int64("balance", balance))

	return balance, nil
}
