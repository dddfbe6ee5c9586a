package order

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/emspay-gateway/internal"
	orderDatamodel "github.com/frahmantamala/emspay-gateway/internal/core/datamodel/order"
)

type RepositoryAPI interface {
	GetByID(ctx context.Context, id int64) (*orderDatamodel.Order, error)
	Create(ctx context.Context, order *orderDatamodel.Order) error
	GetMeta(ctx context.Context, orderID int64) ([]orderDatamodel.OrderMeta, error)
	// SetMeta upserts every key in values inside a single transaction.
	SetMeta(ctx context.Context, orderID int64, values map[string]string) error
}

// Service is the order store used by the checkout flow.
type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// Get loads the order together with its payment snapshot, if one was saved.
func (s *Service) Get(ctx context.Context, id int64) (*Order, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to load order", "order_id", id, "error", err)
		return nil, internal.NewInternalError("failed to load order", err)
	}
	if row == nil {
		return nil, internal.NewOrderNotFoundError(id)
	}

	meta, err := s.repo.GetMeta(ctx, id)
	if err != nil {
		s.logger.Error("failed to load order meta", "order_id", id, "error", err)
		return nil, internal.NewInternalError("failed to load order meta", err)
	}

	o := FromDataModel(row)
	snapshot, err := SnapshotFromMeta(meta)
	if err != nil {
		s.logger.Warn("ignoring unreadable payment snapshot", "order_id", id, "error", err)
	}
	o.Snapshot = snapshot
	return o, nil
}

func (s *Service) Create(ctx context.Context, o *Order) error {
	row := ToDataModel(o)
	if err := s.repo.Create(ctx, row); err != nil {
		return fmt.Errorf("create order: %w", err)
	}
	o.ID = row.ID
	o.CreatedAt = row.CreatedAt
	o.UpdatedAt = row.UpdatedAt
	s.logger.Info("order created", "order_id", o.ID, "currency", o.Currency, "total", o.ChargeTotal())
	return nil
}

// SaveSnapshot writes the snapshot keys. Saving again replaces the
// previous values; the order never carries more than one snapshot.
func (s *Service) SaveSnapshot(ctx context.Context, o *Order, snapshot PaymentSnapshot) error {
	if err := s.repo.SetMeta(ctx, o.ID, snapshot.ToMeta()); err != nil {
		s.logger.Error("failed to save payment snapshot", "order_id", o.ID, "error", err)
		return internal.NewInternalError("failed to save payment snapshot", err)
	}
	o.Snapshot = &snapshot
	return nil
}
