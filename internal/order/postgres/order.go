package postgres

import (
	"context"
	"errors"
	"sort"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	orderDatamodel "github.com/frahmantamala/emspay-gateway/internal/core/datamodel/order"
	"github.com/frahmantamala/emspay-gateway/internal/order"
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) order.RepositoryAPI {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*orderDatamodel.Order, error) {
	var o orderDatamodel.Order
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&o).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepository) Create(ctx context.Context, o *orderDatamodel.Order) error {
	return r.db.WithContext(ctx).Create(o).Error
}

func (r *OrderRepository) GetMeta(ctx context.Context, orderID int64) ([]orderDatamodel.OrderMeta, error) {
	var rows []orderDatamodel.OrderMeta
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("meta_key ASC").
		Find(&rows).Error
	return rows, err
}

func (r *OrderRepository) SetMeta(ctx context.Context, orderID int64, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}

	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	rows := make([]orderDatamodel.OrderMeta, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, orderDatamodel.OrderMeta{
			OrderID:   orderID,
			MetaKey:   key,
			MetaValue: values[key],
		})
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "order_id"}, {Name: "meta_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"meta_value", "updated_at"}),
		}).Create(&rows).Error
	})
}
