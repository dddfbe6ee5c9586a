package order

import (
	"time"

	"github.com/shopspring/decimal"
)

type Order struct {
	ID        int64           `gorm:"primaryKey"`
	OrderKey  string          `gorm:"column:order_key;uniqueIndex;not null"`
	Total     decimal.Decimal `gorm:"column:total;type:numeric(12,2);not null"`
	Currency  string          `gorm:"column:currency;size:3;not null"`
	Status    string          `gorm:"column:status;default:pending"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (Order) TableName() string {
	return "orders"
}

// OrderMeta is a free-form key/value attachment on an order. At most one row
// exists per (order_id, meta_key).
type OrderMeta struct {
	ID        int64     `gorm:"primaryKey"`
	OrderID   int64     `gorm:"column:order_id;not null;uniqueIndex:idx_order_meta_order_key"`
	MetaKey   string    `gorm:"column:meta_key;size:191;not null;uniqueIndex:idx_order_meta_order_key"`
	MetaValue string    `gorm:"column:meta_value"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (OrderMeta) TableName() string {
	return "order_meta"
}
