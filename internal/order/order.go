package order

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // snapshot timezones must load on hosts without a zoneinfo database

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	orderDatamodel "github.com/frahmantamala/emspay-gateway/internal/core/datamodel/order"
)

const (
	MetaTransactionTime = "ems_txndatetime"
	MetaTimezone        = "ems_timezone"
	MetaCurrencyCode    = "ems_currency_code"
	MetaPaymentMethod   = "ems_payment_method"
)

// TransactionTimeLayout is the provider's txndatetime format. The value is
// local to the snapshot's timezone.
const TransactionTimeLayout = "2006:01:02-15:04:05"

const StatusPending = "pending"

var ErrIncompleteSnapshot = errors.New("incomplete payment snapshot")

type Order struct {
	ID        int64            `json:"id"`
	OrderKey  string           `json:"order_key"`
	Total     decimal.Decimal  `json:"total"`
	Currency  string           `json:"currency"`
	Status    string           `json:"status"`
	Snapshot  *PaymentSnapshot `json:"snapshot,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// PaymentSnapshot is what the payment attempt was started with. The hosted
// request is built from it, never from the live order or settings.
// TransactionTime is stored exactly as sent to the provider, in Timezone.
type PaymentSnapshot struct {
	TransactionTime     string `json:"transaction_time"`
	Timezone            string `json:"timezone"`
	NumericCurrencyCode string `json:"currency_code"`
	PaymentMethod       string `json:"payment_method"`
}

func NewOrder(total decimal.Decimal, currency string) *Order {
	now := time.Now()
	return &Order{
		OrderKey:  NewOrderKey(),
		Total:     total,
		Currency:  currency,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func NewOrderKey() string {
	return "order_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

func (o *Order) HasSnapshot() bool {
	return o.Snapshot != nil
}

// ChargeTotal renders the total with exactly two decimals.
func (o *Order) ChargeTotal() string {
	return o.Total.StringFixed(2)
}

// Time parses TransactionTime in the snapshot's timezone.
func (s PaymentSnapshot) Time() (time.Time, error) {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.Time{}, fmt.Errorf("load %s: %w", MetaTimezone, err)
	}
	t, err := time.ParseInLocation(TransactionTimeLayout, s.TransactionTime, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse %s: %w", MetaTransactionTime, err)
	}
	return t, nil
}

func (s PaymentSnapshot) ToMeta() map[string]string {
	return map[string]string{
		MetaTransactionTime: s.TransactionTime,
		MetaTimezone:        s.Timezone,
		MetaCurrencyCode:    s.NumericCurrencyCode,
		MetaPaymentMethod:   s.PaymentMethod,
	}
}

// SnapshotFromMeta reads the snapshot keys out of an order's meta rows. It
// returns nil when none of the keys are present and ErrIncompleteSnapshot
// when only some are.
func SnapshotFromMeta(rows []orderDatamodel.OrderMeta) (*PaymentSnapshot, error) {
	values := make(map[string]string, len(rows))
	for _, row := range rows {
		values[row.MetaKey] = row.MetaValue
	}

	keys := []string{MetaTransactionTime, MetaTimezone, MetaCurrencyCode, MetaPaymentMethod}
	present := 0
	for _, key := range keys {
		if _, ok := values[key]; ok {
			present++
		}
	}
	switch present {
	case 0:
		return nil, nil
	case len(keys):
	default:
		return nil, ErrIncompleteSnapshot
	}

	snapshot := &PaymentSnapshot{
		TransactionTime:     values[MetaTransactionTime],
		Timezone:            values[MetaTimezone],
		NumericCurrencyCode: values[MetaCurrencyCode],
		PaymentMethod:       values[MetaPaymentMethod],
	}
	if _, err := snapshot.Time(); err != nil {
		return nil, err
	}
	return snapshot, nil
}

func ToDataModel(o *Order) *orderDatamodel.Order {
	return &orderDatamodel.Order{
		ID:        o.ID,
		OrderKey:  o.OrderKey,
		Total:     o.Total,
		Currency:  o.Currency,
		Status:    o.Status,
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}

func FromDataModel(o *orderDatamodel.Order) *Order {
	return &Order{
		ID:        o.ID,
		OrderKey:  o.OrderKey,
		Total:     o.Total,
		Currency:  o.Currency,
		Status:    o.Status,
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}
