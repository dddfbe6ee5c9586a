package payment

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/emspay-gateway/internal/currency"
	"github.com/frahmantamala/emspay-gateway/internal/order"
)

type OrderStore interface {
	Get(ctx context.Context, id int64) (*order.Order, error)
	SaveSnapshot(ctx context.Context, o *order.Order, snapshot order.PaymentSnapshot) error
}

type Snapshotter struct {
	store           OrderStore
	defaultTimezone string
	now             func() time.Time
	logger          *slog.Logger
}

func NewSnapshotter(store OrderStore, defaultTimezone string, logger *slog.Logger) *Snapshotter {
	return &Snapshotter{
		store:           store,
		defaultTimezone: defaultTimezone,
		now:             time.Now,
		logger:          logger,
	}
}

// WithClock replaces the time source, for tests.
func (s *Snapshotter) WithClock(now func() time.Time) *Snapshotter {
	s.now = now
	return s
}

// Capture freezes the transaction time, the numeric currency and the chosen
// method for o. The time is formatted for the provider in the shopper's
// timezone when it loads, else the configured default, else UTC; both the
// text and the zone name are kept so every later render sends the same pair.
func (s *Snapshotter) Capture(o *order.Order, method, clientTimezone string) (order.PaymentSnapshot, error) {
	numeric, err := currency.Resolve(o.Currency)
	if err != nil {
		s.logger.Warn("order currency not supported", "order_id", o.ID, "currency", o.Currency)
		return order.PaymentSnapshot{}, err
	}

	timezone, location := s.timezone(clientTimezone)
	return order.PaymentSnapshot{
		TransactionTime:     s.now().In(location).Format(order.TransactionTimeLayout),
		Timezone:            timezone,
		NumericCurrencyCode: numeric,
		PaymentMethod:       method,
	}, nil
}

// timezone returns a zone name together with the location it loads as.
func (s *Snapshotter) timezone(requested string) (string, *time.Location) {
	for _, name := range []string{requested, s.defaultTimezone} {
		if name == "" {
			continue
		}
		if loc, err := time.LoadLocation(name); err == nil {
			return name, loc
		}
		s.logger.Debug("unusable timezone", "timezone", name)
	}
	return "UTC", time.UTC
}

// Persist saves snapshot on o. A second call for the same order replaces the
// earlier snapshot.
func (s *Snapshotter) Persist(ctx context.Context, o *order.Order, snapshot order.PaymentSnapshot) error {
	if previous := o.Snapshot; previous != nil {
		s.logger.Warn("overwriting payment snapshot",
			"order_id", o.ID,
			"previous_payment_method", previous.PaymentMethod,
			"previous_transaction_time", previous.TransactionTime,
			"previous_timezone", previous.Timezone,
			"payment_method", snapshot.PaymentMethod)
	}
	return s.store.SaveSnapshot(ctx, o, snapshot)
}
