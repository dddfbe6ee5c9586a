package hosted

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"

	"github.com/frahmantamala/emspay-gateway/internal"
	"github.com/frahmantamala/emspay-gateway/internal/order"
)

type LocaleResolver interface {
	Resolve(requested string) string
}

type Builder struct {
	locales  LocaleResolver
	registry *Registry
	logger   *slog.Logger
}

func NewBuilder(locales LocaleResolver, registry *Registry, logger *slog.Logger) *Builder {
	if registry == nil {
		registry = NewRegistry()
	}
	return &Builder{
		locales:  locales,
		registry: registry,
		logger:   logger,
	}
}

// Build maps an order with a persisted payment snapshot onto the hosted
// request fields. Payment method, currency, timezone and transaction time
// are copied from the snapshot as stored; the client only picks the
// language and the mobile flag.
func (b *Builder) Build(ctx context.Context, o *order.Order, cfg internal.GatewayConfig, client internal.ClientContext) (*Fields, error) {
	language := b.locales.Resolve(client.Locale)

	snapshot := o.Snapshot
	if snapshot == nil {
		b.logger.Error("hosted request requested without payment snapshot", "order_id", o.ID)
		return nil, internal.NewMissingPaymentSnapshotError(o.ID)
	}

	fields := NewFields()
	fields.Set(FieldMobile, strconv.FormatBool(client.Mobile))
	fields.Set(FieldChargeTotal, o.ChargeTotal())
	fields.Set(FieldOrderID, strconv.FormatInt(o.ID, 10))
	fields.Set(FieldLanguage, language)
	fields.Set(FieldPaymentMethod, snapshot.PaymentMethod)
	fields.Set(FieldCurrency, snapshot.NumericCurrencyCode)
	fields.Set(FieldTimezone, snapshot.Timezone)
	fields.Set(FieldTransactionTime, snapshot.TransactionTime)

	for _, t := range b.registry.Transforms(cfg.ID) {
		next, err := t.Transform(ctx, fields.Clone(), o)
		if err != nil {
			return nil, fmt.Errorf("field transform %s: %w", t.Name, err)
		}
		if next != nil {
			fields = next
		}
	}

	b.logger.Debug("hosted request fields built",
		"order_id", o.ID,
		"gateway_id", cfg.ID,
		"language", language,
		"field_count", fields.Len())

	return fields, nil
}

func sortedKeys(values map[string]string) []string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
