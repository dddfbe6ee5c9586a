package payment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/emspay-gateway/internal/core/events"
)

// EventHandler writes an audit trail of checkout attempts to the log.
type EventHandler struct {
	logger *slog.Logger
}

func NewEventHandler(logger *slog.Logger) *EventHandler {
	return &EventHandler{logger: logger}
}

func (h *EventHandler) HandlePaymentInitiated(_ context.Context, event events.Event) error {
	initiated, ok := event.(*events.PaymentInitiatedEvent)
	if !ok {
		return fmt.Errorf("expected PaymentInitiatedEvent, got %T", event)
	}

	h.logger.Info("audit: payment initiated",
		"event_id", initiated.EventID(),
		"order_id", initiated.OrderID,
		"payment_method", initiated.PaymentMethod,
		"currency", initiated.CurrencyCode,
		"transaction_time", initiated.TransactionTime,
		"timezone", initiated.Timezone)
	return nil
}

func (h *EventHandler) HandleRedirectPrepared(_ context.Context, event events.Event) error {
	prepared, ok := event.(*events.RedirectPreparedEvent)
	if !ok {
		return fmt.Errorf("expected RedirectPreparedEvent, got %T", event)
	}

	h.logger.Info("audit: hosted redirect prepared",
		"event_id", prepared.EventID(),
		"order_id", prepared.OrderID,
		"gateway_id", prepared.GatewayID,
		"action_url", prepared.ActionURL,
		"field_count", prepared.FieldCount)
	return nil
}

func (h *EventHandler) RegisterEventHandlers(eventBus *events.EventBus) {
	eventBus.Subscribe(events.EventTypePaymentInitiated, h.HandlePaymentInitiated)
	eventBus.Subscribe(events.EventTypePaymentRedirectPrepared, h.HandleRedirectPrepared)

	h.logger.Info("payment event handlers registered",
		"handlers", []string{events.EventTypePaymentInitiated, events.EventTypePaymentRedirectPrepared})
}
