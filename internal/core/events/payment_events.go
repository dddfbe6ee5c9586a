package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypePaymentInitiated        = "payment.initiated"
	EventTypePaymentRedirectPrepared = "payment.redirect_prepared"
)

type PaymentInitiatedEvent struct {
	BaseEvent
	OrderID         int64  `json:"order_id"`
	PaymentMethod   string `json:"payment_method"`
	CurrencyCode    string `json:"currency_code"`
	TransactionTime string `json:"transaction_time"`
	Timezone        string `json:"timezone"`
}

// NewPaymentInitiatedEvent carries the snapshot's txndatetime as stored,
// together with the timezone it is local to.
func NewPaymentInitiatedEvent(orderID int64, paymentMethod, currencyCode, transactionTime, timezone string) *PaymentInitiatedEvent {
	return &PaymentInitiatedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypePaymentInitiated,
			Timestamp: time.Now().UTC(),
			Data: map[string]interface{}{
				"order_id":         orderID,
				"payment_method":   paymentMethod,
				"currency_code":    currencyCode,
				"transaction_time": transactionTime,
				"timezone":         timezone,
			},
		},
		OrderID:         orderID,
		PaymentMethod:   paymentMethod,
		CurrencyCode:    currencyCode,
		TransactionTime: transactionTime,
		Timezone:        timezone,
	}
}

type RedirectPreparedEvent struct {
	BaseEvent
	OrderID    int64  `json:"order_id"`
	GatewayID  string `json:"gateway_id"`
	ActionURL  string `json:"action_url"`
	FieldCount int    `json:"field_count"`
}

func NewRedirectPreparedEvent(orderID int64, gatewayID, actionURL string, fieldCount int) *RedirectPreparedEvent {
	return &RedirectPreparedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypePaymentRedirectPrepared,
			Timestamp: time.Now().UTC(),
			Data: map[string]interface{}{
				"order_id":    orderID,
				"gateway_id":  gatewayID,
				"action_url":  actionURL,
				"field_count": fieldCount,
			},
		},
		OrderID:    orderID,
		GatewayID:  gatewayID,
		ActionURL:  actionURL,
		FieldCount: fieldCount,
	}
}
