package payment

import (
	"github.com/frahmantamala/emspay-gateway/internal/order"
	"github.com/frahmantamala/emspay-gateway/internal/paymentgateway"
)

// ProcessPaymentRequest is the checkout submission for an order.
type ProcessPaymentRequest struct {
	PaymentMethod string `json:"payment_method"`
}

// DeclinedResponse is returned when the shopper can correct the submission.
type DeclinedResponse struct {
	Status  string   `json:"status"`
	Notices []string `json:"notices"`
}

type RedirectFormResponse struct {
	Action string            `json:"action"`
	Fields map[string]string `json:"fields"`
	Order  []string          `json:"order"`
}

func NewRedirectFormResponse(r *paymentgateway.Redirect) RedirectFormResponse {
	return RedirectFormResponse{
		Action: r.ActionURL,
		Fields: r.Fields,
		Order:  r.Order,
	}
}

type SnapshotResponse struct {
	OrderID         int64  `json:"order_id"`
	TransactionTime string `json:"transaction_time"`
	Timezone        string `json:"timezone"`
	CurrencyCode    string `json:"currency_code"`
	PaymentMethod   string `json:"payment_method"`
}

func NewSnapshotResponse(orderID int64, s *order.PaymentSnapshot) SnapshotResponse {
	return SnapshotResponse{
		OrderID:         orderID,
		TransactionTime: s.TransactionTime,
		Timezone:        s.Timezone,
		CurrencyCode:    s.NumericCurrencyCode,
		PaymentMethod:   s.PaymentMethod,
	}
}

type MethodResponse struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

type MethodsResponse struct {
	Methods []MethodResponse `json:"methods"`
}
