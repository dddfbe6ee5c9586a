package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/emspay-gateway/internal"
	"github.com/frahmantamala/emspay-gateway/internal/core/common/validation"
	"github.com/frahmantamala/emspay-gateway/internal/order"
	"github.com/frahmantamala/emspay-gateway/internal/paymentgateway"
	"github.com/frahmantamala/emspay-gateway/internal/transport"
	"github.com/frahmantamala/emspay-gateway/pkg/logger"
)

type GatewayAPI interface {
	ProcessPayment(ctx context.Context, orderID int64, method string) (*RedirectInstruction, error)
}

type ReceiptAPI interface {
	PrepareRedirect(ctx context.Context, orderID int64, orderKey, token string, client internal.ClientContext) (*paymentgateway.Redirect, error)
	Snapshot(ctx context.Context, orderID int64) (*order.PaymentSnapshot, error)
}

type Handler struct {
	*transport.BaseHandler
	Gateway  GatewayAPI
	Receipts ReceiptAPI
	Methods  []Method
}

func NewHandler(baseHandler *transport.BaseHandler, gateway GatewayAPI, receipts ReceiptAPI, methods []Method) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Gateway:     gateway,
		Receipts:    receipts,
		Methods:     methods,
	}
}

// ProcessPayment handles POST /api/v1/checkout/orders/{id}/payment
func (h *Handler) ProcessPayment(w http.ResponseWriter, r *http.Request) {
	orderID, ok := h.orderID(w, r)
	if !ok {
		return
	}

	var req ProcessPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.HandleError(w, r, internal.NewValidationError("invalid request body", internal.ErrCodeValidationFailed))
		return
	}

	if err := ValidateMethod(req.PaymentMethod, h.Methods); err != nil {
		logger.From(r.Context()).Info("payment method rejected", "order_id", orderID, "payment_method", req.PaymentMethod)
		appErr, _ := internal.IsAppError(err)
		h.WriteJSON(w, http.StatusUnprocessableEntity, DeclinedResponse{
			Status:  "declined",
			Notices: []string{appErr.Message},
		})
		return
	}

	instruction, err := h.Gateway.ProcessPayment(r.Context(), orderID, req.PaymentMethod)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, instruction)
}

// ReceiptPage handles GET /api/v1/checkout/order-pay/{id}
func (h *Handler) ReceiptPage(w http.ResponseWriter, r *http.Request) {
	orderID, ok := h.orderID(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	redirect, err := h.Receipts.PrepareRedirect(r.Context(), orderID, query.Get("key"), query.Get("token"), internal.ClientFromContext(r.Context()))
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, NewRedirectFormResponse(redirect))
}

// GetSnapshot handles GET /api/v1/checkout/orders/{id}/snapshot
func (h *Handler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	orderID, ok := h.orderID(w, r)
	if !ok {
		return
	}

	snapshot, err := h.Receipts.Snapshot(r.Context(), orderID)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, NewSnapshotResponse(orderID, snapshot))
}

// ListMethods handles GET /api/v1/checkout/payment-methods
func (h *Handler) ListMethods(w http.ResponseWriter, r *http.Request) {
	resp := MethodsResponse{Methods: make([]MethodResponse, 0, len(h.Methods))}
	for _, m := range h.Methods {
		resp.Methods = append(resp.Methods, MethodResponse{Code: m.String(), Label: m.Label()})
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) orderID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		h.HandleError(w, r, internal.NewValidationFieldError("order_id", "order_id must be a number", internal.ErrCodeInvalidOrderID))
		return 0, false
	}
	if appErr := validation.ValidateOrderID(id); appErr != nil {
		h.HandleError(w, r, appErr)
		return 0, false
	}
	return id, true
}
