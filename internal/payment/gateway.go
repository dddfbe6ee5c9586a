package payment

import (
	"context"
	"crypto/subtle"
	"log/slog"

	"github.com/frahmantamala/emspay-gateway/internal"
	"github.com/frahmantamala/emspay-gateway/internal/core/events"
	"github.com/frahmantamala/emspay-gateway/internal/hosted"
	"github.com/frahmantamala/emspay-gateway/internal/order"
	"github.com/frahmantamala/emspay-gateway/internal/paymentgateway"
)

// State of a checkout attempt. Neither state is stored; a shopper who never
// comes back from the hosted page leaves the order as it was.
type State string

const (
	StateInitiated   State = "initiated"
	StateRedirecting State = "redirecting"
)

const ResultRedirect = "redirect"

type RedirectInstruction struct {
	Status string `json:"status"`
	URL    string `json:"url"`
	State  State  `json:"-"`
}

type ReceiptURLBuilder interface {
	ReceiptURL(o *order.Order) (string, error)
}

// Gateway starts a hosted payment: it snapshots the order and sends the
// shopper to the receipt page that posts the signed form.
type Gateway struct {
	store     OrderStore
	snapshots *Snapshotter
	receipts  ReceiptURLBuilder
	events    events.Publisher
	logger    *slog.Logger
}

func NewGateway(store OrderStore, snapshots *Snapshotter, receipts ReceiptURLBuilder, publisher events.Publisher, logger *slog.Logger) *Gateway {
	return &Gateway{
		store:     store,
		snapshots: snapshots,
		receipts:  receipts,
		events:    publisher,
		logger:    logger,
	}
}

func (g *Gateway) ProcessPayment(ctx context.Context, orderID int64, method string) (*RedirectInstruction, error) {
	o, err := g.store.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	snapshot, err := g.snapshots.Capture(o, method, internal.ClientFromContext(ctx).Timezone)
	if err != nil {
		return nil, err
	}
	if err := g.snapshots.Persist(ctx, o, snapshot); err != nil {
		return nil, err
	}

	g.logger.Info("payment initiated",
		"order_id", o.ID,
		"payment_method", snapshot.PaymentMethod,
		"currency", snapshot.NumericCurrencyCode,
		"txndatetime", snapshot.TransactionTime,
		"timezone", snapshot.Timezone)

	if g.events != nil {
		event := events.NewPaymentInitiatedEvent(o.ID, snapshot.PaymentMethod, snapshot.NumericCurrencyCode, snapshot.TransactionTime, snapshot.Timezone)
		if err := g.events.Publish(ctx, event); err != nil {
			g.logger.Warn("failed to publish payment initiated event", "order_id", o.ID, "error", err)
		}
	}

	url, err := g.receipts.ReceiptURL(o)
	if err != nil {
		return nil, internal.NewInternalError("failed to build receipt url", err)
	}

	return &RedirectInstruction{
		Status: ResultRedirect,
		URL:    url,
		State:  StateRedirecting,
	}, nil
}

type FieldBuilder interface {
	Build(ctx context.Context, o *order.Order, cfg internal.GatewayConfig, client internal.ClientContext) (*hosted.Fields, error)
}

// ReceiptService backs the receipt page: it checks the link, builds the
// hosted request from the stored snapshot and signs it.
type ReceiptService struct {
	store   OrderStore
	links   *ReceiptLinks
	builder FieldBuilder
	signer  paymentgateway.Signer
	cfg     internal.GatewayConfig
	events  events.Publisher
	logger  *slog.Logger
}

func NewReceiptService(store OrderStore, links *ReceiptLinks, builder FieldBuilder, signer paymentgateway.Signer, cfg internal.GatewayConfig, publisher events.Publisher, logger *slog.Logger) *ReceiptService {
	return &ReceiptService{
		store:   store,
		links:   links,
		builder: builder,
		signer:  signer,
		cfg:     cfg,
		events:  publisher,
		logger:  logger,
	}
}

func (s *ReceiptService) PrepareRedirect(ctx context.Context, orderID int64, orderKey, token string, client internal.ClientContext) (*paymentgateway.Redirect, error) {
	o, err := s.store.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if subtle.ConstantTimeCompare([]byte(orderKey), []byte(o.OrderKey)) != 1 {
		s.logger.Warn("receipt page requested with wrong order key", "order_id", o.ID)
		return nil, internal.NewForbiddenError("receipt link does not match the order", internal.ErrCodeInvalidReceiptToken)
	}
	if err := s.links.Verify(token, o); err != nil {
		s.logger.Warn("receipt token rejected", "order_id", o.ID, "error", err)
		return nil, err
	}

	fields, err := s.builder.Build(ctx, o, s.cfg, client)
	if err != nil {
		return nil, err
	}

	redirect, err := s.signer.BuildRedirect(ctx, fields)
	if err != nil {
		s.logger.Error("failed to sign hosted request", "order_id", o.ID, "error", err)
		return nil, err
	}

	if s.events != nil {
		event := events.NewRedirectPreparedEvent(o.ID, s.cfg.ID, redirect.ActionURL, len(redirect.Order))
		if err := s.events.Publish(ctx, event); err != nil {
			s.logger.Warn("failed to publish redirect prepared event", "order_id", o.ID, "error", err)
		}
	}

	return redirect, nil
}

// Snapshot returns the persisted snapshot of an order for reconciliation.
func (s *ReceiptService) Snapshot(ctx context.Context, orderID int64) (*order.PaymentSnapshot, error) {
	o, err := s.store.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.Snapshot == nil {
		return nil, internal.NewNotFoundError("order has no payment snapshot", internal.ErrCodeMissingPaymentSnapshot)
	}
	return o.Snapshot, nil
}
