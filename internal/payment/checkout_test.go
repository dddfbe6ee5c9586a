package payment_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/emspay-gateway/internal"
	"github.com/frahmantamala/emspay-gateway/internal/core/events"
	"github.com/frahmantamala/emspay-gateway/internal/hosted"
	"github.com/frahmantamala/emspay-gateway/internal/locale"
	"github.com/frahmantamala/emspay-gateway/internal/order"
	"github.com/frahmantamala/emspay-gateway/internal/payment"
	"github.com/frahmantamala/emspay-gateway/internal/paymentgateway"
	"github.com/frahmantamala/emspay-gateway/internal/transport"
	"github.com/frahmantamala/emspay-gateway/internal/transport/middleware"
)

var _ = Describe("Checkout", func() {
	var (
		ctx      context.Context
		store    *order.Service
		bus      *events.EventBus
		gateway  *payment.Gateway
		receipts *payment.ReceiptService
		router   *chi.Mux
		cfg      internal.GatewayConfig
		now      time.Time
		audit    *auditLog
	)

	recorded := func() []events.Event {
		Expect(bus.Wait(ctx)).To(Succeed())
		return audit.all()
	}

	BeforeEach(func() {
		ctx = context.Background()
		logger := quietLogger()
		store = newOrderStore()
		now = time.Date(2024, 3, 1, 12, 30, 15, 0, time.UTC)
		clock := func() time.Time { return now }

		cfg = internal.GatewayConfig{
			ID:             "emspay",
			StoreName:      "10123456",
			SharedSecret:   "sharedsecret",
			Environment:    internal.EnvironmentTest,
			CheckoutOption: internal.CheckoutOptionClassic,
			Mode:           internal.ModePayOnly,
			CallbackURL:    "https://shop.example.com/ems/callback",
		}

		audit = &auditLog{}
		bus = events.NewEventBus(logger)
		bus.Subscribe(events.EventTypePaymentInitiated, audit.record)
		bus.Subscribe(events.EventTypePaymentRedirectPrepared, audit.record)

		links := payment.NewReceiptLinks("https://checkout.example.com", receiptSecret, time.Hour).WithClock(clock)
		snapshots := payment.NewSnapshotter(store, "UTC", logger).WithClock(clock)
		gateway = payment.NewGateway(store, snapshots, links, bus, logger)

		builder := hosted.NewBuilder(locale.NewResolver(), hosted.NewRegistry(), logger)
		signer := paymentgateway.NewConnectSigner(cfg, logger)
		receipts = payment.NewReceiptService(store, links, builder, signer, cfg, bus, logger)

		handler := payment.NewHandler(transport.NewBaseHandler(logger), gateway, receipts, payment.SupportedMethods)
		router = chi.NewRouter()
		router.Route("/api/v1/checkout", func(r chi.Router) {
			r.Use(middleware.ClientContext)
			r.Get("/payment-methods", handler.ListMethods)
			r.Post("/orders/{id}/payment", handler.ProcessPayment)
			r.Get("/orders/{id}/snapshot", handler.GetSnapshot)
			r.Get("/order-pay/{id}", handler.ReceiptPage)
		})
	})

	AfterEach(func() {
		Expect(bus.Wait(ctx)).To(Succeed())
	})

	submitFrom := func(orderID int64, method string, headers map[string]string) *httptest.ResponseRecorder {
		body, _ := json.Marshal(payment.ProcessPaymentRequest{PaymentMethod: method})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/orders/"+idPath(orderID)+"/payment", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	submit := func(orderID int64, method string) *httptest.ResponseRecorder {
		return submitFrom(orderID, method, nil)
	}

	openReceipt := func(receiptURL string, headers map[string]string) *httptest.ResponseRecorder {
		u, err := url.Parse(receiptURL)
		Expect(err).NotTo(HaveOccurred())
		req := httptest.NewRequest(http.MethodGet, u.RequestURI(), nil)
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	Describe("Gateway.ProcessPayment", func() {
		It("persists the snapshot and points to the receipt page", func() {
			// Given
			o := createOrder(store, "49.99", "EUR")

			// When
			instruction, err := gateway.ProcessPayment(ctx, o.ID, "ideal")

			// Then
			Expect(err).NotTo(HaveOccurred())
			Expect(instruction.Status).To(Equal("redirect"))
			Expect(instruction.State).To(Equal(payment.StateRedirecting))
			Expect(instruction.URL).To(HavePrefix("https://checkout.example.com/api/v1/checkout/order-pay/"))

			loaded, err := store.Get(ctx, o.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.Snapshot.NumericCurrencyCode).To(Equal("978"))
			Expect(loaded.Snapshot.PaymentMethod).To(Equal("ideal"))
			Expect(loaded.Snapshot.TransactionTime).To(Equal("2024:03:01-12:30:15"))
			Expect(loaded.Snapshot.Timezone).To(Equal("UTC"))

			published := recorded()
			Expect(published).To(HaveLen(1))
			Expect(published[0].EventType()).To(Equal(events.EventTypePaymentInitiated))
		})

		It("captures the time in the shopper's timezone", func() {
			o := createOrder(store, "49.99", "EUR")
			shopper := internal.ContextWithClient(ctx, internal.ClientContext{Timezone: "Asia/Tokyo"})

			_, err := gateway.ProcessPayment(shopper, o.ID, "M")

			Expect(err).NotTo(HaveOccurred())
			loaded, err := store.Get(ctx, o.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.Snapshot.TransactionTime).To(Equal("2024:03:01-21:30:15"))
			Expect(loaded.Snapshot.Timezone).To(Equal("Asia/Tokyo"))
			initiated := recorded()[0].(*events.PaymentInitiatedEvent)
			Expect(initiated.TransactionTime).To(Equal("2024:03:01-21:30:15"))
			Expect(initiated.Timezone).To(Equal("Asia/Tokyo"))
		})

		It("fails for an unknown order", func() {
			_, err := gateway.ProcessPayment(ctx, 999, "M")

			Expect(errors.Is(err, internal.ErrOrderNotFound)).To(BeTrue())
		})

		It("aborts before persisting when the currency is unsupported", func() {
			o := createOrder(store, "10.00", "XYZ")

			_, err := gateway.ProcessPayment(ctx, o.ID, "M")

			Expect(errors.Is(err, internal.ErrUnsupportedCurrency)).To(BeTrue())
			loaded, _ := store.Get(ctx, o.ID)
			Expect(loaded.Snapshot).To(BeNil())
		})
	})

	Describe("ReceiptService", func() {
		It("refuses to build fields for an order without snapshot", func() {
			o := createOrder(store, "49.99", "EUR")
			token, err := payment.NewReceiptLinks("https://checkout.example.com", receiptSecret, time.Hour).
				WithClock(func() time.Time { return now }).
				Issue(o)
			Expect(err).NotTo(HaveOccurred())

			_, err = receipts.PrepareRedirect(ctx, o.ID, o.OrderKey, token, internal.ClientContext{})

			Expect(errors.Is(err, internal.ErrMissingPaymentSnapshot)).To(BeTrue())
		})

		It("refuses a wrong order key", func() {
			o := createOrder(store, "49.99", "EUR")
			instruction, err := gateway.ProcessPayment(ctx, o.ID, "M")
			Expect(err).NotTo(HaveOccurred())
			u, _ := url.Parse(instruction.URL)

			_, err = receipts.PrepareRedirect(ctx, o.ID, "order_other", u.Query().Get("token"), internal.ClientContext{})

			Expect(errors.Is(err, internal.ErrInvalidReceiptToken)).To(BeTrue())
		})

		It("refuses a truncated or empty order key", func() {
			o := createOrder(store, "49.99", "EUR")
			instruction, err := gateway.ProcessPayment(ctx, o.ID, "M")
			Expect(err).NotTo(HaveOccurred())
			token := mustQuery(instruction.URL, "token")

			for _, key := range []string{o.OrderKey[:len(o.OrderKey)-1], o.OrderKey + "x", ""} {
				_, err = receipts.PrepareRedirect(ctx, o.ID, key, token, internal.ClientContext{})
				Expect(errors.Is(err, internal.ErrInvalidReceiptToken)).To(BeTrue(), "key %q", key)
			}

			_, err = receipts.PrepareRedirect(ctx, o.ID, o.OrderKey, token, internal.ClientContext{})
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("HTTP flow", func() {
		It("EUR order, French shopper, iDEAL", func() {
			// Given
			o := createOrder(store, "49.99", "EUR")

			// When
			submitted := submitFrom(o.ID, "ideal", map[string]string{"X-Client-Timezone": "Europe/Paris"})

			// Then
			Expect(submitted.Code).To(Equal(http.StatusOK))
			var instruction payment.RedirectInstruction
			Expect(json.NewDecoder(submitted.Body).Decode(&instruction)).To(Succeed())
			Expect(instruction.Status).To(Equal("redirect"))

			// When the receipt page is opened from a browser reporting another zone
			page := openReceipt(instruction.URL, map[string]string{
				"Accept-Language":   "fr-FR",
				"X-Client-Timezone": "America/New_York",
				"User-Agent":        "Mozilla/5.0 (X11; Linux x86_64) Firefox/125.0",
			})

			// Then
			Expect(page.Code).To(Equal(http.StatusOK))
			var form payment.RedirectFormResponse
			Expect(json.NewDecoder(page.Body).Decode(&form)).To(Succeed())
			Expect(form.Action).To(Equal(paymentgateway.TestActionURL))
			Expect(form.Fields["currency"]).To(Equal("978"))
			Expect(form.Fields["language"]).To(Equal("fr_FR"))
			Expect(form.Fields["paymentMethod"]).To(Equal("ideal"))
			Expect(form.Fields["chargetotal"]).To(Equal("49.99"))
			Expect(form.Fields["oid"]).To(Equal(idPath(o.ID)))
			Expect(form.Fields["timezone"]).To(Equal("Europe/Paris"))
			Expect(form.Fields["txndatetime"]).To(Equal("2024:03:01-13:30:15"))
			Expect(form.Fields["mobileMode"]).To(Equal("false"))
			Expect(form.Fields["hash"]).To(HaveLen(64))
			Expect(form.Order).To(HaveLen(len(form.Fields)))

			Expect(recorded()).To(HaveLen(2))
		})

		It("USD order, Japanese shopper, Visa", func() {
			o := createOrder(store, "120.00", "USD")

			submitted := submit(o.ID, "V")
			Expect(submitted.Code).To(Equal(http.StatusOK))
			var instruction payment.RedirectInstruction
			Expect(json.NewDecoder(submitted.Body).Decode(&instruction)).To(Succeed())

			page := openReceipt(instruction.URL+"&locale=ja_JP", nil)

			Expect(page.Code).To(Equal(http.StatusOK))
			var form payment.RedirectFormResponse
			Expect(json.NewDecoder(page.Body).Decode(&form)).To(Succeed())
			Expect(form.Fields["language"]).To(Equal("en_US"))
			Expect(form.Fields["currency"]).To(Equal("840"))
			Expect(form.Fields["paymentMethod"]).To(Equal("V"))
			Expect(form.Fields["chargetotal"]).To(Equal("120.00"))
		})

		It("declines bitcoin before anything is persisted", func() {
			o := createOrder(store, "49.99", "EUR")

			rec := submit(o.ID, "bitcoin")

			Expect(rec.Code).To(Equal(http.StatusUnprocessableEntity))
			var declined payment.DeclinedResponse
			Expect(json.NewDecoder(rec.Body).Decode(&declined)).To(Succeed())
			Expect(declined.Status).To(Equal("declined"))
			Expect(declined.Notices).To(ConsistOf("Invalid payment method."))

			loaded, err := store.Get(ctx, o.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.Snapshot).To(BeNil())
			Expect(recorded()).To(BeEmpty())
		})

		It("answers 404 for an unknown order", func() {
			rec := submit(12345, "M")

			Expect(rec.Code).To(Equal(http.StatusNotFound))
			Expect(rec.Body.String()).To(ContainSubstring(string(internal.ErrCodeOrderNotFound)))
		})

		It("answers 400 for a non-numeric id", func() {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/orders/abc/payment", bytes.NewReader([]byte(`{"payment_method":"M"}`)))
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})

		It("answers 403 for a tampered receipt token", func() {
			o := createOrder(store, "49.99", "EUR")
			Expect(submit(o.ID, "M").Code).To(Equal(http.StatusOK))

			rec := openReceipt("/api/v1/checkout/order-pay/"+idPath(o.ID)+"?key="+o.OrderKey+"&token=forged", nil)

			Expect(rec.Code).To(Equal(http.StatusForbidden))
		})

		It("exposes the stored snapshot", func() {
			o := createOrder(store, "49.99", "EUR")

			missing := httptest.NewRecorder()
			router.ServeHTTP(missing, httptest.NewRequest(http.MethodGet, "/api/v1/checkout/orders/"+idPath(o.ID)+"/snapshot", nil))
			Expect(missing.Code).To(Equal(http.StatusNotFound))

			Expect(submit(o.ID, "sofort").Code).To(Equal(http.StatusOK))

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/checkout/orders/"+idPath(o.ID)+"/snapshot", nil))
			Expect(rec.Code).To(Equal(http.StatusOK))
			var snapshot payment.SnapshotResponse
			Expect(json.NewDecoder(rec.Body).Decode(&snapshot)).To(Succeed())
			Expect(snapshot.PaymentMethod).To(Equal("sofort"))
			Expect(snapshot.CurrencyCode).To(Equal("978"))
			Expect(snapshot.TransactionTime).To(Equal("2024:03:01-12:30:15"))
			Expect(snapshot.Timezone).To(Equal("UTC"))
		})

		It("lists the payment methods", func() {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/checkout/payment-methods", nil))

			Expect(rec.Code).To(Equal(http.StatusOK))
			var resp payment.MethodsResponse
			Expect(json.NewDecoder(rec.Body).Decode(&resp)).To(Succeed())
			Expect(resp.Methods).To(HaveLen(len(payment.SupportedMethods)))
		})
	})
})

func mustQuery(raw, key string) string {
	u, err := url.Parse(raw)
	Expect(err).NotTo(HaveOccurred())
	return u.Query().Get(key)
}

func idPath(id int64) string {
	return strconv.FormatInt(id, 10)
}

// auditLog collects the events of one spec. Each spec subscribes a fresh
// log, so handlers still finishing from an earlier spec can not add to it.
type auditLog struct {
	mu   sync.Mutex
	seen []events.Event
}

func (l *auditLog) record(_ context.Context, e events.Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seen = append(l.seen, e)
	return nil
}

func (l *auditLog) all() []events.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]events.Event(nil), l.seen...)
}
