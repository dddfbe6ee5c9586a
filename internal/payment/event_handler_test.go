package payment_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/emspay-gateway/internal/core/events"
	"github.com/frahmantamala/emspay-gateway/internal/payment"
)

var _ = Describe("EventHandler", func() {
	var handler *payment.EventHandler

	BeforeEach(func() {
		handler = payment.NewEventHandler(quietLogger())
	})

	It("records checkout events", func() {
		ctx := context.Background()

		Expect(handler.HandlePaymentInitiated(ctx, events.NewPaymentInitiatedEvent(1, "ideal", "978", "2024:03:01-13:30:15", "Europe/Paris"))).To(Succeed())
		Expect(handler.HandleRedirectPrepared(ctx, events.NewRedirectPreparedEvent(1, "emspay", "https://example.com", 17))).To(Succeed())
	})

	It("rejects events of the wrong shape", func() {
		ctx := context.Background()
		generic := events.BaseEvent{ID: "1", Type: events.EventTypePaymentInitiated}

		Expect(handler.HandlePaymentInitiated(ctx, generic)).To(HaveOccurred())
		Expect(handler.HandleRedirectPrepared(ctx, events.NewPaymentInitiatedEvent(1, "M", "840", "2024:03:01-12:00:00", "UTC"))).To(HaveOccurred())
	})

	It("subscribes both handlers on the bus", func() {
		bus := events.NewEventBus(quietLogger())
		handler.RegisterEventHandlers(bus)

		err := bus.PublishSync(context.Background(), events.NewRedirectPreparedEvent(2, "emspay", "https://example.com", 3))

		Expect(err).NotTo(HaveOccurred())
	})
})
