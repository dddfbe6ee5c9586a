package payment_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/emspay-gateway/internal"
	"github.com/frahmantamala/emspay-gateway/internal/order"
	"github.com/frahmantamala/emspay-gateway/internal/payment"
)

var _ = Describe("Snapshotter", func() {
	var (
		ctx         context.Context
		store       *order.Service
		snapshotter *payment.Snapshotter
		now         time.Time
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = newOrderStore()
		now = time.Date(2024, 3, 1, 12, 30, 15, 987654321, time.FixedZone("CET", 3600))
		snapshotter = payment.NewSnapshotter(store, "Europe/Amsterdam", quietLogger()).WithClock(func() time.Time { return now })
	})

	Describe("Capture", func() {
		It("records the provider time in the client zone, numeric currency and method", func() {
			o := createOrder(store, "49.99", "EUR")

			snapshot, err := snapshotter.Capture(o, "ideal", "Asia/Tokyo")

			Expect(err).NotTo(HaveOccurred())
			Expect(snapshot.TransactionTime).To(Equal("2024:03:01-20:30:15"))
			Expect(snapshot.Timezone).To(Equal("Asia/Tokyo"))
			Expect(snapshot.NumericCurrencyCode).To(Equal("978"))
			Expect(snapshot.PaymentMethod).To(Equal("ideal"))
			at, err := snapshot.Time()
			Expect(err).NotTo(HaveOccurred())
			Expect(at).To(BeTemporally("==", time.Date(2024, 3, 1, 11, 30, 15, 0, time.UTC)))
		})

		DescribeTable("timezone fallback",
			func(client, defaultZone, wantZone, wantTime string) {
				s := payment.NewSnapshotter(store, defaultZone, quietLogger()).WithClock(func() time.Time { return now })

				snapshot, err := s.Capture(createOrder(store, "10.00", "USD"), "M", client)

				Expect(err).NotTo(HaveOccurred())
				Expect(snapshot.Timezone).To(Equal(wantZone))
				Expect(snapshot.TransactionTime).To(Equal(wantTime))
			},
			Entry("configured default without a client zone", "", "Europe/Amsterdam", "Europe/Amsterdam", "2024:03:01-12:30:15"),
			Entry("default when the client zone does not load", "Mars/Olympus", "Europe/Amsterdam", "Europe/Amsterdam", "2024:03:01-12:30:15"),
			Entry("UTC when neither loads", "Mars/Olympus", "Not/AZone", "UTC", "2024:03:01-11:30:15"),
		)

		It("fails for a currency the provider does not know", func() {
			o := createOrder(store, "10.00", "XYZ")

			_, err := snapshotter.Capture(o, "M", "")

			Expect(errors.Is(err, internal.ErrUnsupportedCurrency)).To(BeTrue())
		})
	})

	Describe("Persist", func() {
		It("stores the snapshot on the order", func() {
			// Given
			o := createOrder(store, "49.99", "EUR")
			snapshot, err := snapshotter.Capture(o, "ideal", "Europe/Paris")
			Expect(err).NotTo(HaveOccurred())

			// When
			err = snapshotter.Persist(ctx, o, snapshot)

			// Then
			Expect(err).NotTo(HaveOccurred())
			loaded, err := store.Get(ctx, o.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.Snapshot).NotTo(BeNil())
			Expect(loaded.Snapshot.NumericCurrencyCode).To(Equal("978"))
			Expect(loaded.Snapshot.PaymentMethod).To(Equal("ideal"))
			Expect(*loaded.Snapshot).To(Equal(snapshot))
		})

		It("replaces the earlier snapshot on a second attempt", func() {
			o := createOrder(store, "49.99", "EUR")
			first, _ := snapshotter.Capture(o, "ideal", "Europe/Paris")
			Expect(snapshotter.Persist(ctx, o, first)).To(Succeed())

			now = now.Add(2 * time.Minute)
			second, _ := snapshotter.Capture(o, "paypal", "Asia/Tokyo")
			Expect(snapshotter.Persist(ctx, o, second)).To(Succeed())

			loaded, err := store.Get(ctx, o.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.Snapshot.PaymentMethod).To(Equal("paypal"))
			Expect(*loaded.Snapshot).To(Equal(second))
		})

		It("is idempotent for the same snapshot", func() {
			o := createOrder(store, "49.99", "EUR")
			snapshot, _ := snapshotter.Capture(o, "M", "")

			Expect(snapshotter.Persist(ctx, o, snapshot)).To(Succeed())
			Expect(snapshotter.Persist(ctx, o, snapshot)).To(Succeed())

			loaded, err := store.Get(ctx, o.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.Snapshot.PaymentMethod).To(Equal("M"))
			Expect(*loaded.Snapshot).To(Equal(snapshot))
		})
	})
})
