package payment_test

import (
	"errors"
	"net/url"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/frahmantamala/emspay-gateway/internal"
	"github.com/frahmantamala/emspay-gateway/internal/order"
	"github.com/frahmantamala/emspay-gateway/internal/payment"
)

const receiptSecret = "0123456789abcdef0123456789abcdef"

var _ = Describe("ReceiptLinks", func() {
	var (
		links *payment.ReceiptLinks
		now   time.Time
		o     *order.Order
	)

	BeforeEach(func() {
		now = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		links = payment.NewReceiptLinks("https://checkout.example.com/", receiptSecret, time.Hour).
			WithClock(func() time.Time { return now })
		o = &order.Order{ID: 42, OrderKey: "order_abc", Total: decimal.RequireFromString("49.99"), Currency: "EUR"}
	})

	It("builds the receipt page url with key and token", func() {
		raw, err := links.ReceiptURL(o)
		Expect(err).NotTo(HaveOccurred())

		u, err := url.Parse(raw)
		Expect(err).NotTo(HaveOccurred())
		Expect(u.Scheme + "://" + u.Host + u.Path).To(Equal("https://checkout.example.com/api/v1/checkout/order-pay/42"))
		Expect(u.Query().Get("key")).To(Equal("order_abc"))
		Expect(links.Verify(u.Query().Get("token"), o)).To(Succeed())
	})

	It("rejects an expired token", func() {
		token, err := links.Issue(o)
		Expect(err).NotTo(HaveOccurred())

		now = now.Add(2 * time.Hour)

		Expect(errors.Is(links.Verify(token, o), internal.ErrInvalidReceiptToken)).To(BeTrue())
	})

	It("rejects a token for another order", func() {
		token, err := links.Issue(o)
		Expect(err).NotTo(HaveOccurred())

		other := &order.Order{ID: 43, OrderKey: "order_abc"}

		Expect(errors.Is(links.Verify(token, other), internal.ErrInvalidReceiptToken)).To(BeTrue())
	})

	It("rejects a token signed with another secret", func() {
		forged, err := payment.NewReceiptLinks("https://checkout.example.com", strings.Repeat("x", 32), time.Hour).
			WithClock(func() time.Time { return now }).
			Issue(o)
		Expect(err).NotTo(HaveOccurred())

		Expect(errors.Is(links.Verify(forged, o), internal.ErrInvalidReceiptToken)).To(BeTrue())
	})

	It("rejects garbage", func() {
		Expect(links.Verify("not-a-jwt", o)).To(HaveOccurred())
		Expect(links.Verify("", o)).To(HaveOccurred())
	})
})
