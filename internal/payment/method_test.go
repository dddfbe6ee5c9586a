package payment_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/emspay-gateway/internal"
	"github.com/frahmantamala/emspay-gateway/internal/payment"
)

var _ = Describe("ValidateMethod", func() {
	It("accepts every supported method", func() {
		for _, m := range payment.SupportedMethods {
			Expect(payment.ValidateMethod(m.String(), payment.SupportedMethods)).To(Succeed())
		}
	})

	DescribeTable("rejects",
		func(method string) {
			err := payment.ValidateMethod(method, payment.SupportedMethods)

			Expect(errors.Is(err, internal.ErrInvalidPaymentMethod)).To(BeTrue())
			appErr, _ := internal.IsAppError(err)
			Expect(appErr.Message).To(Equal("Invalid payment method."))
			Expect(appErr.Fatal()).To(BeFalse())
		},
		Entry("unknown method", "bitcoin"),
		Entry("wrong case", "IDEAL"),
		Entry("mixed case", "iDeal"),
		Entry("lower-case card code", "v"),
		Entry("surrounding whitespace", " M"),
		Entry("empty", ""),
	)

	It("only allows the given subset", func() {
		allowed := []payment.Method{payment.MethodIDEAL, payment.MethodPayPal}

		Expect(payment.ValidateMethod("paypal", allowed)).To(Succeed())
		Expect(payment.ValidateMethod("V", allowed)).To(HaveOccurred())
	})
})

var _ = Describe("ParseMethods", func() {
	It("enables everything for an empty list", func() {
		methods, err := payment.ParseMethods(nil)

		Expect(err).NotTo(HaveOccurred())
		Expect(methods).To(Equal(payment.SupportedMethods))
	})

	It("rejects an unsupported configured method", func() {
		_, err := payment.ParseMethods([]string{"ideal", "bitcoin"})

		Expect(err).To(MatchError(ContainSubstring("bitcoin")))
	})

	It("labels methods for display", func() {
		Expect(payment.MethodBancontact.Label()).To(Equal("Bancontact"))
		Expect(payment.Method("unknown").Label()).To(Equal("unknown"))
	})
})
