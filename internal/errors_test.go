package internal_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/emspay-gateway/internal"
)

var _ = Describe("AppError", func() {
	It("matches sentinels by code through wrapping", func() {
		err := fmt.Errorf("loading order: %w", internal.NewOrderNotFoundError(9))

		Expect(errors.Is(err, internal.ErrOrderNotFound)).To(BeTrue())
		Expect(errors.Is(err, internal.ErrInvalidReceiptToken)).To(BeFalse())
	})

	It("answers correctable declines with 422", func() {
		status, _ := internal.NewInvalidPaymentMethodError("bitcoin").ToHTTPResponse()
		Expect(status).To(Equal(http.StatusUnprocessableEntity))

		status, _ = internal.NewUnsupportedCurrencyError("XYZ").ToHTTPResponse()
		Expect(status).To(Equal(http.StatusUnprocessableEntity))
	})

	It("treats only validation errors as non fatal", func() {
		Expect(internal.NewInvalidPaymentMethodError("bitcoin").Fatal()).To(BeFalse())
		Expect(internal.NewMissingPaymentSnapshotError(1).Fatal()).To(BeTrue())
		Expect(internal.NewForbiddenError("no", internal.ErrCodeInvalidReceiptToken).Fatal()).To(BeTrue())
	})

	It("keeps the cause out of the JSON body", func() {
		appErr := internal.NewInternalError("checkout could not be completed", errors.New("pq: password authentication failed"))

		_, body := appErr.ToHTTPResponse()
		raw, err := json.Marshal(body)

		Expect(err).NotTo(HaveOccurred())
		Expect(string(raw)).NotTo(ContainSubstring("password"))
		Expect(appErr.Error()).To(ContainSubstring("password"))
	})

	It("joins field messages", func() {
		appErr := internal.NewValidationError("Validation failed", internal.ErrCodeValidationFailed).
			WithDetails(internal.ValidationErrors{Errors: []internal.ValidationError{
				{Field: "order_id", Message: "order_id is required"},
				{Field: "payment_method", Message: "payment_method is required"},
			}})

		Expect(appErr.GetDetailedMessage()).To(Equal("order_id is required; payment_method is required"))
	})
})
