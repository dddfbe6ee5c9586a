package payment

import (
	"fmt"

	"github.com/frahmantamala/emspay-gateway/internal"
	"github.com/frahmantamala/emspay-gateway/internal/core/common/validation"
)

// Method is a payment method code as the hosted payment page knows it.
type Method string

const (
	MethodMasterCard Method = "M"
	MethodVisa       Method = "V"
	MethodDiners     Method = "C"
	MethodIDEAL      Method = "ideal"
	MethodKlarna     Method = "klarna"
	MethodMaestro    Method = "MA"
	MethodMaestroUK  Method = "maestroUK"
	MethodMasterPass Method = "masterpass"
	MethodPayPal     Method = "paypal"
	MethodSofort     Method = "sofort"
	MethodBancontact Method = "BCMC"
)

var SupportedMethods = []Method{
	MethodMasterCard,
	MethodVisa,
	MethodDiners,
	MethodIDEAL,
	MethodKlarna,
	MethodMaestro,
	MethodMaestroUK,
	MethodMasterPass,
	MethodPayPal,
	MethodSofort,
	MethodBancontact,
}

var methodLabels = map[Method]string{
	MethodMasterCard: "MasterCard",
	MethodVisa:       "Visa",
	MethodDiners:     "Diners Club",
	MethodIDEAL:      "iDEAL",
	MethodKlarna:     "Klarna",
	MethodMaestro:    "Maestro",
	MethodMaestroUK:  "Maestro UK",
	MethodMasterPass: "MasterPass",
	MethodPayPal:     "PayPal",
	MethodSofort:     "SOFORT Banking",
	MethodBancontact: "Bancontact",
}

func (m Method) String() string {
	return string(m)
}

func (m Method) Label() string {
	if label, ok := methodLabels[m]; ok {
		return label
	}
	return string(m)
}

// ValidateMethod checks method against allowed with a case-sensitive exact
// match. A failure is a user-correctable decline carrying the message
// "Invalid payment method.".
func ValidateMethod(method string, allowed []Method) error {
	names := make([]string, len(allowed))
	for i, m := range allowed {
		names[i] = string(m)
	}

	validator := validation.NewValidator()
	validator.Field("payment_method", method).
		Required().
		MaxLength(32).
		OneOf(names, internal.ErrCodeInvalidPaymentMethod)

	if appErr := validator.Validate(); appErr != nil {
		return internal.NewInvalidPaymentMethodError(method).WithDetails(appErr.Details)
	}
	return nil
}

// ParseMethods turns configured method codes into Methods. An empty list
// enables every supported method.
func ParseMethods(codes []string) ([]Method, error) {
	if len(codes) == 0 {
		return append([]Method(nil), SupportedMethods...), nil
	}

	methods := make([]Method, 0, len(codes))
	for _, code := range codes {
		if err := ValidateMethod(code, SupportedMethods); err != nil {
			return nil, fmt.Errorf("enabled method %q: %w", code, err)
		}
		methods = append(methods, Method(code))
	}
	return methods, nil
}
