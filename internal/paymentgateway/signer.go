// Package paymentgateway turns hosted request fields into the signed form
// post the EMS IPG Connect payment page accepts.
package paymentgateway

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/emspay-gateway/internal"
	"github.com/frahmantamala/emspay-gateway/internal/hosted"
)

const (
	TestActionURL = "https://test.ipg-online.com/connect/gateway/processing"
	LiveActionURL = "https://www.ipg-online.com/connect/gateway/processing"

	TransactionTypeSale = "sale"
	HashAlgorithm       = "SHA256"
)

// Connect form parameter names.
const (
	ParamTransactionType    = "txntype"
	ParamTimezone           = "timezone"
	ParamTransactionTime    = "txndatetime"
	ParamHashAlgorithm      = "hash_algorithm"
	ParamHash               = "hash"
	ParamStoreName          = "storename"
	ParamMode               = "mode"
	ParamChargeTotal        = "chargetotal"
	ParamCurrency           = "currency"
	ParamOrderID            = "oid"
	ParamLanguage           = "language"
	ParamPaymentMethod      = "paymentMethod"
	ParamCheckoutOption     = "checkoutoption"
	ParamMobileMode         = "mobileMode"
	ParamResponseFailURL    = "responseFailURL"
	ParamResponseSuccessURL = "responseSuccessURL"
	ParamNotificationURL    = "transactionNotificationURL"
)

// fieldParams maps builder field names to Connect parameters where they differ.
var fieldParams = map[string]string{
	hosted.FieldMobile:          ParamMobileMode,
	hosted.FieldChargeTotal:     ParamChargeTotal,
	hosted.FieldOrderID:         ParamOrderID,
	hosted.FieldLanguage:        ParamLanguage,
	hosted.FieldPaymentMethod:   ParamPaymentMethod,
	hosted.FieldCurrency:        ParamCurrency,
	hosted.FieldTimezone:        ParamTimezone,
	hosted.FieldTransactionTime: ParamTransactionTime,
}

// Redirect is what the presentation layer renders as an auto-submitting form.
type Redirect struct {
	ActionURL string            `json:"action"`
	Fields    map[string]string `json:"fields"`
	Order     []string          `json:"order"`
}

var errMissingCredentials = errors.New("store name or shared secret not configured")

type Signer interface {
	BuildRedirect(ctx context.Context, fields *hosted.Fields) (*Redirect, error)
}

type ConnectSigner struct {
	cfg    internal.GatewayConfig
	logger *slog.Logger
}

func NewConnectSigner(cfg internal.GatewayConfig, logger *slog.Logger) *ConnectSigner {
	return &ConnectSigner{cfg: cfg, logger: logger}
}

func (s *ConnectSigner) ActionURL() string {
	if s.cfg.Environment == internal.EnvironmentLive {
		return LiveActionURL
	}
	return TestActionURL
}

// Check reports where redirects go and fails when the merchant credentials
// are missing. The secret itself never appears in the details.
func (s *ConnectSigner) Check(context.Context) (map[string]any, error) {
	details := map[string]any{
		"gateway_id":      s.cfg.ID,
		"environment":     s.cfg.Environment,
		"action_url":      s.ActionURL(),
		"checkout_option": s.cfg.CheckoutOption,
	}
	if s.cfg.StoreName == "" || s.cfg.SharedSecret == "" {
		return details, errMissingCredentials
	}
	return details, nil
}

// BuildRedirect adds the merchant parameters and the request hash to fields.
// Fields the builder or its transforms added that Connect does not define are
// passed through after the standard parameters; they can not override a
// merchant parameter or the hash.
func (s *ConnectSigner) BuildRedirect(_ context.Context, fields *hosted.Fields) (*Redirect, error) {
	params := make(map[string]string, fields.Len())
	var extras []string
	for _, key := range fields.Keys() {
		value, _ := fields.Get(key)
		if param, ok := fieldParams[key]; ok {
			params[param] = value
			continue
		}
		params[key] = value
		extras = append(extras, key)
	}

	for _, required := range []string{ParamChargeTotal, ParamCurrency, ParamTransactionTime, ParamTimezone} {
		if params[required] == "" {
			return nil, internal.NewSigningError(fmt.Sprintf("hosted request is missing %s", required))
		}
	}

	out := hosted.NewFields()
	out.Set(ParamTransactionType, TransactionTypeSale)
	out.Set(ParamTimezone, params[ParamTimezone])
	out.Set(ParamTransactionTime, params[ParamTransactionTime])
	out.Set(ParamHashAlgorithm, HashAlgorithm)
	out.Set(ParamHash, s.Hash(params[ParamTransactionTime], params[ParamChargeTotal], params[ParamCurrency]))
	out.Set(ParamStoreName, s.cfg.StoreName)
	out.Set(ParamMode, s.cfg.Mode)
	out.Set(ParamChargeTotal, params[ParamChargeTotal])
	out.Set(ParamCurrency, params[ParamCurrency])
	for _, optional := range []string{ParamOrderID, ParamLanguage, ParamPaymentMethod} {
		if v, ok := params[optional]; ok {
			out.Set(optional, v)
		}
	}
	out.Set(ParamCheckoutOption, s.cfg.CheckoutOption)
	if v, ok := params[ParamMobileMode]; ok {
		out.Set(ParamMobileMode, v)
	}
	out.Set(ParamResponseFailURL, s.cfg.CallbackURL)
	out.Set(ParamResponseSuccessURL, s.cfg.CallbackURL)
	out.Set(ParamNotificationURL, s.cfg.CallbackURL)

	for _, key := range extras {
		if _, reserved := out.Get(key); reserved {
			s.logger.Warn("dropping field that collides with a signed parameter", "field", key)
			continue
		}
		out.Set(key, params[key])
	}

	return &Redirect{
		ActionURL: s.ActionURL(),
		Fields:    out.Map(),
		Order:     out.Keys(),
	}, nil
}

// Hash is the Connect request hash: SHA-256 over the hex encoding of
// storename, txndatetime, chargetotal, currency and the shared secret.
func (s *ConnectSigner) Hash(txnDateTime, chargeTotal, currency string) string {
	plain := s.cfg.StoreName + txnDateTime + chargeTotal + currency + s.cfg.SharedSecret
	sum := sha256.Sum256([]byte(hex.EncodeToString([]byte(plain))))
	return hex.EncodeToString(sum[:])
}
