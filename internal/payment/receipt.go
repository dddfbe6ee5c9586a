package payment

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/frahmantamala/emspay-gateway/internal"
	"github.com/frahmantamala/emspay-gateway/internal/order"
)

const receiptIssuer = "emspay-gateway"

type ReceiptClaims struct {
	OrderID  int64  `json:"order_id"`
	OrderKey string `json:"order_key"`
	jwt.RegisteredClaims
}

// ReceiptLinks issues and checks the short-lived links to the receipt page
// that renders the hosted payment form.
type ReceiptLinks struct {
	baseURL string
	secret  []byte
	ttl     time.Duration
	now     func() time.Time
}

func NewReceiptLinks(baseURL, secret string, ttl time.Duration) *ReceiptLinks {
	return &ReceiptLinks{
		baseURL: strings.TrimRight(baseURL, "/"),
		secret:  []byte(secret),
		ttl:     ttl,
		now:     time.Now,
	}
}

// WithClock replaces the time source, for tests.
func (r *ReceiptLinks) WithClock(now func() time.Time) *ReceiptLinks {
	r.now = now
	return r
}

func (r *ReceiptLinks) Issue(o *order.Order) (string, error) {
	issuedAt := r.now()
	claims := ReceiptClaims{
		OrderID:  o.ID,
		OrderKey: o.OrderKey,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    receiptIssuer,
			Subject:   strconv.FormatInt(o.ID, 10),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(r.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(r.secret)
	if err != nil {
		return "", fmt.Errorf("sign receipt token: %w", err)
	}
	return signed, nil
}

// ReceiptURL is <base>/api/v1/checkout/order-pay/<id>?key=<order key>&token=<jwt>.
func (r *ReceiptLinks) ReceiptURL(o *order.Order) (string, error) {
	token, err := r.Issue(o)
	if err != nil {
		return "", err
	}

	query := url.Values{}
	query.Set("key", o.OrderKey)
	query.Set("token", token)
	return fmt.Sprintf("%s/api/v1/checkout/order-pay/%d?%s", r.baseURL, o.ID, query.Encode()), nil
}

// Verify accepts tokenString only when it is unexpired, signed with our
// secret and bound to o's id and key.
func (r *ReceiptLinks) Verify(tokenString string, o *order.Order) error {
	claims := &ReceiptClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return r.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(receiptIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(r.now),
	)
	if err != nil {
		return internal.NewForbiddenError("receipt link is invalid or expired", internal.ErrCodeInvalidReceiptToken).WithCause(err)
	}

	if claims.OrderID != o.ID || claims.OrderKey != o.OrderKey {
		return internal.NewForbiddenError("receipt link does not match the order", internal.ErrCodeInvalidReceiptToken)
	}
	return nil
}
