package middleware

import (
	"net/http"
	"strings"

	"golang.org/x/text/language"

	"github.com/frahmantamala/emspay-gateway/internal"
	"github.com/frahmantamala/emspay-gateway/pkg/logger"
)

const (
	HeaderClientTimezone = "X-Client-Timezone"
	QueryLocale          = "locale"
	QueryTimezone        = "timezone"
)

// mobileMarkers are the User-Agent fragments treated as a mobile browser.
var mobileMarkers = []string{
	"Mobile",
	"Android",
	"Silk/",
	"Kindle",
	"BlackBerry",
	"Opera Mini",
	"Opera Mobi",
}

// ClientContext stores the shopper's device, timezone and locale on the
// request context for the hosted request builder.
func ClientContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		client := ClientFromRequest(r)

		ctx := internal.ContextWithClient(r.Context(), client)
		ctx = logger.With(ctx, "client_locale", client.Locale, "client_mobile", client.Mobile)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func ClientFromRequest(r *http.Request) internal.ClientContext {
	query := r.URL.Query()

	timezone := strings.TrimSpace(r.Header.Get(HeaderClientTimezone))
	if timezone == "" {
		timezone = strings.TrimSpace(query.Get(QueryTimezone))
	}

	locale := strings.TrimSpace(query.Get(QueryLocale))
	if locale == "" {
		locale = localeFromAcceptLanguage(r.Header.Get("Accept-Language"))
	}

	return internal.ClientContext{
		Mobile:   IsMobileUserAgent(r.UserAgent()),
		Timezone: timezone,
		Locale:   locale,
	}
}

func IsMobileUserAgent(userAgent string) bool {
	for _, marker := range mobileMarkers {
		if strings.Contains(userAgent, marker) {
			return true
		}
	}
	return false
}

// localeFromAcceptLanguage turns the preferred tag into the underscore form,
// "fr-fr" becomes "fr_FR". A region is only added when the header names one;
// "de" stays "de" and later resolves to the default locale.
func localeFromAcceptLanguage(header string) string {
	if header == "" {
		return ""
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return ""
	}

	tag := tags[0]
	base, _ := tag.Base()
	region, confidence := tag.Region()
	if confidence != language.Exact {
		return base.String()
	}
	return base.String() + "_" + region.String()
}
