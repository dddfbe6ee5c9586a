package locale

import "sort"

const DefaultLocale = "en_US"

// SupportedLocales are the language tags the hosted payment page can render.
var SupportedLocales = []string{
	"zh_CN", "zh_TW", "cs_CZ", "nl_NL", "en_US",
	"en_GB", "fi_FI", "fr_FR", "de_DE", "el_GR",
	"it_IT", "pl_PL", "pt_BR", "sk_SK", "es_ES",
}

type Resolver struct {
	supported map[string]struct{}
	fallback  string
}

func NewResolver() *Resolver {
	supported := make(map[string]struct{}, len(SupportedLocales))
	for _, tag := range SupportedLocales {
		supported[tag] = struct{}{}
	}
	return &Resolver{supported: supported, fallback: DefaultLocale}
}

// Resolve returns requested when it is an exact supported tag and the default
// locale otherwise. "en_CA" does not fall back to "en_GB" or "en_US" by
// prefix; it gets the default like any other unknown tag.
func (r *Resolver) Resolve(requested string) string {
	if _, ok := r.supported[requested]; ok {
		return requested
	}
	return r.fallback
}

func (r *Resolver) Default() string {
	return r.fallback
}

func (r *Resolver) Supported() []string {
	tags := make([]string, 0, len(r.supported))
	for tag := range r.supported {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}
