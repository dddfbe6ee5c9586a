package hosted

// Field names of the hosted payment request before the provider SDK maps them
// onto its wire format.
const (
	FieldMobile          = "mobile"
	FieldChargeTotal     = "chargetotal"
	FieldOrderID         = "orderId"
	FieldLanguage        = "language"
	FieldPaymentMethod   = "paymentMethod"
	FieldCurrency        = "currency"
	FieldTimezone        = "timezone"
	FieldTransactionTime = "transactionTime"
)

// Fields is an ordered string mapping. Keys keep the position of their first
// Set; the zero value is ready to use.
type Fields struct {
	keys   []string
	values map[string]string
}

func NewFields() *Fields {
	return &Fields{values: make(map[string]string)}
}

func (f *Fields) Set(key, value string) {
	if f.values == nil {
		f.values = make(map[string]string)
	}
	if _, exists := f.values[key]; !exists {
		f.keys = append(f.keys, key)
	}
	f.values[key] = value
}

func (f *Fields) Get(key string) (string, bool) {
	v, ok := f.values[key]
	return v, ok
}

func (f *Fields) Delete(key string) {
	if _, exists := f.values[key]; !exists {
		return
	}
	delete(f.values, key)
	for i, k := range f.keys {
		if k == key {
			f.keys = append(f.keys[:i:i], f.keys[i+1:]...)
			break
		}
	}
}

func (f *Fields) Keys() []string {
	return append([]string(nil), f.keys...)
}

func (f *Fields) Len() int {
	return len(f.keys)
}

func (f *Fields) Map() map[string]string {
	out := make(map[string]string, len(f.values))
	for k, v := range f.values {
		out[k] = v
	}
	return out
}

func (f *Fields) Clone() *Fields {
	clone := NewFields()
	for _, k := range f.keys {
		clone.Set(k, f.values[k])
	}
	return clone
}
