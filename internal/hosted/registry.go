package hosted

import (
	"context"
	"sync"

	"github.com/frahmantamala/emspay-gateway/internal/order"
)

// TransformFunc receives a copy of the current fields and returns the set the
// next transform sees. Returning nil keeps the input unchanged.
type TransformFunc func(ctx context.Context, fields *Fields, o *order.Order) (*Fields, error)

type FieldTransform struct {
	Name      string
	Transform TransformFunc
}

// Registry holds the ordered transforms for each gateway id. It is filled
// while the server is wired and handed to the Builder.
type Registry struct {
	mu         sync.RWMutex
	transforms map[string][]FieldTransform
}

func NewRegistry() *Registry {
	return &Registry{transforms: make(map[string][]FieldTransform)}
}

func (r *Registry) Register(gatewayID string, transform FieldTransform) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transforms[gatewayID] = append(r.transforms[gatewayID], transform)
}

func (r *Registry) Transforms(gatewayID string) []FieldTransform {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]FieldTransform(nil), r.transforms[gatewayID]...)
}

// StaticFields sets every entry of values, overriding earlier writers.
// Keys are applied in sorted order so the resulting field order is stable.
func StaticFields(name string, values map[string]string) FieldTransform {
	keys := sortedKeys(values)
	return FieldTransform{
		Name: name,
		Transform: func(_ context.Context, fields *Fields, _ *order.Order) (*Fields, error) {
			for _, k := range keys {
				fields.Set(k, values[k])
			}
			return fields, nil
		},
	}
}
