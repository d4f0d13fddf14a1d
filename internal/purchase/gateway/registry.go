package gateway

import (
	"strings"

	purchasedomain "github.com/musichub/musichub/internal/purchase/domain"
)

type Registry struct {
	gateways map[string]Gateway
}

func NewRegistry(gateways ...Gateway) *Registry {
	registry := &Registry{gateways: map[string]Gateway{}}
	for _, gw := range gateways {
		if gw == nil {
			continue
		}
		method := strings.ToLower(strings.TrimSpace(gw.Method()))
		if method == "" {
			continue
		}
		registry.gateways[method] = gw
	}
	return registry
}

func (r *Registry) MethodExists(method string) bool {
	if r == nil {
		return false
	}
	method = strings.ToLower(strings.TrimSpace(method))
	_, ok := r.gateways[method]
	return ok
}

func (r *Registry) Resolve(method string) (Gateway, error) {
	if r == nil {
		return nil, purchasedomain.ErrInvalidPaymentMethod
	}
	method = strings.ToLower(strings.TrimSpace(method))
	gw, ok := r.gateways[method]
	if !ok {
		return nil, purchasedomain.ErrInvalidPaymentMethod
	}
	return gw, nil
}
