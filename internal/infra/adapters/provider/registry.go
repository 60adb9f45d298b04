package provider

import (
	"ai-generation-platform/internal/domain"
	"ai-generation-platform/internal/domain/model"
	"ai-generation-platform/internal/domain/ports/adapter"
	"ai-generation-platform/internal/usecase"
)

var _ usecase.ProviderResolver = (*Registry)(nil)

// Registry maps vendors to their configured adapters. Vendors without
// credentials are simply absent; resolving them reports a configuration
// error rather than a lookup failure.
type Registry struct {
	byVendor map[model.Vendor]adapter.ProviderAdapter
}

func NewRegistry() *Registry {
	return &Registry{byVendor: make(map[model.Vendor]adapter.ProviderAdapter)}
}

func (r *Registry) Register(p adapter.ProviderAdapter) {
	r.byVendor[p.Vendor()] = p
}

func (r *Registry) Resolve(vendor model.Vendor) (adapter.ProviderAdapter, error) {
	if p, ok := r.byVendor[vendor]; ok {
		return p, nil
	}
	return nil, domain.ErrVendorNotConfigured
}
