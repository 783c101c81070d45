package tenant

import (
	"net/http"
	"strings"
)

// HeaderName is the tenant-identifying request header.
const HeaderName = "X-Tenant-ID"

// QueryParam is the development-convenience query parameter.
const QueryParam = "tenant"

// reservedLabels are host labels that never name a tenant.
var reservedLabels = map[string]struct{}{
	"www":   {},
	"api":   {},
	"admin": {},
}

// Resolver extracts a tenant slug from an HTTP request. An empty string
// means the request carried no tenant signal; callers decide whether the
// route requires one.
type Resolver interface {
	Resolve(r *http.Request) (string, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(r *http.Request) (string, error)

func (f ResolverFunc) Resolve(r *http.Request) (string, error) {
	return f(r)
}

// HeaderResolver reads the slug from a request header.
type HeaderResolver struct {
	Name string
}

func NewHeaderResolver() *HeaderResolver {
	return &HeaderResolver{Name: HeaderName}
}

func (hr *HeaderResolver) Resolve(r *http.Request) (string, error) {
	return r.Header.Get(hr.Name), nil
}

// SubdomainResolver reads the slug from the left-most host label. It only
// fires when the host has at least three dot-separated labels and the
// first one is not reserved, so "localhost" and "ekklesia.app" never
// resolve to a tenant.
type SubdomainResolver struct{}

func NewSubdomainResolver() *SubdomainResolver {
	return &SubdomainResolver{}
}

func (sr *SubdomainResolver) Resolve(r *http.Request) (string, error) {
	host := r.Host
	if idx := strings.LastIndex(host, ":"); idx != -1 {
		host = host[:idx]
	}

	labels := strings.Split(host, ".")
	if len(labels) < 3 {
		return "", nil
	}
	if _, reserved := reservedLabels[labels[0]]; reserved {
		return "", nil
	}
	return labels[0], nil
}

// QueryResolver reads the slug from a query parameter. Intended for local
// development where neither headers nor subdomains are convenient.
type QueryResolver struct {
	Param string
}

func NewQueryResolver() *QueryResolver {
	return &QueryResolver{Param: QueryParam}
}

func (qr *QueryResolver) Resolve(r *http.Request) (string, error) {
	return r.URL.Query().Get(qr.Param), nil
}

// CompositeResolver tries each resolver in order and returns the first
// non-empty slug. No cross-validation is performed between signals; an
// explicit header wins even when the host carries a different subdomain.
type CompositeResolver struct {
	resolvers []Resolver
}

func NewCompositeResolver(resolvers ...Resolver) *CompositeResolver {
	return &CompositeResolver{resolvers: resolvers}
}

// NewDefaultResolver returns the production resolution chain:
// header, then subdomain, then query parameter.
func NewDefaultResolver() *CompositeResolver {
	return NewCompositeResolver(
		NewHeaderResolver(),
		NewSubdomainResolver(),
		NewQueryResolver(),
	)
}

func (cr *CompositeResolver) Resolve(r *http.Request) (string, error) {
	for _, resolver := range cr.resolvers {
		slug, err := resolver.Resolve(r)
		if err != nil {
			return "", err
		}
		if slug != "" {
			return slug, nil
		}
	}
	return "", nil
}
