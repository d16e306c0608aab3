package database

import "github.com/konetibalaji/benchsales-match/pkg/apperr"

// TenantContext carries the tenant a repository call is scoped to. Every
// repository method takes one explicitly — there is no ambient/ombient
// global tenant, so forgetting to scope a query is a compile error, not
// a cross-tenant data leak waiting to happen.
type TenantContext struct {
	TenantID string
}

// NewTenantContext validates and wraps a tenant id.
func NewTenantContext(tenantID string) (TenantContext, error) {
	if tenantID == "" {
		return TenantContext{}, apperr.Validation("tenant id must not be empty")
	}
	return TenantContext{TenantID: tenantID}, nil
}
