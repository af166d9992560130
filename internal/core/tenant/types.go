// Package tenant provides multi-tenancy primitives.
//
// Tenancy is shared-schema: every table carries a tenant_id column and
// every repository predicate filters on it. The tenant descriptor rides
// in the request context from the tenant middleware down to the repos.
package tenant

import (
	"invenda/internal/core/id"
)

// Tenant describes one company account on the platform.
type Tenant struct {
	ID   id.ID
	Code string
	Name string

	// CurrencyExponent is the number of minor-unit digits of the
	// tenant's operating currency (2 for USD/EUR, 0 for JPY).
	// Monetary values are rounded to it at persist time only.
	CurrencyExponent int32

	Active bool
}
