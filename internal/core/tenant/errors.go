package tenant

import "errors"

var (
	// ErrTenantNotFound indicates the tenant does not exist.
	ErrTenantNotFound = errors.New("tenant not found")

	// ErrTenantNotActive indicates the tenant account is suspended.
	ErrTenantNotActive = errors.New("tenant is not active")
)
