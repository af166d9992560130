package tenant

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Registry provides access to tenant descriptors.
type Registry interface {
	// GetByID retrieves tenant by UUID string.
	GetByID(ctx context.Context, tenantID string) (*Tenant, error)

	// GetByCode retrieves tenant by its short code.
	GetByCode(ctx context.Context, code string) (*Tenant, error)

	// ListActive returns all active tenants.
	ListActive(ctx context.Context) ([]*Tenant, error)

	// Create inserts a new tenant row and populates t.ID.
	Create(ctx context.Context, t *Tenant) error

	// SetActive switches a tenant on or off.
	SetActive(ctx context.Context, tenantID string, active bool) error
}

// PostgresRegistry implements Registry against the shared database.
type PostgresRegistry struct {
	pool *pgxpool.Pool
}

func NewPostgresRegistry(pool *pgxpool.Pool) *PostgresRegistry {
	return &PostgresRegistry{pool: pool}
}

func (r *PostgresRegistry) GetByID(ctx context.Context, tenantID string) (*Tenant, error) {
	var t Tenant
	err := pgxscan.Get(ctx, r.pool, &t, `
		SELECT id, code, name, currency_exponent, active
		FROM sys_tenants
		WHERE id = $1
	`, tenantID)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, ErrTenantNotFound
		}
		return nil, fmt.Errorf("get tenant by id: %w", err)
	}
	return &t, nil
}

func (r *PostgresRegistry) GetByCode(ctx context.Context, code string) (*Tenant, error) {
	var t Tenant
	err := pgxscan.Get(ctx, r.pool, &t, `
		SELECT id, code, name, currency_exponent, active
		FROM sys_tenants
		WHERE code = $1
	`, code)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, ErrTenantNotFound
		}
		return nil, fmt.Errorf("get tenant by code: %w", err)
	}
	return &t, nil
}

func (r *PostgresRegistry) ListActive(ctx context.Context) ([]*Tenant, error) {
	var tenants []*Tenant
	err := pgxscan.Select(ctx, r.pool, &tenants, `
		SELECT id, code, name, currency_exponent, active
		FROM sys_tenants
		WHERE active
		ORDER BY code
	`)
	if err != nil {
		return nil, fmt.Errorf("list active tenants: %w", err)
	}
	return tenants, nil
}

func (r *PostgresRegistry) Create(ctx context.Context, t *Tenant) error {
	if t == nil {
		return fmt.Errorf("tenant is nil")
	}
	if t.CurrencyExponent == 0 {
		t.CurrencyExponent = 2
	}

	err := r.pool.QueryRow(ctx, `
		INSERT INTO sys_tenants (code, name, currency_exponent, active)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, t.Code, t.Name, t.CurrencyExponent, t.Active).Scan(&t.ID)
	if err != nil {
		return fmt.Errorf("create tenant: %w", err)
	}
	return nil
}

func (r *PostgresRegistry) SetActive(ctx context.Context, tenantID string, active bool) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE sys_tenants SET active = $2 WHERE id = $1
	`, tenantID, active)
	if err != nil {
		return fmt.Errorf("update tenant active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTenantNotFound
	}
	return nil
}

var _ Registry = (*PostgresRegistry)(nil)

// CachedRegistry wraps a Registry with a small TTL cache. Tenant rows
// change rarely but are resolved on every request.
type CachedRegistry struct {
	inner Registry
	ttl   time.Duration

	mu    sync.RWMutex
	cache map[string]cachedTenant
}

type cachedTenant struct {
	tenant    *Tenant
	expiresAt time.Time
}

// NewCachedRegistry wraps inner with the given TTL.
func NewCachedRegistry(inner Registry, ttl time.Duration) *CachedRegistry {
	return &CachedRegistry{
		inner: inner,
		ttl:   ttl,
		cache: make(map[string]cachedTenant),
	}
}

func (r *CachedRegistry) GetByID(ctx context.Context, tenantID string) (*Tenant, error) {
	r.mu.RLock()
	entry, ok := r.cache[tenantID]
	r.mu.RUnlock()

	if ok && time.Now().Before(entry.expiresAt) {
		return entry.tenant, nil
	}

	t, err := r.inner.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.cache[tenantID] = cachedTenant{tenant: t, expiresAt: time.Now().Add(r.ttl)}
	r.mu.Unlock()

	return t, nil
}

func (r *CachedRegistry) GetByCode(ctx context.Context, code string) (*Tenant, error) {
	return r.inner.GetByCode(ctx, code)
}

func (r *CachedRegistry) ListActive(ctx context.Context) ([]*Tenant, error) {
	return r.inner.ListActive(ctx)
}

func (r *CachedRegistry) Create(ctx context.Context, t *Tenant) error {
	return r.inner.Create(ctx, t)
}

func (r *CachedRegistry) SetActive(ctx context.Context, tenantID string, active bool) error {
	err := r.inner.SetActive(ctx, tenantID, active)

	r.mu.Lock()
	delete(r.cache, tenantID)
	r.mu.Unlock()

	return err
}

var _ Registry = (*CachedRegistry)(nil)
