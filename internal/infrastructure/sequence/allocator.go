// Package sequence provides the PostgreSQL implementation of document
// auto-numbering. It implements core/sequence.Allocator.
package sequence

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	coreseq "invenda/internal/core/sequence"
	"invenda/internal/core/tenant"
)

// Querier interface for database operations.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type cachedRange struct {
	current int64
	max     int64
}

// Allocator provides document numbering using PostgreSQL counters.
// One counter row per (tenant, prefix, year); the increment is a single
// atomic upsert, so concurrent allocators never hand out the same value.
//
// Counter increments run on the pool, outside the caller's business
// transaction: a rolled-back document burns its number and leaves a gap,
// which is acceptable because numbers are display artifacts.
type Allocator struct {
	// staticQuerier is used for tests; production obtains the pool from context
	staticQuerier Querier
	useContext    bool

	// cacheMu protects ranges map
	cacheMu sync.Mutex
	// ranges stores active ranges for each key, keyed per tenant
	ranges map[string]*cachedRange
}

// Ensure compile-time interface compliance.
var _ coreseq.Allocator = (*Allocator)(nil)

// New creates an allocator with a fixed querier. Use for tests.
func New(querier Querier) *Allocator {
	return &Allocator{
		staticQuerier: querier,
		useContext:    false,
		ranges:        make(map[string]*cachedRange),
	}
}

// NewFromContext creates an allocator that obtains the pool from context.
func NewFromContext() *Allocator {
	return &Allocator{
		useContext: true,
		ranges:     make(map[string]*cachedRange),
	}
}

func (s *Allocator) getQuerier(ctx context.Context) Querier {
	if s.useContext {
		return tenant.MustGetPool(ctx)
	}
	return s.staticQuerier
}

func (s *Allocator) requireTenantID(ctx context.Context) (string, error) {
	tenantID := tenant.GetTenantID(ctx)
	if tenantID == "" {
		return "", fmt.Errorf("sequence allocation requires tenant in context")
	}
	return tenantID, nil
}

// Next generates the next document number.
// Pattern: PREFIX-YEAR-XXXXX (e.g., MOV-2026-00001)
func (s *Allocator) Next(ctx context.Context, cfg coreseq.Config, opts *coreseq.Options, period time.Time) (string, error) {
	if s == nil {
		return "", fmt.Errorf("sequence allocator is not initialized")
	}

	if opts == nil {
		opts = coreseq.DefaultOptions()
	}

	if err := coreseq.ValidateConfig(cfg); err != nil {
		return "", fmt.Errorf("sequence config: %w", err)
	}

	tenantID, err := s.requireTenantID(ctx)
	if err != nil {
		return "", err
	}

	prefix, year := coreseq.BuildKey(cfg, period)
	cacheKey := fmt.Sprintf("%s:%s:%d", tenantID, prefix, year)

	var num int64
	switch opts.Strategy {
	case coreseq.StrategyCached:
		num, err = s.getNextCached(ctx, tenantID, prefix, year, cacheKey, opts)
	case coreseq.StrategyStrict:
		fallthrough
	default:
		num, err = s.getNextStrict(ctx, tenantID, prefix, year)
	}
	if err != nil {
		return "", err
	}

	return coreseq.FormatNumber(cfg, period, num), nil
}

// getNextStrict fetches the next number directly from DB using UPSERT + RETURNING.
func (s *Allocator) getNextStrict(ctx context.Context, tenantID, prefix string, year int) (int64, error) {
	querier := s.getQuerier(ctx)
	var num int64

	err := querier.QueryRow(ctx, `
        INSERT INTO sys_sequences (tenant_id, prefix, year, current_val)
        VALUES ($1, $2, $3, 1)
        ON CONFLICT (tenant_id, prefix, year) DO UPDATE SET current_val = sys_sequences.current_val + 1
        RETURNING current_val
	`, tenantID, prefix, year).Scan(&num)
	if err != nil {
		return 0, fmt.Errorf("strict next: %w", err)
	}

	return num, nil
}

// getNextCached fetches next number from memory, refilling from DB if needed.
func (s *Allocator) getNextCached(ctx context.Context, tenantID, prefix string, year int, cacheKey string, opts *coreseq.Options) (int64, error) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	rng, exists := s.ranges[cacheKey]
	if !exists {
		rng = &cachedRange{}
		s.ranges[cacheKey] = rng
	}

	// allocate new range if needed
	if rng.current >= rng.max {
		size := opts.RangeSize
		if size <= 0 {
			size = 50 // default
		}

		querier := s.getQuerier(ctx)
		var newMax int64

		err := querier.QueryRow(ctx, `
            INSERT INTO sys_sequences (tenant_id, prefix, year, current_val)
            VALUES ($1, $2, $3, $4)
            ON CONFLICT (tenant_id, prefix, year) DO UPDATE SET current_val = sys_sequences.current_val + $4
            RETURNING current_val
		`, tenantID, prefix, year, size).Scan(&newMax)
		if err != nil {
			return 0, fmt.Errorf("reserve range: %w", err)
		}

		// newMax is the end of our range; the start is newMax - size + 1.
		rng.current = newMax - size
		rng.max = newMax
	}

	rng.current++
	return rng.current, nil
}

// SetNext sets the next number value (for migration purposes).
func (s *Allocator) SetNext(ctx context.Context, cfg coreseq.Config, period time.Time, value int64) error {
	if err := coreseq.ValidateConfig(cfg); err != nil {
		return fmt.Errorf("sequence config: %w", err)
	}

	tenantID, err := s.requireTenantID(ctx)
	if err != nil {
		return err
	}

	prefix, year := coreseq.BuildKey(cfg, period)
	querier := s.getQuerier(ctx)

	var result int64
	err = querier.QueryRow(ctx, `
		INSERT INTO sys_sequences (tenant_id, prefix, year, current_val)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (tenant_id, prefix, year) DO UPDATE SET current_val = $4
		RETURNING current_val
	`, tenantID, prefix, year, value).Scan(&result)

	// Invalidate cached range for this key if exists
	s.cacheMu.Lock()
	delete(s.ranges, fmt.Sprintf("%s:%s:%d", tenantID, prefix, year))
	s.cacheMu.Unlock()

	return err
}
