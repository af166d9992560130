package sequence

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invenda/internal/core/id"
	coreseq "invenda/internal/core/sequence"
	"invenda/internal/core/tenant"
)

type fakeRow struct {
	val int64
	err error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) > 0 {
		if p, ok := dest[0].(*int64); ok {
			*p = r.val
		}
	}
	return nil
}

// fakeQuerier simulates the counter upsert: every call increments the
// stored value by the given delta and returns the new value. Like the
// real pool it tolerates concurrent callers, and like the real table it
// keys counters on (tenant_id, prefix, year).
type fakeQuerier struct {
	mu       sync.Mutex
	counters map[string]int64
	calls    int
}

func newFakeQuerier() *fakeQuerier {
	return &fakeQuerier{counters: make(map[string]int64)}
}

func (q *fakeQuerier) QueryRow(_ context.Context, _ string, args ...any) pgx.Row {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.calls++

	key := ""
	for i := 0; i < 3 && i < len(args); i++ {
		key += fmt.Sprint(args[i]) + "|"
	}

	delta := int64(1)
	if len(args) > 3 {
		if v, ok := args[3].(int64); ok {
			delta = v
		}
	}

	q.counters[key] += delta
	return fakeRow{val: q.counters[key]}
}

func testCtx(t *testing.T) context.Context {
	t.Helper()
	return tenant.WithTenant(context.Background(), &tenant.Tenant{
		ID:   id.New(),
		Name: "Test Co",
	})
}

func TestAllocator_Next_Strict(t *testing.T) {
	ctx := testCtx(t)
	q := newFakeQuerier()
	alloc := New(q)

	cfg := coreseq.DefaultConfig("MOV")
	period := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	first, err := alloc.Next(ctx, cfg, nil, period)
	require.NoError(t, err)
	assert.Equal(t, "MOV-2026-00001", first)

	second, err := alloc.Next(ctx, cfg, nil, period)
	require.NoError(t, err)
	assert.Equal(t, "MOV-2026-00002", second)

	// strict mode hits the database on every allocation
	assert.Equal(t, 2, q.calls)
}

func TestAllocator_Next_Cached(t *testing.T) {
	ctx := testCtx(t)
	q := newFakeQuerier()
	alloc := New(q)

	cfg := coreseq.DefaultConfig("TR")
	opts := &coreseq.Options{Strategy: coreseq.StrategyCached, RangeSize: 10}
	period := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	for i := 1; i <= 10; i++ {
		num, err := alloc.Next(ctx, cfg, opts, period)
		require.NoError(t, err)
		assert.Contains(t, num, "TR-2026-")
	}

	// one range of 10 covers all ten allocations
	assert.Equal(t, 1, q.calls)

	num, err := alloc.Next(ctx, cfg, opts, period)
	require.NoError(t, err)
	assert.Equal(t, "TR-2026-00011", num)
	assert.Equal(t, 2, q.calls)
}

func TestAllocator_Next_YearRollover(t *testing.T) {
	ctx := testCtx(t)
	alloc := New(newFakeQuerier())

	cfg := coreseq.DefaultConfig("SALE")

	dec := time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)
	jan := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)

	n1, err := alloc.Next(ctx, cfg, nil, dec)
	require.NoError(t, err)
	assert.Equal(t, "SALE-2025-00001", n1)

	// new year starts its own counter
	n2, err := alloc.Next(ctx, cfg, nil, jan)
	require.NoError(t, err)
	assert.Equal(t, "SALE-2026-00001", n2)

	// backfilled December document still draws from the December counter
	n3, err := alloc.Next(ctx, cfg, nil, dec)
	require.NoError(t, err)
	assert.Equal(t, "SALE-2025-00002", n3)
}

func TestAllocator_Next_NoResetPeriod(t *testing.T) {
	ctx := testCtx(t)
	alloc := New(newFakeQuerier())

	cfg := coreseq.Config{Prefix: "ADJ", IncludeYear: false, PadWidth: 5, ResetPeriod: "never"}

	n1, err := alloc.Next(ctx, cfg, nil, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "ADJ-00001", n1)

	n2, err := alloc.Next(ctx, cfg, nil, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "ADJ-00002", n2)
}

func TestAllocator_Next_RequiresTenant(t *testing.T) {
	alloc := New(newFakeQuerier())

	_, err := alloc.Next(context.Background(), coreseq.DefaultConfig("MOV"), nil, time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tenant")
}

func TestAllocator_TenantIsolation(t *testing.T) {
	q := newFakeQuerier()
	alloc := New(q)

	ctxA := tenant.WithTenant(context.Background(), &tenant.Tenant{ID: id.New()})
	ctxB := tenant.WithTenant(context.Background(), &tenant.Tenant{ID: id.New()})

	cfg := coreseq.DefaultConfig("MOV")
	period := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	nA, err := alloc.Next(ctxA, cfg, nil, period)
	require.NoError(t, err)
	nB, err := alloc.Next(ctxB, cfg, nil, period)
	require.NoError(t, err)

	// each tenant starts at 1
	assert.Equal(t, "MOV-2026-00001", nA)
	assert.Equal(t, "MOV-2026-00001", nB)
}

func TestAllocator_Next_ConcurrentAllocationsAreUnique(t *testing.T) {
	for name, opts := range map[string]*coreseq.Options{
		"strict": nil,
		"cached": {Strategy: coreseq.StrategyCached, RangeSize: 10},
	} {
		t.Run(name, func(t *testing.T) {
			ctx := testCtx(t)
			alloc := New(newFakeQuerier())

			cfg := coreseq.DefaultConfig("MOV")
			period := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

			const workers = 50
			numbers := make(chan string, workers)

			var wg sync.WaitGroup
			for i := 0; i < workers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					num, err := alloc.Next(ctx, cfg, opts, period)
					assert.NoError(t, err)
					numbers <- num
				}()
			}
			wg.Wait()
			close(numbers)

			// 50 concurrent allocations, no duplicates.
			seen := make(map[string]bool, workers)
			for num := range numbers {
				assert.False(t, seen[num], "number %s handed out twice", num)
				seen[num] = true
			}
			assert.Len(t, seen, workers)
		})
	}
}

func TestAllocator_Next_RejectsUnknownResetPeriod(t *testing.T) {
	ctx := testCtx(t)
	alloc := New(newFakeQuerier())

	cfg := coreseq.DefaultConfig("MOV")
	cfg.ResetPeriod = "month"

	_, err := alloc.Next(ctx, cfg, nil, time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reset period")
}

func TestAllocator_SetNext_InvalidatesCache(t *testing.T) {
	ctx := testCtx(t)
	q := newFakeQuerier()
	alloc := New(q)

	cfg := coreseq.DefaultConfig("TR")
	opts := &coreseq.Options{Strategy: coreseq.StrategyCached, RangeSize: 10}
	period := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	_, err := alloc.Next(ctx, cfg, opts, period)
	require.NoError(t, err)

	// SetNext overwrites the counter; the fake applies it as an increment,
	// which is fine here: the point is that the cached range is dropped
	// and the next allocation goes back to the database.
	err = alloc.SetNext(ctx, cfg, period, 100)
	require.NoError(t, err)

	callsBefore := q.calls
	_, err = alloc.Next(ctx, cfg, opts, period)
	require.NoError(t, err)
	assert.Equal(t, callsBefore+1, q.calls)
}
