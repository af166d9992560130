package ledger

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invenda/internal/core/apperror"
	"invenda/internal/core/id"
	"invenda/internal/core/sequence"
	"invenda/internal/core/tx"
	"invenda/internal/domain/catalogs/product"
)

// --- Mocks ---

type stubTxManager struct {
	active bool
}

func (m *stubTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (m *stubTxManager) InTransaction(ctx context.Context) bool {
	return m.active
}

// savepointTxManager scopes work the way the Postgres manager does: a
// failure inside RunInSavepoint leaves the surrounding transaction
// usable, so the collision retry can insert again.
type savepointTxManager struct {
	stubTxManager
	scopes int
}

func (m *savepointTxManager) RunInSavepoint(ctx context.Context, fn func(ctx context.Context) error) error {
	m.scopes++
	return fn(ctx)
}

var _ tx.SavepointManager = (*savepointTxManager)(nil)

type mockRepo struct {
	product *product.Product
	getErr  error

	inserted   []*Movement
	insertErrs []error // consumed per InsertMovement call

	updatedProduct *product.Product
	movements      []*Movement
}

func (m *mockRepo) GetProductForUpdate(ctx context.Context, productID id.ID) (*product.Product, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if m.product == nil || m.product.ID != productID {
		return nil, apperror.NewNotFound("product", productID)
	}
	return m.product, nil
}

func (m *mockRepo) InsertMovement(ctx context.Context, mov *Movement) error {
	if len(m.insertErrs) > 0 {
		err := m.insertErrs[0]
		m.insertErrs = m.insertErrs[1:]
		if err != nil {
			return err
		}
	}
	mov.EntryNo = int64(len(m.inserted) + 1)
	m.inserted = append(m.inserted, mov)
	return nil
}

func (m *mockRepo) UpdateProductStock(ctx context.Context, p *product.Product) error {
	m.updatedProduct = p
	return nil
}

func (m *mockRepo) ListMovements(ctx context.Context, filter KardexFilter) ([]*Movement, error) {
	return m.movements, nil
}

func (m *mockRepo) ListByReference(ctx context.Context, refType ReferenceType, refID id.ID) ([]*Movement, error) {
	var out []*Movement
	for _, mov := range m.movements {
		if mov.ReferenceType == refType && mov.ReferenceID == refID {
			out = append(out, mov)
		}
	}
	return out, nil
}

var _ Repository = (*mockRepo)(nil)

func countingAllocator(prefix string) (*sequence.MockAllocator, *int) {
	calls := 0
	return &sequence.MockAllocator{
		NextFunc: func(ctx context.Context, cfg sequence.Config, opts *sequence.Options, period time.Time) (string, error) {
			calls++
			return fmt.Sprintf("%s-%d-%05d", cfg.Prefix, period.Year(), calls), nil
		},
	}, &calls
}

func testProduct(stock, avgCost string) *product.Product {
	p := product.New(id.New(), "SKU-1", "Widget", product.TypeGood)
	p.CurrentStock = d(stock)
	p.AverageCost = d(avgCost)
	p.RecomputeAvailable()
	return p
}

func newTestService(repo *mockRepo) *Service {
	alloc, _ := countingAllocator(NumberPrefix)
	return NewService(repo, alloc, &stubTxManager{active: true})
}

func inboundRequest(p *product.Product, qty, cost string) *Request {
	return &Request{
		ProductID:   p.ID,
		WarehouseID: id.New(),
		Direction:   DirectionIn,
		Reason:      ReasonPurchaseReceipt,
		Quantity:    d(qty),
		UnitCost:    d(cost),
		UserID:      id.New(),
		Date:        time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
	}
}

func outboundRequest(p *product.Product, qty string) *Request {
	return &Request{
		ProductID:   p.ID,
		WarehouseID: id.New(),
		Direction:   DirectionOut,
		Reason:      ReasonSale,
		Quantity:    d(qty),
		UserID:      id.New(),
		Date:        time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC),
	}
}

// --- Tests ---

func TestRecordMovement_FirstInbound(t *testing.T) {
	p := testProduct("0", "0")
	repo := &mockRepo{product: p}
	svc := newTestService(repo)

	m, err := svc.RecordMovement(context.Background(), inboundRequest(p, "10", "100"))
	require.NoError(t, err)

	assert.True(t, m.PreviousStock.Equal(d("0")))
	assert.True(t, m.NewStock.Equal(d("10")))
	assert.True(t, m.UnitCost.Equal(d("100")))
	assert.True(t, m.TotalCost.Equal(d("1000")))
	assert.Equal(t, "MOV-2026-00001", m.Number)

	require.NotNil(t, repo.updatedProduct)
	assert.True(t, repo.updatedProduct.CurrentStock.Equal(d("10")))
	assert.True(t, repo.updatedProduct.AverageCost.Equal(d("100")))
}

func TestRecordMovement_SecondInboundBlendsCost(t *testing.T) {
	p := testProduct("10", "100")
	repo := &mockRepo{product: p}
	svc := newTestService(repo)

	m, err := svc.RecordMovement(context.Background(), inboundRequest(p, "5", "130"))
	require.NoError(t, err)

	assert.True(t, m.NewStock.Equal(d("15")))
	assert.True(t, repo.updatedProduct.AverageCost.Equal(d("110")),
		"average cost = %s, want 110", repo.updatedProduct.AverageCost)
	assert.True(t, repo.updatedProduct.CurrentStock.Equal(d("15")))
}

func TestRecordMovement_OutboundRejectedOnShortage(t *testing.T) {
	p := testProduct("15", "110")
	repo := &mockRepo{product: p}
	svc := newTestService(repo)

	_, err := svc.RecordMovement(context.Background(), outboundRequest(p, "20"))
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))

	// Rejection leaves state untouched.
	assert.Empty(t, repo.inserted)
	assert.Nil(t, repo.updatedProduct)
	assert.True(t, p.CurrentStock.Equal(d("15")))
}

func TestRecordMovement_OutboundCostedAtAverage(t *testing.T) {
	p := testProduct("15", "110")
	repo := &mockRepo{product: p}
	svc := newTestService(repo)

	req := outboundRequest(p, "15")
	// A caller-supplied unit cost on an outbound move is ignored.
	req.UnitCost = d("999")

	m, err := svc.RecordMovement(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, m.UnitCost.Equal(d("110")))
	assert.True(t, m.TotalCost.Equal(d("1650")))
	assert.True(t, m.NewStock.Equal(d("0")))
	assert.True(t, repo.updatedProduct.CurrentStock.Equal(d("0")))
	// Outbound never alters the cost basis.
	assert.True(t, repo.updatedProduct.AverageCost.Equal(d("110")))
}

func TestRecordMovement_NegativeStockAllowed(t *testing.T) {
	p := testProduct("5", "80")
	p.AllowNegativeStock = true
	repo := &mockRepo{product: p}
	svc := newTestService(repo)

	m, err := svc.RecordMovement(context.Background(), outboundRequest(p, "8"))
	require.NoError(t, err)
	assert.True(t, m.NewStock.Equal(d("-3")))
}

func TestRecordMovement_RequiresActiveTransaction(t *testing.T) {
	p := testProduct("10", "100")
	repo := &mockRepo{product: p}
	alloc, _ := countingAllocator(NumberPrefix)
	svc := NewService(repo, alloc, &stubTxManager{active: false})

	_, err := svc.RecordMovement(context.Background(), inboundRequest(p, "1", "10"))
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidMovement))
	assert.Empty(t, repo.inserted)
}

func TestRecordMovement_ProductNotFound(t *testing.T) {
	repo := &mockRepo{}
	svc := newTestService(repo)

	req := inboundRequest(testProduct("0", "0"), "1", "10")
	_, err := svc.RecordMovement(context.Background(), req)
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestRecordMovement_ServiceProductRejected(t *testing.T) {
	p := testProduct("0", "0")
	p.Type = product.TypeService
	repo := &mockRepo{product: p}
	svc := newTestService(repo)

	_, err := svc.RecordMovement(context.Background(), inboundRequest(p, "1", "10"))
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidMovement))
}

func TestRecordMovement_ValidationErrors(t *testing.T) {
	p := testProduct("10", "100")
	repo := &mockRepo{product: p}
	svc := newTestService(repo)

	tests := []struct {
		name   string
		mutate func(r *Request)
	}{
		{"zero quantity", func(r *Request) { r.Quantity = decimal.Zero }},
		{"negative quantity", func(r *Request) { r.Quantity = d("-1") }},
		{"bad direction", func(r *Request) { r.Direction = "sideways" }},
		{"unknown reason", func(r *Request) { r.Reason = "mystery" }},
		{"reason direction mismatch", func(r *Request) { r.Reason = ReasonSale }},
		{"negative unit cost", func(r *Request) { r.UnitCost = d("-5") }},
		{"zero date", func(r *Request) { r.Date = time.Time{} }},
		{"nil product", func(r *Request) { r.ProductID = id.Nil() }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := inboundRequest(p, "1", "10")
			tt.mutate(req)
			_, err := svc.RecordMovement(context.Background(), req)
			require.Error(t, err)
			assert.True(t, apperror.HasCode(err, apperror.CodeInvalidMovement))
		})
	}
}

func TestRecordMovement_NumberCollisionRetriedOnce(t *testing.T) {
	p := testProduct("0", "0")
	repo := &mockRepo{
		product:    p,
		insertErrs: []error{apperror.NewSequenceCollision("MOV-2026-00001")},
	}
	alloc, calls := countingAllocator(NumberPrefix)
	svc := NewService(repo, alloc, &stubTxManager{active: true})

	m, err := svc.RecordMovement(context.Background(), inboundRequest(p, "10", "100"))
	require.NoError(t, err)
	assert.Equal(t, 2, *calls, "allocator must be called again after a collision")
	assert.Equal(t, "MOV-2026-00002", m.Number)
	require.Len(t, repo.inserted, 1)
}

func TestRecordMovement_StampsWriteTimestamp(t *testing.T) {
	p := testProduct("0", "0")
	repo := &mockRepo{product: p}
	svc := newTestService(repo)

	before := time.Now().UTC()
	m, err := svc.RecordMovement(context.Background(), inboundRequest(p, "10", "100"))
	require.NoError(t, err)

	// The business date and the write timestamp are distinct fields: a
	// backdated movement still records when it was written.
	assert.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), m.Date)
	require.False(t, m.CreatedAt.IsZero())
	assert.False(t, m.CreatedAt.Before(before))
	assert.False(t, m.CreatedAt.After(time.Now().UTC()))
}

func TestRecordMovement_CollisionInsertScopedToSavepoint(t *testing.T) {
	p := testProduct("0", "0")
	repo := &mockRepo{
		product:    p,
		insertErrs: []error{apperror.NewSequenceCollision("MOV-2026-00001")},
	}
	alloc, _ := countingAllocator(NumberPrefix)
	txm := &savepointTxManager{stubTxManager: stubTxManager{active: true}}
	svc := NewService(repo, alloc, txm)

	m, err := svc.RecordMovement(context.Background(), inboundRequest(p, "10", "100"))
	require.NoError(t, err)
	assert.Equal(t, "MOV-2026-00002", m.Number)

	// Both insert attempts must run under their own savepoint; a bare
	// insert would abort the enclosing transaction on the first unique
	// violation and the retry could never succeed.
	assert.Equal(t, 2, txm.scopes)
}

func TestRecordMovement_SecondCollisionEscalates(t *testing.T) {
	p := testProduct("0", "0")
	repo := &mockRepo{
		product: p,
		insertErrs: []error{
			apperror.NewSequenceCollision("MOV-2026-00001"),
			apperror.NewSequenceCollision("MOV-2026-00002"),
		},
	}
	alloc, calls := countingAllocator(NumberPrefix)
	svc := NewService(repo, alloc, &stubTxManager{active: true})

	_, err := svc.RecordMovement(context.Background(), inboundRequest(p, "10", "100"))
	require.Error(t, err)
	assert.True(t, apperror.IsSequenceCollision(err))
	assert.Equal(t, 2, *calls)
	assert.Empty(t, repo.inserted)
	assert.Nil(t, repo.updatedProduct)
}

func TestRecordMovement_SnapshotChain(t *testing.T) {
	// Replaying movements in written order must reproduce current stock.
	p := testProduct("0", "0")
	repo := &mockRepo{product: p}
	svc := newTestService(repo)
	ctx := context.Background()

	steps := []*Request{
		inboundRequest(p, "10", "100"),
		inboundRequest(p, "5", "130"),
		outboundRequest(p, "7"),
		inboundRequest(p, "2", "110"),
	}

	for _, req := range steps {
		_, err := svc.RecordMovement(ctx, req)
		require.NoError(t, err)
	}

	replayed := d("0")
	for i, m := range repo.inserted {
		assert.True(t, m.PreviousStock.Equal(replayed),
			"movement %d: previous_stock %s, want %s", i, m.PreviousStock, replayed)
		replayed = replayed.Add(m.SignedQuantity())
		assert.True(t, m.NewStock.Equal(replayed),
			"movement %d: new_stock %s, want %s", i, m.NewStock, replayed)
	}
	assert.True(t, p.CurrentStock.Equal(replayed))
}

func TestGetKardex(t *testing.T) {
	productID := id.New()
	repo := &mockRepo{
		movements: []*Movement{
			{ProductID: productID, Direction: DirectionIn, Quantity: d("10")},
			{ProductID: productID, Direction: DirectionOut, Quantity: d("4")},
			{ProductID: productID, Direction: DirectionIn, Quantity: d("2")},
		},
	}
	svc := newTestService(repo)

	k, err := svc.GetKardex(context.Background(), KardexFilter{ProductID: productID})
	require.NoError(t, err)
	assert.Len(t, k.Movements, 3)
	assert.True(t, k.TotalIn.Equal(d("12")))
	assert.True(t, k.TotalOut.Equal(d("4")))
}

func TestGetKardex_RequiresProduct(t *testing.T) {
	svc := newTestService(&mockRepo{})

	_, err := svc.GetKardex(context.Background(), KardexFilter{})
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestGetByReference(t *testing.T) {
	refID := id.New()
	repo := &mockRepo{
		movements: []*Movement{
			{ReferenceType: RefSale, ReferenceID: refID, Quantity: d("3")},
			{ReferenceType: RefSale, ReferenceID: id.New(), Quantity: d("9")},
		},
	}
	svc := newTestService(repo)

	got, err := svc.GetByReference(context.Background(), RefSale, refID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Quantity.Equal(d("3")))
}
