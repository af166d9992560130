package adjustment

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invenda/internal/core/apperror"
	"invenda/internal/core/entity"
	"invenda/internal/core/id"
	"invenda/internal/core/sequence"
	"invenda/internal/domain"
	"invenda/internal/domain/catalogs/product"
	"invenda/internal/domain/ledger"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// --- Mocks ---

type stubTxManager struct{}

func (m *stubTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (m *stubTxManager) InTransaction(ctx context.Context) bool { return true }

type ledgerRepo struct {
	products map[id.ID]*product.Product
	inserted []*ledger.Movement
}

func newLedgerRepo(products ...*product.Product) *ledgerRepo {
	r := &ledgerRepo{products: make(map[id.ID]*product.Product)}
	for _, p := range products {
		r.products[p.ID] = p
	}
	return r
}

func (r *ledgerRepo) GetProductForUpdate(ctx context.Context, productID id.ID) (*product.Product, error) {
	p, ok := r.products[productID]
	if !ok {
		return nil, apperror.NewNotFound("product", productID)
	}
	return p, nil
}

func (r *ledgerRepo) InsertMovement(ctx context.Context, m *ledger.Movement) error {
	m.EntryNo = int64(len(r.inserted) + 1)
	r.inserted = append(r.inserted, m)
	return nil
}

func (r *ledgerRepo) UpdateProductStock(ctx context.Context, p *product.Product) error {
	return nil
}

func (r *ledgerRepo) ListMovements(ctx context.Context, filter ledger.KardexFilter) ([]*ledger.Movement, error) {
	return r.inserted, nil
}

func (r *ledgerRepo) ListByReference(ctx context.Context, refType ledger.ReferenceType, refID id.ID) ([]*ledger.Movement, error) {
	var out []*ledger.Movement
	for _, m := range r.inserted {
		if m.ReferenceType == refType && m.ReferenceID == refID {
			out = append(out, m)
		}
	}
	return out, nil
}

var _ ledger.Repository = (*ledgerRepo)(nil)

type mockRepo struct {
	docs  map[id.ID]*Adjustment
	lines map[id.ID][]Line
}

func newMockRepo(docs ...*Adjustment) *mockRepo {
	r := &mockRepo{docs: make(map[id.ID]*Adjustment), lines: make(map[id.ID][]Line)}
	for _, doc := range docs {
		r.docs[doc.ID] = doc
		r.lines[doc.ID] = doc.Lines
	}
	return r
}

func (r *mockRepo) Create(ctx context.Context, doc *Adjustment) error {
	r.docs[doc.ID] = doc
	return nil
}

func (r *mockRepo) GetByID(ctx context.Context, docID id.ID) (*Adjustment, error) {
	doc, ok := r.docs[docID]
	if !ok {
		return nil, apperror.NewNotFound("adjustment", docID)
	}
	return doc, nil
}

func (r *mockRepo) GetByNumber(ctx context.Context, number string) (*Adjustment, error) {
	for _, doc := range r.docs {
		if doc.Number == number {
			return doc, nil
		}
	}
	return nil, apperror.NewNotFound("adjustment", number)
}

func (r *mockRepo) Update(ctx context.Context, doc *Adjustment) error {
	r.docs[doc.ID] = doc
	return nil
}

func (r *mockRepo) Delete(ctx context.Context, docID id.ID) error {
	delete(r.docs, docID)
	return nil
}

func (r *mockRepo) GetLines(ctx context.Context, docID id.ID) ([]Line, error) {
	return r.lines[docID], nil
}

func (r *mockRepo) SaveLines(ctx context.Context, docID id.ID, lines []Line) error {
	r.lines[docID] = lines
	return nil
}

func (r *mockRepo) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Adjustment], error) {
	return domain.ListResult[*Adjustment]{}, nil
}

func (r *mockRepo) GetForUpdate(ctx context.Context, docID id.ID) (*Adjustment, error) {
	return r.GetByID(ctx, docID)
}

var _ Repository = (*mockRepo)(nil)

// --- Helpers ---

func stockedProduct(name, stock, avgCost string) *product.Product {
	p := product.New(id.New(), "SKU-"+name, name, product.TypeGood)
	p.CurrentStock = d(stock)
	p.AverageCost = d(avgCost)
	p.RecomputeAvailable()
	return p
}

func newTestService(repo *mockRepo, lrepo *ledgerRepo) *Service {
	txm := &stubTxManager{}
	ledgerSvc := ledger.NewService(lrepo, &sequence.MockAllocator{}, txm)
	return NewService(repo, ledgerSvc, &sequence.MockAllocator{}, txm)
}

// --- Tests ---

func TestConfirm_RoutesDeltasByDirection(t *testing.T) {
	widget := stockedProduct("Widget", "10", "100")
	gadget := stockedProduct("Gadget", "8", "50")

	doc := New(id.New(), id.New())
	doc.Reason = "stocktake 2026-03"
	doc.AddLine(widget.ID, d("4"), d("120"))  // surplus found
	doc.AddLine(gadget.ID, d("-3"), d("999")) // shrinkage; cost input ignored

	repo := newMockRepo(doc)
	lrepo := newLedgerRepo(widget, gadget)
	svc := newTestService(repo, lrepo)

	require.NoError(t, svc.Confirm(context.Background(), doc.ID))

	assert.Equal(t, entity.StatusConfirmed, doc.Status)
	require.Len(t, lrepo.inserted, 2)

	in := lrepo.inserted[0]
	assert.Equal(t, ledger.DirectionIn, in.Direction)
	assert.Equal(t, ledger.ReasonAdjustmentIn, in.Reason)
	assert.True(t, in.Quantity.Equal(d("4")), "quantity recorded as absolute value")
	assert.True(t, in.UnitCost.Equal(d("120")), "inbound delta uses the line cost")
	assert.Equal(t, "stocktake 2026-03", in.Notes)

	out := lrepo.inserted[1]
	assert.Equal(t, ledger.DirectionOut, out.Direction)
	assert.Equal(t, ledger.ReasonAdjustmentOut, out.Reason)
	assert.True(t, out.Quantity.Equal(d("3")))
	assert.True(t, out.UnitCost.Equal(d("50")), "outbound delta costed at average, not the line cost")

	assert.True(t, widget.CurrentStock.Equal(d("14")))
	assert.True(t, gadget.CurrentStock.Equal(d("5")))
}

func TestConfirm_InboundBlendsAverageCost(t *testing.T) {
	widget := stockedProduct("Widget", "10", "100")
	doc := New(id.New(), id.New())
	doc.AddLine(widget.ID, d("10"), d("140"))

	repo := newMockRepo(doc)
	lrepo := newLedgerRepo(widget)
	svc := newTestService(repo, lrepo)

	require.NoError(t, svc.Confirm(context.Background(), doc.ID))
	assert.True(t, widget.AverageCost.Equal(d("120")),
		"average cost = %s, want 120", widget.AverageCost)
}

func TestConfirm_ShrinkageBeyondStockRejected(t *testing.T) {
	widget := stockedProduct("Widget", "2", "100")
	doc := New(id.New(), id.New())
	doc.AddLine(widget.ID, d("-5"), decimal.Zero)

	repo := newMockRepo(doc)
	lrepo := newLedgerRepo(widget)
	svc := newTestService(repo, lrepo)

	err := svc.Confirm(context.Background(), doc.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))
}

func TestConfirm_OnlyFromDraft(t *testing.T) {
	widget := stockedProduct("Widget", "10", "100")
	doc := New(id.New(), id.New())
	doc.AddLine(widget.ID, d("4"), d("120"))
	doc.Status = entity.StatusConfirmed

	repo := newMockRepo(doc)
	lrepo := newLedgerRepo(widget)
	svc := newTestService(repo, lrepo)

	err := svc.Confirm(context.Background(), doc.ID)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeDocumentState))
	assert.Empty(t, lrepo.inserted)
}

func TestCreate_RejectsZeroDelta(t *testing.T) {
	doc := New(id.New(), id.New())
	doc.AddLine(id.New(), decimal.Zero, decimal.Zero)

	repo := newMockRepo()
	svc := newTestService(repo, newLedgerRepo())

	err := svc.Create(context.Background(), doc)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}
