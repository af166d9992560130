package consumption

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
	docs  map[id.ID]*Consumption
	lines map[id.ID][]Line
}

func newMockRepo(docs ...*Consumption) *mockRepo {
	r := &mockRepo{docs: make(map[id.ID]*Consumption), lines: make(map[id.ID][]Line)}
	for _, doc := range docs {
		r.docs[doc.ID] = doc
		r.lines[doc.ID] = doc.Lines
	}
	return r
}

func (r *mockRepo) Create(ctx context.Context, doc *Consumption) error {
	r.docs[doc.ID] = doc
	return nil
}

func (r *mockRepo) GetByID(ctx context.Context, docID id.ID) (*Consumption, error) {
	doc, ok := r.docs[docID]
	if !ok {
		return nil, apperror.NewNotFound("consumption", docID)
	}
	return doc, nil
}

func (r *mockRepo) GetByNumber(ctx context.Context, number string) (*Consumption, error) {
	for _, doc := range r.docs {
		if doc.Number == number {
			return doc, nil
		}
	}
	return nil, apperror.NewNotFound("consumption", number)
}

func (r *mockRepo) Update(ctx context.Context, doc *Consumption) error {
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

func (r *mockRepo) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Consumption], error) {
	return domain.ListResult[*Consumption]{}, nil
}

func (r *mockRepo) GetForUpdate(ctx context.Context, docID id.ID) (*Consumption, error) {
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

func TestApprove_WritesOffAtAverageCost(t *testing.T) {
	widget := stockedProduct("Widget", "10", "100")
	doc := New(id.New(), id.New())
	doc.Purpose = "workbench supplies"
	doc.AddLine(widget.ID, d("3"))

	repo := newMockRepo(doc)
	lrepo := newLedgerRepo(widget)
	svc := newTestService(repo, lrepo)

	require.NoError(t, svc.Approve(context.Background(), doc.ID))

	assert.Equal(t, entity.StatusApproved, doc.Status)
	require.Len(t, lrepo.inserted, 1)

	m := lrepo.inserted[0]
	assert.Equal(t, ledger.DirectionOut, m.Direction)
	assert.Equal(t, ledger.ReasonInternalConsumption, m.Reason)
	assert.Equal(t, ledger.RefConsumption, m.ReferenceType)
	assert.Equal(t, "workbench supplies", m.Notes)
	assert.True(t, m.UnitCost.Equal(d("100")))
	assert.True(t, m.TotalCost.Equal(d("300")))
	assert.True(t, widget.CurrentStock.Equal(d("7")))
	// Write-offs never move the cost basis.
	assert.True(t, widget.AverageCost.Equal(d("100")))
}

func TestApprove_BeyondStockRejected(t *testing.T) {
	widget := stockedProduct("Widget", "2", "100")
	doc := New(id.New(), id.New())
	doc.AddLine(widget.ID, d("5"))

	repo := newMockRepo(doc)
	lrepo := newLedgerRepo(widget)
	svc := newTestService(repo, lrepo)

	err := svc.Approve(context.Background(), doc.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))
}

func TestApprove_OnlyFromDraft(t *testing.T) {
	widget := stockedProduct("Widget", "10", "100")
	doc := New(id.New(), id.New())
	doc.AddLine(widget.ID, d("3"))
	doc.Status = entity.StatusApproved

	repo := newMockRepo(doc)
	lrepo := newLedgerRepo(widget)
	svc := newTestService(repo, lrepo)

	err := svc.Approve(context.Background(), doc.ID)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeDocumentState))
	assert.Empty(t, lrepo.inserted)
}

func TestCreate_RequiresLines(t *testing.T) {
	doc := New(id.New(), id.New())

	repo := newMockRepo()
	svc := newTestService(repo, newLedgerRepo())

	err := svc.Create(context.Background(), doc)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}
