package returns

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
	docs  map[id.ID]*Return
	lines map[id.ID][]Line
}

func newMockRepo(docs ...*Return) *mockRepo {
	r := &mockRepo{docs: make(map[id.ID]*Return), lines: make(map[id.ID][]Line)}
	for _, doc := range docs {
		r.docs[doc.ID] = doc
		r.lines[doc.ID] = doc.Lines
	}
	return r
}

func (r *mockRepo) Create(ctx context.Context, doc *Return) error {
	r.docs[doc.ID] = doc
	return nil
}

func (r *mockRepo) GetByID(ctx context.Context, docID id.ID) (*Return, error) {
	doc, ok := r.docs[docID]
	if !ok {
		return nil, apperror.NewNotFound("return", docID)
	}
	return doc, nil
}

func (r *mockRepo) GetByNumber(ctx context.Context, number string) (*Return, error) {
	for _, doc := range r.docs {
		if doc.Number == number {
			return doc, nil
		}
	}
	return nil, apperror.NewNotFound("return", number)
}

func (r *mockRepo) Update(ctx context.Context, doc *Return) error {
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

func (r *mockRepo) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Return], error) {
	return domain.ListResult[*Return]{}, nil
}

func (r *mockRepo) GetForUpdate(ctx context.Context, docID id.ID) (*Return, error) {
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

func TestApprove_SupplierReturnShipsOutAtAverage(t *testing.T) {
	widget := stockedProduct("Widget", "10", "100")
	doc := New(id.New(), KindSupplier, id.New(), id.New())
	doc.AddLine(widget.ID, d("4"), d("999")) // line cost ignored on the way out

	repo := newMockRepo(doc)
	lrepo := newLedgerRepo(widget)
	svc := newTestService(repo, lrepo)

	require.NoError(t, svc.Approve(context.Background(), doc.ID))

	assert.Equal(t, entity.StatusApproved, doc.Status)
	require.Len(t, lrepo.inserted, 1)

	m := lrepo.inserted[0]
	assert.Equal(t, ledger.DirectionOut, m.Direction)
	assert.Equal(t, ledger.ReasonSupplierReturn, m.Reason)
	assert.Equal(t, ledger.RefReturn, m.ReferenceType)
	assert.True(t, m.UnitCost.Equal(d("100")), "goods leave at the running average")
	assert.True(t, widget.CurrentStock.Equal(d("6")))
}

func TestApprove_CustomerReturnComesBackAtLineCost(t *testing.T) {
	widget := stockedProduct("Widget", "10", "100")
	doc := New(id.New(), KindCustomer, id.New(), id.New())
	doc.AddLine(widget.ID, d("2"), d("130"))

	repo := newMockRepo(doc)
	lrepo := newLedgerRepo(widget)
	svc := newTestService(repo, lrepo)

	require.NoError(t, svc.Approve(context.Background(), doc.ID))

	require.Len(t, lrepo.inserted, 1)
	m := lrepo.inserted[0]
	assert.Equal(t, ledger.DirectionIn, m.Direction)
	assert.Equal(t, ledger.ReasonCustomerReturn, m.Reason)
	assert.True(t, m.UnitCost.Equal(d("130")), "customer return valued at the line cost")
	assert.True(t, widget.CurrentStock.Equal(d("12")))
	// (10*100 + 2*130) / 12 = 105
	assert.True(t, widget.AverageCost.Equal(d("105")),
		"average cost = %s, want 105", widget.AverageCost)
}

func TestApprove_SupplierReturnBeyondStockRejected(t *testing.T) {
	widget := stockedProduct("Widget", "1", "100")
	doc := New(id.New(), KindSupplier, id.New(), id.New())
	doc.AddLine(widget.ID, d("4"), decimal.Zero)

	repo := newMockRepo(doc)
	lrepo := newLedgerRepo(widget)
	svc := newTestService(repo, lrepo)

	err := svc.Approve(context.Background(), doc.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))
}

func TestApprove_OnlyFromDraft(t *testing.T) {
	widget := stockedProduct("Widget", "10", "100")
	doc := New(id.New(), KindCustomer, id.New(), id.New())
	doc.AddLine(widget.ID, d("2"), d("130"))
	doc.Status = entity.StatusApproved

	repo := newMockRepo(doc)
	lrepo := newLedgerRepo(widget)
	svc := newTestService(repo, lrepo)

	err := svc.Approve(context.Background(), doc.ID)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeDocumentState))
	assert.Empty(t, lrepo.inserted)
}

func TestCreate_RejectsUnknownKind(t *testing.T) {
	doc := New(id.New(), Kind("refund"), id.New(), id.New())
	doc.AddLine(id.New(), d("1"), decimal.Zero)

	repo := newMockRepo()
	svc := newTestService(repo, newLedgerRepo())

	err := svc.Create(context.Background(), doc)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}
