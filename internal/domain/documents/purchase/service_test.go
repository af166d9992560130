package purchase

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
	docs  map[id.ID]*Purchase
	lines map[id.ID][]Line
}

func newMockRepo(docs ...*Purchase) *mockRepo {
	r := &mockRepo{docs: make(map[id.ID]*Purchase), lines: make(map[id.ID][]Line)}
	for _, doc := range docs {
		r.docs[doc.ID] = doc
		r.lines[doc.ID] = doc.Lines
	}
	return r
}

func (r *mockRepo) Create(ctx context.Context, doc *Purchase) error {
	r.docs[doc.ID] = doc
	return nil
}

func (r *mockRepo) GetByID(ctx context.Context, docID id.ID) (*Purchase, error) {
	doc, ok := r.docs[docID]
	if !ok {
		return nil, apperror.NewNotFound("purchase", docID)
	}
	return doc, nil
}

func (r *mockRepo) GetByNumber(ctx context.Context, number string) (*Purchase, error) {
	for _, doc := range r.docs {
		if doc.Number == number {
			return doc, nil
		}
	}
	return nil, apperror.NewNotFound("purchase", number)
}

func (r *mockRepo) Update(ctx context.Context, doc *Purchase) error {
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

func (r *mockRepo) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Purchase], error) {
	return domain.ListResult[*Purchase]{}, nil
}

func (r *mockRepo) GetForUpdate(ctx context.Context, docID id.ID) (*Purchase, error) {
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

func TestReceive_RecordsInboundPerLine(t *testing.T) {
	widget := stockedProduct("Widget", "10", "100")
	gadget := stockedProduct("Gadget", "0", "0")

	doc := New(id.New(), id.New(), id.New())
	doc.SupplierDocNumber = "INV-77"
	doc.AddLine(widget.ID, d("5"), d("130"))
	doc.AddLine(gadget.ID, d("8"), d("40"))

	repo := newMockRepo(doc)
	lrepo := newLedgerRepo(widget, gadget)
	svc := newTestService(repo, lrepo)

	require.NoError(t, svc.Receive(context.Background(), doc.ID))

	assert.Equal(t, entity.StatusReceived, doc.Status)
	require.Len(t, lrepo.inserted, 2)

	first := lrepo.inserted[0]
	assert.Equal(t, ledger.DirectionIn, first.Direction)
	assert.Equal(t, ledger.ReasonPurchaseReceipt, first.Reason)
	assert.Equal(t, ledger.RefPurchase, first.ReferenceType)
	assert.Equal(t, doc.ID, first.ReferenceID)
	assert.Equal(t, "INV-77", first.Notes)
	assert.True(t, first.UnitCost.Equal(d("130")), "inbound is costed at the line cost")

	// (10*100 + 5*130) / 15 = 110
	assert.True(t, widget.CurrentStock.Equal(d("15")))
	assert.True(t, widget.AverageCost.Equal(d("110")),
		"average cost = %s, want 110", widget.AverageCost)

	// First receipt sets the cost outright.
	assert.True(t, gadget.AverageCost.Equal(d("40")))
	assert.True(t, gadget.CurrentStock.Equal(d("8")))
}

func TestReceive_OnlyFromDraft(t *testing.T) {
	widget := stockedProduct("Widget", "10", "100")
	doc := New(id.New(), id.New(), id.New())
	doc.AddLine(widget.ID, d("5"), d("130"))
	doc.Status = entity.StatusReceived

	repo := newMockRepo(doc)
	lrepo := newLedgerRepo(widget)
	svc := newTestService(repo, lrepo)

	err := svc.Receive(context.Background(), doc.ID)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeDocumentState))
	assert.Empty(t, lrepo.inserted)
}

func TestReceive_UnknownProductFails(t *testing.T) {
	widget := stockedProduct("Widget", "10", "100")
	doc := New(id.New(), id.New(), id.New())
	doc.AddLine(widget.ID, d("5"), d("130"))
	doc.AddLine(id.New(), d("3"), d("50")) // unknown product

	repo := newMockRepo(doc)
	lrepo := newLedgerRepo(widget)
	svc := newTestService(repo, lrepo)

	err := svc.Receive(context.Background(), doc.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestCreate_AssignsNumberAndSavesLines(t *testing.T) {
	widget := stockedProduct("Widget", "0", "0")
	doc := New(id.New(), id.New(), id.New())
	doc.AddLine(widget.ID, d("5"), d("130"))

	repo := newMockRepo()
	svc := newTestService(repo, newLedgerRepo(widget))

	require.NoError(t, svc.Create(context.Background(), doc))
	assert.NotEmpty(t, doc.Number)
	assert.Len(t, repo.lines[doc.ID], 1)
}

func TestCreate_KeepsProvidedNumber(t *testing.T) {
	widget := stockedProduct("Widget", "0", "0")
	doc := New(id.New(), id.New(), id.New())
	doc.Number = "PO-2026-00042"
	doc.AddLine(widget.ID, d("5"), d("130"))

	repo := newMockRepo()
	svc := newTestService(repo, newLedgerRepo(widget))

	require.NoError(t, svc.Create(context.Background(), doc))
	assert.Equal(t, "PO-2026-00042", doc.Number)
}

func TestUpdate_RejectedAfterReceive(t *testing.T) {
	widget := stockedProduct("Widget", "0", "0")
	doc := New(id.New(), id.New(), id.New())
	doc.AddLine(widget.ID, d("5"), d("130"))
	doc.Status = entity.StatusReceived

	repo := newMockRepo(doc)
	svc := newTestService(repo, newLedgerRepo(widget))

	err := svc.Update(context.Background(), doc)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeDocumentState))
}
