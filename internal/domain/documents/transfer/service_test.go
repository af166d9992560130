package transfer

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
	docs  map[id.ID]*Transfer
	lines map[id.ID][]Line
}

func newMockRepo(docs ...*Transfer) *mockRepo {
	r := &mockRepo{docs: make(map[id.ID]*Transfer), lines: make(map[id.ID][]Line)}
	for _, doc := range docs {
		r.docs[doc.ID] = doc
		r.lines[doc.ID] = doc.Lines
	}
	return r
}

func (r *mockRepo) Create(ctx context.Context, doc *Transfer) error {
	r.docs[doc.ID] = doc
	return nil
}

func (r *mockRepo) GetByID(ctx context.Context, docID id.ID) (*Transfer, error) {
	doc, ok := r.docs[docID]
	if !ok {
		return nil, apperror.NewNotFound("transfer", docID)
	}
	return doc, nil
}

func (r *mockRepo) GetByNumber(ctx context.Context, number string) (*Transfer, error) {
	for _, doc := range r.docs {
		if doc.Number == number {
			return doc, nil
		}
	}
	return nil, apperror.NewNotFound("transfer", number)
}

func (r *mockRepo) Update(ctx context.Context, doc *Transfer) error {
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

func (r *mockRepo) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Transfer], error) {
	return domain.ListResult[*Transfer]{}, nil
}

func (r *mockRepo) GetForUpdate(ctx context.Context, docID id.ID) (*Transfer, error) {
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

func TestSendAndReceive_CarriesCostAcrossWarehouses(t *testing.T) {
	widget := stockedProduct("Widget", "20", "110")
	doc := New(id.New(), id.New(), id.New())
	doc.AddLine(widget.ID, d("6"))

	repo := newMockRepo(doc)
	lrepo := newLedgerRepo(widget)
	svc := newTestService(repo, lrepo)
	ctx := context.Background()

	require.NoError(t, svc.Send(ctx, doc.ID))
	assert.Equal(t, entity.StatusInTransit, doc.Status)
	require.Len(t, lrepo.inserted, 1)

	sent := lrepo.inserted[0]
	assert.Equal(t, ledger.DirectionOut, sent.Direction)
	assert.Equal(t, ledger.ReasonTransferSend, sent.Reason)
	assert.Equal(t, doc.FromWarehouseID, sent.WarehouseID)
	assert.True(t, sent.UnitCost.Equal(d("110")))
	assert.True(t, widget.CurrentStock.Equal(d("14")), "stock leaves the source on send")

	// Cost basis drifts while in transit; receipt must use the cost
	// captured on send.
	widget.AverageCost = d("150")

	require.NoError(t, svc.Receive(ctx, doc.ID))
	assert.Equal(t, entity.StatusReceived, doc.Status)
	require.Len(t, lrepo.inserted, 2)

	recv := lrepo.inserted[1]
	assert.Equal(t, ledger.DirectionIn, recv.Direction)
	assert.Equal(t, ledger.ReasonTransferReceive, recv.Reason)
	assert.Equal(t, doc.ToWarehouseID, recv.WarehouseID)
	assert.True(t, recv.UnitCost.Equal(d("110")), "receipt cost = %s, want send cost 110", recv.UnitCost)
	assert.True(t, recv.Quantity.Equal(d("6")))
	assert.True(t, widget.CurrentStock.Equal(d("20")))
}

func TestSend_InsufficientStockRejected(t *testing.T) {
	widget := stockedProduct("Widget", "2", "110")
	doc := New(id.New(), id.New(), id.New())
	doc.AddLine(widget.ID, d("6"))

	repo := newMockRepo(doc)
	lrepo := newLedgerRepo(widget)
	svc := newTestService(repo, lrepo)

	err := svc.Send(context.Background(), doc.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))
}

func TestSend_OnlyFromDraft(t *testing.T) {
	widget := stockedProduct("Widget", "20", "110")
	doc := New(id.New(), id.New(), id.New())
	doc.AddLine(widget.ID, d("6"))
	doc.Status = entity.StatusInTransit

	repo := newMockRepo(doc)
	svc := newTestService(repo, newLedgerRepo(widget))

	err := svc.Send(context.Background(), doc.ID)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeDocumentState))
}

func TestReceive_OnlyWhileInTransit(t *testing.T) {
	widget := stockedProduct("Widget", "20", "110")
	doc := New(id.New(), id.New(), id.New())
	doc.AddLine(widget.ID, d("6"))

	repo := newMockRepo(doc)
	svc := newTestService(repo, newLedgerRepo(widget))

	err := svc.Receive(context.Background(), doc.ID)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeDocumentState))
}

func TestCancel_DraftCancelsWithoutMovements(t *testing.T) {
	widget := stockedProduct("Widget", "20", "110")
	doc := New(id.New(), id.New(), id.New())
	doc.AddLine(widget.ID, d("6"))

	repo := newMockRepo(doc)
	lrepo := newLedgerRepo(widget)
	svc := newTestService(repo, lrepo)

	require.NoError(t, svc.Cancel(context.Background(), doc.ID))
	assert.Equal(t, entity.StatusCancelled, doc.Status)
	assert.Empty(t, lrepo.inserted)
}

func TestCancel_InTransitReturnsGoodsToSource(t *testing.T) {
	widget := stockedProduct("Widget", "20", "110")
	doc := New(id.New(), id.New(), id.New())
	doc.AddLine(widget.ID, d("6"))

	repo := newMockRepo(doc)
	lrepo := newLedgerRepo(widget)
	svc := newTestService(repo, lrepo)
	ctx := context.Background()

	require.NoError(t, svc.Send(ctx, doc.ID))
	require.NoError(t, svc.Cancel(ctx, doc.ID))

	assert.Equal(t, entity.StatusCancelled, doc.Status)
	require.Len(t, lrepo.inserted, 2)

	back := lrepo.inserted[1]
	assert.Equal(t, ledger.DirectionIn, back.Direction)
	assert.Equal(t, doc.FromWarehouseID, back.WarehouseID, "goods go back to the source")
	assert.True(t, back.UnitCost.Equal(d("110")))
	assert.True(t, widget.CurrentStock.Equal(d("20")))
}

func TestCancel_ReceivedRejected(t *testing.T) {
	widget := stockedProduct("Widget", "20", "110")
	doc := New(id.New(), id.New(), id.New())
	doc.AddLine(widget.ID, d("6"))
	doc.Status = entity.StatusReceived

	repo := newMockRepo(doc)
	svc := newTestService(repo, newLedgerRepo(widget))

	err := svc.Cancel(context.Background(), doc.ID)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeDocumentState))
}
