package sale

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

// ledgerRepo backs a real ledger.Service with an in-memory product map,
// so document tests exercise genuine average-cost behavior.
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
	docs  map[id.ID]*Sale
	lines map[id.ID][]Line
}

func newMockRepo(docs ...*Sale) *mockRepo {
	r := &mockRepo{docs: make(map[id.ID]*Sale), lines: make(map[id.ID][]Line)}
	for _, doc := range docs {
		r.docs[doc.ID] = doc
		r.lines[doc.ID] = doc.Lines
	}
	return r
}

func (r *mockRepo) Create(ctx context.Context, doc *Sale) error {
	r.docs[doc.ID] = doc
	return nil
}

func (r *mockRepo) GetByID(ctx context.Context, docID id.ID) (*Sale, error) {
	doc, ok := r.docs[docID]
	if !ok {
		return nil, apperror.NewNotFound("sale", docID)
	}
	return doc, nil
}

func (r *mockRepo) GetByNumber(ctx context.Context, number string) (*Sale, error) {
	for _, doc := range r.docs {
		if doc.Number == number {
			return doc, nil
		}
	}
	return nil, apperror.NewNotFound("sale", number)
}

func (r *mockRepo) Update(ctx context.Context, doc *Sale) error {
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

func (r *mockRepo) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Sale], error) {
	return domain.ListResult[*Sale]{}, nil
}

func (r *mockRepo) GetForUpdate(ctx context.Context, docID id.ID) (*Sale, error) {
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
	return NewService(repo, productLookup{lrepo}, ledgerSvc, &sequence.MockAllocator{}, txm)
}

// productLookup adapts the ledger repo's product map to the slice of
// product.Repository the sale service reads stock through.
type productLookup struct {
	inner *ledgerRepo
}

func (l productLookup) GetByID(ctx context.Context, productID id.ID) (*product.Product, error) {
	return l.inner.GetProductForUpdate(ctx, productID)
}

func (l productLookup) Create(ctx context.Context, p *product.Product) error  { return nil }
func (l productLookup) Update(ctx context.Context, p *product.Product) error  { return nil }
func (l productLookup) Delete(ctx context.Context, productID id.ID) error     { return nil }
func (l productLookup) GetByCode(ctx context.Context, code string) (*product.Product, error) {
	return nil, apperror.NewNotFound("product", code)
}
func (l productLookup) SetDeletionMark(ctx context.Context, productID id.ID, marked bool) error {
	return nil
}
func (l productLookup) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*product.Product], error) {
	return domain.ListResult[*product.Product]{}, nil
}
func (l productLookup) Exists(ctx context.Context, productID id.ID) (bool, error) { return true, nil }
func (l productLookup) ExistsByCode(ctx context.Context, code string) (bool, error) {
	return false, nil
}
func (l productLookup) FindBySKU(ctx context.Context, sku string) (*product.Product, error) {
	return nil, apperror.NewNotFound("product", sku)
}
func (l productLookup) FindLowStock(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*product.Product], error) {
	return domain.ListResult[*product.Product]{}, nil
}

var _ product.Repository = productLookup{}

func draftSale(lines func(*Sale)) *Sale {
	doc := New(id.New(), id.New(), id.New())
	lines(doc)
	return doc
}

// --- Tests ---

func TestConfirm_RecordsOutboundAtAverageCost(t *testing.T) {
	widget := stockedProduct("Widget", "20", "110")
	doc := draftSale(func(s *Sale) {
		s.AddLine(widget.ID, d("5"), d("200"))
	})
	repo := newMockRepo(doc)
	lrepo := newLedgerRepo(widget)
	svc := newTestService(repo, lrepo)

	require.NoError(t, svc.Confirm(context.Background(), doc.ID))

	assert.Equal(t, entity.StatusConfirmed, doc.Status)
	require.Len(t, lrepo.inserted, 1)

	m := lrepo.inserted[0]
	assert.Equal(t, ledger.DirectionOut, m.Direction)
	assert.Equal(t, ledger.ReasonSale, m.Reason)
	assert.Equal(t, ledger.RefSale, m.ReferenceType)
	assert.Equal(t, doc.ID, m.ReferenceID)
	assert.True(t, m.UnitCost.Equal(d("110")), "outbound cost = %s, want average 110", m.UnitCost)
	assert.True(t, widget.CurrentStock.Equal(d("15")))
}

func TestConfirm_ShortageReportsEveryLine(t *testing.T) {
	widget := stockedProduct("Widget", "3", "100")
	gadget := stockedProduct("Gadget", "1", "50")
	doc := draftSale(func(s *Sale) {
		s.AddLine(widget.ID, d("5"), d("200"))
		s.AddLine(gadget.ID, d("4"), d("80"))
	})
	repo := newMockRepo(doc)
	lrepo := newLedgerRepo(widget, gadget)
	svc := newTestService(repo, lrepo)

	err := svc.Confirm(context.Background(), doc.ID)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeInsufficientStock))

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	shortages, ok := appErr.Details["lines"].([]shortageLine)
	require.True(t, ok)
	assert.Len(t, shortages, 2, "both short lines must be reported")

	// Nothing moved, status unchanged.
	assert.Empty(t, lrepo.inserted)
	assert.Equal(t, entity.StatusDraft, doc.Status)
	assert.True(t, widget.CurrentStock.Equal(d("3")))
}

func TestConfirm_DescriptionAndFulfilledLinesSkipStock(t *testing.T) {
	widget := stockedProduct("Widget", "10", "100")
	doc := draftSale(func(s *Sale) {
		s.AddLine(widget.ID, d("2"), d("150"))
		s.AddFulfilledLine(widget.ID, d("3"), d("150"))
		s.AddDescriptionLine("diagnostics", d("1"), d("40"))
	})
	repo := newMockRepo(doc)
	lrepo := newLedgerRepo(widget)
	svc := newTestService(repo, lrepo)

	require.NoError(t, svc.Confirm(context.Background(), doc.ID))

	require.Len(t, lrepo.inserted, 1, "only the plain product line moves stock")
	assert.True(t, lrepo.inserted[0].Quantity.Equal(d("2")))
	assert.True(t, widget.CurrentStock.Equal(d("8")))
}

func TestConfirm_NegativeStockProductAllowed(t *testing.T) {
	widget := stockedProduct("Widget", "1", "100")
	widget.AllowNegativeStock = true
	doc := draftSale(func(s *Sale) {
		s.AddLine(widget.ID, d("4"), d("150"))
	})
	repo := newMockRepo(doc)
	lrepo := newLedgerRepo(widget)
	svc := newTestService(repo, lrepo)

	require.NoError(t, svc.Confirm(context.Background(), doc.ID))
	assert.True(t, widget.CurrentStock.Equal(d("-3")))
}

func TestConfirm_OnlyFromDraft(t *testing.T) {
	widget := stockedProduct("Widget", "10", "100")
	doc := draftSale(func(s *Sale) {
		s.AddLine(widget.ID, d("1"), d("150"))
	})
	doc.Status = entity.StatusConfirmed
	repo := newMockRepo(doc)
	svc := newTestService(repo, newLedgerRepo(widget))

	err := svc.Confirm(context.Background(), doc.ID)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeDocumentState))
}

func TestCancel_ReversesAtOriginalCost(t *testing.T) {
	widget := stockedProduct("Widget", "20", "110")
	doc := draftSale(func(s *Sale) {
		s.AddLine(widget.ID, d("5"), d("200"))
	})
	repo := newMockRepo(doc)
	lrepo := newLedgerRepo(widget)
	svc := newTestService(repo, lrepo)
	ctx := context.Background()

	require.NoError(t, svc.Confirm(ctx, doc.ID))

	// The average drifts after the sale; the reversal must still use the
	// cost recorded at confirmation time.
	widget.AverageCost = d("140")

	require.NoError(t, svc.Cancel(ctx, doc.ID))

	assert.Equal(t, entity.StatusCancelled, doc.Status)
	require.Len(t, lrepo.inserted, 2)

	reversal := lrepo.inserted[1]
	assert.Equal(t, ledger.DirectionIn, reversal.Direction)
	assert.Equal(t, ledger.ReasonSaleReversal, reversal.Reason)
	assert.True(t, reversal.UnitCost.Equal(d("110")))
	assert.True(t, reversal.Quantity.Equal(d("5")))
	assert.True(t, widget.CurrentStock.Equal(d("20")), "stock restored")

	// The original outbound row is untouched.
	assert.Equal(t, ledger.ReasonSale, lrepo.inserted[0].Reason)
}

func TestCancel_OnlyFromConfirmed(t *testing.T) {
	widget := stockedProduct("Widget", "10", "100")
	doc := draftSale(func(s *Sale) {
		s.AddLine(widget.ID, d("1"), d("150"))
	})
	repo := newMockRepo(doc)
	svc := newTestService(repo, newLedgerRepo(widget))

	err := svc.Cancel(context.Background(), doc.ID)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeDocumentState))
}

func TestCreate_AssignsNumber(t *testing.T) {
	widget := stockedProduct("Widget", "10", "100")
	doc := draftSale(func(s *Sale) {
		s.AddLine(widget.ID, d("1"), d("150"))
	})
	repo := newMockRepo()
	svc := newTestService(repo, newLedgerRepo(widget))

	require.NoError(t, svc.Create(context.Background(), doc))
	assert.NotEmpty(t, doc.Number)
}

func TestUpdate_RejectedAfterConfirm(t *testing.T) {
	widget := stockedProduct("Widget", "10", "100")
	doc := draftSale(func(s *Sale) {
		s.AddLine(widget.ID, d("1"), d("150"))
	})
	doc.Status = entity.StatusConfirmed
	repo := newMockRepo(doc)
	svc := newTestService(repo, newLedgerRepo(widget))

	err := svc.Update(context.Background(), doc)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeDocumentState))
}

func TestDelete_DraftOnly(t *testing.T) {
	widget := stockedProduct("Widget", "10", "100")
	doc := draftSale(func(s *Sale) {
		s.AddLine(widget.ID, d("1"), d("150"))
	})
	doc.Status = entity.StatusCancelled
	repo := newMockRepo(doc)
	svc := newTestService(repo, newLedgerRepo(widget))

	err := svc.Delete(context.Background(), doc.ID)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeDocumentState))
}
