package workshop

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
	"invenda/internal/domain/documents/sale"
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
	docs  map[id.ID]*Order
	parts map[id.ID][]Part
	labor map[id.ID][]Labor
}

func newMockRepo(docs ...*Order) *mockRepo {
	r := &mockRepo{
		docs:  make(map[id.ID]*Order),
		parts: make(map[id.ID][]Part),
		labor: make(map[id.ID][]Labor),
	}
	for _, doc := range docs {
		r.docs[doc.ID] = doc
		r.parts[doc.ID] = doc.Parts
		r.labor[doc.ID] = doc.Labor
	}
	return r
}

func (r *mockRepo) Create(ctx context.Context, doc *Order) error {
	r.docs[doc.ID] = doc
	return nil
}

func (r *mockRepo) GetByID(ctx context.Context, docID id.ID) (*Order, error) {
	doc, ok := r.docs[docID]
	if !ok {
		return nil, apperror.NewNotFound("workshop order", docID)
	}
	return doc, nil
}

func (r *mockRepo) GetByNumber(ctx context.Context, number string) (*Order, error) {
	for _, doc := range r.docs {
		if doc.Number == number {
			return doc, nil
		}
	}
	return nil, apperror.NewNotFound("workshop order", number)
}

func (r *mockRepo) Update(ctx context.Context, doc *Order) error {
	r.docs[doc.ID] = doc
	return nil
}

func (r *mockRepo) Delete(ctx context.Context, docID id.ID) error {
	delete(r.docs, docID)
	return nil
}

func (r *mockRepo) GetParts(ctx context.Context, docID id.ID) ([]Part, error) {
	return r.parts[docID], nil
}

func (r *mockRepo) SaveParts(ctx context.Context, docID id.ID, parts []Part) error {
	r.parts[docID] = parts
	return nil
}

func (r *mockRepo) GetLabor(ctx context.Context, docID id.ID) ([]Labor, error) {
	return r.labor[docID], nil
}

func (r *mockRepo) SaveLabor(ctx context.Context, docID id.ID, labor []Labor) error {
	r.labor[docID] = labor
	return nil
}

func (r *mockRepo) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Order], error) {
	return domain.ListResult[*Order]{}, nil
}

func (r *mockRepo) GetForUpdate(ctx context.Context, docID id.ID) (*Order, error) {
	return r.GetByID(ctx, docID)
}

var _ Repository = (*mockRepo)(nil)

// saleRepo is a minimal in-memory sale.Repository so GenerateSale can
// run through a real sale service.
type saleRepo struct {
	docs map[id.ID]*sale.Sale
}

func newSaleRepo() *saleRepo {
	return &saleRepo{docs: make(map[id.ID]*sale.Sale)}
}

func (r *saleRepo) Create(ctx context.Context, doc *sale.Sale) error {
	r.docs[doc.ID] = doc
	return nil
}

func (r *saleRepo) GetByID(ctx context.Context, docID id.ID) (*sale.Sale, error) {
	doc, ok := r.docs[docID]
	if !ok {
		return nil, apperror.NewNotFound("sale", docID)
	}
	return doc, nil
}

func (r *saleRepo) GetByNumber(ctx context.Context, number string) (*sale.Sale, error) {
	return nil, apperror.NewNotFound("sale", number)
}

func (r *saleRepo) Update(ctx context.Context, doc *sale.Sale) error {
	r.docs[doc.ID] = doc
	return nil
}

func (r *saleRepo) Delete(ctx context.Context, docID id.ID) error {
	delete(r.docs, docID)
	return nil
}

func (r *saleRepo) GetLines(ctx context.Context, docID id.ID) ([]sale.Line, error) {
	if doc, ok := r.docs[docID]; ok {
		return doc.Lines, nil
	}
	return nil, nil
}

func (r *saleRepo) SaveLines(ctx context.Context, docID id.ID, lines []sale.Line) error {
	return nil
}

func (r *saleRepo) List(ctx context.Context, filter sale.ListFilter) (domain.ListResult[*sale.Sale], error) {
	return domain.ListResult[*sale.Sale]{}, nil
}

func (r *saleRepo) GetForUpdate(ctx context.Context, docID id.ID) (*sale.Sale, error) {
	return r.GetByID(ctx, docID)
}

var _ sale.Repository = (*saleRepo)(nil)

// productLookup adapts the ledger repo's product map for the sale
// service's stock checks.
type productLookup struct {
	inner *ledgerRepo
}

func (l productLookup) GetByID(ctx context.Context, productID id.ID) (*product.Product, error) {
	return l.inner.GetProductForUpdate(ctx, productID)
}

func (l productLookup) Create(ctx context.Context, p *product.Product) error { return nil }
func (l productLookup) Update(ctx context.Context, p *product.Product) error { return nil }
func (l productLookup) Delete(ctx context.Context, productID id.ID) error    { return nil }
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

// --- Helpers ---

func stockedProduct(name, stock, avgCost string) *product.Product {
	p := product.New(id.New(), "SKU-"+name, name, product.TypeGood)
	p.CurrentStock = d(stock)
	p.AverageCost = d(avgCost)
	p.RecomputeAvailable()
	return p
}

type fixture struct {
	svc   *Service
	repo  *mockRepo
	lrepo *ledgerRepo
	sales *saleRepo
}

func newFixture(lrepo *ledgerRepo, docs ...*Order) *fixture {
	txm := &stubTxManager{}
	ledgerSvc := ledger.NewService(lrepo, &sequence.MockAllocator{}, txm)
	sales := newSaleRepo()
	saleSvc := sale.NewService(sales, productLookup{lrepo}, ledgerSvc, &sequence.MockAllocator{}, txm)
	repo := newMockRepo(docs...)
	return &fixture{
		svc:   NewService(repo, saleSvc, ledgerSvc, &sequence.MockAllocator{}, txm),
		repo:  repo,
		lrepo: lrepo,
		sales: sales,
	}
}

// --- Tests ---

func TestAddPart_ConsumesStockImmediately(t *testing.T) {
	widget := stockedProduct("Widget", "10", "80")
	doc := New(id.New(), id.New(), id.New())
	f := newFixture(newLedgerRepo(widget), doc)

	part, err := f.svc.AddPart(context.Background(), doc.ID, widget.ID, d("2"), d("150"))
	require.NoError(t, err)

	assert.True(t, part.Quantity.Equal(d("2")))
	assert.True(t, part.UnitCost.Equal(d("80")), "part captures the consumption cost")
	assert.True(t, part.SalePrice.Equal(d("150")))

	require.Len(t, f.lrepo.inserted, 1)
	m := f.lrepo.inserted[0]
	assert.Equal(t, ledger.DirectionOut, m.Direction)
	assert.Equal(t, ledger.ReasonWorkshopPart, m.Reason)
	assert.Equal(t, ledger.RefWorkshop, m.ReferenceType)
	assert.True(t, widget.CurrentStock.Equal(d("8")))

	parts, _ := f.repo.GetParts(context.Background(), doc.ID)
	require.Len(t, parts, 1)
	assert.Equal(t, 1, parts[0].LineNo)
}

func TestAddPart_ShortageRejected(t *testing.T) {
	widget := stockedProduct("Widget", "1", "80")
	doc := New(id.New(), id.New(), id.New())
	f := newFixture(newLedgerRepo(widget), doc)

	_, err := f.svc.AddPart(context.Background(), doc.ID, widget.ID, d("5"), d("150"))
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))

	parts, _ := f.repo.GetParts(context.Background(), doc.ID)
	assert.Empty(t, parts)
}

func TestAddPart_ClosedOrderRejected(t *testing.T) {
	widget := stockedProduct("Widget", "10", "80")
	doc := New(id.New(), id.New(), id.New())
	doc.Status = entity.StatusConfirmed
	f := newFixture(newLedgerRepo(widget), doc)

	_, err := f.svc.AddPart(context.Background(), doc.ID, widget.ID, d("2"), d("150"))
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeDocumentState))
}

func TestRemovePart_RestoresStockAtConsumedCost(t *testing.T) {
	widget := stockedProduct("Widget", "10", "80")
	doc := New(id.New(), id.New(), id.New())
	f := newFixture(newLedgerRepo(widget), doc)
	ctx := context.Background()

	part, err := f.svc.AddPart(ctx, doc.ID, widget.ID, d("2"), d("150"))
	require.NoError(t, err)

	// The average moves on; the correction still uses the consumed cost.
	widget.AverageCost = d("95")

	require.NoError(t, f.svc.RemovePart(ctx, doc.ID, part.LineID))

	require.Len(t, f.lrepo.inserted, 2)
	back := f.lrepo.inserted[1]
	assert.Equal(t, ledger.DirectionIn, back.Direction)
	assert.Equal(t, ledger.ReasonAdjustmentIn, back.Reason)
	assert.True(t, back.UnitCost.Equal(d("80")))
	assert.True(t, widget.CurrentStock.Equal(d("10")))

	parts, _ := f.repo.GetParts(ctx, doc.ID)
	assert.Empty(t, parts)
}

func TestRemovePart_RenumbersRemainingLines(t *testing.T) {
	widget := stockedProduct("Widget", "10", "80")
	gadget := stockedProduct("Gadget", "10", "30")
	doc := New(id.New(), id.New(), id.New())
	f := newFixture(newLedgerRepo(widget, gadget), doc)
	ctx := context.Background()

	first, err := f.svc.AddPart(ctx, doc.ID, widget.ID, d("1"), d("100"))
	require.NoError(t, err)
	_, err = f.svc.AddPart(ctx, doc.ID, gadget.ID, d("1"), d("60"))
	require.NoError(t, err)

	require.NoError(t, f.svc.RemovePart(ctx, doc.ID, first.LineID))

	parts, _ := f.repo.GetParts(ctx, doc.ID)
	require.Len(t, parts, 1)
	assert.Equal(t, gadget.ID, parts[0].ProductID)
	assert.Equal(t, 1, parts[0].LineNo)
}

func TestRemovePart_UnknownLine(t *testing.T) {
	widget := stockedProduct("Widget", "10", "80")
	doc := New(id.New(), id.New(), id.New())
	f := newFixture(newLedgerRepo(widget), doc)

	err := f.svc.RemovePart(context.Background(), doc.ID, id.New())
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestGenerateSale_BillsPartsAndLabor(t *testing.T) {
	widget := stockedProduct("Widget", "10", "80")
	doc := New(id.New(), id.New(), id.New())
	doc.AddLabor("brake service", d("2"), d("45"))
	f := newFixture(newLedgerRepo(widget), doc)
	ctx := context.Background()

	_, err := f.svc.AddPart(ctx, doc.ID, widget.ID, d("2"), d("150"))
	require.NoError(t, err)

	billing, err := f.svc.GenerateSale(ctx, doc.ID)
	require.NoError(t, err)

	assert.Equal(t, entity.StatusConfirmed, doc.Status)
	require.NotNil(t, doc.SaleID)
	assert.Equal(t, billing.ID, *doc.SaleID)
	assert.Equal(t, doc.CustomerID, billing.CustomerID)
	assert.Equal(t, doc.WarehouseID, billing.WarehouseID)

	require.Len(t, billing.Lines, 2)

	partLine := billing.Lines[0]
	require.NotNil(t, partLine.ProductID)
	assert.Equal(t, widget.ID, *partLine.ProductID)
	assert.True(t, partLine.Fulfilled, "part stock already left with the order")
	assert.True(t, partLine.UnitPrice.Equal(d("150")))

	laborLine := billing.Lines[1]
	assert.Nil(t, laborLine.ProductID)
	assert.Equal(t, "brake service", laborLine.Description)
	assert.True(t, laborLine.Amount.Equal(d("90")))

	// 2*150 + 2*45
	assert.True(t, billing.TotalAmount.Equal(d("390")))
}

func TestGenerateSale_ConfirmingBillingSaleMovesNoPartStock(t *testing.T) {
	widget := stockedProduct("Widget", "10", "80")
	doc := New(id.New(), id.New(), id.New())
	f := newFixture(newLedgerRepo(widget), doc)
	ctx := context.Background()

	_, err := f.svc.AddPart(ctx, doc.ID, widget.ID, d("2"), d("150"))
	require.NoError(t, err)
	require.Len(t, f.lrepo.inserted, 1)

	billing, err := f.svc.GenerateSale(ctx, doc.ID)
	require.NoError(t, err)

	// Confirming the generated sale must not consume the parts again.
	txm := &stubTxManager{}
	ledgerSvc := ledger.NewService(f.lrepo, &sequence.MockAllocator{}, txm)
	saleSvc := sale.NewService(f.sales, productLookup{f.lrepo}, ledgerSvc, &sequence.MockAllocator{}, txm)
	require.NoError(t, saleSvc.Confirm(ctx, billing.ID))

	assert.Len(t, f.lrepo.inserted, 1, "no movement on confirming fulfilled lines")
	assert.True(t, widget.CurrentStock.Equal(d("8")))
}

func TestGenerateSale_EmptyOrderRejected(t *testing.T) {
	doc := New(id.New(), id.New(), id.New())
	f := newFixture(newLedgerRepo(), doc)

	_, err := f.svc.GenerateSale(context.Background(), doc.ID)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeDocumentState))
}

func TestGenerateSale_OnlyFromOpenOrder(t *testing.T) {
	doc := New(id.New(), id.New(), id.New())
	doc.AddLabor("inspection", d("1"), d("40"))
	doc.Status = entity.StatusConfirmed
	f := newFixture(newLedgerRepo(), doc)

	_, err := f.svc.GenerateSale(context.Background(), doc.ID)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeDocumentState))
}
