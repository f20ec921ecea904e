package goods_receipt_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"stockgate/internal/core/apperror"
	appctx "stockgate/internal/core/context"
	"stockgate/internal/core/entity"
	"stockgate/internal/core/event"
	"stockgate/internal/core/id"
	"stockgate/internal/core/lock"
	"stockgate/internal/core/numerator"
	"stockgate/internal/core/types"
	"stockgate/internal/domain/audit"
	gr "stockgate/internal/domain/documents/goods_receipt"
	"stockgate/internal/domain/pricing"
	"stockgate/internal/domain/procurement"
	"stockgate/internal/domain/registers/stock"
	"stockgate/internal/testutil/memstore"
)

var now = time.Date(2026, time.October, 17, 9, 30, 0, 0, time.UTC)

// --- fakes ---

type fakeNumerator struct {
	mu       sync.Mutex
	counters map[string]int64
	script   []string
}

func (n *fakeNumerator) GetNextNumber(_ context.Context, cfg numerator.Config, period time.Time) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.script) > 0 {
		next := n.script[0]
		n.script = n.script[1:]
		return next, nil
	}
	key := cfg.Key(period)
	n.counters[key]++
	return cfg.Format(period, n.counters[key]), nil
}

func (n *fakeNumerator) SetNextNumber(_ context.Context, cfg numerator.Config, period time.Time, value int64) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.counters[cfg.Key(period)] = value - 1
	return nil
}

func (n *fakeNumerator) Snapshot() func() {
	n.mu.Lock()
	counters := make(map[string]int64, len(n.counters))
	for k, v := range n.counters {
		counters[k] = v
	}
	script := append([]string(nil), n.script...)
	n.mu.Unlock()
	return func() {
		n.mu.Lock()
		n.counters, n.script = counters, script
		n.mu.Unlock()
	}
}

// racingReceipts loses the insert race for its first collisions creates, as
// if a concurrent transaction committed the same number in between.
type racingReceipts struct {
	*memstore.GoodsReceipts
	mu         sync.Mutex
	collisions int
}

func (r *racingReceipts) Create(ctx context.Context, doc *gr.GoodsReceipt) error {
	r.mu.Lock()
	lose := r.collisions > 0
	if lose {
		r.collisions--
	}
	r.mu.Unlock()
	if lose {
		return apperror.NewDuplicateNumber(gr.EntityName, doc.Number)
	}
	return r.GoodsReceipts.Create(ctx, doc)
}

type recorder struct {
	mu      sync.Mutex
	events  []event.Event
	records []audit.Record
}

func (r *recorder) Publish(_ context.Context, events ...event.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, events...)
	return nil
}

func (r *recorder) Log(_ context.Context, record audit.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, record)
	return nil
}

func (r *recorder) Snapshot() func() {
	r.mu.Lock()
	events := append([]event.Event(nil), r.events...)
	records := append([]audit.Record(nil), r.records...)
	r.mu.Unlock()
	return func() {
		r.mu.Lock()
		r.events, r.records = events, records
		r.mu.Unlock()
	}
}

func (r *recorder) eventTypes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type failingPropagator struct{}

func (failingPropagator) Propagate(context.Context, procurement.Completion) error {
	return errors.New("propagation failed")
}

type busyLocker struct{}

func (busyLocker) Obtain(context.Context, string, time.Duration) (lock.Lock, error) {
	return nil, lock.ErrNotObtained
}

// --- fixture ---

type fixture struct {
	svc         *gr.Service
	receipts    *memstore.GoodsReceipts
	stock       *memstore.Stock
	procurement *memstore.Procurement
	catalog     *memstore.Catalog
	txm         *memstore.TxManager
	recorder    *recorder
	numbers     *fakeNumerator

	warehouse id.ID
	user      id.ID
	ctx       context.Context
}

func newFixture(t *testing.T, override func(d *gr.Deps)) *fixture {
	t.Helper()

	f := &fixture{
		receipts:    memstore.NewGoodsReceipts(),
		stock:       memstore.NewStock(),
		procurement: memstore.NewProcurement(),
		catalog:     memstore.NewCatalog(),
		recorder:    &recorder{},
		numbers:     &fakeNumerator{counters: map[string]int64{}},
	}
	f.txm = memstore.NewTxManager(f.receipts, f.stock, f.procurement, f.recorder, f.numbers)
	f.warehouse = f.catalog.AddWarehouse()
	f.user = f.catalog.AddUser()
	f.ctx = appctx.WithUser(context.Background(), &appctx.UserContext{UserID: f.user.String()})

	deps := gr.Deps{
		Repo:           f.receipts,
		References:     f.catalog,
		PurchaseOrders: f.procurement,
		Ledger:         stock.NewService(f.stock),
		Prices:         pricing.NewResolver(f.procurement),
		Propagator:     procurement.NewPropagator(f.procurement),
		Numerator:      f.numbers,
		TxManager:      f.txm,
		Events:         f.recorder,
		Audit:          f.recorder,
		Clock:          func() time.Time { return now },
	}
	if override != nil {
		override(&deps)
	}
	f.svc = gr.NewService(deps)
	return f
}

func q(units int64) types.Quantity { return types.NewQuantity(units) }

func qp(units int64) *types.Quantity {
	v := types.NewQuantity(units)
	return &v
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok, "expected AppError, got %v", err)
	assert.Equal(t, code, appErr.Code)
}

// putOrder stores an APPROVED purchase order with one line per quantity.
func (f *fixture) putOrder(price string, quantities ...int64) procurement.PurchaseOrder {
	po := procurement.PurchaseOrder{
		Number:      "PO-202610-0001",
		Status:      procurement.POStatusApproved,
		WarehouseID: &f.warehouse,
	}
	for _, qty := range quantities {
		po.Lines = append(po.Lines, procurement.PurchaseOrderLine{
			ProductID: f.catalog.AddProduct(),
			Unit:      "pcs",
			Quantity:  q(qty),
			UnitPrice: types.MustMoney(price),
		})
	}
	return f.procurement.PutOrder(po)
}

// ready creates a receipt from po and records the given QC results per item.
func (f *fixture) ready(t *testing.T, po procurement.PurchaseOrder, passed, rejected int64) *gr.GoodsReceipt {
	t.Helper()
	doc, err := f.svc.CreateFromPurchaseOrder(f.ctx, gr.CreateFromPOInput{PurchaseOrderID: po.ID})
	require.NoError(t, err)

	items := make([]gr.QCItemInput, 0, len(doc.Items))
	for _, item := range doc.Items {
		items = append(items, gr.QCItemInput{
			ItemID:      item.ID,
			QtyReceived: qp(passed + rejected),
			QtyPassed:   q(passed),
			QtyRejected: q(rejected),
		})
	}
	doc, err = f.svc.RecordQC(f.ctx, doc.ID, gr.RecordQCInput{Items: items})
	require.NoError(t, err)
	return doc
}

func (f *fixture) balance(productID id.ID) entity.StockBalance {
	b, _ := f.stock.Balance(entity.NewBalanceKey(productID, f.warehouse, now))
	return b
}

// --- create ---

func TestCreateFromPurchaseOrder(t *testing.T) {
	f := newFixture(t, nil)
	po := f.putOrder("2.5", 100, 40)

	doc, err := f.svc.CreateFromPurchaseOrder(f.ctx, gr.CreateFromPOInput{PurchaseOrderID: po.ID})
	require.NoError(t, err)

	assert.Equal(t, "GRN-202610-0001", doc.Number)
	assert.Equal(t, gr.StatusDraft, doc.Status)
	assert.Equal(t, entity.SourcePurchaseOrder, doc.SourceType)
	assert.Equal(t, f.warehouse, doc.WarehouseID)
	assert.Equal(t, f.user, doc.ReceivedByID, "receiver defaults to the caller")
	require.Len(t, doc.Items, 2)

	for i, item := range doc.Items {
		assert.Equal(t, i+1, item.LineNo)
		assert.Equal(t, po.Lines[i].Quantity, item.QtyPlanReceived)
		assert.Equal(t, types.Quantity(0), item.QtyReceived)
		assert.Equal(t, gr.QCPending, item.QCStatus)
		require.NotNil(t, item.PurchaseOrderLineID)
		assert.Equal(t, po.Lines[i].ID, *item.PurchaseOrderLineID)
	}

	assert.Empty(t, f.stock.Details(), "creation has no ledger effect")

	next, err := f.svc.CreateFromPurchaseOrder(f.ctx, gr.CreateFromPOInput{PurchaseOrderID: po.ID})
	require.NoError(t, err)
	assert.Equal(t, "GRN-202610-0002", next.Number)
}

func TestCreateFromPurchaseOrder_Rejections(t *testing.T) {
	f := newFixture(t, nil)

	cancelled := f.putOrder("1", 10)
	cancelled.Status = procurement.POStatusCancelled
	f.procurement.PutOrder(cancelled)
	_, err := f.svc.CreateFromPurchaseOrder(f.ctx, gr.CreateFromPOInput{PurchaseOrderID: cancelled.ID})
	requireCode(t, err, apperror.CodeBusinessRule)

	noWarehouse := f.putOrder("1", 10)
	noWarehouse.WarehouseID = nil
	f.procurement.PutOrder(noWarehouse)
	_, err = f.svc.CreateFromPurchaseOrder(f.ctx, gr.CreateFromPOInput{PurchaseOrderID: noWarehouse.ID})
	requireCode(t, err, apperror.CodeValidation)

	empty := f.putOrder("1")
	_, err = f.svc.CreateFromPurchaseOrder(f.ctx, gr.CreateFromPOInput{PurchaseOrderID: empty.ID})
	requireCode(t, err, apperror.CodeValidation)

	_, err = f.svc.CreateFromPurchaseOrder(f.ctx, gr.CreateFromPOInput{PurchaseOrderID: id.New()})
	requireCode(t, err, apperror.CodeNotFound)

	valid := f.putOrder("1", 10)
	_, err = f.svc.CreateFromPurchaseOrder(f.ctx, gr.CreateFromPOInput{PurchaseOrderID: valid.ID, ReceivedByID: id.New()})
	requireCode(t, err, apperror.CodeNotFound)

	_, err = f.svc.CreateFromPurchaseOrder(f.ctx, gr.CreateFromPOInput{})
	requireCode(t, err, apperror.CodeValidation)

	assert.Equal(t, 0, f.receipts.Len())
}

func TestCreate_ExplicitNumber(t *testing.T) {
	f := newFixture(t, nil)
	po := f.putOrder("1", 10)

	doc, err := f.svc.CreateFromPurchaseOrder(f.ctx, gr.CreateFromPOInput{PurchaseOrderID: po.ID, Number: "GRN-LEGACY-7"})
	require.NoError(t, err)
	assert.Equal(t, "GRN-LEGACY-7", doc.Number)

	_, err = f.svc.CreateFromPurchaseOrder(f.ctx, gr.CreateFromPOInput{PurchaseOrderID: po.ID, Number: "GRN-LEGACY-7"})
	requireCode(t, err, apperror.CodeDuplicateNumber)
	assert.Equal(t, 1, f.receipts.Len())
}

func TestCreate_SkipsNumbersTakenExplicitly(t *testing.T) {
	f := newFixture(t, nil)
	po := f.putOrder("1", 10)

	_, err := f.svc.CreateFromPurchaseOrder(f.ctx, gr.CreateFromPOInput{PurchaseOrderID: po.ID, Number: "GRN-202610-0002"})
	require.NoError(t, err)

	doc, err := f.svc.CreateFromPurchaseOrder(f.ctx, gr.CreateFromPOInput{PurchaseOrderID: po.ID})
	require.NoError(t, err)
	assert.Equal(t, "GRN-202610-0001", doc.Number)

	doc, err = f.svc.CreateFromPurchaseOrder(f.ctx, gr.CreateFromPOInput{PurchaseOrderID: po.ID})
	require.NoError(t, err)
	assert.Equal(t, "GRN-202610-0003", doc.Number)

	doc, err = f.svc.CreateFromPurchaseOrder(f.ctx, gr.CreateFromPOInput{PurchaseOrderID: po.ID})
	require.NoError(t, err)
	assert.Equal(t, "GRN-202610-0004", doc.Number)
	assert.Equal(t, 0, f.txm.Aborts())
}

func TestCreate_RetriesLostInsertRace(t *testing.T) {
	f := newFixture(t, func(d *gr.Deps) {
		d.Repo = &racingReceipts{GoodsReceipts: d.Repo.(*memstore.GoodsReceipts), collisions: 2}
	})
	po := f.putOrder("1", 10)

	doc, err := f.svc.CreateFromPurchaseOrder(f.ctx, gr.CreateFromPOInput{PurchaseOrderID: po.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, f.txm.Aborts())
	assert.Equal(t, 1, f.receipts.Len())

	stored, err := f.svc.Get(f.ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.Number, stored.Number)
}

func TestCreate_GivesUpAfterBoundedRetries(t *testing.T) {
	f := newFixture(t, func(d *gr.Deps) {
		d.Repo = &racingReceipts{GoodsReceipts: d.Repo.(*memstore.GoodsReceipts), collisions: 1000}
	})
	po := f.putOrder("1", 10)

	_, err := f.svc.CreateFromPurchaseOrder(f.ctx, gr.CreateFromPOInput{PurchaseOrderID: po.ID})
	requireCode(t, err, apperror.CodeDuplicateNumber)
	assert.Equal(t, 3, f.txm.Aborts())
	assert.Equal(t, 0, f.receipts.Len())
}

func TestCreate_GivesUpWhenEveryAllocatedNumberIsTaken(t *testing.T) {
	f := newFixture(t, nil)
	po := f.putOrder("1", 10)

	_, err := f.svc.CreateFromPurchaseOrder(f.ctx, gr.CreateFromPOInput{PurchaseOrderID: po.ID, Number: "GRN-202610-0001"})
	require.NoError(t, err)

	script := make([]string, 0, 300)
	for range 300 {
		script = append(script, "GRN-202610-0001")
	}
	f.numbers.script = script

	_, err = f.svc.CreateFromPurchaseOrder(f.ctx, gr.CreateFromPOInput{PurchaseOrderID: po.ID})
	requireCode(t, err, apperror.CodeDuplicateNumber)
	assert.Equal(t, 1, f.receipts.Len())
}

func TestCreate_ConcurrentNumbersAreUnique(t *testing.T) {
	f := newFixture(t, nil)
	po := f.putOrder("1", 10)

	const n = 20
	numbers := make([]string, n)
	var g errgroup.Group
	for i := 0; i < n; i++ {
		g.Go(func() error {
			doc, err := f.svc.CreateFromPurchaseOrder(f.ctx, gr.CreateFromPOInput{PurchaseOrderID: po.ID})
			if err != nil {
				return err
			}
			numbers[i] = doc.Number
			return nil
		})
	}
	require.NoError(t, g.Wait())

	seen := map[string]bool{}
	for _, number := range numbers {
		assert.False(t, seen[number], "duplicate number %s", number)
		seen[number] = true
	}
	assert.True(t, seen["GRN-202610-0001"])
	assert.True(t, seen["GRN-202610-0020"])
}

// --- lifecycle scenarios ---

func TestScenarioA_FullPass(t *testing.T) {
	f := newFixture(t, nil)
	po := f.putOrder("2.5", 100)
	productID := po.Lines[0].ProductID

	doc, err := f.svc.CreateFromPurchaseOrder(f.ctx, gr.CreateFromPOInput{PurchaseOrderID: po.ID})
	require.NoError(t, err)
	itemID := doc.Items[0].ID

	note := "DN-4411"
	doc, err = f.svc.MarkArrived(f.ctx, doc.ID, gr.ArrivalInput{
		VendorDeliveryNote: &note,
		Items:              []gr.ArrivalItemInput{{ItemID: itemID, QtyReceived: q(100)}},
	})
	require.NoError(t, err)
	assert.Equal(t, gr.StatusArrived, doc.Status)
	assert.Equal(t, gr.QCArrived, doc.Items[0].QCStatus)
	assert.Equal(t, gr.ItemReceived, doc.Items[0].Status)
	assert.Equal(t, "DN-4411", doc.VendorDeliveryNote)
	require.NotNil(t, doc.ReceivedDate)

	doc, err = f.svc.RecordQC(f.ctx, doc.ID, gr.RecordQCInput{Items: []gr.QCItemInput{
		{ItemID: itemID, QtyPassed: q(100), QtyRejected: 0},
	}})
	require.NoError(t, err)
	assert.Equal(t, gr.StatusPassed, doc.Status)
	assert.Equal(t, gr.ItemReceived, doc.Items[0].Status)
	assert.Equal(t, gr.QCPassed, doc.Items[0].QCStatus)

	doc, err = f.svc.Approve(f.ctx, doc.ID, gr.ApproveInput{Notes: "checked"})
	require.NoError(t, err)
	assert.Equal(t, gr.StatusCompleted, doc.Status)
	require.NotNil(t, doc.ApprovedBy)
	assert.Equal(t, f.user.String(), *doc.ApprovedBy)
	assert.Contains(t, doc.Notes, "checked")

	details := f.stock.Details()
	require.Len(t, details, 1)
	assert.Equal(t, q(100), details[0].TransQty)
	assert.Equal(t, doc.Number, details[0].ReferenceNo)
	assert.True(t, types.MustMoney("2.5").Equal(details[0].PricePerUnit))
	require.NotNil(t, doc.Items[0].StockDetailID)
	assert.Equal(t, details[0].ID, *doc.Items[0].StockDetailID)

	b := f.balance(productID)
	assert.Equal(t, q(100), b.StockAkhir)
	assert.True(t, types.MustMoney("250").Equal(b.InventoryValue))
	assert.True(t, b.Consistent())
	assert.Equal(t, q(100), f.stock.ProductStock(productID))

	stored := f.procurement.Order(po.ID)
	assert.Equal(t, q(100), stored.Lines[0].ReceivedQuantity)
	assert.Equal(t, procurement.POStatusFullyReceived, stored.Status)

	assert.Equal(t, []string{gr.EventCompleted}, f.recorder.eventTypes())
}

func TestScenarioB_PartialRejection(t *testing.T) {
	f := newFixture(t, nil)
	po := f.putOrder("4", 50)
	productID := po.Lines[0].ProductID

	doc := f.ready(t, po, 30, 20)
	assert.Equal(t, gr.ItemPartial, doc.Items[0].Status)
	assert.Equal(t, gr.QCPartial, doc.Items[0].QCStatus)

	_, err := f.svc.Approve(f.ctx, doc.ID, gr.ApproveInput{})
	require.NoError(t, err)

	details := f.stock.Details()
	require.Len(t, details, 1)
	assert.Equal(t, q(30), details[0].TransQty)
	assert.Equal(t, q(30), f.balance(productID).StockIn)

	stored := f.procurement.Order(po.ID)
	assert.Equal(t, q(30), stored.Lines[0].ReceivedQuantity)
	assert.Equal(t, q(20), stored.Lines[0].RejectedQuantity)
	assert.Equal(t, procurement.POStatusPartiallyReceived, stored.Status)
}

func TestScenarioC_ApproveWithOpenItem(t *testing.T) {
	f := newFixture(t, nil)
	po := f.putOrder("1", 10, 10)

	doc, err := f.svc.CreateFromPurchaseOrder(f.ctx, gr.CreateFromPOInput{PurchaseOrderID: po.ID})
	require.NoError(t, err)
	doc, err = f.svc.RecordQC(f.ctx, doc.ID, gr.RecordQCInput{Items: []gr.QCItemInput{
		{ItemID: doc.Items[0].ID, QtyReceived: qp(10), QtyPassed: q(10)},
	}})
	require.NoError(t, err)
	pending := doc.Items[1].ID

	_, err = f.svc.Approve(f.ctx, doc.ID, gr.ApproveInput{})
	requireCode(t, err, apperror.CodeNotReadyForApproval)
	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, []string{pending.String()}, appErr.Details["pending_items"])

	assert.Empty(t, f.stock.Details())
	stored, err := f.svc.Get(f.ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, gr.StatusPassed, stored.Status)
	assert.Equal(t, types.Quantity(0), f.procurement.Order(po.ID).Lines[0].ReceivedQuantity)
}

func TestScenarioD_ConcurrentApprovalsSameBalance(t *testing.T) {
	f := newFixture(t, nil)
	productID := f.catalog.AddProduct()

	newReady := func(qty int64) *gr.GoodsReceipt {
		doc, err := f.svc.CreateDirect(f.ctx, gr.CreateDirectInput{
			WarehouseID: f.warehouse,
			Items:       []gr.DirectItemInput{{ProductID: productID, QtyPlanReceived: q(qty), QtyReceived: q(qty)}},
		})
		require.NoError(t, err)
		doc, err = f.svc.RecordQC(f.ctx, doc.ID, gr.RecordQCInput{Items: []gr.QCItemInput{
			{ItemID: doc.Items[0].ID, QtyPassed: q(qty)},
		}})
		require.NoError(t, err)
		return doc
	}
	first, second := newReady(30), newReady(45)

	var g errgroup.Group
	for _, doc := range []*gr.GoodsReceipt{first, second} {
		g.Go(func() error {
			_, err := f.svc.Approve(f.ctx, doc.ID, gr.ApproveInput{})
			return err
		})
	}
	require.NoError(t, g.Wait())

	b := f.balance(productID)
	assert.Equal(t, q(75), b.StockIn)
	assert.Equal(t, q(75), b.StockAkhir)
	assert.True(t, b.Consistent())
	assert.Len(t, f.stock.Details(), 2)
}

func TestApprove_Twice(t *testing.T) {
	f := newFixture(t, nil)
	po := f.putOrder("1", 10)
	doc := f.ready(t, po, 10, 0)

	_, err := f.svc.Approve(f.ctx, doc.ID, gr.ApproveInput{})
	require.NoError(t, err)

	_, err = f.svc.Approve(f.ctx, doc.ID, gr.ApproveInput{})
	requireCode(t, err, apperror.CodeInvalidTransition)

	assert.Len(t, f.stock.Details(), 1)
	assert.Equal(t, q(10), f.procurement.Order(po.ID).Lines[0].ReceivedQuantity)
}

func TestApprove_ConcurrentCallsPostOnce(t *testing.T) {
	f := newFixture(t, nil)
	po := f.putOrder("1", 10)
	doc := f.ready(t, po, 10, 0)

	errs := make([]error, 4)
	var g errgroup.Group
	for i := range errs {
		g.Go(func() error {
			_, errs[i] = f.svc.Approve(f.ctx, doc.ID, gr.ApproveInput{})
			return nil
		})
	}
	require.NoError(t, g.Wait())

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		requireCode(t, err, apperror.CodeInvalidTransition)
	}
	assert.Equal(t, 1, succeeded)
	assert.Len(t, f.stock.Details(), 1)
}

func TestApprove_RollsBackOnFailure(t *testing.T) {
	f := newFixture(t, func(d *gr.Deps) { d.Propagator = failingPropagator{} })
	po := f.putOrder("3", 10, 5)
	doc := f.ready(t, po, 5, 0)

	_, err := f.svc.Approve(f.ctx, doc.ID, gr.ApproveInput{})
	require.Error(t, err)

	assert.Empty(t, f.stock.Details())
	_, ok := f.stock.Balance(entity.NewBalanceKey(po.Lines[0].ProductID, f.warehouse, now))
	assert.False(t, ok)
	assert.Equal(t, types.Quantity(0), f.procurement.Order(po.ID).Lines[0].ReceivedQuantity)
	assert.Empty(t, f.recorder.eventTypes())

	stored, err := f.svc.Get(f.ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, gr.StatusPassed, stored.Status)
	assert.Nil(t, stored.Items[0].StockDetailID)
}

func TestApprove_LockHeldElsewhere(t *testing.T) {
	f := newFixture(t, func(d *gr.Deps) { d.Locker = busyLocker{} })
	po := f.putOrder("1", 10)
	doc := f.ready(t, po, 10, 0)

	_, err := f.svc.Approve(f.ctx, doc.ID, gr.ApproveInput{})
	requireCode(t, err, apperror.CodeConflict)
	assert.Empty(t, f.stock.Details())
}

func TestRecordQC_QuantityMismatch(t *testing.T) {
	f := newFixture(t, nil)
	po := f.putOrder("1", 10)

	doc, err := f.svc.CreateFromPurchaseOrder(f.ctx, gr.CreateFromPOInput{PurchaseOrderID: po.ID})
	require.NoError(t, err)

	_, err = f.svc.RecordQC(f.ctx, doc.ID, gr.RecordQCInput{Items: []gr.QCItemInput{
		{ItemID: doc.Items[0].ID, QtyReceived: qp(10), QtyPassed: q(6), QtyRejected: q(3)},
	}})
	requireCode(t, err, apperror.CodeQuantityMismatch)

	stored, err := f.svc.Get(f.ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, gr.StatusDraft, stored.Status)
	assert.Equal(t, types.Quantity(0), stored.Items[0].QtyReceived)
}

func TestMarkArrived_PartialDelivery(t *testing.T) {
	f := newFixture(t, nil)
	po := f.putOrder("1", 10)

	doc, err := f.svc.CreateFromPurchaseOrder(f.ctx, gr.CreateFromPOInput{PurchaseOrderID: po.ID})
	require.NoError(t, err)
	doc, err = f.svc.MarkArrived(f.ctx, doc.ID, gr.ArrivalInput{
		Items: []gr.ArrivalItemInput{{ItemID: doc.Items[0].ID, QtyReceived: q(7)}},
	})
	require.NoError(t, err)
	assert.Equal(t, gr.ItemPartial, doc.Items[0].Status)

	_, err = f.svc.MarkArrived(f.ctx, doc.ID, gr.ArrivalInput{})
	requireCode(t, err, apperror.CodeInvalidTransition)
}

// --- create-direct ---

func TestCreateDirect_CompletesWhenAllItemsInspected(t *testing.T) {
	f := newFixture(t, nil)
	productID := f.catalog.AddProduct()
	override := gr.QCPartial

	doc, err := f.svc.CreateDirect(f.ctx, gr.CreateDirectInput{
		WarehouseID: f.warehouse,
		Items: []gr.DirectItemInput{{
			ProductID:       productID,
			QtyPlanReceived: q(12),
			QtyReceived:     q(12),
			QC:              &gr.QCInput{QtyPassed: q(12), Status: &override},
		}},
	})
	require.NoError(t, err)

	assert.Equal(t, entity.SourceDirect, doc.SourceType)
	assert.Equal(t, gr.StatusCompleted, doc.Status)
	assert.Equal(t, gr.QCPartial, doc.Items[0].QCStatus, "explicit qc status is kept")
	assert.Equal(t, gr.ItemReceived, doc.Items[0].Status)
	require.NotNil(t, doc.ReceivedDate)

	details := f.stock.Details()
	require.Len(t, details, 1)
	assert.Equal(t, entity.SourceDirect, details[0].Source)
	assert.True(t, details[0].PricePerUnit.IsZero())
	assert.Equal(t, q(12), f.balance(productID).StockAkhir)
	assert.Equal(t, []string{gr.EventCompleted}, f.recorder.eventTypes())

	stored, err := f.svc.Get(f.ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, gr.StatusCompleted, stored.Status)
}

func TestCreateDirect_PendingItemKeepsDraft(t *testing.T) {
	f := newFixture(t, nil)
	p1, p2 := f.catalog.AddProduct(), f.catalog.AddProduct()

	doc, err := f.svc.CreateDirect(f.ctx, gr.CreateDirectInput{
		WarehouseID: f.warehouse,
		Items: []gr.DirectItemInput{
			{ProductID: p1, QtyReceived: q(5), QC: &gr.QCInput{QtyPassed: q(5)}},
			{ProductID: p2, QtyPlanReceived: q(8), QtyReceived: q(6)},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, gr.StatusDraft, doc.Status)
	assert.Equal(t, gr.QCPassed, doc.Items[0].QCStatus)
	assert.Equal(t, gr.QCPending, doc.Items[1].QCStatus)
	assert.Equal(t, gr.ItemPartial, doc.Items[1].Status)
	assert.Empty(t, f.stock.Details())
}

func TestCreateDirect_TransferReceipt(t *testing.T) {
	f := newFixture(t, nil)
	productID := f.catalog.AddProduct()
	transfer := f.procurement.PutTransfer(procurement.StockTransfer{
		Number:        "TRF-0042",
		Status:        procurement.TransferStatusInTransit,
		ToWarehouseID: f.warehouse,
		Lines: []procurement.StockTransferLine{
			{ProductID: productID, Quantity: q(4), COGS: types.MustMoney("20")},
		},
	})
	f.stock.PutBalance(entity.StockBalance{
		ProductID:      productID,
		WarehouseID:    f.warehouse,
		Period:         now,
		OnPR:           q(9),
		InventoryValue: types.Zero(),
	})

	doc, err := f.svc.CreateDirect(f.ctx, gr.CreateDirectInput{
		StockTransferID: &transfer.ID,
		WarehouseID:     f.warehouse,
		Items: []gr.DirectItemInput{{
			ProductID:   productID,
			QtyReceived: q(4),
			QC:          &gr.QCInput{QtyPassed: q(4)},
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, entity.SourceTransfer, doc.SourceType)
	assert.Equal(t, gr.StatusCompleted, doc.Status)

	details := f.stock.Details()
	require.Len(t, details, 1)
	assert.True(t, types.MustMoney("5").Equal(details[0].PricePerUnit), "COGS / transferred quantity")

	b := f.balance(productID)
	assert.Equal(t, q(9), b.OnPR, "transfers leave on-PR untouched")
	assert.Equal(t, q(4), b.StockAkhir)
	assert.Equal(t, procurement.TransferStatusReceived, f.procurement.Transfer(transfer.ID).Status)
}

func TestCreateDirect_Validation(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.svc.CreateDirect(f.ctx, gr.CreateDirectInput{WarehouseID: f.warehouse})
	requireCode(t, err, apperror.CodeValidation)
	appErr, _ := apperror.AsAppError(err)
	assert.Contains(t, appErr.Details["fields"], "Items")

	_, err = f.svc.CreateDirect(f.ctx, gr.CreateDirectInput{
		WarehouseID: f.warehouse,
		Items:       []gr.DirectItemInput{{ProductID: id.New(), QtyReceived: q(1)}},
	})
	requireCode(t, err, apperror.CodeNotFound)

	_, err = f.svc.CreateDirect(f.ctx, gr.CreateDirectInput{
		WarehouseID: f.warehouse,
		Items: []gr.DirectItemInput{{
			ProductID:   f.catalog.AddProduct(),
			QtyReceived: q(10),
			QC:          &gr.QCInput{QtyPassed: q(4), QtyRejected: q(4)},
		}},
	})
	requireCode(t, err, apperror.CodeQuantityMismatch)

	assert.Equal(t, 0, f.receipts.Len())
	assert.Empty(t, f.stock.Details())
}

// --- update-qc-status, cancel, delete ---

func TestUpdateQCStatus_RederivesHeader(t *testing.T) {
	f := newFixture(t, nil)
	po := f.putOrder("1", 10)
	doc := f.ready(t, po, 10, 0)
	itemID := doc.Items[0].ID

	reopen := gr.QCArrived
	doc, err := f.svc.UpdateQCStatus(f.ctx, doc.ID, gr.UpdateQCInput{Items: []gr.QCAmendmentInput{
		{ItemID: itemID, QCStatus: &reopen},
	}})
	require.NoError(t, err)
	assert.Equal(t, gr.StatusArrived, doc.Status)

	doc, err = f.svc.UpdateQCStatus(f.ctx, doc.ID, gr.UpdateQCInput{Items: []gr.QCAmendmentInput{
		{ItemID: itemID, QtyPassed: qp(8), QtyRejected: qp(2)},
	}})
	require.NoError(t, err)
	assert.Equal(t, gr.StatusPassed, doc.Status)
	assert.Equal(t, gr.QCPartial, doc.Items[0].QCStatus)
	assert.Equal(t, gr.ItemPartial, doc.Items[0].Status)

	_, err = f.svc.UpdateQCStatus(f.ctx, doc.ID, gr.UpdateQCInput{Items: []gr.QCAmendmentInput{
		{ItemID: itemID, QtyPassed: qp(9)},
	}})
	requireCode(t, err, apperror.CodeQuantityMismatch)
}

func TestUpdateQCStatus_ReopenValidatesQuantities(t *testing.T) {
	f := newFixture(t, nil)
	po := f.putOrder("1", 10)
	doc := f.ready(t, po, 10, 0)
	itemID := doc.Items[0].ID
	reopen := gr.QCArrived

	_, err := f.svc.UpdateQCStatus(f.ctx, doc.ID, gr.UpdateQCInput{Items: []gr.QCAmendmentInput{
		{ItemID: itemID, QCStatus: &reopen, QtyPassed: qp(-5), QtyRejected: qp(3)},
	}})
	requireCode(t, err, apperror.CodeValidation)

	_, err = f.svc.UpdateQCStatus(f.ctx, doc.ID, gr.UpdateQCInput{Items: []gr.QCAmendmentInput{
		{ItemID: itemID, QCStatus: &reopen, QtyPassed: qp(4), QtyRejected: qp(3)},
	}})
	requireCode(t, err, apperror.CodeQuantityMismatch)

	stored, err := f.svc.Get(f.ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, gr.StatusPassed, stored.Status)
	assert.Equal(t, gr.QCPassed, stored.Items[0].QCStatus)
	assert.Equal(t, q(10), stored.Items[0].QtyPassed)
	assert.Equal(t, q(0), stored.Items[0].QtyRejected)

	doc, err = f.svc.UpdateQCStatus(f.ctx, doc.ID, gr.UpdateQCInput{Items: []gr.QCAmendmentInput{
		{ItemID: itemID, QCStatus: &reopen, QtyPassed: qp(0), QtyRejected: qp(0)},
	}})
	require.NoError(t, err)
	assert.Equal(t, gr.StatusArrived, doc.Status)
	assert.Equal(t, q(0), doc.Items[0].QtyPassed)
}

func TestUpdateQCStatus_CompletedKeepsPostedQuantities(t *testing.T) {
	f := newFixture(t, nil)
	po := f.putOrder("1", 10)
	doc := f.ready(t, po, 10, 0)
	doc, err := f.svc.Approve(f.ctx, doc.ID, gr.ApproveInput{})
	require.NoError(t, err)
	itemID := doc.Items[0].ID

	_, err = f.svc.UpdateQCStatus(f.ctx, doc.ID, gr.UpdateQCInput{Items: []gr.QCAmendmentInput{
		{ItemID: itemID, QtyPassed: qp(5), QtyRejected: qp(5)},
	}})
	requireCode(t, err, apperror.CodeInvalidTransition)

	notes := "label reprinted"
	doc, err = f.svc.UpdateQCStatus(f.ctx, doc.ID, gr.UpdateQCInput{Items: []gr.QCAmendmentInput{
		{ItemID: itemID, QCNotes: &notes},
	}})
	require.NoError(t, err)
	assert.Equal(t, gr.StatusCompleted, doc.Status)
	assert.Equal(t, "label reprinted", doc.Items[0].QCNotes)
	assert.Equal(t, q(10), doc.Items[0].QtyPassed)
}

func TestCancel(t *testing.T) {
	f := newFixture(t, nil)
	po := f.putOrder("1", 10)

	doc, err := f.svc.CreateFromPurchaseOrder(f.ctx, gr.CreateFromPOInput{PurchaseOrderID: po.ID})
	require.NoError(t, err)

	doc, err = f.svc.Cancel(f.ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, gr.StatusCancelled, doc.Status)

	_, err = f.svc.MarkArrived(f.ctx, doc.ID, gr.ArrivalInput{})
	requireCode(t, err, apperror.CodeInvalidTransition)
	_, err = f.svc.UpdateQCStatus(f.ctx, doc.ID, gr.UpdateQCInput{Items: []gr.QCAmendmentInput{{ItemID: doc.Items[0].ID}}})
	requireCode(t, err, apperror.CodeInvalidTransition)
	_, err = f.svc.Cancel(f.ctx, doc.ID)
	requireCode(t, err, apperror.CodeInvalidTransition)

	assert.Equal(t, []string{gr.EventCancelled}, f.recorder.eventTypes())
}

func TestDelete(t *testing.T) {
	f := newFixture(t, nil)
	po := f.putOrder("1", 10)

	draft, err := f.svc.CreateFromPurchaseOrder(f.ctx, gr.CreateFromPOInput{PurchaseOrderID: po.ID})
	require.NoError(t, err)
	require.NoError(t, f.svc.Delete(f.ctx, draft.ID))

	_, err = f.svc.Get(f.ctx, draft.ID)
	requireCode(t, err, apperror.CodeNotFound)
	assert.Equal(t, []string{gr.EventDeleted}, f.recorder.eventTypes())
	deleted := f.recorder.records[len(f.recorder.records)-1]
	assert.Equal(t, audit.ActionDelete, deleted.Action)
	assert.Equal(t, 0, deleted.Changes["reversed_postings"])
	assert.Empty(t, f.stock.Details())

	completed := f.ready(t, po, 10, 0)
	_, err = f.svc.Approve(f.ctx, completed.ID, gr.ApproveInput{})
	require.NoError(t, err)

	err = f.svc.Delete(f.ctx, completed.ID)
	requireCode(t, err, apperror.CodeInvalidTransition)
	assert.Len(t, f.stock.Details(), 1)
}

func TestCommandsAreAudited(t *testing.T) {
	f := newFixture(t, nil)
	po := f.putOrder("1", 10)
	doc := f.ready(t, po, 10, 0)
	_, err := f.svc.Approve(f.ctx, doc.ID, gr.ApproveInput{})
	require.NoError(t, err)

	var actions []audit.Action
	for _, r := range f.recorder.records {
		assert.Equal(t, doc.ID, r.EntityID)
		assert.Equal(t, f.user.String(), r.UserID)
		actions = append(actions, r.Action)
	}
	assert.Equal(t, []audit.Action{audit.ActionCreate, audit.ActionRecordQC, audit.ActionApprove}, actions)
}
