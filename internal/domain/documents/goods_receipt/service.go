package goods_receipt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"stockgate/internal/core/apperror"
	appctx "stockgate/internal/core/context"
	"stockgate/internal/core/entity"
	"stockgate/internal/core/event"
	"stockgate/internal/core/id"
	"stockgate/internal/core/lock"
	"stockgate/internal/core/numerator"
	"stockgate/internal/core/tx"
	"stockgate/internal/core/types"
	"stockgate/internal/domain/audit"
	"stockgate/internal/domain/pricing"
	"stockgate/internal/domain/procurement"
	"stockgate/internal/domain/registers/stock"
	"stockgate/pkg/logger"
)

var tracer = otel.Tracer("stockgate/goods_receipt")

const (
	defaultNumberAttempts  = 3
	defaultApprovalLockTTL = 10 * time.Second
)

// Deps are the collaborators of Service. Events, Audit, Locker and Clock
// are optional.
type Deps struct {
	Repo           Repository
	References     References
	PurchaseOrders PurchaseOrders
	Ledger         Ledger
	Prices         PriceResolver
	Propagator     Propagator
	Numerator      numerator.Generator
	TxManager      tx.Manager

	Events event.Publisher
	Audit  audit.Logger
	Locker lock.Locker
	Clock  func() time.Time

	// NumberAttempts bounds the retries of a create whose allocated number collides.
	NumberAttempts  int
	ApprovalLockTTL time.Duration
}

// Service runs the goods receipt lifecycle. Every command is one transaction.
type Service struct {
	repo       Repository
	refs       References
	orders     PurchaseOrders
	ledger     Ledger
	prices     PriceResolver
	propagator Propagator
	numerator  numerator.Generator
	txManager  tx.Manager
	events     event.Publisher
	audit      audit.Logger
	locker     lock.Locker
	now        func() time.Time

	numberAttempts  int
	approvalLockTTL time.Duration
}

// NewService creates a new goods receipt service.
func NewService(d Deps) *Service {
	s := &Service{
		repo:            d.Repo,
		refs:            d.References,
		orders:          d.PurchaseOrders,
		ledger:          d.Ledger,
		prices:          d.Prices,
		propagator:      d.Propagator,
		numerator:       d.Numerator,
		txManager:       d.TxManager,
		events:          d.Events,
		audit:           d.Audit,
		locker:          d.Locker,
		now:             d.Clock,
		numberAttempts:  d.NumberAttempts,
		approvalLockTTL: d.ApprovalLockTTL,
	}
	if s.events == nil {
		s.events = event.Discard{}
	}
	if s.audit == nil {
		s.audit = audit.Discard{}
	}
	if s.locker == nil {
		s.locker = lock.Local{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.numberAttempts <= 0 {
		s.numberAttempts = defaultNumberAttempts
	}
	if s.approvalLockTTL <= 0 {
		s.approvalLockTTL = defaultApprovalLockTTL
	}
	return s
}

// Get returns a receipt with its items.
func (s *Service) Get(ctx context.Context, docID id.ID) (*GoodsReceipt, error) {
	return s.repo.GetByID(ctx, docID)
}

// CreateFromPurchaseOrder creates a DRAFT receipt with one PENDING item per PO line.
func (s *Service) CreateFromPurchaseOrder(ctx context.Context, in CreateFromPOInput) (*GoodsReceipt, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	build := func(ctx context.Context) (*GoodsReceipt, error) {
		po, err := s.orders.GetPurchaseOrder(ctx, in.PurchaseOrderID)
		if err != nil {
			return nil, err
		}
		switch {
		case po.Status.IsClosed():
			return nil, apperror.NewBusinessRule(apperror.CodeBusinessRule, "purchase order does not accept receipts").
				WithDetail("purchase_order_id", po.ID.String()).
				WithDetail("status", string(po.Status))
		case po.WarehouseID == nil:
			return nil, apperror.NewValidation("purchase order has no warehouse").
				WithDetail("purchase_order_id", po.ID.String())
		case len(po.Lines) == 0:
			return nil, apperror.NewValidation("purchase order has no lines").
				WithDetail("purchase_order_id", po.ID.String())
		}

		receiver, err := s.receiver(ctx, in.ReceivedByID)
		if err != nil {
			return nil, err
		}

		doc := newGoodsReceipt(s.now(), appctx.GetUserID(ctx))
		doc.SourceType = entity.SourcePurchaseOrder
		doc.PurchaseOrderID = &po.ID
		doc.WarehouseID = *po.WarehouseID
		doc.ReceivedByID = receiver
		doc.ExpectedDate = in.ExpectedDate
		doc.Notes = in.Notes

		for _, line := range po.Lines {
			lineID := line.ID
			doc.addItem(Item{
				ProductID:               line.ProductID,
				Unit:                    line.Unit,
				QtyPlanReceived:         line.Quantity,
				QCStatus:                QCPending,
				PurchaseOrderLineID:     &lineID,
				PurchaseRequestDetailID: line.PurchaseRequestDetailID,
			})
		}
		return doc, nil
	}

	doc, err := s.create(ctx, in.Number, build, nil)
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "goods receipt created from purchase order",
		"id", doc.ID,
		"number", doc.Number,
		"purchase_order_id", in.PurchaseOrderID,
		"items", len(doc.Items))
	return doc, nil
}

// CreateDirect creates a receipt from explicit items. Items carrying QC
// results are classified; when none is left PENDING the receipt is
// completed in the same transaction.
func (s *Service) CreateDirect(ctx context.Context, in CreateDirectInput) (*GoodsReceipt, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	source := entity.SourceDirect
	switch {
	case in.StockTransferID != nil:
		source = entity.SourceTransfer
	case in.PurchaseOrderID != nil:
		source = entity.SourcePurchaseOrder
	}

	build := func(ctx context.Context) (*GoodsReceipt, error) {
		if err := s.checkDirectReferences(ctx, in); err != nil {
			return nil, err
		}
		receiver, err := s.receiver(ctx, in.ReceivedByID)
		if err != nil {
			return nil, err
		}

		doc := newGoodsReceipt(s.now(), appctx.GetUserID(ctx))
		doc.SourceType = source
		doc.PurchaseOrderID = in.PurchaseOrderID
		doc.StockTransferID = in.StockTransferID
		doc.WarehouseID = in.WarehouseID
		doc.ReceivedByID = receiver
		doc.VendorDeliveryNote = in.VendorDeliveryNote
		doc.VehicleNumber = in.VehicleNumber
		doc.DriverName = in.DriverName
		doc.ReceivedDate = in.ReceivedDate
		doc.ExpectedDate = in.ExpectedDate
		doc.Notes = in.Notes

		for i, itemIn := range in.Items {
			item := Item{
				ProductID:               itemIn.ProductID,
				Unit:                    itemIn.Unit,
				QtyPlanReceived:         itemIn.QtyPlanReceived,
				QtyReceived:             itemIn.QtyReceived,
				PurchaseOrderLineID:     itemIn.PurchaseOrderLineID,
				PurchaseRequestDetailID: itemIn.PurchaseRequestDetailID,
			}
			if itemIn.QC == nil {
				item.QCStatus = QCPending
				item.Status = arrivalStatus(item.QtyReceived, item.QtyPlanReceived)
			} else {
				itemStatus, qcStatus, err := Classify(item.QtyReceived, itemIn.QC.QtyPassed, itemIn.QC.QtyRejected, itemIn.QC.Status)
				if err != nil {
					if appErr, ok := apperror.AsAppError(err); ok {
						return nil, appErr.WithDetail("line", i+1).WithDetail("product_id", item.ProductID.String())
					}
					return nil, err
				}
				item.QtyPassed = itemIn.QC.QtyPassed
				item.QtyRejected = itemIn.QC.QtyRejected
				item.Status = itemStatus
				item.QCStatus = qcStatus
				item.QCNotes = itemIn.QC.Notes
			}
			doc.addItem(item)
		}
		return doc, nil
	}

	completeOnCreate := func(ctx context.Context, doc *GoodsReceipt) error {
		if len(doc.OpenItems()) > 0 {
			return nil
		}
		if doc.ReceivedDate == nil {
			at := s.now().UTC()
			doc.ReceivedDate = &at
		}
		if err := s.complete(ctx, doc, ""); err != nil {
			return err
		}
		doc.Touch(s.now(), appctx.GetUserID(ctx))
		if err := s.repo.Update(ctx, doc); err != nil {
			return err
		}
		return s.events.Publish(ctx, completedEvent(doc))
	}

	doc, err := s.create(ctx, in.Number, build, completeOnCreate)
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "goods receipt created",
		"id", doc.ID,
		"number", doc.Number,
		"source_type", doc.SourceType,
		"status", doc.Status,
		"items", len(doc.Items))
	return doc, nil
}

// MarkArrived records the arrival of a DRAFT receipt's goods.
func (s *Service) MarkArrived(ctx context.Context, docID id.ID, in ArrivalInput) (*GoodsReceipt, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	arrival := Arrival{
		ReceivedDate:       s.now(),
		VendorDeliveryNote: in.VendorDeliveryNote,
		VehicleNumber:      in.VehicleNumber,
		DriverName:         in.DriverName,
		Notes:              in.Notes,
		Received:           make(map[id.ID]types.Quantity, len(in.Items)),
	}
	if in.ReceivedDate != nil {
		arrival.ReceivedDate = *in.ReceivedDate
	}
	for _, item := range in.Items {
		if item.QtyReceived.IsNegative() {
			return nil, apperror.NewValidation("received quantity must not be negative").
				WithDetail("item_id", item.ItemID.String())
		}
		arrival.Received[item.ItemID] = item.QtyReceived
	}

	doc, err := s.mutate(ctx, docID, audit.ActionArrive, func(ctx context.Context, doc *GoodsReceipt) (map[string]any, error) {
		if err := doc.markArrived(arrival); err != nil {
			return nil, err
		}
		return map[string]any{"received_date": doc.ReceivedDate, "items": len(arrival.Received)}, nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "goods receipt arrived", "id", doc.ID, "number", doc.Number)
	return doc, nil
}

// RecordQC applies strict QC results and moves the receipt to PASSED.
func (s *Service) RecordQC(ctx context.Context, docID id.ID, in RecordQCInput) (*GoodsReceipt, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	results := make([]QCResult, 0, len(in.Items))
	for _, item := range in.Items {
		results = append(results, QCResult{
			ItemID:      item.ItemID,
			QtyReceived: item.QtyReceived,
			QtyPassed:   item.QtyPassed,
			QtyRejected: item.QtyRejected,
			Notes:       item.Notes,
		})
	}

	doc, err := s.mutate(ctx, docID, audit.ActionRecordQC, func(ctx context.Context, doc *GoodsReceipt) (map[string]any, error) {
		if err := doc.recordQC(results); err != nil {
			return nil, err
		}
		return map[string]any{"items": qcChanges(doc, itemIDs(results, func(r QCResult) id.ID { return r.ItemID }))}, nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "goods receipt qc recorded", "id", doc.ID, "number", doc.Number, "items", len(results))
	return doc, nil
}

// Approve completes a receipt: every passed quantity is posted to the stock
// ledger and the source documents are updated.
func (s *Service) Approve(ctx context.Context, docID id.ID, in ApproveInput) (*GoodsReceipt, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	held, err := s.locker.Obtain(ctx, "gr:approve:"+docID.String(), s.approvalLockTTL)
	if err != nil {
		if errors.Is(err, lock.ErrNotObtained) {
			return nil, apperror.NewConflict("goods receipt is being approved").WithDetail("id", docID.String())
		}
		return nil, fmt.Errorf("obtain approval lock: %w", err)
	}
	defer func() {
		if err := held.Release(context.WithoutCancel(ctx)); err != nil {
			logger.Warn(ctx, "failed to release approval lock", "id", docID, "error", err)
		}
	}()

	var posted int
	doc, err := s.mutate(ctx, docID, audit.ActionApprove, func(ctx context.Context, doc *GoodsReceipt) (map[string]any, error) {
		if err := doc.checkApprovable(); err != nil {
			return nil, err
		}
		if err := s.complete(ctx, doc, in.Notes); err != nil {
			return nil, err
		}
		if err := s.events.Publish(ctx, completedEvent(doc)); err != nil {
			return nil, fmt.Errorf("publish event: %w", err)
		}
		for _, item := range doc.Items {
			if item.StockDetailID != nil {
				posted++
			}
		}
		return map[string]any{"approved_by": doc.ApprovedBy, "posted_items": posted}, nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "goods receipt approved",
		"id", doc.ID,
		"number", doc.Number,
		"items", len(doc.Items),
		"posted", posted)
	return doc, nil
}

// UpdateQCStatus amends item QC data and re-derives the header status.
func (s *Service) UpdateQCStatus(ctx context.Context, docID id.ID, in UpdateQCInput) (*GoodsReceipt, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	amendments := make([]QCAmendment, 0, len(in.Items))
	for _, item := range in.Items {
		amendments = append(amendments, QCAmendment{
			ItemID:      item.ItemID,
			QtyReceived: item.QtyReceived,
			QtyPassed:   item.QtyPassed,
			QtyRejected: item.QtyRejected,
			QCStatus:    item.QCStatus,
			QCNotes:     item.QCNotes,
		})
	}

	doc, err := s.mutate(ctx, docID, audit.ActionUpdateQC, func(ctx context.Context, doc *GoodsReceipt) (map[string]any, error) {
		before := doc.Status
		if err := doc.amendQC(amendments); err != nil {
			return nil, err
		}
		return map[string]any{
			"status": map[string]Status{"from": before, "to": doc.Status},
			"items":  qcChanges(doc, itemIDs(amendments, func(a QCAmendment) id.ID { return a.ItemID })),
		}, nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "goods receipt qc updated", "id", doc.ID, "number", doc.Number, "status", doc.Status)
	return doc, nil
}

// Cancel cancels a DRAFT receipt.
func (s *Service) Cancel(ctx context.Context, docID id.ID) (*GoodsReceipt, error) {
	doc, err := s.mutate(ctx, docID, audit.ActionCancel, func(ctx context.Context, doc *GoodsReceipt) (map[string]any, error) {
		if err := doc.ensure(CommandCancel); err != nil {
			return nil, err
		}
		doc.Status = StatusCancelled
		if err := s.events.Publish(ctx, statusEvent(doc, EventCancelled)); err != nil {
			return nil, fmt.Errorf("publish event: %w", err)
		}
		return map[string]any{"status": doc.Status}, nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "goods receipt cancelled", "id", doc.ID, "number", doc.Number)
	return doc, nil
}

// Delete removes a DRAFT receipt after reversing anything it posted.
func (s *Service) Delete(ctx context.Context, docID id.ID) error {
	ctx, span := tracer.Start(ctx, "goods_receipt.delete", trace.WithAttributes(attribute.String("id", docID.String())))
	defer span.End()

	var number string
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		doc, err := s.repo.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}
		if err := doc.ensure(CommandDelete); err != nil {
			return err
		}
		number = doc.Number

		// Only DRAFT receipts get here and a DRAFT has never posted, so both
		// reversals below are normally no-ops. They clean up postings left by
		// rows written outside this service.
		reversed, err := s.ledger.ReverseReceipts(ctx, doc.Number)
		if err != nil {
			return err
		}
		if len(reversed) > 0 {
			logger.Warn(ctx, "draft goods receipt had stock postings, reversed them",
				"id", doc.ID, "number", doc.Number, "postings", len(reversed))
		}
		for _, item := range doc.Items {
			if item.StockDetailID == nil || item.PurchaseOrderLineID == nil {
				continue
			}
			if err := s.orders.AddLineReceipt(ctx, *item.PurchaseOrderLineID, -item.QtyPassed, -item.QtyRejected); err != nil {
				return fmt.Errorf("revert purchase order line: %w", err)
			}
		}

		if err := s.repo.Delete(ctx, doc.ID); err != nil {
			return err
		}
		if err := s.events.Publish(ctx, statusEvent(doc, EventDeleted)); err != nil {
			return fmt.Errorf("publish event: %w", err)
		}
		return s.audit.Log(ctx, audit.NewRecord(ctx, EntityName, doc.ID, audit.ActionDelete, map[string]any{
			"number":            doc.Number,
			"reversed_postings": len(reversed),
		}))
	})
	if err != nil {
		recordSpanError(span, err)
		return err
	}

	logger.Info(ctx, "goods receipt deleted", "id", docID, "number", number)
	return nil
}

// mutate loads the receipt under a row lock, applies fn and writes the result
// with a version check, all in one transaction.
func (s *Service) mutate(
	ctx context.Context,
	docID id.ID,
	action audit.Action,
	fn func(ctx context.Context, doc *GoodsReceipt) (map[string]any, error),
) (*GoodsReceipt, error) {
	ctx, span := tracer.Start(ctx, "goods_receipt."+string(action), trace.WithAttributes(attribute.String("id", docID.String())))
	defer span.End()

	var result *GoodsReceipt
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		doc, err := s.repo.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}

		changes, err := fn(ctx, doc)
		if err != nil {
			return err
		}

		doc.Touch(s.now(), appctx.GetUserID(ctx))
		if err := s.repo.Update(ctx, doc); err != nil {
			return err
		}
		if err := s.audit.Log(ctx, audit.NewRecord(ctx, EntityName, doc.ID, action, changes)); err != nil {
			return fmt.Errorf("write audit: %w", err)
		}
		result = doc
		return nil
	})
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	return result, nil
}

// create inserts the receipt produced by build. An allocated number that
// loses an insert race is retried with a fresh transaction; a caller-supplied
// number is not.
func (s *Service) create(
	ctx context.Context,
	number string,
	build func(ctx context.Context) (*GoodsReceipt, error),
	after func(ctx context.Context, doc *GoodsReceipt) error,
) (*GoodsReceipt, error) {
	ctx, span := tracer.Start(ctx, "goods_receipt.create")
	defer span.End()

	attempts := s.numberAttempts
	if number != "" {
		attempts = 1
	}

	for attempt := 1; ; attempt++ {
		var created *GoodsReceipt
		err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
			doc, err := build(ctx)
			if err != nil {
				return err
			}
			if err := doc.Validate(); err != nil {
				return err
			}
			if err := s.assignNumber(ctx, doc, number); err != nil {
				return err
			}
			if err := s.repo.Create(ctx, doc); err != nil {
				return err
			}
			if after != nil {
				if err := after(ctx, doc); err != nil {
					return err
				}
			}
			if err := s.audit.Log(ctx, audit.NewRecord(ctx, EntityName, doc.ID, audit.ActionCreate, map[string]any{
				"number":      doc.Number,
				"source_type": doc.SourceType,
				"status":      doc.Status,
				"items":       len(doc.Items),
			})); err != nil {
				return fmt.Errorf("write audit: %w", err)
			}
			created = doc
			return nil
		})
		if err == nil {
			span.SetAttributes(attribute.String("number", created.Number), attribute.Int("attempts", attempt))
			return created, nil
		}
		if attempt >= attempts || !apperror.IsCode(err, apperror.CodeDuplicateNumber) {
			recordSpanError(span, err)
			return nil, err
		}
		logger.Warn(ctx, "allocated goods receipt number collided, retrying", "attempt", attempt, "error", err)
	}
}

// maxTakenNumberSkips bounds how many already used numbers one allocation
// steps over, e.g. after manual imports ran ahead of the counter.
const maxTakenNumberSkips = 100

// assignNumber sets doc.Number. Allocated numbers already held by another
// receipt are skipped in the same transaction, so the counter advance past
// them commits together with the insert.
func (s *Service) assignNumber(ctx context.Context, doc *GoodsReceipt, number string) error {
	if number == "" {
		var next string
		for range maxTakenNumberSkips {
			var err error
			next, err = s.numerator.GetNextNumber(ctx, numerator.GoodsReceiptConfig(), doc.Date)
			if err != nil {
				return fmt.Errorf("allocate number: %w", err)
			}
			taken, err := s.repo.NumberExists(ctx, next)
			if err != nil {
				return fmt.Errorf("check number: %w", err)
			}
			if !taken {
				doc.Number = next
				return nil
			}
			logger.Debug(ctx, "allocated goods receipt number already taken, skipping", "number", next)
		}
		return apperror.NewDuplicateNumber(EntityName, next)
	}

	exists, err := s.repo.NumberExists(ctx, number)
	if err != nil {
		return fmt.Errorf("check number: %w", err)
	}
	if exists {
		return apperror.NewDuplicateNumber(EntityName, number)
	}
	doc.Number = number
	return nil
}

// complete posts every passed quantity, accumulates PO line totals,
// propagates the new state to the source documents and marks doc COMPLETED.
// Shared by Approve and CreateDirect; the caller persists doc.
func (s *Service) complete(ctx context.Context, doc *GoodsReceipt, notes string) error {
	at := s.now()

	for i := range doc.Items {
		item := &doc.Items[i]

		if item.QtyPassed.IsPositive() {
			price, err := s.prices.Resolve(ctx, pricing.Input{
				SourceType:              doc.SourceType,
				ProductID:               item.ProductID,
				StockTransferID:         doc.StockTransferID,
				PurchaseOrderLineID:     item.PurchaseOrderLineID,
				PurchaseRequestDetailID: item.PurchaseRequestDetailID,
			})
			if err != nil {
				return fmt.Errorf("resolve price for item %s: %w", item.ID, err)
			}

			detail, err := s.ledger.PostReceipt(ctx, stock.Receipt{
				ProductID:   item.ProductID,
				WarehouseID: doc.WarehouseID,
				Quantity:    item.QtyPassed,
				Price:       price,
				Source:      doc.SourceType,
				ReferenceNo: doc.Number,
				At:          at,
			})
			if err != nil {
				return withItem(err, item)
			}
			item.StockDetailID = &detail.ID
		}

		if item.PurchaseOrderLineID != nil && (item.QtyPassed.IsPositive() || item.QtyRejected.IsPositive()) {
			if err := s.orders.AddLineReceipt(ctx, *item.PurchaseOrderLineID, item.QtyPassed, item.QtyRejected); err != nil {
				return fmt.Errorf("update purchase order line: %w", err)
			}
		}
	}

	if err := s.propagator.Propagate(ctx, procurement.Completion{
		ReceiptNumber:   doc.Number,
		SourceType:      doc.SourceType,
		PurchaseOrderID: doc.PurchaseOrderID,
		StockTransferID: doc.StockTransferID,
	}); err != nil {
		return err
	}

	doc.complete(appctx.GetUserID(ctx), at, notes)
	return nil
}

// receiver returns explicit, or the authenticated user when explicit is nil.
func (s *Service) receiver(ctx context.Context, explicit id.ID) (id.ID, error) {
	receiver := explicit
	if id.IsNil(receiver) {
		parsed, err := id.Parse(appctx.GetUserID(ctx))
		if err != nil {
			return id.Nil(), apperror.NewValidation("receiver is required").WithDetail("field", "receivedById")
		}
		receiver = parsed
	}

	ok, err := s.refs.UserExists(ctx, receiver)
	if err != nil {
		return id.Nil(), fmt.Errorf("check receiver: %w", err)
	}
	if !ok {
		return id.Nil(), apperror.NewNotFound("user", receiver.String())
	}
	return receiver, nil
}

func (s *Service) checkDirectReferences(ctx context.Context, in CreateDirectInput) error {
	ok, err := s.refs.WarehouseExists(ctx, in.WarehouseID)
	if err != nil {
		return fmt.Errorf("check warehouse: %w", err)
	}
	if !ok {
		return apperror.NewNotFound("warehouse", in.WarehouseID.String())
	}

	productIDs := make([]id.ID, 0, len(in.Items))
	for _, item := range in.Items {
		productIDs = append(productIDs, item.ProductID)
	}
	missing, err := s.refs.MissingProducts(ctx, productIDs)
	if err != nil {
		return fmt.Errorf("check products: %w", err)
	}
	if len(missing) > 0 {
		return apperror.NewNotFound("product", missing[0].String()).WithDetail("missing", missing)
	}

	if in.PurchaseOrderID != nil {
		if _, err := s.orders.GetPurchaseOrder(ctx, *in.PurchaseOrderID); err != nil {
			return err
		}
	}
	if in.StockTransferID != nil {
		if _, err := s.orders.GetStockTransfer(ctx, *in.StockTransferID); err != nil {
			return err
		}
	}
	return nil
}

func itemIDs[T any](in []T, get func(T) id.ID) []id.ID {
	out := make([]id.ID, 0, len(in))
	for _, v := range in {
		out = append(out, get(v))
	}
	return out
}

// qcChanges summarizes the QC state of the given items for the audit trail.
func qcChanges(doc *GoodsReceipt, ids []id.ID) []map[string]any {
	out := make([]map[string]any, 0, len(ids))
	for _, itemID := range ids {
		item, err := doc.Item(itemID)
		if err != nil {
			continue
		}
		out = append(out, map[string]any{
			"item_id":      item.ID.String(),
			"qty_received": item.QtyReceived.String(),
			"qty_passed":   item.QtyPassed.String(),
			"qty_rejected": item.QtyRejected.String(),
			"qc_status":    item.QCStatus,
		})
	}
	return out
}

func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
