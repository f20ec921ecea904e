package goods_receipt

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"stockgate/internal/core/apperror"
	"stockgate/internal/core/id"
	"stockgate/internal/core/types"
)

// CreateFromPOInput starts a receipt for every line of a purchase order.
type CreateFromPOInput struct {
	PurchaseOrderID id.ID `validate:"required"`

	// ReceivedByID defaults to the authenticated user.
	ReceivedByID id.ID

	// Number overrides the allocated document number.
	Number       string `validate:"omitempty,max=50"`
	ExpectedDate *time.Time
	Notes        string `validate:"max=2000"`
}

// CreateDirectInput creates a receipt with its items, optionally with QC results.
type CreateDirectInput struct {
	Number          string `validate:"omitempty,max=50"`
	PurchaseOrderID *id.ID
	StockTransferID *id.ID
	WarehouseID     id.ID `validate:"required"`
	ReceivedByID    id.ID

	VendorDeliveryNote string `validate:"max=100"`
	VehicleNumber      string `validate:"max=50"`
	DriverName         string `validate:"max=100"`
	ReceivedDate       *time.Time
	ExpectedDate       *time.Time
	Notes              string `validate:"max=2000"`

	Items []DirectItemInput `validate:"required,min=1,dive"`
}

// DirectItemInput is one item of a direct receipt.
type DirectItemInput struct {
	ProductID               id.ID  `validate:"required"`
	Unit                    string `validate:"max=20"`
	QtyPlanReceived         types.Quantity
	QtyReceived             types.Quantity
	PurchaseOrderLineID     *id.ID
	PurchaseRequestDetailID *id.ID

	// QC is nil when the item has not been inspected yet.
	QC *QCInput
}

// QCInput is an inline inspection result.
type QCInput struct {
	QtyPassed   types.Quantity
	QtyRejected types.Quantity

	// Status overrides the derived QC status.
	Status *QCStatus `validate:"omitempty,oneof=PASSED REJECTED PARTIAL"`
	Notes  string    `validate:"max=1000"`
}

// ArrivalInput records goods reaching the dock.
type ArrivalInput struct {
	ReceivedDate       *time.Time
	VendorDeliveryNote *string `validate:"omitempty,max=100"`
	VehicleNumber      *string `validate:"omitempty,max=50"`
	DriverName         *string `validate:"omitempty,max=100"`
	Notes              *string `validate:"omitempty,max=2000"`

	Items []ArrivalItemInput `validate:"dive"`
}

// ArrivalItemInput sets the counted quantity of one item.
type ArrivalItemInput struct {
	ItemID      id.ID `validate:"required"`
	QtyReceived types.Quantity
}

// RecordQCInput carries strict QC results.
type RecordQCInput struct {
	Items []QCItemInput `validate:"required,min=1,dive"`
}

// QCItemInput is the QC result of one item.
type QCItemInput struct {
	ItemID      id.ID `validate:"required"`
	QtyReceived *types.Quantity
	QtyPassed   types.Quantity
	QtyRejected types.Quantity
	Notes       *string `validate:"omitempty,max=1000"`
}

// ApproveInput completes a receipt.
type ApproveInput struct {
	Notes string `validate:"max=2000"`
}

// UpdateQCInput amends item QC data.
type UpdateQCInput struct {
	Items []QCAmendmentInput `validate:"required,min=1,dive"`
}

// QCAmendmentInput amends one item. Nil fields are left as they are.
type QCAmendmentInput struct {
	ItemID      id.ID `validate:"required"`
	QtyReceived *types.Quantity
	QtyPassed   *types.Quantity
	QtyRejected *types.Quantity
	QCStatus    *QCStatus `validate:"omitempty,oneof=PENDING ARRIVED PASSED REJECTED PARTIAL"`
	QCNotes     *string   `validate:"omitempty,max=1000"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// id.ID is an array type; "required" treats the zero UUID as missing.
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if u, ok := field.Interface().(id.ID); ok && !id.IsNil(u) {
			return u.String()
		}
		return ""
	}, id.ID{})
	return v
}

// validateInput runs struct tags and maps failures to a ValidationError.
func validateInput(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperror.NewValidation(err.Error())
	}

	fields := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields[fieldPath(fe.Namespace())] = fe.Tag()
	}
	return apperror.NewValidation("invalid input").WithDetail("fields", fields)
}

// fieldPath drops the struct name from a validator namespace.
func fieldPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}
