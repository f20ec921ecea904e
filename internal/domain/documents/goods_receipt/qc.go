package goods_receipt

import (
	"stockgate/internal/core/apperror"
	"stockgate/internal/core/types"
)

// Classify validates a QC result and derives the item and QC statuses.
//
// passed + rejected must equal received within types.QuantityTolerance.
// A non-nil override replaces the derived QC status; the item status is
// always derived.
func Classify(received, passed, rejected types.Quantity, override *QCStatus) (ItemStatus, QCStatus, error) {
	if received.IsNegative() || passed.IsNegative() || rejected.IsNegative() {
		return "", "", apperror.NewValidation("quantities must not be negative").
			WithDetail("qty_received", received.String()).
			WithDetail("qty_passed", passed.String()).
			WithDetail("qty_rejected", rejected.String())
	}
	if !(passed + rejected).ApproxEqual(received) {
		return "", "", apperror.NewQuantityMismatch(received.String(), passed.String(), rejected.String())
	}

	var itemStatus ItemStatus
	switch {
	case rejected == received:
		itemStatus = ItemRejected
	case rejected > 0 && passed > 0:
		itemStatus = ItemPartial
	default:
		itemStatus = ItemReceived
	}

	if override != nil {
		if !override.IsValid() {
			return "", "", apperror.NewValidation("unknown qc status").WithDetail("qc_status", string(*override))
		}
		return itemStatus, *override, nil
	}

	switch {
	case rejected == 0:
		return itemStatus, QCPassed, nil
	case passed == 0:
		return itemStatus, QCRejected, nil
	default:
		return itemStatus, QCPartial, nil
	}
}

// arrivalStatus is the item status once goods are counted at the dock.
func arrivalStatus(received, planned types.Quantity) ItemStatus {
	if received < planned {
		return ItemPartial
	}
	return ItemReceived
}

// checkOpenQuantities accepts an item still under QC: either nothing has been
// inspected yet or the split already adds up to received.
func checkOpenQuantities(received, passed, rejected types.Quantity) error {
	if received.IsNegative() || passed.IsNegative() || rejected.IsNegative() {
		return apperror.NewValidation("quantities must not be negative").
			WithDetail("qty_received", received.String()).
			WithDetail("qty_passed", passed.String()).
			WithDetail("qty_rejected", rejected.String())
	}
	if inspected := passed + rejected; inspected != 0 && !inspected.ApproxEqual(received) {
		return apperror.NewQuantityMismatch(received.String(), passed.String(), rejected.String())
	}
	return nil
}
