package goods_receipt

// Status is the lifecycle status of a goods receipt.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusArrived   Status = "ARRIVED"
	StatusPassed    Status = "PASSED"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

// IsTerminal reports whether no QC, arrival or approval command is accepted.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Command names a state-changing operation on a goods receipt.
type Command string

const (
	CommandMarkArrived Command = "mark-arrived"
	CommandRecordQC    Command = "record-qc"
	CommandApprove     Command = "approve"
	CommandUpdateQC    Command = "update-qc-status"
	CommandCancel      Command = "cancel"
	CommandDelete      Command = "delete"
)

var allowedFrom = map[Command][]Status{
	CommandMarkArrived: {StatusDraft},
	CommandRecordQC:    {StatusDraft, StatusArrived},
	CommandApprove:     {StatusDraft, StatusPassed},
	CommandUpdateQC:    {StatusDraft, StatusArrived, StatusPassed, StatusCompleted},
	CommandCancel:      {StatusDraft},
	CommandDelete:      {StatusDraft},
}

// Accepts reports whether cmd may run in status s.
func (s Status) Accepts(cmd Command) bool {
	for _, from := range allowedFrom[cmd] {
		if from == s {
			return true
		}
	}
	return false
}

// ItemStatus summarizes how much of an item was accepted.
type ItemStatus string

const (
	ItemReceived ItemStatus = "RECEIVED"
	ItemPartial  ItemStatus = "PARTIAL"
	ItemRejected ItemStatus = "REJECTED"
)

// QCStatus is the quality-control state of an item.
type QCStatus string

const (
	QCPending  QCStatus = "PENDING"
	QCArrived  QCStatus = "ARRIVED"
	QCPassed   QCStatus = "PASSED"
	QCRejected QCStatus = "REJECTED"
	QCPartial  QCStatus = "PARTIAL"
)

// IsValid reports whether s is a known QC status.
func (s QCStatus) IsValid() bool {
	switch s {
	case QCPending, QCArrived, QCPassed, QCRejected, QCPartial:
		return true
	}
	return false
}

// IsOpen reports whether QC has not concluded for the item.
func (s QCStatus) IsOpen() bool {
	return s == QCPending || s == QCArrived
}
