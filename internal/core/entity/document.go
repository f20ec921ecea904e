package entity

import (
	"time"
)

// Document is the base type for numbered business transactions
// (goods receipts and the procurement documents they consume).
type Document struct {
	BaseDocument

	// Number is the document number, unique within the document type.
	Number string `db:"number" json:"number"`

	// Date is the business date of the document
	Date time.Time `db:"date" json:"date"`
}

// NewDocument creates a new Document dated now.
func NewDocument(now time.Time, createdBy string) Document {
	doc := Document{
		BaseDocument: NewBaseDocument(now),
		Date:         now.UTC(),
	}
	doc.CreatedBy = createdBy
	doc.UpdatedBy = createdBy
	return doc
}
