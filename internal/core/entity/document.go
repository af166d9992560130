package entity

import (
	"context"
	"time"

	"invenda/internal/core/apperror"
	"invenda/internal/core/id"
)

// Status is the lifecycle state of a business document.
// Each document type allows only a subset of transitions; the shared
// semantics are: draft documents are editable, everything else is not.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusConfirmed Status = "confirmed"
	StatusReceived  Status = "received"
	StatusApproved  Status = "approved"
	StatusInTransit Status = "in_transit"
	StatusCancelled Status = "cancelled"
)

// Document is the base type for business transactions.
// Examples: Purchase, Sale, Adjustment, Transfer.
type Document struct {
	BaseDocument

	// Number is the document number (auto-generated, unique within type+year)
	Number string `db:"number" json:"number"`

	// Date is the business date of the document
	Date time.Time `db:"date" json:"date"`

	// Status is the lifecycle state
	Status Status `db:"status" json:"status"`

	// Comment is an optional user comment
	Comment string `db:"comment" json:"comment,omitempty"`
}

// NewDocument creates a new draft Document with generated ID.
func NewDocument(tenantID id.ID) Document {
	return Document{
		BaseDocument: NewBaseDocument(tenantID),
		Date:         time.Now().UTC(),
		Status:       StatusDraft,
	}
}

// Validate implements Validatable interface.
func (d *Document) Validate(ctx context.Context) error {
	if d.Date.IsZero() {
		return apperror.NewValidation("date is required").
			WithDetail("field", "date")
	}

	return nil
}

// CanModify checks if document can be modified.
// Only drafts are editable; confirmed documents change state through
// their own transitions (cancel, receive), never through edits.
func (d *Document) CanModify() error {
	if d.Status != StatusDraft {
		return apperror.NewDocumentState("Only draft documents can be modified").
			WithDetail("document_id", d.ID.String()).
			WithDetail("status", string(d.Status))
	}
	return nil
}

// IsDraft returns true while the document has not been processed.
func (d *Document) IsDraft() bool {
	return d.Status == StatusDraft
}

// Transition moves the document to the given status after checking the
// move is in the allowed set. The per-type services define which moves
// exist; this guard only prevents transitions out of terminal states.
func (d *Document) Transition(to Status) error {
	if d.Status == StatusCancelled {
		return apperror.NewDocumentState("Cancelled documents cannot change state").
			WithDetail("document_id", d.ID.String())
	}
	d.Status = to
	d.Touch()
	return nil
}
