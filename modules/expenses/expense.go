// Package expenses tracks church spending: categorized expenses moving
// through an approval workflow, with supporting documents (invoices,
// receipts) attached as files.
package expenses

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/JuanEstebanAstaiza/ekklesia-admin/pkg/statemachine"
)

var (
	ErrNotFound          = errors.New("expenses: expense not found")
	ErrCategoryNotFound  = errors.New("expenses: category not found")
	ErrCategoryTaken     = errors.New("expenses: category name already exists")
	ErrCategoryInUse     = errors.New("expenses: category has expenses and cannot be deleted")
	ErrInvalidAmount     = errors.New("expenses: amount must be positive")
	ErrInvalidTransition = errors.New("expenses: invalid status transition")
	ErrDocumentNotFound  = errors.New("expenses: document not found")
)

// Expense statuses. Every expense starts pending; only pending expenses
// can be approved or rejected, and only approved ones can be paid.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
	StatusPaid     = "paid"
)

const (
	eventApprove statemachine.Event = "approve"
	eventReject  statemachine.Event = "reject"
	eventPay     statemachine.Event = "pay"
)

// statusMachine returns the workflow machine positioned at current.
func statusMachine(current string) *statemachine.Machine {
	m := statemachine.New(statemachine.State(current))
	for _, t := range []statemachine.Transition{
		{From: StatusPending, To: StatusApproved, Event: eventApprove},
		{From: StatusPending, To: StatusRejected, Event: eventReject},
		{From: StatusApproved, To: StatusPaid, Event: eventPay},
	} {
		if err := m.AddTransition(t); err != nil {
			panic(err)
		}
	}
	return m
}

// nextStatus validates the workflow step and returns the resulting status.
func nextStatus(current string, event statemachine.Event) (string, error) {
	m := statusMachine(current)
	if err := m.Fire(context.Background(), event, nil); err != nil {
		return "", ErrInvalidTransition
	}
	return string(m.Current()), nil
}

// Category groups expenses and optionally carries a monthly budget.
type Category struct {
	ID                 uuid.UUID `json:"id"`
	Name               string    `json:"name"`
	Description        string    `json:"description,omitempty"`
	Color              string    `json:"color"`
	MonthlyBudgetCents *int64    `json:"monthly_budget_cents,omitempty"`
	Active             bool      `json:"is_active"`
	CreatedAt          time.Time `json:"created_at"`
}

// Expense is one spending record.
type Expense struct {
	ID               uuid.UUID  `json:"id"`
	CategoryID       uuid.UUID  `json:"category_id"`
	Description      string     `json:"description"`
	AmountCents      int64      `json:"amount_cents"`
	Date             time.Time  `json:"expense_date"`
	VendorName       string     `json:"vendor_name,omitempty"`
	VendorDocument   string     `json:"vendor_document,omitempty"`
	PaymentMethod    string     `json:"payment_method"`
	PaymentReference string     `json:"payment_reference,omitempty"`
	InvoiceNumber    string     `json:"invoice_number,omitempty"`
	ReceiptNumber    string     `json:"receipt_number,omitempty"`
	Status           string     `json:"status"`
	Notes            string     `json:"notes,omitempty"`
	CreatedBy        *uuid.UUID `json:"created_by,omitempty"`
	ApprovedBy       *uuid.UUID `json:"approved_by,omitempty"`
	ApprovedAt       *time.Time `json:"approved_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// Document is a file attached to an expense.
type Document struct {
	ID         uuid.UUID  `json:"id"`
	ExpenseID  uuid.UUID  `json:"expense_id"`
	FileName   string     `json:"file_name"`
	StoredPath string     `json:"-"`
	URL        string     `json:"url"`
	MimeType   string     `json:"mime_type"`
	SizeBytes  int64      `json:"size_bytes"`
	Checksum   string     `json:"checksum"`
	UploadedBy *uuid.UUID `json:"uploaded_by,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}
