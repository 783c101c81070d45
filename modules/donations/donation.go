// Package donations records tithes and offerings, and produces the weekly
// and monthly accounting reports a church treasurer works from. Amounts
// are integer cents end to end; nothing in this package touches floats.
package donations

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound         = errors.New("donations: donation not found")
	ErrEmptyDonation    = errors.New("donations: at least one amount must be positive")
	ErrSplitMismatch    = errors.New("donations: cash plus transfer must equal the total")
	ErrNegativeAmount   = errors.New("donations: amounts cannot be negative")
	ErrWeekClosed       = errors.New("donations: week is already closed")
	ErrMissingWitnesses = errors.New("donations: closing a week requires two witnesses")
)

// AnonymousDonor replaces the donor name on reports when the donation is
// anonymous. OSI is the conventional shorthand for "ofrenda sin
// identificar".
const AnonymousDonor = "OSI"

// Donation is one recorded gift, possibly spanning several categories.
type Donation struct {
	ID               uuid.UUID  `json:"id"`
	UserID           *uuid.UUID `json:"user_id,omitempty"`
	EventID          *uuid.UUID `json:"event_id,omitempty"`
	DonorName        string     `json:"donor_name"`
	DonorDocument    string     `json:"donor_document,omitempty"`
	DonorEmail       string     `json:"donor_email,omitempty"`
	DonorPhone       string     `json:"donor_phone,omitempty"`
	TitheCents       int64      `json:"tithe_cents"`
	OfferingCents    int64      `json:"offering_cents"`
	MissionsCents    int64      `json:"missions_cents"`
	SpecialCents     int64      `json:"special_cents"`
	TotalCents       int64      `json:"total_cents"`
	CashCents        int64      `json:"cash_cents"`
	TransferCents    int64      `json:"transfer_cents"`
	PaymentReference string     `json:"payment_reference,omitempty"`
	Date             time.Time  `json:"donation_date"`
	WeekNumber       int        `json:"week_number"`
	WeekYear         int        `json:"week_year"`
	EnvelopeNumber   string     `json:"envelope_number,omitempty"`
	ReceiptNumber    string     `json:"receipt_number"`
	Note             string     `json:"note,omitempty"`
	Anonymous        bool       `json:"is_anonymous"`
	CreatedBy        *uuid.UUID `json:"created_by,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// DisplayName is the donor name as it appears on reports.
func (d *Donation) DisplayName() string {
	if d.Anonymous {
		return AnonymousDonor
	}
	return d.DonorName
}

// Summary is a closed week in the treasurer's book. One row per
// (week_year, week_number); closing twice conflicts.
type Summary struct {
	ID                    uuid.UUID  `json:"id"`
	WeekNumber            int        `json:"week_number"`
	WeekYear              int        `json:"week_year"`
	EnvelopeCount         int        `json:"envelope_count"`
	TitheCashCents        int64      `json:"tithe_cash_cents"`
	TitheTransferCents    int64      `json:"tithe_transfer_cents"`
	OfferingCashCents     int64      `json:"offering_cash_cents"`
	OfferingTransferCents int64      `json:"offering_transfer_cents"`
	MissionsCashCents     int64      `json:"missions_cash_cents"`
	MissionsTransferCents int64      `json:"missions_transfer_cents"`
	SpecialCashCents      int64      `json:"special_cash_cents"`
	SpecialTransferCents  int64      `json:"special_transfer_cents"`
	GrandTotalCents       int64      `json:"grand_total_cents"`
	TitheOfTithesCents    int64      `json:"tithe_of_tithes_cents"`
	Witness1Name          string     `json:"witness_1_name"`
	Witness1Document      string     `json:"witness_1_document,omitempty"`
	Witness2Name          string     `json:"witness_2_name"`
	Witness2Document      string     `json:"witness_2_document,omitempty"`
	Notes                 string     `json:"notes,omitempty"`
	CreatedBy             *uuid.UUID `json:"created_by,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
}
