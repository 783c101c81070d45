package donations

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/JuanEstebanAstaiza/ekklesia-admin/pkg/pg"
	"github.com/JuanEstebanAstaiza/ekklesia-admin/pkg/tenantdb"
)

const donationColumns = `id, user_id, event_id, donor_name, COALESCE(donor_document, ''),
	COALESCE(donor_email, ''), COALESCE(donor_phone, ''),
	tithe_cents, offering_cents, missions_cents, special_cents, total_cents,
	cash_cents, transfer_cents, COALESCE(payment_reference, ''),
	donation_date, week_number, week_year, COALESCE(envelope_number, ''),
	receipt_number, COALESCE(note, ''), is_anonymous, created_by, created_at`

type Repository struct {
	sessions *tenantdb.Sessions
}

func NewRepository(sessions *tenantdb.Sessions) *Repository {
	return &Repository{sessions: sessions}
}

func scanDonation(row interface{ Scan(dest ...any) error }) (*Donation, error) {
	var d Donation
	err := row.Scan(&d.ID, &d.UserID, &d.EventID, &d.DonorName, &d.DonorDocument,
		&d.DonorEmail, &d.DonorPhone,
		&d.TitheCents, &d.OfferingCents, &d.MissionsCents, &d.SpecialCents, &d.TotalCents,
		&d.CashCents, &d.TransferCents, &d.PaymentReference,
		&d.Date, &d.WeekNumber, &d.WeekYear, &d.EnvelopeNumber,
		&d.ReceiptNumber, &d.Note, &d.Anonymous, &d.CreatedBy, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *Repository) Insert(ctx context.Context, d *Donation) error {
	db, err := r.sessions.Pool(ctx)
	if err != nil {
		return err
	}
	row := db.QueryRow(ctx, `
		INSERT INTO donations (
			user_id, event_id, donor_name, donor_document, donor_email, donor_phone,
			tithe_cents, offering_cents, missions_cents, special_cents, total_cents,
			cash_cents, transfer_cents, payment_reference,
			donation_date, week_number, week_year, envelope_number,
			receipt_number, note, is_anonymous, created_by)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''),
			$7, $8, $9, $10, $11, $12, $13, NULLIF($14, ''),
			$15, $16, $17, NULLIF($18, ''), $19, NULLIF($20, ''), $21, $22)
		RETURNING id, created_at`,
		d.UserID, d.EventID, d.DonorName, d.DonorDocument, d.DonorEmail, d.DonorPhone,
		d.TitheCents, d.OfferingCents, d.MissionsCents, d.SpecialCents, d.TotalCents,
		d.CashCents, d.TransferCents, d.PaymentReference,
		d.Date, d.WeekNumber, d.WeekYear, d.EnvelopeNumber,
		d.ReceiptNumber, d.Note, d.Anonymous, d.CreatedBy)
	if err := row.Scan(&d.ID, &d.CreatedAt); err != nil {
		return fmt.Errorf("donations: insert: %w", err)
	}
	return nil
}

// ListFilter narrows donation listings. Zero values mean "no filter".
type ListFilter struct {
	From   time.Time
	To     time.Time
	UserID uuid.UUID
}

// clause renders the filter as a WHERE tail with positional args.
func (f ListFilter) clause() (string, []any) {
	cond := " WHERE TRUE"
	args := []any{}
	if !f.From.IsZero() {
		args = append(args, f.From)
		cond += fmt.Sprintf(" AND donation_date >= $%d", len(args))
	}
	if !f.To.IsZero() {
		args = append(args, f.To)
		cond += fmt.Sprintf(" AND donation_date <= $%d", len(args))
	}
	if f.UserID != uuid.Nil {
		args = append(args, f.UserID)
		cond += fmt.Sprintf(" AND user_id = $%d", len(args))
	}
	return cond, args
}

func (r *Repository) List(ctx context.Context, f ListFilter) ([]*Donation, error) {
	db, err := r.sessions.Pool(ctx)
	if err != nil {
		return nil, err
	}

	cond, args := f.clause()
	query := `SELECT ` + donationColumns + ` FROM donations` + cond +
		` ORDER BY donation_date DESC, created_at DESC`

	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("donations: list: %w", err)
	}
	defer rows.Close()

	var out []*Donation
	for rows.Next() {
		d, err := scanDonation(rows)
		if err != nil {
			return nil, fmt.Errorf("donations: scan: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Donation, error) {
	db, err := r.sessions.Pool(ctx)
	if err != nil {
		return nil, err
	}
	row := db.QueryRow(ctx, `SELECT `+donationColumns+` FROM donations WHERE id = $1`, id)
	d, err := scanDonation(row)
	if tenantdb.IsNotFound(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("donations: get: %w", err)
	}
	return d, nil
}

// ListByMonth returns the donations of one calendar month in date order,
// the ordering the monthly report prints.
func (r *Repository) ListByMonth(ctx context.Context, year int, month time.Month) ([]*Donation, error) {
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, -1)
	return r.List(ctx, ListFilter{From: from, To: to})
}

func (r *Repository) ListByWeek(ctx context.Context, weekYear, weekNumber int) ([]*Donation, error) {
	db, err := r.sessions.Pool(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := db.Query(ctx, `
		SELECT `+donationColumns+` FROM donations
		WHERE week_year = $1 AND week_number = $2
		ORDER BY donation_date, created_at`, weekYear, weekNumber)
	if err != nil {
		return nil, fmt.Errorf("donations: list by week: %w", err)
	}
	defer rows.Close()

	var out []*Donation
	for rows.Next() {
		d, err := scanDonation(rows)
		if err != nil {
			return nil, fmt.Errorf("donations: scan: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// InsertSummary persists a closed week. The unique index on
// (week_year, week_number) turns a double close into ErrWeekClosed.
func (r *Repository) InsertSummary(ctx context.Context, s *Summary) error {
	db, err := r.sessions.Pool(ctx)
	if err != nil {
		return err
	}
	row := db.QueryRow(ctx, `
		INSERT INTO donation_summaries (
			week_number, week_year, envelope_count,
			tithe_cash_cents, tithe_transfer_cents,
			offering_cash_cents, offering_transfer_cents,
			missions_cash_cents, missions_transfer_cents,
			special_cash_cents, special_transfer_cents,
			grand_total_cents, tithe_of_tithes_cents,
			witness_1_name, witness_1_document, witness_2_name, witness_2_document,
			notes, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
			$14, NULLIF($15, ''), $16, NULLIF($17, ''), NULLIF($18, ''), $19)
		RETURNING id, created_at`,
		s.WeekNumber, s.WeekYear, s.EnvelopeCount,
		s.TitheCashCents, s.TitheTransferCents,
		s.OfferingCashCents, s.OfferingTransferCents,
		s.MissionsCashCents, s.MissionsTransferCents,
		s.SpecialCashCents, s.SpecialTransferCents,
		s.GrandTotalCents, s.TitheOfTithesCents,
		s.Witness1Name, s.Witness1Document, s.Witness2Name, s.Witness2Document,
		s.Notes, s.CreatedBy)
	if err := row.Scan(&s.ID, &s.CreatedAt); err != nil {
		if pg.IsDuplicateKeyError(err) {
			return ErrWeekClosed
		}
		return fmt.Errorf("donations: insert summary: %w", err)
	}
	return nil
}

func (r *Repository) GetSummary(ctx context.Context, weekYear, weekNumber int) (*Summary, error) {
	db, err := r.sessions.Pool(ctx)
	if err != nil {
		return nil, err
	}
	var s Summary
	row := db.QueryRow(ctx, `
		SELECT id, week_number, week_year, envelope_count,
			tithe_cash_cents, tithe_transfer_cents,
			offering_cash_cents, offering_transfer_cents,
			missions_cash_cents, missions_transfer_cents,
			special_cash_cents, special_transfer_cents,
			grand_total_cents, tithe_of_tithes_cents,
			witness_1_name, COALESCE(witness_1_document, ''),
			witness_2_name, COALESCE(witness_2_document, ''),
			COALESCE(notes, ''), created_by, created_at
		FROM donation_summaries
		WHERE week_year = $1 AND week_number = $2`, weekYear, weekNumber)
	err = row.Scan(&s.ID, &s.WeekNumber, &s.WeekYear, &s.EnvelopeCount,
		&s.TitheCashCents, &s.TitheTransferCents,
		&s.OfferingCashCents, &s.OfferingTransferCents,
		&s.MissionsCashCents, &s.MissionsTransferCents,
		&s.SpecialCashCents, &s.SpecialTransferCents,
		&s.GrandTotalCents, &s.TitheOfTithesCents,
		&s.Witness1Name, &s.Witness1Document,
		&s.Witness2Name, &s.Witness2Document,
		&s.Notes, &s.CreatedBy, &s.CreatedAt)
	if tenantdb.IsNotFound(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("donations: get summary: %w", err)
	}
	return &s, nil
}

// Totals is the aggregate of a filtered donation set, one number per
// giving category plus the cash/transfer breakdown.
type Totals struct {
	Count         int64 `json:"total_donations"`
	TotalCents    int64 `json:"total_cents"`
	TitheCents    int64 `json:"tithe_cents"`
	OfferingCents int64 `json:"offering_cents"`
	MissionsCents int64 `json:"missions_cents"`
	SpecialCents  int64 `json:"special_cents"`
	CashCents     int64 `json:"cash_cents"`
	TransferCents int64 `json:"transfer_cents"`
}

func (r *Repository) Totals(ctx context.Context, f ListFilter) (*Totals, error) {
	db, err := r.sessions.Pool(ctx)
	if err != nil {
		return nil, err
	}

	cond, args := f.clause()
	var t Totals
	err = db.QueryRow(ctx, `
		SELECT COUNT(*),
			COALESCE(SUM(total_cents), 0),
			COALESCE(SUM(tithe_cents), 0),
			COALESCE(SUM(offering_cents), 0),
			COALESCE(SUM(missions_cents), 0),
			COALESCE(SUM(special_cents), 0),
			COALESCE(SUM(cash_cents), 0),
			COALESCE(SUM(transfer_cents), 0)
		FROM donations`+cond, args...).Scan(
		&t.Count, &t.TotalCents, &t.TitheCents, &t.OfferingCents,
		&t.MissionsCents, &t.SpecialCents, &t.CashCents, &t.TransferCents)
	if err != nil {
		return nil, fmt.Errorf("donations: totals: %w", err)
	}
	return &t, nil
}

// MonthBucket is one calendar month of the dashboard series.
type MonthBucket struct {
	Month      string `json:"month"` // YYYY-MM
	Count      int64  `json:"count"`
	TotalCents int64  `json:"total_cents"`
}

func (r *Repository) MonthlyBuckets(ctx context.Context, f ListFilter) ([]MonthBucket, error) {
	db, err := r.sessions.Pool(ctx)
	if err != nil {
		return nil, err
	}

	cond, args := f.clause()
	rows, err := db.Query(ctx, `
		SELECT to_char(donation_date, 'YYYY-MM'), COUNT(*), COALESCE(SUM(total_cents), 0)
		FROM donations`+cond+`
		GROUP BY 1 ORDER BY 1`, args...)
	if err != nil {
		return nil, fmt.Errorf("donations: monthly buckets: %w", err)
	}
	defer rows.Close()

	var out []MonthBucket
	for rows.Next() {
		var b MonthBucket
		if err := rows.Scan(&b.Month, &b.Count, &b.TotalCents); err != nil {
			return nil, fmt.Errorf("donations: scan bucket: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
