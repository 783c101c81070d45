package expenses

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/JuanEstebanAstaiza/ekklesia-admin/pkg/pg"
	"github.com/JuanEstebanAstaiza/ekklesia-admin/pkg/statemachine"
	"github.com/JuanEstebanAstaiza/ekklesia-admin/pkg/tenantdb"
)

const expenseColumns = `id, category_id, description, amount_cents, expense_date,
	COALESCE(vendor_name, ''), COALESCE(vendor_document, ''),
	payment_method, COALESCE(payment_reference, ''),
	COALESCE(invoice_number, ''), COALESCE(receipt_number, ''),
	status, COALESCE(notes, ''), created_by, approved_by, approved_at, created_at`

type Repository struct {
	sessions *tenantdb.Sessions
}

func NewRepository(sessions *tenantdb.Sessions) *Repository {
	return &Repository{sessions: sessions}
}

func scanExpense(row interface{ Scan(dest ...any) error }) (*Expense, error) {
	var e Expense
	err := row.Scan(&e.ID, &e.CategoryID, &e.Description, &e.AmountCents, &e.Date,
		&e.VendorName, &e.VendorDocument,
		&e.PaymentMethod, &e.PaymentReference,
		&e.InvoiceNumber, &e.ReceiptNumber,
		&e.Status, &e.Notes, &e.CreatedBy, &e.ApprovedBy, &e.ApprovedAt, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Categories

func (r *Repository) InsertCategory(ctx context.Context, c *Category) error {
	db, err := r.sessions.Pool(ctx)
	if err != nil {
		return err
	}
	row := db.QueryRow(ctx, `
		INSERT INTO expense_categories (name, description, color, monthly_budget_cents)
		VALUES ($1, NULLIF($2, ''), $3, $4)
		RETURNING id, is_active, created_at`,
		c.Name, c.Description, c.Color, c.MonthlyBudgetCents)
	if err := row.Scan(&c.ID, &c.Active, &c.CreatedAt); err != nil {
		if pg.IsDuplicateKeyError(err) {
			return ErrCategoryTaken
		}
		return fmt.Errorf("expenses: insert category: %w", err)
	}
	return nil
}

func (r *Repository) ListCategories(ctx context.Context) ([]*Category, error) {
	db, err := r.sessions.Pool(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := db.Query(ctx, `
		SELECT id, name, COALESCE(description, ''), color, monthly_budget_cents, is_active, created_at
		FROM expense_categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("expenses: list categories: %w", err)
	}
	defer rows.Close()

	var out []*Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.Color,
			&c.MonthlyBudgetCents, &c.Active, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("expenses: scan category: %w", err)
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

// DeleteCategory removes an unused category. A foreign key violation means
// expenses still reference it.
func (r *Repository) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	db, err := r.sessions.Pool(ctx)
	if err != nil {
		return err
	}
	tag, err := db.Exec(ctx, `DELETE FROM expense_categories WHERE id = $1`, id)
	if err != nil {
		if pg.IsForeignKeyViolationError(err) {
			return ErrCategoryInUse
		}
		return fmt.Errorf("expenses: delete category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

// Expenses

func (r *Repository) Insert(ctx context.Context, e *Expense) error {
	db, err := r.sessions.Pool(ctx)
	if err != nil {
		return err
	}
	row := db.QueryRow(ctx, `
		INSERT INTO expenses (
			category_id, description, amount_cents, expense_date,
			vendor_name, vendor_document, payment_method, payment_reference,
			invoice_number, receipt_number, notes, created_by)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), $7, NULLIF($8, ''),
			NULLIF($9, ''), NULLIF($10, ''), NULLIF($11, ''), $12)
		RETURNING id, status, created_at`,
		e.CategoryID, e.Description, e.AmountCents, e.Date,
		e.VendorName, e.VendorDocument, e.PaymentMethod, e.PaymentReference,
		e.InvoiceNumber, e.ReceiptNumber, e.Notes, e.CreatedBy)
	if err := row.Scan(&e.ID, &e.Status, &e.CreatedAt); err != nil {
		if pg.IsForeignKeyViolationError(err) {
			return ErrCategoryNotFound
		}
		return fmt.Errorf("expenses: insert: %w", err)
	}
	return nil
}

// ListFilter narrows expense listings. Zero values mean "no filter".
type ListFilter struct {
	From       time.Time
	To         time.Time
	CategoryID uuid.UUID
	Status     string
}

func (r *Repository) List(ctx context.Context, f ListFilter) ([]*Expense, error) {
	db, err := r.sessions.Pool(ctx)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE TRUE`
	args := []any{}
	if !f.From.IsZero() {
		args = append(args, f.From)
		query += fmt.Sprintf(" AND expense_date >= $%d", len(args))
	}
	if !f.To.IsZero() {
		args = append(args, f.To)
		query += fmt.Sprintf(" AND expense_date <= $%d", len(args))
	}
	if f.CategoryID != uuid.Nil {
		args = append(args, f.CategoryID)
		query += fmt.Sprintf(" AND category_id = $%d", len(args))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += ` ORDER BY expense_date DESC, created_at DESC`

	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("expenses: list: %w", err)
	}
	defer rows.Close()

	var out []*Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("expenses: scan: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Expense, error) {
	db, err := r.sessions.Pool(ctx)
	if err != nil {
		return nil, err
	}
	row := db.QueryRow(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE id = $1`, id)
	e, err := scanExpense(row)
	if tenantdb.IsNotFound(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("expenses: get: %w", err)
	}
	return e, nil
}

// UpdateStatus moves an expense along the workflow inside a transaction,
// re-validating the transition against the row's current status so two
// concurrent approvals cannot both win.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, event statemachine.Event, actor uuid.UUID) (*Expense, error) {
	var out *Expense
	err := r.sessions.WithTx(ctx, func(ctx context.Context, sess tenantdb.Session) error {
		var current string
		err := sess.QueryRow(ctx,
			`SELECT status FROM expenses WHERE id = $1 FOR UPDATE`, id).Scan(&current)
		if tenantdb.IsNotFound(err) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("expenses: lock row: %w", err)
		}

		next, err := nextStatus(current, event)
		if err != nil {
			return err
		}

		query := `UPDATE expenses SET status = $1 WHERE id = $2 RETURNING ` + expenseColumns
		args := []any{next, id}
		if next == StatusApproved || next == StatusRejected {
			query = `UPDATE expenses SET status = $1, approved_by = $2, approved_at = NOW()
				WHERE id = $3 RETURNING ` + expenseColumns
			args = []any{next, actor, id}
		}

		e, err := scanExpense(sess.QueryRow(ctx, query, args...))
		if err != nil {
			return fmt.Errorf("expenses: update status: %w", err)
		}
		out = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Documents

func (r *Repository) InsertDocument(ctx context.Context, d *Document) error {
	db, err := r.sessions.Pool(ctx)
	if err != nil {
		return err
	}
	row := db.QueryRow(ctx, `
		INSERT INTO expense_documents (
			expense_id, file_name, stored_path, url, mime_type, size_bytes, checksum, uploaded_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`,
		d.ExpenseID, d.FileName, d.StoredPath, d.URL, d.MimeType, d.SizeBytes, d.Checksum, d.UploadedBy)
	if err := row.Scan(&d.ID, &d.CreatedAt); err != nil {
		if pg.IsForeignKeyViolationError(err) {
			return ErrNotFound
		}
		return fmt.Errorf("expenses: insert document: %w", err)
	}
	return nil
}

func (r *Repository) ListDocuments(ctx context.Context, expenseID uuid.UUID) ([]*Document, error) {
	db, err := r.sessions.Pool(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := db.Query(ctx, `
		SELECT id, expense_id, file_name, stored_path, url, mime_type, size_bytes, checksum, uploaded_by, created_at
		FROM expense_documents WHERE expense_id = $1 ORDER BY created_at`, expenseID)
	if err != nil {
		return nil, fmt.Errorf("expenses: list documents: %w", err)
	}
	defer rows.Close()

	var out []*Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.ExpenseID, &d.FileName, &d.StoredPath, &d.URL,
			&d.MimeType, &d.SizeBytes, &d.Checksum, &d.UploadedBy, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("expenses: scan document: %w", err)
		}
		out = append(out, &d)
	}
	return out, rows.Err()
}

// CategorySummary aggregates approved and paid spending for one category.
type CategorySummary struct {
	CategoryID uuid.UUID `json:"category_id"`
	Category   string    `json:"category"`
	Color      string    `json:"color"`
	TotalCents int64     `json:"total_cents"`
	Count      int64     `json:"count"`
}

// SummarizeByCategory groups approved and paid expenses per category,
// biggest spender first. Zero year/month mean no period filter.
func (r *Repository) SummarizeByCategory(ctx context.Context, year int, month time.Month) ([]CategorySummary, error) {
	db, err := r.sessions.Pool(ctx)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT c.id, c.name, c.color, COALESCE(SUM(e.amount_cents), 0), COUNT(*)
		FROM expenses e
		JOIN expense_categories c ON e.category_id = c.id
		WHERE e.status IN ('approved', 'paid')`
	args := []any{}
	if year != 0 {
		args = append(args, year)
		query += fmt.Sprintf(" AND EXTRACT(YEAR FROM e.expense_date) = $%d", len(args))
	}
	if month != 0 {
		args = append(args, int(month))
		query += fmt.Sprintf(" AND EXTRACT(MONTH FROM e.expense_date) = $%d", len(args))
	}
	query += ` GROUP BY c.id, c.name, c.color ORDER BY SUM(e.amount_cents) DESC`

	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("expenses: summarize by category: %w", err)
	}
	defer rows.Close()

	var out []CategorySummary
	for rows.Next() {
		var s CategorySummary
		if err := rows.Scan(&s.CategoryID, &s.Category, &s.Color, &s.TotalCents, &s.Count); err != nil {
			return nil, fmt.Errorf("expenses: scan category summary: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// MonthlyTotal is one month of a year's expense series.
type MonthlyTotal struct {
	Month      int   `json:"month"`
	TotalCents int64 `json:"total_cents"`
	Count      int64 `json:"count"`
}

// SummarizeByMonth returns the months of year that have approved or paid
// expenses; months without spending are absent.
func (r *Repository) SummarizeByMonth(ctx context.Context, year int) ([]MonthlyTotal, error) {
	db, err := r.sessions.Pool(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(ctx, `
		SELECT EXTRACT(MONTH FROM expense_date)::int, COALESCE(SUM(amount_cents), 0), COUNT(*)
		FROM expenses
		WHERE EXTRACT(YEAR FROM expense_date) = $1
		  AND status IN ('approved', 'paid')
		GROUP BY 1 ORDER BY 1`, year)
	if err != nil {
		return nil, fmt.Errorf("expenses: summarize by month: %w", err)
	}
	defer rows.Close()

	var out []MonthlyTotal
	for rows.Next() {
		var m MonthlyTotal
		if err := rows.Scan(&m.Month, &m.TotalCents, &m.Count); err != nil {
			return nil, fmt.Errorf("expenses: scan monthly total: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
