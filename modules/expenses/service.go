package expenses

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JuanEstebanAstaiza/ekklesia-admin/pkg/file"
	"github.com/JuanEstebanAstaiza/ekklesia-admin/pkg/logger"
	"github.com/JuanEstebanAstaiza/ekklesia-admin/pkg/tenant"
)

type Service struct {
	repo    *Repository
	storage file.Storage
	log     *slog.Logger
}

func NewService(repo *Repository, storage file.Storage, log *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		storage: storage,
		log:     log.With(logger.Component("expenses")),
	}
}

// Categories

type CategoryInput struct {
	Name               string `json:"name"`
	Description        string `json:"description"`
	Color              string `json:"color"`
	MonthlyBudgetCents *int64 `json:"monthly_budget_cents"`
}

func (s *Service) CreateCategory(ctx context.Context, in CategoryInput) (*Category, error) {
	c := &Category{
		Name:               strings.TrimSpace(in.Name),
		Description:        strings.TrimSpace(in.Description),
		Color:              in.Color,
		MonthlyBudgetCents: in.MonthlyBudgetCents,
	}
	if c.Color == "" {
		c.Color = "#6b7280"
	}
	if err := s.repo.InsertCategory(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) ListCategories(ctx context.Context) ([]*Category, error) {
	return s.repo.ListCategories(ctx)
}

func (s *Service) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteCategory(ctx, id)
}

// Expenses

type CreateInput struct {
	CategoryID       uuid.UUID `json:"category_id"`
	Description      string    `json:"description"`
	AmountCents      int64     `json:"amount_cents"`
	Date             string    `json:"expense_date"` // YYYY-MM-DD, today when empty
	VendorName       string    `json:"vendor_name"`
	VendorDocument   string    `json:"vendor_document"`
	PaymentMethod    string    `json:"payment_method"`
	PaymentReference string    `json:"payment_reference"`
	InvoiceNumber    string    `json:"invoice_number"`
	ReceiptNumber    string    `json:"receipt_number"`
	Notes            string    `json:"notes"`
}

func (s *Service) Create(ctx context.Context, in CreateInput, createdBy uuid.UUID) (*Expense, error) {
	if in.AmountCents <= 0 {
		return nil, ErrInvalidAmount
	}

	date := time.Now().UTC().Truncate(24 * time.Hour)
	if in.Date != "" {
		var err error
		date, err = time.Parse("2006-01-02", in.Date)
		if err != nil {
			return nil, fmt.Errorf("expenses: invalid expense_date: %w", err)
		}
	}

	method := in.PaymentMethod
	if method == "" {
		method = "cash"
	}

	e := &Expense{
		CategoryID:       in.CategoryID,
		Description:      strings.TrimSpace(in.Description),
		AmountCents:      in.AmountCents,
		Date:             date,
		VendorName:       strings.TrimSpace(in.VendorName),
		VendorDocument:   strings.TrimSpace(in.VendorDocument),
		PaymentMethod:    method,
		PaymentReference: strings.TrimSpace(in.PaymentReference),
		InvoiceNumber:    strings.TrimSpace(in.InvoiceNumber),
		ReceiptNumber:    strings.TrimSpace(in.ReceiptNumber),
		Notes:            strings.TrimSpace(in.Notes),
	}
	if createdBy != uuid.Nil {
		e.CreatedBy = &createdBy
	}

	if err := s.repo.Insert(ctx, e); err != nil {
		return nil, err
	}
	s.log.InfoContext(ctx, "expense recorded",
		slog.String("expense_id", e.ID.String()), slog.Int64("amount_cents", e.AmountCents))
	return e, nil
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]*Expense, error) {
	return s.repo.List(ctx, f)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Expense, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Approve(ctx context.Context, id, actor uuid.UUID) (*Expense, error) {
	return s.repo.UpdateStatus(ctx, id, eventApprove, actor)
}

func (s *Service) Reject(ctx context.Context, id, actor uuid.UUID) (*Expense, error) {
	return s.repo.UpdateStatus(ctx, id, eventReject, actor)
}

func (s *Service) Pay(ctx context.Context, id, actor uuid.UUID) (*Expense, error) {
	return s.repo.UpdateStatus(ctx, id, eventPay, actor)
}

// Documents

// AttachDocument stores the uploaded file under a per-tenant directory and
// records its metadata. The expense must exist first.
func (s *Service) AttachDocument(ctx context.Context, expenseID uuid.UUID, r io.Reader, filename, mimeType string, uploadedBy uuid.UUID) (*Document, error) {
	if _, err := s.repo.GetByID(ctx, expenseID); err != nil {
		return nil, err
	}

	dir := "expenses"
	if slug, ok := tenant.SlugFromContext(ctx); ok {
		dir = slug + "/expenses"
	}

	f, err := s.storage.Save(ctx, r, dir, filename, mimeType)
	if err != nil {
		return nil, err
	}

	d := &Document{
		ExpenseID:  expenseID,
		FileName:   filename,
		StoredPath: f.Path,
		URL:        f.URL,
		MimeType:   f.MimeType,
		SizeBytes:  f.Size,
		Checksum:   f.Checksum,
	}
	if uploadedBy != uuid.Nil {
		d.UploadedBy = &uploadedBy
	}

	if err := s.repo.InsertDocument(ctx, d); err != nil {
		// Orphan file cleanup; the metadata row is the source of truth.
		if delErr := s.storage.Delete(ctx, f.Path); delErr != nil {
			s.log.WarnContext(ctx, "orphan document cleanup failed",
				slog.String("path", f.Path), logger.Error(delErr))
		}
		return nil, err
	}
	return d, nil
}

func (s *Service) ListDocuments(ctx context.Context, expenseID uuid.UUID) ([]*Document, error) {
	if _, err := s.repo.GetByID(ctx, expenseID); err != nil {
		return nil, err
	}
	return s.repo.ListDocuments(ctx, expenseID)
}

// SummaryByCategory breaks approved and paid spending down per category.
// Zero year/month mean no period filter.
func (s *Service) SummaryByCategory(ctx context.Context, year int, month time.Month) ([]CategorySummary, error) {
	return s.repo.SummarizeByCategory(ctx, year, month)
}

// YearSummary is a full year of expense totals, one entry per month even
// when nothing was spent.
type YearSummary struct {
	Year   int            `json:"year"`
	Months []MonthlyTotal `json:"months"`
}

// fillMonths expands a sparse month series into all twelve months.
func fillMonths(rows []MonthlyTotal) []MonthlyTotal {
	byMonth := make(map[int]MonthlyTotal, len(rows))
	for _, m := range rows {
		byMonth[m.Month] = m
	}
	out := make([]MonthlyTotal, 12)
	for i := range out {
		month := i + 1
		out[i] = MonthlyTotal{Month: month}
		if m, ok := byMonth[month]; ok {
			out[i] = m
		}
	}
	return out
}

// MonthlySummary returns the per-month spending of one year. Zero year
// means the current one.
func (s *Service) MonthlySummary(ctx context.Context, year int) (*YearSummary, error) {
	if year == 0 {
		year = time.Now().UTC().Year()
	}
	rows, err := s.repo.SummarizeByMonth(ctx, year)
	if err != nil {
		return nil, err
	}
	return &YearSummary{Year: year, Months: fillMonths(rows)}, nil
}
