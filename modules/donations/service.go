package donations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JuanEstebanAstaiza/ekklesia-admin/pkg/logger"
)

type Service struct {
	repo *Repository
	log  *slog.Logger
}

func NewService(repo *Repository, log *slog.Logger) *Service {
	return &Service{repo: repo, log: log.With(logger.Component("donations"))}
}

// CreateInput records one donation. Amounts are integer cents; the server
// computes the total, the ISO week, and the receipt number.
type CreateInput struct {
	UserID           *uuid.UUID `json:"user_id"`
	EventID          *uuid.UUID `json:"event_id"`
	DonorName        string     `json:"donor_name"`
	DonorDocument    string     `json:"donor_document"`
	DonorEmail       string     `json:"donor_email"`
	DonorPhone       string     `json:"donor_phone"`
	TitheCents       int64      `json:"tithe_cents"`
	OfferingCents    int64      `json:"offering_cents"`
	MissionsCents    int64      `json:"missions_cents"`
	SpecialCents     int64      `json:"special_cents"`
	CashCents        int64      `json:"cash_cents"`
	TransferCents    int64      `json:"transfer_cents"`
	PaymentReference string     `json:"payment_reference"`
	Date             string     `json:"donation_date"` // YYYY-MM-DD, today when empty
	EnvelopeNumber   string     `json:"envelope_number"`
	Note             string     `json:"note"`
	Anonymous        bool       `json:"is_anonymous"`
}

// receiptNumber builds a unique, human-readable receipt id:
// REC-20260830-1A2B3C4D.
func receiptNumber(date time.Time) string {
	suffix := strings.ToUpper(uuid.NewString()[:8])
	return fmt.Sprintf("REC-%s-%s", date.Format("20060102"), suffix)
}

func (s *Service) Create(ctx context.Context, in CreateInput, createdBy uuid.UUID) (*Donation, error) {
	if in.TitheCents < 0 || in.OfferingCents < 0 || in.MissionsCents < 0 ||
		in.SpecialCents < 0 || in.CashCents < 0 || in.TransferCents < 0 {
		return nil, ErrNegativeAmount
	}
	total := in.TitheCents + in.OfferingCents + in.MissionsCents + in.SpecialCents
	if total <= 0 {
		return nil, ErrEmptyDonation
	}
	if in.CashCents+in.TransferCents != total {
		return nil, ErrSplitMismatch
	}

	date := time.Now().UTC().Truncate(24 * time.Hour)
	if in.Date != "" {
		var err error
		date, err = time.Parse("2006-01-02", in.Date)
		if err != nil {
			return nil, fmt.Errorf("donations: invalid donation_date: %w", err)
		}
	}
	weekYear, weekNumber := date.ISOWeek()

	d := &Donation{
		UserID:           in.UserID,
		EventID:          in.EventID,
		DonorName:        strings.TrimSpace(in.DonorName),
		DonorDocument:    strings.TrimSpace(in.DonorDocument),
		DonorEmail:       strings.TrimSpace(in.DonorEmail),
		DonorPhone:       strings.TrimSpace(in.DonorPhone),
		TitheCents:       in.TitheCents,
		OfferingCents:    in.OfferingCents,
		MissionsCents:    in.MissionsCents,
		SpecialCents:     in.SpecialCents,
		TotalCents:       total,
		CashCents:        in.CashCents,
		TransferCents:    in.TransferCents,
		PaymentReference: strings.TrimSpace(in.PaymentReference),
		Date:             date,
		WeekNumber:       weekNumber,
		WeekYear:         weekYear,
		EnvelopeNumber:   strings.TrimSpace(in.EnvelopeNumber),
		ReceiptNumber:    receiptNumber(date),
		Note:             strings.TrimSpace(in.Note),
		Anonymous:        in.Anonymous,
	}
	if d.Anonymous {
		d.DonorName = AnonymousDonor
		d.DonorDocument = ""
		d.DonorEmail = ""
		d.DonorPhone = ""
	} else if d.DonorName == "" {
		return nil, fmt.Errorf("donations: donor_name is required for identified donations")
	}
	if createdBy != uuid.Nil {
		d.CreatedBy = &createdBy
	}

	if err := s.repo.Insert(ctx, d); err != nil {
		return nil, err
	}
	s.log.InfoContext(ctx, "donation recorded",
		slog.String("receipt", d.ReceiptNumber), slog.Int64("total_cents", d.TotalCents))
	return d, nil
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]*Donation, error) {
	return s.repo.List(ctx, f)
}

func (s *Service) ListMine(ctx context.Context, userID uuid.UUID) ([]*Donation, error) {
	return s.repo.List(ctx, ListFilter{UserID: userID})
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Donation, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) MonthlyReport(ctx context.Context, year int, month time.Month) (*MonthlyReport, error) {
	ds, err := s.repo.ListByMonth(ctx, year, month)
	if err != nil {
		return nil, err
	}
	return BuildMonthlyReport(year, month, ds), nil
}

// WeeklyReport aggregates the week's donations, marking it closed when a
// summary row already exists.
func (s *Service) WeeklyReport(ctx context.Context, weekYear, weekNumber int) (*WeeklyReport, error) {
	ds, err := s.repo.ListByWeek(ctx, weekYear, weekNumber)
	if err != nil {
		return nil, err
	}
	rep := BuildWeeklyReport(weekYear, weekNumber, ds)

	if _, err := s.repo.GetSummary(ctx, weekYear, weekNumber); err == nil {
		rep.Closed = true
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	return rep, nil
}

// CloseWeekInput closes the treasurer's week. Two witnesses are required.
type CloseWeekInput struct {
	WeekYear         int    `json:"week_year"`
	WeekNumber       int    `json:"week_number"`
	Witness1Name     string `json:"witness_1_name"`
	Witness1Document string `json:"witness_1_document"`
	Witness2Name     string `json:"witness_2_name"`
	Witness2Document string `json:"witness_2_document"`
	Notes            string `json:"notes"`
}

// CloseWeek freezes the weekly aggregate into donation_summaries. Closing
// an already closed week returns ErrWeekClosed.
func (s *Service) CloseWeek(ctx context.Context, in CloseWeekInput, closedBy uuid.UUID) (*Summary, error) {
	if strings.TrimSpace(in.Witness1Name) == "" || strings.TrimSpace(in.Witness2Name) == "" {
		return nil, ErrMissingWitnesses
	}

	ds, err := s.repo.ListByWeek(ctx, in.WeekYear, in.WeekNumber)
	if err != nil {
		return nil, err
	}
	rep := BuildWeeklyReport(in.WeekYear, in.WeekNumber, ds)

	sum := &Summary{
		WeekNumber:            rep.WeekNumber,
		WeekYear:              rep.WeekYear,
		EnvelopeCount:         rep.EnvelopeCount,
		TitheCashCents:        rep.TitheCashCents,
		TitheTransferCents:    rep.TitheTransferCents,
		OfferingCashCents:     rep.OfferingCashCents,
		OfferingTransferCents: rep.OfferingTransferCents,
		MissionsCashCents:     rep.MissionsCashCents,
		MissionsTransferCents: rep.MissionsTransferCents,
		SpecialCashCents:      rep.SpecialCashCents,
		SpecialTransferCents:  rep.SpecialTransferCents,
		GrandTotalCents:       rep.GrandTotalCents,
		TitheOfTithesCents:    rep.TitheOfTithesCents,
		Witness1Name:          strings.TrimSpace(in.Witness1Name),
		Witness1Document:      strings.TrimSpace(in.Witness1Document),
		Witness2Name:          strings.TrimSpace(in.Witness2Name),
		Witness2Document:      strings.TrimSpace(in.Witness2Document),
		Notes:                 strings.TrimSpace(in.Notes),
	}
	if closedBy != uuid.Nil {
		sum.CreatedBy = &closedBy
	}

	if err := s.repo.InsertSummary(ctx, sum); err != nil {
		return nil, err
	}
	s.log.InfoContext(ctx, "week closed",
		slog.Int("week_year", sum.WeekYear), slog.Int("week_number", sum.WeekNumber),
		slog.Int64("grand_total_cents", sum.GrandTotalCents))
	return sum, nil
}

// Summary aggregates the filtered donations into one set of totals, the
// figures the treasurer quotes at a glance.
func (s *Service) Summary(ctx context.Context, f ListFilter) (*Totals, error) {
	return s.repo.Totals(ctx, f)
}

// Dashboard is the giving overview: per-month series plus the overall
// cash/transfer breakdown.
type Dashboard struct {
	ByMonth       []MonthBucket `json:"by_month"`
	CashCents     int64         `json:"cash_cents"`
	TransferCents int64         `json:"transfer_cents"`
}

func (s *Service) Dashboard(ctx context.Context, f ListFilter) (*Dashboard, error) {
	byMonth, err := s.repo.MonthlyBuckets(ctx, f)
	if err != nil {
		return nil, err
	}
	totals, err := s.repo.Totals(ctx, f)
	if err != nil {
		return nil, err
	}
	return &Dashboard{
		ByMonth:       byMonth,
		CashCents:     totals.CashCents,
		TransferCents: totals.TransferCents,
	}, nil
}
