package donations

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestBuildMonthlyReport(t *testing.T) {
	ds := []*Donation{
		{
			Date: date("2026-08-02"), DonorName: "Maria Lopez", DonorDocument: "1020304050",
			TitheCents: 50000, OfferingCents: 10000, TotalCents: 60000,
			CashCents: 60000,
		},
		{
			Date: date("2026-08-09"), DonorName: "hidden", DonorDocument: "999",
			Anonymous:     true,
			OfferingCents: 20000, TotalCents: 20000, TransferCents: 20000,
		},
	}

	rep := BuildMonthlyReport(2026, time.August, ds)
	require.Len(t, rep.Rows, 2)

	assert.Equal(t, "Maria Lopez", rep.Rows[0].Donor)
	assert.Equal(t, "1020304050", rep.Rows[0].Document)

	assert.Equal(t, AnonymousDonor, rep.Rows[1].Donor)
	assert.Empty(t, rep.Rows[1].Document, "anonymous donations must not leak the document")

	assert.Equal(t, int64(80000), rep.Totals.TotalCents)
	assert.Equal(t, int64(50000), rep.Totals.TitheCents)
	assert.Equal(t, int64(30000), rep.Totals.OfferingCents)
	assert.Equal(t, int64(60000), rep.Totals.CashCents)
	assert.Equal(t, int64(20000), rep.Totals.TransferCents)
}

func TestBuildWeeklyReport(t *testing.T) {
	t.Run("pure cash and pure transfer", func(t *testing.T) {
		ds := []*Donation{
			{TitheCents: 100000, TotalCents: 100000, CashCents: 100000},
			{OfferingCents: 40000, TotalCents: 40000, TransferCents: 40000},
		}
		rep := BuildWeeklyReport(2026, 35, ds)

		assert.Equal(t, 2, rep.EnvelopeCount)
		assert.Equal(t, int64(100000), rep.TitheCashCents)
		assert.Equal(t, int64(0), rep.TitheTransferCents)
		assert.Equal(t, int64(40000), rep.OfferingTransferCents)
		assert.Equal(t, int64(140000), rep.GrandTotalCents)
		assert.Equal(t, int64(14000), rep.TitheOfTithesCents)
	})

	t.Run("mixed split keeps every cent", func(t *testing.T) {
		// 70% cash, categories that do not divide evenly.
		d := &Donation{
			TitheCents: 3333, OfferingCents: 6667, TotalCents: 10000,
			CashCents: 7000, TransferCents: 3000,
		}
		rep := BuildWeeklyReport(2026, 35, []*Donation{d})

		assert.Equal(t, int64(3333), rep.TitheCashCents+rep.TitheTransferCents)
		assert.Equal(t, int64(6667), rep.OfferingCashCents+rep.OfferingTransferCents)
		total := rep.TitheCashCents + rep.TitheTransferCents +
			rep.OfferingCashCents + rep.OfferingTransferCents
		assert.Equal(t, rep.GrandTotalCents, total)
	})

	t.Run("tithe of tithes rounds down", func(t *testing.T) {
		ds := []*Donation{{TitheCents: 1015, TotalCents: 1015, CashCents: 1015}}
		rep := BuildWeeklyReport(2026, 1, ds)
		assert.Equal(t, int64(101), rep.TitheOfTithesCents)
	})
}

func TestWriteMonthlyCSV(t *testing.T) {
	rep := BuildMonthlyReport(2026, time.August, []*Donation{
		{Date: date("2026-08-02"), DonorName: "Maria Lopez",
			TitheCents: 50050, TotalCents: 50050, CashCents: 50050},
	})

	var buf bytes.Buffer
	require.NoError(t, WriteMonthlyCSV(&buf, rep))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3) // header, one row, totals
	assert.Contains(t, lines[0], "date,donor,document")
	assert.Contains(t, lines[1], "2026-08-02")
	assert.Contains(t, lines[1], "500.50")
	assert.True(t, strings.HasPrefix(lines[2], "TOTAL"))
}

func TestWriteWeeklyCSV(t *testing.T) {
	rep := BuildWeeklyReport(2026, 35, []*Donation{
		{TitheCents: 100000, TotalCents: 100000, CashCents: 100000},
	})

	var buf bytes.Buffer
	require.NoError(t, WriteWeeklyCSV(&buf, rep))

	out := buf.String()
	assert.Contains(t, out, "tithe,1000.00,0.00,1000.00")
	assert.Contains(t, out, "grand_total,,,1000.00")
	assert.Contains(t, out, "tithe_of_tithes,,,100.00")
}

func TestCentsToDecimal(t *testing.T) {
	assert.Equal(t, "0.00", centsToDecimal(0))
	assert.Equal(t, "0.05", centsToDecimal(5))
	assert.Equal(t, "12.34", centsToDecimal(1234))
	assert.Equal(t, "-12.34", centsToDecimal(-1234))
}

func TestService_CreateValidation(t *testing.T) {
	svc := NewService(nil, slog.New(slog.DiscardHandler))
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{TitheCents: -100}, uuid.Nil)
	assert.ErrorIs(t, err, ErrNegativeAmount)

	_, err = svc.Create(ctx, CreateInput{}, uuid.Nil)
	assert.ErrorIs(t, err, ErrEmptyDonation)

	_, err = svc.Create(ctx, CreateInput{
		DonorName: "x", TitheCents: 1000, CashCents: 500,
	}, uuid.Nil)
	assert.ErrorIs(t, err, ErrSplitMismatch)
}

func TestReceiptNumber(t *testing.T) {
	d := date("2026-08-30")
	a, b := receiptNumber(d), receiptNumber(d)
	assert.True(t, strings.HasPrefix(a, "REC-20260830-"))
	assert.NotEqual(t, a, b)
}

func TestListFilterClause(t *testing.T) {
	t.Parallel()

	t.Run("no filters", func(t *testing.T) {
		t.Parallel()
		cond, args := ListFilter{}.clause()
		assert.Equal(t, " WHERE TRUE", cond)
		assert.Empty(t, args)
	})

	t.Run("date range", func(t *testing.T) {
		t.Parallel()
		f := ListFilter{From: date("2026-01-01"), To: date("2026-01-31")}
		cond, args := f.clause()
		assert.Equal(t, " WHERE TRUE AND donation_date >= $1 AND donation_date <= $2", cond)
		require.Len(t, args, 2)
		assert.Equal(t, f.From, args[0])
		assert.Equal(t, f.To, args[1])
	})

	t.Run("user filter keeps numbering", func(t *testing.T) {
		t.Parallel()
		id := uuid.New()
		cond, args := ListFilter{To: date("2026-06-30"), UserID: id}.clause()
		assert.Equal(t, " WHERE TRUE AND donation_date <= $1 AND user_id = $2", cond)
		require.Len(t, args, 2)
		assert.Equal(t, id, args[1])
	})
}
