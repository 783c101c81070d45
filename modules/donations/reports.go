package donations

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"
)

// MonthlyRow is one line of the monthly report: one donation, donor
// anonymized when flagged.
type MonthlyRow struct {
	Date          time.Time `json:"date"`
	Donor         string    `json:"donor"`
	Document      string    `json:"document,omitempty"`
	CashCents     int64     `json:"cash_cents"`
	TransferCents int64     `json:"transfer_cents"`
	TitheCents    int64     `json:"tithe_cents"`
	OfferingCents int64     `json:"offering_cents"`
	MissionsCents int64     `json:"missions_cents"`
	SpecialCents  int64     `json:"special_cents"`
	TotalCents    int64     `json:"total_cents"`
}

// MonthlyReport is the monthly listing plus its totals line.
type MonthlyReport struct {
	Year   int          `json:"year"`
	Month  time.Month   `json:"month"`
	Rows   []MonthlyRow `json:"rows"`
	Totals MonthlyRow   `json:"totals"`
}

// BuildMonthlyReport folds donations into report rows. Anonymous donations
// show the OSI placeholder and no document.
func BuildMonthlyReport(year int, month time.Month, ds []*Donation) *MonthlyReport {
	rep := &MonthlyReport{Year: year, Month: month, Rows: make([]MonthlyRow, 0, len(ds))}
	for _, d := range ds {
		row := MonthlyRow{
			Date:          d.Date,
			Donor:         d.DisplayName(),
			CashCents:     d.CashCents,
			TransferCents: d.TransferCents,
			TitheCents:    d.TitheCents,
			OfferingCents: d.OfferingCents,
			MissionsCents: d.MissionsCents,
			SpecialCents:  d.SpecialCents,
			TotalCents:    d.TotalCents,
		}
		if !d.Anonymous {
			row.Document = d.DonorDocument
		}
		rep.Rows = append(rep.Rows, row)

		rep.Totals.CashCents += d.CashCents
		rep.Totals.TransferCents += d.TransferCents
		rep.Totals.TitheCents += d.TitheCents
		rep.Totals.OfferingCents += d.OfferingCents
		rep.Totals.MissionsCents += d.MissionsCents
		rep.Totals.SpecialCents += d.SpecialCents
		rep.Totals.TotalCents += d.TotalCents
	}
	return rep
}

// WeeklyReport is the treasurer's cash/transfer breakdown for one ISO week.
// TitheOfTithes is the 10% remittance computed from the grand total,
// rounded down to the cent.
type WeeklyReport struct {
	WeekYear              int   `json:"week_year"`
	WeekNumber            int   `json:"week_number"`
	EnvelopeCount         int   `json:"envelope_count"`
	TitheCashCents        int64 `json:"tithe_cash_cents"`
	TitheTransferCents    int64 `json:"tithe_transfer_cents"`
	OfferingCashCents     int64 `json:"offering_cash_cents"`
	OfferingTransferCents int64 `json:"offering_transfer_cents"`
	MissionsCashCents     int64 `json:"missions_cash_cents"`
	MissionsTransferCents int64 `json:"missions_transfer_cents"`
	SpecialCashCents      int64 `json:"special_cash_cents"`
	SpecialTransferCents  int64 `json:"special_transfer_cents"`
	GrandTotalCents       int64 `json:"grand_total_cents"`
	TitheOfTithesCents    int64 `json:"tithe_of_tithes_cents"`
	Closed                bool  `json:"closed"`
}

// BuildWeeklyReport aggregates one week of donations. A donation rarely
// splits a single category across cash and transfer, so the cash part of
// each category is attributed proportionally from the donation's own
// cash/total ratio, keeping every cent accounted for.
func BuildWeeklyReport(weekYear, weekNumber int, ds []*Donation) *WeeklyReport {
	rep := &WeeklyReport{WeekYear: weekYear, WeekNumber: weekNumber}
	for _, d := range ds {
		rep.EnvelopeCount++
		rep.GrandTotalCents += d.TotalCents

		addSplit(d, d.TitheCents, &rep.TitheCashCents, &rep.TitheTransferCents)
		addSplit(d, d.OfferingCents, &rep.OfferingCashCents, &rep.OfferingTransferCents)
		addSplit(d, d.MissionsCents, &rep.MissionsCashCents, &rep.MissionsTransferCents)
		addSplit(d, d.SpecialCents, &rep.SpecialCashCents, &rep.SpecialTransferCents)
	}
	rep.TitheOfTithesCents = rep.GrandTotalCents / 10
	return rep
}

// addSplit apportions a category amount between cash and transfer using
// the donation's overall split. The transfer share takes the remainder so
// cash+transfer always equals the category amount exactly.
func addSplit(d *Donation, amount int64, cash, transfer *int64) {
	if amount == 0 {
		return
	}
	var cashPart int64
	if d.TotalCents > 0 {
		cashPart = amount * d.CashCents / d.TotalCents
	}
	*cash += cashPart
	*transfer += amount - cashPart
}

// centsToDecimal renders integer cents as "1234.56" for CSV consumers.
func centsToDecimal(c int64) string {
	sign := ""
	if c < 0 {
		sign = "-"
		c = -c
	}
	return fmt.Sprintf("%s%d.%02d", sign, c/100, c%100)
}

// WriteMonthlyCSV streams the monthly report as CSV.
func WriteMonthlyCSV(w io.Writer, rep *MonthlyReport) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{
		"date", "donor", "document", "cash", "transfer",
		"tithe", "offering", "missions", "special", "total",
	}); err != nil {
		return err
	}
	for _, row := range rep.Rows {
		if err := cw.Write([]string{
			row.Date.Format("2006-01-02"),
			row.Donor,
			row.Document,
			centsToDecimal(row.CashCents),
			centsToDecimal(row.TransferCents),
			centsToDecimal(row.TitheCents),
			centsToDecimal(row.OfferingCents),
			centsToDecimal(row.MissionsCents),
			centsToDecimal(row.SpecialCents),
			centsToDecimal(row.TotalCents),
		}); err != nil {
			return err
		}
	}
	if err := cw.Write([]string{
		"TOTAL", "", "",
		centsToDecimal(rep.Totals.CashCents),
		centsToDecimal(rep.Totals.TransferCents),
		centsToDecimal(rep.Totals.TitheCents),
		centsToDecimal(rep.Totals.OfferingCents),
		centsToDecimal(rep.Totals.MissionsCents),
		centsToDecimal(rep.Totals.SpecialCents),
		centsToDecimal(rep.Totals.TotalCents),
	}); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

// WriteWeeklyCSV streams the weekly report as CSV, one category per row.
func WriteWeeklyCSV(w io.Writer, rep *WeeklyReport) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"category", "cash", "transfer", "total"}); err != nil {
		return err
	}
	rows := []struct {
		name           string
		cash, transfer int64
	}{
		{"tithe", rep.TitheCashCents, rep.TitheTransferCents},
		{"offering", rep.OfferingCashCents, rep.OfferingTransferCents},
		{"missions", rep.MissionsCashCents, rep.MissionsTransferCents},
		{"special", rep.SpecialCashCents, rep.SpecialTransferCents},
	}
	for _, row := range rows {
		if err := cw.Write([]string{
			row.name,
			centsToDecimal(row.cash),
			centsToDecimal(row.transfer),
			centsToDecimal(row.cash + row.transfer),
		}); err != nil {
			return err
		}
	}
	if err := cw.Write([]string{"grand_total", "", "", centsToDecimal(rep.GrandTotalCents)}); err != nil {
		return err
	}
	if err := cw.Write([]string{"tithe_of_tithes", "", "", centsToDecimal(rep.TitheOfTithesCents)}); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}
