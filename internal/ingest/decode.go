package ingest

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/shiv0924/jjm-platform/internal/domain"
	apperr "github.com/shiv0924/jjm-platform/internal/errors"
	csvparser "github.com/shiv0924/jjm-platform/internal/parser/csv"
	"github.com/shiv0924/jjm-platform/internal/parser/ints"
	"github.com/shiv0924/jjm-platform/internal/schema"
)

// Decoding turns parsed CSV rows into typed records. Values are read
// tolerantly: counts and progress figures fall back to zero when a field is
// garbled, dates fall back to nil. Only a missing required field drops the
// whole record, because a scheme row without its key cannot be joined to
// anything downstream.

// DecodeInto decodes rows for one logical source into the set and marks the
// source present. The returned errors describe dropped records; ordinals are
// 1-based positions among the parsed data rows.
func DecodeInto(set *domain.SourceSet, key string, rows []csvparser.Row, c schema.Contract) []error {
	var errs []error
	switch key {
	case domain.SourceIMISTap:
		set.Tap, errs = decodeTap(rows, c)
	case domain.SourceIMISSchemes:
		set.Schemes, errs = decodeSchemes(rows, c)
	case domain.SourceZP:
		set.Progress, errs = decodeProgress(rows, c)
	case domain.SourceMJP:
		set.Finance, errs = decodeFinance(rows, c)
	case domain.SourceGSDA:
		set.Quality, errs = decodeQuality(rows, c)
	case domain.SourcePGRS:
		set.Grievances, errs = decodeGrievances(rows, c)
	default:
		return []error{fmt.Errorf("ingest: no decoder for source %q", key)}
	}
	set.MarkPresent(key)
	return errs
}

func decodeTap(rows []csvparser.Row, c schema.Contract) ([]domain.TapStatusRow, []error) {
	out := make([]domain.TapStatusRow, 0, len(rows))
	var errs []error
	for i, row := range rows {
		if name, ok := requiredPresent(row, c); !ok {
			errs = append(errs, apperr.NewRowError(i+1, "missing required "+name))
			continue
		}
		out = append(out, domain.TapStatusRow{
			StateName:       textField(row, "State_Name"),
			TotalHouseholds: countField(row, "Total_Households"),
			TapConnections:  countField(row, "Tap_Connections"),
			ReportDate:      dateField(row, "Report_Date", layoutOf(c, "Report_Date")),
		})
	}
	return out, errs
}

func decodeSchemes(rows []csvparser.Row, c schema.Contract) ([]domain.SchemeMasterRow, []error) {
	out := make([]domain.SchemeMasterRow, 0, len(rows))
	var errs []error
	for i, row := range rows {
		if name, ok := requiredPresent(row, c); !ok {
			errs = append(errs, apperr.NewRowError(i+1, "missing required "+name))
			continue
		}
		out = append(out, domain.SchemeMasterRow{
			SchemeID:       textField(row, "Scheme_ID"),
			District:       textField(row, "District"),
			SchemeName:     textField(row, "Scheme_Name"),
			Status:         textField(row, "Status"),
			CompletionDate: dateField(row, "Completion_Date", layoutOf(c, "Completion_Date")),
		})
	}
	return out, errs
}

func decodeProgress(rows []csvparser.Row, c schema.Contract) ([]domain.ProgressRow, []error) {
	out := make([]domain.ProgressRow, 0, len(rows))
	var errs []error
	for i, row := range rows {
		if name, ok := requiredPresent(row, c); !ok {
			errs = append(errs, apperr.NewRowError(i+1, "missing required "+name))
			continue
		}
		out = append(out, domain.ProgressRow{
			SchemeID:          textField(row, "Scheme_ID"),
			District:          textField(row, "District"),
			PhysicalProgress:  realField(row, "Physical_Progress"),
			FinancialProgress: realField(row, "Financial_Progress"),
			LastUpdated:       dateField(row, "Last_Updated", layoutOf(c, "Last_Updated")),
		})
	}
	return out, errs
}

func decodeFinance(rows []csvparser.Row, c schema.Contract) ([]domain.FinanceRow, []error) {
	out := make([]domain.FinanceRow, 0, len(rows))
	var errs []error
	for i, row := range rows {
		if name, ok := requiredPresent(row, c); !ok {
			errs = append(errs, apperr.NewRowError(i+1, "missing required "+name))
			continue
		}
		// Expenditure figures stay raw: the financial corrector distinguishes
		// missing from malformed, which a float here would erase.
		out = append(out, domain.FinanceRow{
			SchemeID:           textField(row, "Scheme_ID"),
			District:           textField(row, "District"),
			ExpenditureActuals: textField(row, "Expenditure_Actuals"),
			ExpenditureLakhs:   textField(row, "Expenditure_Lakhs"),
			TransactionDate:    dateField(row, "Transaction_Date", layoutOf(c, "Transaction_Date")),
		})
	}
	return out, errs
}

func decodeQuality(rows []csvparser.Row, c schema.Contract) ([]domain.QualityRow, []error) {
	out := make([]domain.QualityRow, 0, len(rows))
	var errs []error
	for i, row := range rows {
		if name, ok := requiredPresent(row, c); !ok {
			errs = append(errs, apperr.NewRowError(i+1, "missing required "+name))
			continue
		}
		out = append(out, domain.QualityRow{
			StateName:           textField(row, "State_Name"),
			DistrictName:        textField(row, "District_Name"),
			SamplesTested:       countField(row, "Samples_Tested"),
			ContaminatedSamples: countField(row, "Contaminated_Samples"),
			LabReportDate:       dateField(row, "Lab_Report_Date", layoutOf(c, "Lab_Report_Date")),
		})
	}
	return out, errs
}

func decodeGrievances(rows []csvparser.Row, c schema.Contract) ([]domain.GrievanceRow, []error) {
	out := make([]domain.GrievanceRow, 0, len(rows))
	var errs []error
	for i, row := range rows {
		if name, ok := requiredPresent(row, c); !ok {
			errs = append(errs, apperr.NewRowError(i+1, "missing required "+name))
			continue
		}
		out = append(out, domain.GrievanceRow{
			TicketID:     textField(row, "Ticket_ID"),
			District:     textField(row, "District"),
			Issue:        textField(row, "Issue"),
			DateReported: dateField(row, "Date_Reported", layoutOf(c, "Date_Reported")),
			DateResolved: dateField(row, "Date_Resolved", layoutOf(c, "Date_Resolved")),
		})
	}
	return out, errs
}

// requiredPresent reports whether every required contract field has a
// non-blank value; on failure it names the first missing field. A cell
// holding only invisible characters counts as blank.
func requiredPresent(row csvparser.Row, c schema.Contract) (string, bool) {
	for _, name := range c.Required() {
		if cleanText(row[name]) == "" {
			return name, false
		}
	}
	return "", true
}

func layoutOf(c schema.Contract, name string) string {
	if f, ok := c.Field(name); ok && f.Layout != "" {
		return f.Layout
	}
	return domain.LayoutISO
}

// cleanText folds a raw cell to NFC and strips the zero-width code points
// spreadsheet exports leak into otherwise plain fields, then trims the edges.
// Interior whitespace stays; NBSP counts as whitespace for the trim.
func cleanText(s string) string {
	s = strings.Map(dropZeroWidth, s)
	if !norm.NFC.IsNormalString(s) {
		s = norm.NFC.String(s)
	}
	return strings.TrimSpace(s)
}

// dropZeroWidth removes ZWSP, ZWNJ, ZWJ and stray BOMs.
func dropZeroWidth(r rune) rune {
	switch r {
	case '\u200b', '\u200c', '\u200d', '\ufeff':
		return -1
	}
	return r
}

func textField(row csvparser.Row, key string) string {
	return cleanText(row[key])
}

func countField(row csvparser.Row, key string) int64 {
	n, _ := ints.ParseCount(row[key])
	return n
}

func realField(row csvparser.Row, key string) float64 {
	v := cleanText(row[key])
	if v == "" {
		return 0
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}
	return f
}

func dateField(row csvparser.Row, key, layout string) *time.Time {
	v := cleanText(row[key])
	if v == "" {
		return nil
	}
	t, err := time.Parse(layout, v)
	if err != nil {
		return nil
	}
	return &t
}
