// Package domain defines the typed records flowing through the reconciliation
// pipeline: one row type per raw agency source, the anomaly record, and the
// three unified output tables. Optional values use pointers; a nil date means
// the source did not supply one (or supplied something unparseable).
package domain

import "time"

// Per-source date layouts. Each agency exports its own format; dates must be
// parsed per-source, never with a global layout.
const (
	LayoutISO = "2006-01-02" // IMIS, GSDA, PGRS
	LayoutUK  = "02/01/2006" // ZP progress reports
	LayoutUS  = "01-02-2006" // MJP financial reports
)

// Logical source keys as supplied by the ingestion collaborator.
const (
	SourceIMISTap     = "imis_tap"
	SourceIMISSchemes = "imis_schemes"
	SourceZP          = "zp"
	SourceMJP         = "mjp"
	SourceGSDA        = "gsda"
	SourcePGRS        = "pgrs"
)

// SourceKeys lists all logical sources in their canonical order.
var SourceKeys = []string{
	SourceIMISTap,
	SourceIMISSchemes,
	SourceZP,
	SourceMJP,
	SourceGSDA,
	SourcePGRS,
}

// TapStatusRow is a state-level row from the national tap-water tracker.
// Consumed for naming context only; never joined into the master view.
type TapStatusRow struct {
	StateName       string
	TotalHouseholds int64
	TapConnections  int64
	ReportDate      *time.Time
}

// SchemeMasterRow is one scheme from the IMIS scheme master, the mandatory
// central-truth source. The native key IMIS_ID is normalized to SchemeID.
type SchemeMasterRow struct {
	SchemeID       string
	District       string
	SchemeName     string
	Status         string
	CompletionDate *time.Time
}

// ProgressRow is one scheme from the local administrative body (ZP) with
// physical and financial completion percentages.
type ProgressRow struct {
	SchemeID          string
	District          string
	PhysicalProgress  float64
	FinancialProgress float64
	LastUpdated       *time.Time
}

// FinanceRow is one transaction from the MJP financial report. The native key
// Scheme_Code is normalized to SchemeID. The two expenditure fields are kept
// as raw text: the corrector owns their parsing, because missing and
// malformed inputs have different outcomes (missing reads as zero, malformed
// zeroes both figures).
type FinanceRow struct {
	SchemeID           string
	District           string
	ExpenditureActuals string
	ExpenditureLakhs   string
	TransactionDate    *time.Time
}

// QualityRow is one district-level row from the GSDA water-quality lab
// network.
type QualityRow struct {
	StateName           string
	DistrictName        string
	SamplesTested       int64
	ContaminatedSamples int64
	LabReportDate       *time.Time
}

// GrievanceRow is one citizen grievance ticket from PGRS.
type GrievanceRow struct {
	TicketID     string
	District     string
	Issue        string
	DateReported *time.Time
	DateResolved *time.Time
}
