package domain

// IssueType classifies an anomaly. The string values are the exact labels the
// reporting agencies already see on their dashboards, so they double as the
// persisted representation.
type IssueType string

const (
	IssueNamingConvention IssueType = "Naming Convention"
	IssueSyncConflict     IssueType = "Sync Conflict"
	IssueGhostAsset       IssueType = "Ghost Asset"
	IssueColumnMismatch   IssueType = "Column Mismatch"
	IssueLogicalDataError IssueType = "Logical Data Error"
)

// Severity ranks an anomaly for triage.
type Severity string

const (
	SeverityLow      Severity = "Low"
	SeverityMedium   Severity = "Medium"
	SeverityHigh     Severity = "High"
	SeverityCritical Severity = "Critical"
)

// Anomaly is one detected cross-source inconsistency. SchemeID carries the
// scheme identifier, the grievance ticket id, or "N/A" for row-level findings
// with no scheme. Anomalies are append-only output: never deduplicated, never
// linked back to source rows beyond the identifier string.
type Anomaly struct {
	SchemeID    string    `json:"Scheme_ID"`
	IssueType   IssueType `json:"Issue_Type"`
	Severity    Severity  `json:"Severity"`
	Description string    `json:"Description"`
}
