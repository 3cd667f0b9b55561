package domain

// TextMissing is the sentinel filled into textual columns when no source
// supplied a value. Numeric columns default to zero instead.
const TextMissing = "-"

// Result status values.
const (
	StatusSuccess = "success"
	StatusEmpty   = "empty"
)

// UnifiedScheme is one row of the reconciled scheme table: one row per
// distinct scheme identifier appearing in any source. Dates are carried as
// text in the originating source's own layout ("-" when absent) since they
// are display columns, not join inputs.
type UnifiedScheme struct {
	SchemeID           string  `json:"Scheme_ID"`
	District           string  `json:"District"`
	SchemeName         string  `json:"Scheme_Name"`
	Status             string  `json:"Status"`
	CompletionDate     string  `json:"Completion_Date"`
	PhysicalProgress   float64 `json:"Physical_Progress"`
	FinancialProgress  float64 `json:"Financial_Progress"`
	LastUpdated        string  `json:"Last_Updated"`
	CleanedExpenditure float64 `json:"Cleaned_Expenditure_INR"`
	UnifiedStatus      string  `json:"Unified_Status"`
}

// DistrictRecord is one row of the district aggregate table: water-quality
// sums and grievance counts per distinct district observed among unified
// schemes.
type DistrictRecord struct {
	DistrictName        string  `json:"District_Name"`
	SamplesTested       int64   `json:"Samples_Tested"`
	ContaminatedSamples int64   `json:"Contaminated_Samples"`
	TotalGrievances     int64   `json:"Total_Grievances"`
	ContaminationRate   float64 `json:"Contamination_Rate"`
}

// MasterRecord joins a unified scheme with its district's aggregates. A
// scheme whose district has no quality data still appears, with zero-valued
// aggregates.
type MasterRecord struct {
	UnifiedScheme
	SamplesTested       int64   `json:"Samples_Tested"`
	ContaminatedSamples int64   `json:"Contaminated_Samples"`
	TotalGrievances     int64   `json:"Total_Grievances"`
	ContaminationRate   float64 `json:"Contamination_Rate"`
}

// Result is the pipeline's output envelope. Message is only set on the
// empty envelope returned when a load finds no persisted data.
type Result struct {
	Status    string           `json:"status"`
	Message   string           `json:"message,omitempty"`
	Anomalies []Anomaly        `json:"anomalies"`
	Schemes   []UnifiedScheme  `json:"repo_schemes"`
	Districts []DistrictRecord `json:"repo_districts"`
	Master    []MasterRecord   `json:"repo_master"`
}
