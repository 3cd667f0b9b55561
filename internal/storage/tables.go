package storage

import (
	"fmt"
	"strconv"

	"github.com/shiv0924/jjm-platform/internal/ddl"
	"github.com/shiv0924/jjm-platform/internal/domain"
)

// The four reconciled output tables. The names are the ones the dashboards
// already query; an optional prefix namespaces them when several jobs share
// one database.
const (
	TableSchemes   = "table_schemes"
	TableDistricts = "table_districts"
	TableMaster    = "table_master"
	TableAnomalies = "table_anomalies"
)

// schemeColumns is shared by the scheme and master tables; the master view
// appends the district aggregates.
var schemeColumns = []ddl.ColumnDef{
	{Name: "Scheme_ID", Type: ddl.TypeText, PrimaryKey: true},
	{Name: "District", Type: ddl.TypeText},
	{Name: "Scheme_Name", Type: ddl.TypeText},
	{Name: "Status", Type: ddl.TypeText},
	{Name: "Completion_Date", Type: ddl.TypeText},
	{Name: "Physical_Progress", Type: ddl.TypeReal},
	{Name: "Financial_Progress", Type: ddl.TypeReal},
	{Name: "Last_Updated", Type: ddl.TypeText},
	{Name: "Cleaned_Expenditure_INR", Type: ddl.TypeReal},
	{Name: "Unified_Status", Type: ddl.TypeText},
}

var districtAggregateColumns = []ddl.ColumnDef{
	{Name: "Samples_Tested", Type: ddl.TypeInteger},
	{Name: "Contaminated_Samples", Type: ddl.TypeInteger},
	{Name: "Total_Grievances", Type: ddl.TypeInteger},
	{Name: "Contamination_Rate", Type: ddl.TypeReal},
}

// SchemesTable defines the unified scheme table, keyed by scheme id.
func SchemesTable(prefix string) ddl.TableDef {
	return ddl.TableDef{Name: prefix + TableSchemes, Columns: schemeColumns}
}

// DistrictsTable defines the district aggregate table, keyed by district.
func DistrictsTable(prefix string) ddl.TableDef {
	cols := append([]ddl.ColumnDef{
		{Name: "District_Name", Type: ddl.TypeText, PrimaryKey: true},
	}, districtAggregateColumns...)
	return ddl.TableDef{Name: prefix + TableDistricts, Columns: cols}
}

// MasterTable defines the master view table: scheme columns plus the joined
// district aggregates, keyed by scheme id.
func MasterTable(prefix string) ddl.TableDef {
	cols := append(append([]ddl.ColumnDef{}, schemeColumns...), districtAggregateColumns...)
	return ddl.TableDef{Name: prefix + TableMaster, Columns: cols}
}

// AnomaliesTable defines the anomaly table. Deliberately unkeyed: anomalies
// are the append-only output of a run and the table is replaced wholesale on
// every save.
func AnomaliesTable(prefix string) ddl.TableDef {
	return ddl.TableDef{Name: prefix + TableAnomalies, Columns: []ddl.ColumnDef{
		{Name: "Scheme_ID", Type: ddl.TypeText},
		{Name: "Issue_Type", Type: ddl.TypeText},
		{Name: "Severity", Type: ddl.TypeText},
		{Name: "Description", Type: ddl.TypeText},
	}}
}

// Tables returns all four output table definitions.
func Tables(prefix string) []ddl.TableDef {
	return []ddl.TableDef{
		SchemesTable(prefix),
		DistrictsTable(prefix),
		MasterTable(prefix),
		AnomaliesTable(prefix),
	}
}

// Flattening: one []any per record, aligned to the table's column order.

func schemeValues(s domain.UnifiedScheme) []any {
	return []any{
		s.SchemeID, s.District, s.SchemeName, s.Status, s.CompletionDate,
		s.PhysicalProgress, s.FinancialProgress, s.LastUpdated,
		s.CleanedExpenditure, s.UnifiedStatus,
	}
}

func districtValues(d domain.DistrictRecord) []any {
	return []any{
		d.DistrictName, d.SamplesTested, d.ContaminatedSamples,
		d.TotalGrievances, d.ContaminationRate,
	}
}

func masterValues(m domain.MasterRecord) []any {
	return append(schemeValues(m.UnifiedScheme),
		m.SamplesTested, m.ContaminatedSamples, m.TotalGrievances, m.ContaminationRate)
}

func anomalyValues(a domain.Anomaly) []any {
	return []any{a.SchemeID, string(a.IssueType), string(a.Severity), a.Description}
}

// Scanning: drivers disagree about value types (mysql hands back []byte for
// text, sqlite int64 for everything integral), so reads coerce per logical
// column type instead of type-asserting.

func schemeFromRow(row []any) (domain.UnifiedScheme, error) {
	if len(row) != len(schemeColumns) {
		return domain.UnifiedScheme{}, fmt.Errorf("scheme row has %d values, want %d", len(row), len(schemeColumns))
	}
	return domain.UnifiedScheme{
		SchemeID:           asString(row[0]),
		District:           asString(row[1]),
		SchemeName:         asString(row[2]),
		Status:             asString(row[3]),
		CompletionDate:     asString(row[4]),
		PhysicalProgress:   asFloat(row[5]),
		FinancialProgress:  asFloat(row[6]),
		LastUpdated:        asString(row[7]),
		CleanedExpenditure: asFloat(row[8]),
		UnifiedStatus:      asString(row[9]),
	}, nil
}

func districtFromRow(row []any) (domain.DistrictRecord, error) {
	if len(row) != 5 {
		return domain.DistrictRecord{}, fmt.Errorf("district row has %d values, want 5", len(row))
	}
	return domain.DistrictRecord{
		DistrictName:        asString(row[0]),
		SamplesTested:       asInt(row[1]),
		ContaminatedSamples: asInt(row[2]),
		TotalGrievances:     asInt(row[3]),
		ContaminationRate:   asFloat(row[4]),
	}, nil
}

func masterFromRow(row []any) (domain.MasterRecord, error) {
	want := len(schemeColumns) + len(districtAggregateColumns)
	if len(row) != want {
		return domain.MasterRecord{}, fmt.Errorf("master row has %d values, want %d", len(row), want)
	}
	scheme, err := schemeFromRow(row[:len(schemeColumns)])
	if err != nil {
		return domain.MasterRecord{}, err
	}
	agg := row[len(schemeColumns):]
	return domain.MasterRecord{
		UnifiedScheme:       scheme,
		SamplesTested:       asInt(agg[0]),
		ContaminatedSamples: asInt(agg[1]),
		TotalGrievances:     asInt(agg[2]),
		ContaminationRate:   asFloat(agg[3]),
	}, nil
}

func anomalyFromRow(row []any) (domain.Anomaly, error) {
	if len(row) != 4 {
		return domain.Anomaly{}, fmt.Errorf("anomaly row has %d values, want 4", len(row))
	}
	return domain.Anomaly{
		SchemeID:    asString(row[0]),
		IssueType:   domain.IssueType(asString(row[1])),
		Severity:    domain.Severity(asString(row[2])),
		Description: asString(row[3]),
	}, nil
}

func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return fmt.Sprint(t)
	}
}

func asFloat(v any) float64 {
	switch t := v.(type) {
	case nil:
		return 0
	case float64:
		return t
	case float32:
		return float64(t)
	case int64:
		return float64(t)
	case int:
		return float64(t)
	case []byte:
		f, _ := strconv.ParseFloat(string(t), 64)
		return f
	case string:
		f, _ := strconv.ParseFloat(t, 64)
		return f
	default:
		return 0
	}
}

func asInt(v any) int64 {
	switch t := v.(type) {
	case nil:
		return 0
	case int64:
		return t
	case int:
		return int64(t)
	case float64:
		return int64(t)
	case []byte:
		n, _ := strconv.ParseInt(string(t), 10, 64)
		return n
	case string:
		n, _ := strconv.ParseInt(t, 10, 64)
		return n
	default:
		return 0
	}
}
