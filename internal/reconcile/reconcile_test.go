// internal/reconcile/reconcile_test.go
//
// Run tested end to end against a source set shaped like the real
// department dumps: the Thane sync conflict, the swapped financial columns,
// the non-standard state spelling, and the envelope contract.

package reconcile

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/shiv0924/jjm-platform/internal/domain"
	apperr "github.com/shiv0924/jjm-platform/internal/errors"
)

// fullSet mirrors one monthly drop of all six department dumps, two rows
// each, seeded with one instance of every known data defect.
func fullSet(t *testing.T) domain.SourceSet {
	t.Helper()

	var set domain.SourceSet
	for _, k := range domain.SourceKeys {
		set.MarkPresent(k)
	}

	set.Tap = []domain.TapStatusRow{
		{StateName: "A & N Islands", TotalHouseholds: 62000, TapConnections: 45000},
		{StateName: "Maharashtra", TotalHouseholds: 14600000, TapConnections: 12200000},
	}
	set.Schemes = []domain.SchemeMasterRow{
		{SchemeID: "20118869", District: "Thane", SchemeName: "Thane Peri-Urban RWS", Status: "Completed",
			CompletionDate: parseDate(t, domain.LayoutISO, "2025-01-15")},
		{SchemeID: "20118870", District: "Pune", SchemeName: "Pune Gravity Scheme", Status: "Ongoing",
			CompletionDate: nil},
	}
	set.Progress = []domain.ProgressRow{
		{SchemeID: "20118869", District: "Thane", PhysicalProgress: 0, FinancialProgress: 88.5,
			LastUpdated: parseDate(t, domain.LayoutUK, "20/01/2025")},
		{SchemeID: "20118871", District: "Nashik", PhysicalProgress: 95, FinancialProgress: 91,
			LastUpdated: parseDate(t, domain.LayoutUK, "21/01/2025")},
	}
	set.Finance = []domain.FinanceRow{
		{SchemeID: "20118869", District: "Thane", ExpenditureActuals: "45.5", ExpenditureLakhs: "4550000",
			TransactionDate: parseDate(t, domain.LayoutUS, "01-20-2025")},
		{SchemeID: "20118872", District: "Satara", ExpenditureActuals: "2500000", ExpenditureLakhs: "25",
			TransactionDate: parseDate(t, domain.LayoutUS, "01-21-2025")},
	}
	set.Quality = []domain.QualityRow{
		{StateName: "A & N Islands", DistrictName: "Thane", SamplesTested: 800, ContaminatedSamples: 1,
			LabReportDate: parseDate(t, domain.LayoutISO, "2025-01-18")},
		{StateName: "Maharashtra", DistrictName: "Pune", SamplesTested: 500, ContaminatedSamples: 40,
			LabReportDate: parseDate(t, domain.LayoutISO, "2025-01-19")},
	}
	set.Grievances = []domain.GrievanceRow{
		{TicketID: "GRV-1001", District: "Thane", Issue: "No water supply",
			DateReported: parseDate(t, domain.LayoutISO, "2025-01-10"),
			DateResolved: parseDate(t, domain.LayoutISO, "2025-01-05")},
		{TicketID: "GRV-1002", District: "Pune", Issue: "Low pressure",
			DateReported: parseDate(t, domain.LayoutISO, "2025-01-12"),
			DateResolved: parseDate(t, domain.LayoutISO, "2025-01-14")},
	}
	return set
}

func TestRun_MissingSchemeMaster(t *testing.T) {
	var set domain.SourceSet
	set.MarkPresent(domain.SourceZP)
	set.Progress = []domain.ProgressRow{{SchemeID: "S-1", PhysicalProgress: 10}}

	_, err := Run(set, DefaultOptions())
	if err == nil {
		t.Fatal("Run without the scheme master should fail")
	}
	if !apperr.IsMissingCriticalSource(err) {
		t.Errorf("err = %v, want missing critical source", err)
	}
	if !errors.Is(err, apperr.ErrMissingCriticalSource) {
		t.Errorf("err should match the sentinel via errors.Is")
	}
}

func TestRun_FullDrop(t *testing.T) {
	res, err := Run(fullSet(t), DefaultOptions())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Status != domain.StatusSuccess {
		t.Errorf("Status = %q, want success", res.Status)
	}

	// One of each defect: non-standard state, Thane sync conflict, ghost
	// spending on the same scheme, swapped money columns, impossible dates.
	wantTypes := []domain.IssueType{
		domain.IssueNamingConvention,
		domain.IssueSyncConflict,
		domain.IssueGhostAsset,
		domain.IssueColumnMismatch,
		domain.IssueLogicalDataError,
	}
	if len(res.Anomalies) != len(wantTypes) {
		t.Fatalf("anomalies = %d, want %d: %+v", len(res.Anomalies), len(wantTypes), res.Anomalies)
	}
	for i, want := range wantTypes {
		if res.Anomalies[i].IssueType != want {
			t.Errorf("anomaly %d = %s, want %s", i, res.Anomalies[i].IssueType, want)
		}
	}

	// 20118869 appears in three sources but exactly once in the output.
	ids := map[string]int{}
	for _, s := range res.Schemes {
		ids[s.SchemeID]++
	}
	if len(res.Schemes) != 4 {
		t.Errorf("schemes = %d, want 4 distinct", len(res.Schemes))
	}
	for id, n := range ids {
		if n != 1 {
			t.Errorf("scheme %s appears %d times", id, n)
		}
	}

	thane := res.Schemes[0]
	if thane.SchemeID != "20118869" {
		t.Fatalf("first scheme = %s, want the master's first row", thane.SchemeID)
	}
	if thane.UnifiedStatus != StatusDataConflict {
		t.Errorf("Thane status = %q, want %q", thane.UnifiedStatus, StatusDataConflict)
	}
	if thane.CleanedExpenditure != 4550000 {
		t.Errorf("Thane expenditure = %v, want corrected 4550000", thane.CleanedExpenditure)
	}
	if thane.CompletionDate != "2025-01-15" || thane.LastUpdated != "20/01/2025" {
		t.Errorf("dates = (%q, %q), want source layouts", thane.CompletionDate, thane.LastUpdated)
	}

	// Districts follow scheme appearance order; Thane's lab rate is the
	// banker's-rounded 1/800.
	if len(res.Districts) != 4 {
		t.Fatalf("districts = %d, want 4: %+v", len(res.Districts), res.Districts)
	}
	if res.Districts[0].DistrictName != "Thane" || res.Districts[0].ContaminationRate != 0.12 {
		t.Errorf("Thane district = %+v", res.Districts[0])
	}
	if res.Districts[0].TotalGrievances != 1 {
		t.Errorf("Thane grievances = %d, want 1", res.Districts[0].TotalGrievances)
	}

	if len(res.Master) != len(res.Schemes) {
		t.Fatalf("master rows = %d, want one per scheme", len(res.Master))
	}
	if res.Master[0].SamplesTested != 800 || res.Master[0].ContaminationRate != 0.12 {
		t.Errorf("master join lost Thane aggregates: %+v", res.Master[0])
	}
}

func TestRun_SchemeMasterAlone(t *testing.T) {
	/*
		Optional sources degrade coverage, never correctness: with only the
		scheme master present the run succeeds, detection is limited to
		nothing (no cross-source data), and completed schemes keep their
		master status because no progress source contradicts them... except
		that zero-filled physical progress makes a completed scheme a data
		conflict, which is exactly what the dashboards show when the
		district body goes quiet.
	*/
	var set domain.SourceSet
	set.MarkPresent(domain.SourceIMISSchemes)
	set.Schemes = []domain.SchemeMasterRow{
		{SchemeID: "S-1", District: "Pune", SchemeName: "Pune RWS", Status: "Completed"},
		{SchemeID: "S-2", District: "Thane", SchemeName: "Thane RWS", Status: "Ongoing"},
	}

	res, err := Run(set, DefaultOptions())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Anomalies) != 0 {
		t.Errorf("anomalies = %+v, want none without cross-source data", res.Anomalies)
	}
	if got := res.Schemes[0].UnifiedStatus; got != StatusDataConflict {
		t.Errorf("completed scheme without progress = %q, want %q", got, StatusDataConflict)
	}
	if got := res.Schemes[1].UnifiedStatus; got != "Ongoing" {
		t.Errorf("ongoing scheme = %q, want status carried", got)
	}
	if len(res.Districts) != 2 {
		t.Errorf("districts = %d, want 2 with zeroed aggregates", len(res.Districts))
	}
	for _, d := range res.Districts {
		if d.SamplesTested != 0 || d.ContaminationRate != 0 || d.TotalGrievances != 0 {
			t.Errorf("district %s should be all zeros: %+v", d.DistrictName, d)
		}
	}
}

func TestRun_EnvelopeSerialization(t *testing.T) {
	var set domain.SourceSet
	set.MarkPresent(domain.SourceIMISSchemes)

	res, err := Run(set, DefaultOptions())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	raw, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got := string(raw)

	// Empty tables serialize as [] rather than null, and the field names
	// are the ones the dashboards already consume.
	for _, want := range []string{
		`"status":"success"`,
		`"anomalies":[]`,
		`"repo_schemes":[]`,
		`"repo_districts":[]`,
		`"repo_master":[]`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("envelope missing %s: %s", want, got)
		}
	}
}

func TestRun_DoesNotMutateInput(t *testing.T) {
	set := fullSet(t)
	before := set.Tap[0].StateName

	if _, err := Run(set, DefaultOptions()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if set.Tap[0].StateName != before {
		t.Errorf("input tap table mutated: %q", set.Tap[0].StateName)
	}
}
