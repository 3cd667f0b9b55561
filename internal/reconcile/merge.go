package reconcile

import (
	"math"
	"strings"
	"time"

	"github.com/shiv0924/jjm-platform/internal/domain"
)

// Unified status labels shown on the dashboards.
const (
	StatusDataConflict  = "DATA CONFLICT"
	StatusCompletedZP   = "Completed (ZP)"
	StatusOngoingZP     = "Ongoing (ZP)"
	StatusFinancialOnly = "Financial Only"
	StatusUnknown       = "Unknown"
)

// finTotal accumulates corrected expenditure per scheme. The district sticks
// to the first transaction that named one, so a scheme billed across several
// reports keeps a single home district.
type finTotal struct {
	district string
	sum      float64
}

// buildSchemes folds the master, progress and finance tables into one row per
// distinct scheme id. Row order is first appearance: master rows, then
// progress-only, then finance-only. Within a source later rows supersede
// earlier ones, except expenditure, which is additive and sums.
func buildSchemes(set domain.SourceSet, fin []CleanedFinance, opt Options) []domain.UnifiedScheme {
	imisBy := make(map[string]domain.SchemeMasterRow, len(set.Schemes))
	zpBy := make(map[string]domain.ProgressRow, len(set.Progress))
	finBy := make(map[string]*finTotal, len(fin))
	seen := make(map[string]bool)
	var order []string

	note := func(id string) {
		if !seen[id] {
			seen[id] = true
			order = append(order, id)
		}
	}

	for _, r := range set.Schemes {
		note(r.SchemeID)
		imisBy[r.SchemeID] = r
	}
	for _, r := range set.Progress {
		note(r.SchemeID)
		zpBy[r.SchemeID] = r
	}
	for _, f := range fin {
		note(f.SchemeID)
		t := finBy[f.SchemeID]
		if t == nil {
			t = &finTotal{}
			finBy[f.SchemeID] = t
		}
		if t.district == "" {
			t.district = f.District
		}
		t.sum += f.Cleaned
	}

	out := make([]domain.UnifiedScheme, 0, len(order))
	for _, id := range order {
		imis, hasIMIS := imisBy[id]
		zp, hasZP := zpBy[id]

		row := domain.UnifiedScheme{
			SchemeID:       id,
			District:       domain.TextMissing,
			SchemeName:     domain.TextMissing,
			Status:         domain.TextMissing,
			CompletionDate: domain.TextMissing,
			LastUpdated:    domain.TextMissing,
		}

		var finDistrict string
		if t := finBy[id]; t != nil {
			row.CleanedExpenditure = t.sum
			finDistrict = t.district
		}
		if hasIMIS {
			row.SchemeName = fillText(imis.SchemeName)
			row.Status = fillText(imis.Status)
			row.CompletionDate = renderDate(imis.CompletionDate, domain.LayoutISO)
		}
		if hasZP {
			row.PhysicalProgress = zp.PhysicalProgress
			row.FinancialProgress = zp.FinancialProgress
			row.LastUpdated = renderDate(zp.LastUpdated, domain.LayoutUK)
		}

		// District fill order: master first, then the district body, then
		// the finance report.
		for _, d := range []string{imis.District, zp.District, finDistrict} {
			if d != "" {
				row.District = d
				break
			}
		}

		row.UnifiedStatus = inferStatus(row.Status, row.PhysicalProgress, row.CleanedExpenditure, opt)
		if row.SchemeName == domain.TextMissing || row.SchemeName == "nan" {
			row.SchemeName = "Scheme " + id
		}
		out = append(out, row)
	}
	return out
}

// inferStatus derives the dashboard status column. Branches evaluate in this
// exact priority order; the first match wins.
func inferStatus(status string, phy, expenditure float64, opt Options) string {
	lower := strings.ToLower(status)
	if lower == "completed" && phy <= opt.SyncPhysicalPct {
		return StatusDataConflict
	}
	if lower == domain.TextMissing || lower == "nan" {
		switch {
		case phy > 90:
			return StatusCompletedZP
		case phy > 0:
			return StatusOngoingZP
		case expenditure > 0:
			return StatusFinancialOnly
		default:
			return StatusUnknown
		}
	}
	return status
}

// buildDistricts aggregates lab results and grievance counts onto the
// distinct non-sentinel districts observed among unified schemes, in first
// appearance order. Districts without lab or grievance data keep zeros.
func buildDistricts(schemes []domain.UnifiedScheme, set domain.SourceSet) []domain.DistrictRecord {
	seen := make(map[string]bool)
	var order []string
	for _, s := range schemes {
		if s.District == domain.TextMissing || seen[s.District] {
			continue
		}
		seen[s.District] = true
		order = append(order, s.District)
	}

	type qualityAgg struct {
		tested       int64
		contaminated int64
	}
	quality := make(map[string]*qualityAgg, len(set.Quality))
	for _, q := range set.Quality {
		a := quality[q.DistrictName]
		if a == nil {
			a = &qualityAgg{}
			quality[q.DistrictName] = a
		}
		a.tested += q.SamplesTested
		a.contaminated += q.ContaminatedSamples
	}

	grievances := make(map[string]int64, len(set.Grievances))
	for _, g := range set.Grievances {
		grievances[g.District]++
	}

	out := make([]domain.DistrictRecord, 0, len(order))
	for _, name := range order {
		rec := domain.DistrictRecord{DistrictName: name}
		if a := quality[name]; a != nil {
			rec.SamplesTested = a.tested
			rec.ContaminatedSamples = a.contaminated
		}
		rec.TotalGrievances = grievances[name]
		if rec.SamplesTested > 0 {
			rec.ContaminationRate = round2(float64(rec.ContaminatedSamples) / float64(rec.SamplesTested) * 100)
		}
		out = append(out, rec)
	}
	return out
}

// buildMaster left-joins every unified scheme onto its district's aggregates.
// A scheme whose district carries no aggregates keeps zeros, so the master
// view always has one row per scheme.
func buildMaster(schemes []domain.UnifiedScheme, districts []domain.DistrictRecord) []domain.MasterRecord {
	byName := make(map[string]domain.DistrictRecord, len(districts))
	for _, d := range districts {
		byName[d.DistrictName] = d
	}

	out := make([]domain.MasterRecord, 0, len(schemes))
	for _, s := range schemes {
		m := domain.MasterRecord{UnifiedScheme: s}
		if d, ok := byName[s.District]; ok {
			m.SamplesTested = d.SamplesTested
			m.ContaminatedSamples = d.ContaminatedSamples
			m.TotalGrievances = d.TotalGrievances
			m.ContaminationRate = d.ContaminationRate
		}
		out = append(out, m)
	}
	return out
}

// fillText substitutes the sentinel for blank values.
func fillText(s string) string {
	if strings.TrimSpace(s) == "" {
		return domain.TextMissing
	}
	return s
}

// renderDate prints a date in its source's own layout, sentinel when absent.
func renderDate(t *time.Time, layout string) string {
	if t == nil {
		return domain.TextMissing
	}
	return t.Format(layout)
}

// round2 rounds to two decimals, ties to even.
func round2(v float64) float64 {
	return math.RoundToEven(v*100) / 100
}
