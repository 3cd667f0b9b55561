package reconcile

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shiv0924/jjm-platform/internal/domain"
)

// progressView is one row of the scheme-master × local-progress outer join,
// collapsed to one row per scheme id. Later rows supersede earlier ones
// within a source; output order is first appearance, master rows first.
type progressView struct {
	schemeID string
	status   string
	phy      float64
	fin      float64
}

// joinProgress builds the joined view the sync and ghost checks both read.
// A scheme known only to the master keeps zero progress; a scheme known only
// to the district body carries no status.
func joinProgress(set domain.SourceSet) []progressView {
	idx := make(map[string]int)
	views := make([]progressView, 0, len(set.Schemes))

	for _, r := range set.Schemes {
		if i, ok := idx[r.SchemeID]; ok {
			views[i].status = r.Status
			continue
		}
		idx[r.SchemeID] = len(views)
		views = append(views, progressView{schemeID: r.SchemeID, status: r.Status})
	}
	for _, r := range set.Progress {
		if i, ok := idx[r.SchemeID]; ok {
			views[i].phy = r.PhysicalProgress
			views[i].fin = r.FinancialProgress
			continue
		}
		idx[r.SchemeID] = len(views)
		views = append(views, progressView{
			schemeID: r.SchemeID,
			phy:      r.PhysicalProgress,
			fin:      r.FinancialProgress,
		})
	}
	return views
}

// detect runs the five consistency checks in fixed order: naming, sync,
// ghost, column, logical. Anomalies append in check order, row order within
// a check; there is no deduplication and no priority sort. A row a check
// cannot evaluate is skipped for that check only. Every check gates on the
// presence of the sources it reads, so an absent dump degrades coverage
// rather than inventing findings.
func detect(set domain.SourceSet, fin []CleanedFinance, opt Options) []domain.Anomaly {
	anomalies := make([]domain.Anomaly, 0)

	if set.Has(domain.SourceGSDA) {
		for _, q := range set.Quality {
			if opt.isCanonical(q.StateName) {
				continue
			}
			anomalies = append(anomalies, domain.Anomaly{
				SchemeID:    "N/A",
				IssueType:   domain.IssueNamingConvention,
				Severity:    domain.SeverityMedium,
				Description: fmt.Sprintf("Non-standard State: '%s'", q.StateName),
			})
		}
	}

	if set.Has(domain.SourceIMISSchemes) && set.Has(domain.SourceZP) {
		joined := joinProgress(set)
		for _, v := range joined {
			if strings.EqualFold(v.status, "completed") && v.phy <= opt.SyncPhysicalPct {
				anomalies = append(anomalies, domain.Anomaly{
					SchemeID:    v.schemeID,
					IssueType:   domain.IssueSyncConflict,
					Severity:    domain.SeverityCritical,
					Description: "IMIS Complete vs ZP Pending",
				})
			}
		}
		for _, v := range joined {
			if v.phy == 0 && v.fin > opt.GhostThreshold {
				anomalies = append(anomalies, domain.Anomaly{
					SchemeID:    v.schemeID,
					IssueType:   domain.IssueGhostAsset,
					Severity:    domain.SeverityHigh,
					Description: fmt.Sprintf("Fin Progress %s%% without Physical Progress", formatProgress(v.fin)),
				})
			}
		}
	}

	if set.Has(domain.SourceMJP) {
		for _, f := range fin {
			if !f.StatedValid {
				continue
			}
			if math.Abs(f.Stated-f.Cleaned) > opt.MismatchTolerance {
				anomalies = append(anomalies, domain.Anomaly{
					SchemeID:    f.SchemeID,
					IssueType:   domain.IssueColumnMismatch,
					Severity:    domain.SeverityMedium,
					Description: "Financial Columns Swapped. Auto-corrected.",
				})
			}
		}
	}

	if set.Has(domain.SourcePGRS) {
		for _, g := range set.Grievances {
			if g.DateReported == nil || g.DateResolved == nil {
				continue
			}
			if g.DateResolved.Before(*g.DateReported) {
				anomalies = append(anomalies, domain.Anomaly{
					SchemeID:    g.TicketID,
					IssueType:   domain.IssueLogicalDataError,
					Severity:    domain.SeverityLow,
					Description: "Ticket Resolved before Reported.",
				})
			}
		}
	}

	return anomalies
}

// formatProgress renders a progress percentage the way the dashboards show
// it: no trailing zeros, no forced decimal point.
func formatProgress(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
