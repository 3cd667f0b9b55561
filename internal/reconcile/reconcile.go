// Package reconcile is the reconciliation core. It normalizes state naming,
// runs the cross-source anomaly battery, repairs the financial column swap,
// and folds six department dumps into the unified scheme, district and
// master tables.
//
// The core is synchronous and stateless: Run receives one set of typed
// tables, returns one result, performs no I/O and holds nothing between
// calls, so overlapping invocations need no coordination. No stage mutates
// its input; every stage produces fresh tables.
package reconcile

import (
	"github.com/shiv0924/jjm-platform/internal/domain"
	apperr "github.com/shiv0924/jjm-platform/internal/errors"
)

// Run executes the full reconciliation over one set of ingested sources.
// Only the scheme master is mandatory; missing optional sources shrink
// detection and merge coverage without failing the run. The returned
// result's slices are never nil, so an empty run still serializes with
// empty arrays rather than nulls.
func Run(set domain.SourceSet, opt Options) (domain.Result, error) {
	if !set.Has(domain.SourceIMISSchemes) {
		return domain.Result{}, apperr.ErrMissingCriticalSource
	}

	set.Tap, _ = NormalizeStates(set.Tap, opt.StateAliases)

	cleaned := CleanFinance(set.Finance, Corrector{SwapThreshold: opt.SwapThreshold})
	anomalies := detect(set, cleaned, opt)
	schemes := buildSchemes(set, cleaned, opt)
	districts := buildDistricts(schemes, set)
	master := buildMaster(schemes, districts)

	return domain.Result{
		Status:    domain.StatusSuccess,
		Anomalies: anomalies,
		Schemes:   schemes,
		Districts: districts,
		Master:    master,
	}, nil
}
