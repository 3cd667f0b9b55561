package reconcile

import "github.com/shiv0924/jjm-platform/internal/domain"

// NormalizeStates rewrites state names in the national tap-water tracker to
// their canonical spelling using the alias table. The input slice is left
// untouched; a fresh slice is returned along with the number of rows renamed.
//
// Only the tracker is normalized. Lab data keeps its raw spellings so the
// naming check can flag them.
func NormalizeStates(rows []domain.TapStatusRow, aliases map[string]string) ([]domain.TapStatusRow, int) {
	if len(rows) == 0 {
		return nil, 0
	}
	out := make([]domain.TapStatusRow, len(rows))
	renamed := 0
	for i, r := range rows {
		if canonical, ok := aliases[r.StateName]; ok && canonical != r.StateName {
			r.StateName = canonical
			renamed++
		}
		out[i] = r
	}
	return out, renamed
}
