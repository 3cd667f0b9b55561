package domain

// SourceSet carries the typed rows of every department dump that made it
// through ingestion. Absence and emptiness are different things here: a
// source that never arrived must not trigger the cross-source checks that
// an empty-but-present dump does, so presence is tracked explicitly.
type SourceSet struct {
	Tap        []TapStatusRow
	Schemes    []SchemeMasterRow
	Progress   []ProgressRow
	Finance    []FinanceRow
	Quality    []QualityRow
	Grievances []GrievanceRow

	present map[string]bool
}

// MarkPresent records that the given logical source arrived, whether or not
// it contained rows.
func (s *SourceSet) MarkPresent(key string) {
	if s.present == nil {
		s.present = make(map[string]bool, len(SourceKeys))
	}
	s.present[key] = true
}

// Has reports whether the given logical source arrived.
func (s *SourceSet) Has(key string) bool { return s.present[key] }

// PresentKeys returns the arrived sources in canonical order.
func (s *SourceSet) PresentKeys() []string {
	var out []string
	for _, k := range SourceKeys {
		if s.present[k] {
			out = append(out, k)
		}
	}
	return out
}
