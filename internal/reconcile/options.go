package reconcile

// Options carries the reconciliation rule constants. Every knob is explicit
// configuration data; there is no package-level mutable state. The zero value
// is NOT usable — call DefaultOptions and override fields from job config.
type Options struct {
	// CanonicalStates is the approved spelling of every state name. Values
	// outside the set are flagged by the naming check, never rejected or
	// rewritten.
	CanonicalStates []string

	// StateAliases maps known misspellings to their canonical form. Applied
	// to the national tap-water tracker only; the naming check deliberately
	// tests the raw value, so an aliased spelling still produces an anomaly
	// where it appears in lab data.
	StateAliases map[string]string

	// SwapThreshold is the magnitude boundary separating lakhs-denominated
	// figures from raw currency. A lakhs value above it paired with an
	// actuals value below it reads as a column swap.
	SwapThreshold float64

	// MismatchTolerance is the absolute difference between stated and
	// corrected actuals above which a ColumnMismatch anomaly fires.
	MismatchTolerance float64

	// GhostThreshold is the financial progress percentage a scheme with zero
	// physical progress must exceed to be flagged a ghost asset.
	GhostThreshold float64

	// SyncPhysicalPct is the physical progress percentage at or below which
	// a "Completed" master status counts as a sync conflict.
	SyncPhysicalPct float64

	canonical map[string]bool
}

// DefaultOptions returns the rule constants of the live deployment.
func DefaultOptions() Options {
	return Options{
		CanonicalStates: []string{
			"Andaman & Nicobar Islands",
			"Maharashtra",
		},
		StateAliases: map[string]string{
			"A & N Islands": "Andaman & Nicobar Islands",
		},
		SwapThreshold:     1000,
		MismatchTolerance: 1.0,
		GhostThreshold:    0,
		SyncPhysicalPct:   0,
	}
}

// isCanonical reports whether state is an approved spelling. The set is built
// lazily from CanonicalStates on first use.
func (o *Options) isCanonical(state string) bool {
	if o.canonical == nil {
		o.canonical = make(map[string]bool, len(o.CanonicalStates))
		for _, s := range o.CanonicalStates {
			o.canonical[s] = true
		}
	}
	return o.canonical[state]
}
