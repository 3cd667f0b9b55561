// This file adds a lightweight linter for Job values. It performs static
// checks over a decoded Job and returns a list of issues (errors and
// warnings) that callers can surface in a CLI or tests before a run starts.
package config

import (
	"fmt"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block a run.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a finding worth surfacing that does not have
	// to block a run.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding.
//
// Path is a dotted path into the config (e.g. "sources.zp.location").
// Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a
// single error where one is expected.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// knownSourceKeys are the logical sources the pipeline understands.
var knownSourceKeys = map[string]struct{}{
	"imis_tap":     {},
	"imis_schemes": {},
	"zp":           {},
	"mjp":          {},
	"gsda":         {},
	"pgrs":         {},
}

// knownStorageKinds are the supported database backends.
var knownStorageKinds = map[string]struct{}{
	"postgres": {},
	"sqlite":   {},
	"mssql":    {},
	"mysql":    {},
}

// ValidateJob performs static validation of a Job. It does not mutate the
// job; callers decide whether warnings are fatal.
func ValidateJob(j Job) []Issue {
	var issues []Issue

	if strings.TrimSpace(j.Name) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it labels logs and metrics for the run",
		})
	}

	if len(j.Sources) == 0 && strings.TrimSpace(j.DumpDir) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "sources",
			Message:  "either sources or dump_dir must be set; there is nothing to reconcile otherwise",
		})
	}

	issues = append(issues, validateSources(j.Sources)...)
	issues = append(issues, validateParserOverrides(j.Parser)...)
	issues = append(issues, validateRules(j.Rules)...)
	issues = append(issues, validateStorage(j.Storage)...)
	issues = append(issues, validateRuntime(j.Runtime)...)

	return issues
}

func validateSources(sources map[string]SourceConfig) []Issue {
	var issues []Issue
	for key, sc := range sources {
		if _, ok := knownSourceKeys[key]; !ok {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     "sources." + key,
				Message:  fmt.Sprintf("unknown source key %q; it will be ignored by the pipeline", key),
			})
		}
		if strings.TrimSpace(sc.Location) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "sources." + key + ".location",
				Message:  "source requires a non-empty location",
			})
		}
		if sc.InsecureTLS && !strings.HasPrefix(sc.Location, "https://") {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     "sources." + key + ".insecure_tls",
				Message:  "insecure_tls has no effect on non-https locations",
			})
		}
	}
	return issues
}

func validateParserOverrides(overrides map[string]Options) []Issue {
	var issues []Issue
	for key, opt := range overrides {
		if _, ok := knownSourceKeys[key]; !ok {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     "parser." + key,
				Message:  fmt.Sprintf("parser override for unknown source key %q", key),
			})
		}
		if comma := opt.String("comma", ","); len([]rune(comma)) != 1 {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "parser." + key + ".comma",
				Message:  "comma must be a single character",
			})
		}
		if n := opt.Int("expected_fields", 0); n < 0 {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "parser." + key + ".expected_fields",
				Message:  "expected_fields must not be negative",
			})
		}
	}
	return issues
}

func validateRules(r RulesConfig) []Issue {
	var issues []Issue
	if r.SwapThreshold < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "rules.swap_threshold",
			Message:  "swap_threshold must not be negative",
		})
	}
	if r.MismatchTolerance < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "rules.mismatch_tolerance",
			Message:  "mismatch_tolerance must not be negative",
		})
	}
	if r.GhostThreshold < 0 || r.GhostThreshold > 100 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "rules.ghost_threshold",
			Message:  "ghost_threshold must be a percentage between 0 and 100",
		})
	}
	if r.SyncPhysicalPct < 0 || r.SyncPhysicalPct > 100 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "rules.sync_physical_pct",
			Message:  "sync_physical_pct must be a percentage between 0 and 100",
		})
	}
	for i, s := range r.CanonicalStates {
		if strings.TrimSpace(s) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     fmt.Sprintf("rules.canonical_states[%d]", i),
				Message:  "canonical state names must not be blank",
			})
		}
	}
	return issues
}

func validateStorage(s Storage) []Issue {
	var issues []Issue
	if strings.TrimSpace(s.Kind) == "" {
		// No persistence requested; nothing to check.
		return issues
	}
	if _, ok := knownStorageKinds[s.Kind]; !ok {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.kind",
			Message:  fmt.Sprintf("unknown storage kind %q", s.Kind),
		})
	}
	if strings.TrimSpace(s.DB.DSN) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.db.dsn",
			Message:  "storage requires a dsn (or leave storage.kind empty to skip persistence)",
		})
	}
	return issues
}

func validateRuntime(r RuntimeConfig) []Issue {
	var issues []Issue
	if r.FetchWorkers < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.fetch_workers",
			Message:  "fetch_workers must not be negative",
		})
	}
	if r.BatchSize < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.batch_size",
			Message:  "batch_size must not be negative",
		})
	}
	return issues
}
