// Package config defines the serializable configuration model for a
// reconciliation run. A job file names the six department dumps, optional
// parser overrides for sources whose exports drift, the output target, and
// an optional database sink.
//
// Design goals:
//
//  1. Stability: changes to this package should be additive and backwards
//     compatible whenever possible.
//  2. Clarity: Go field names mirror the JSON/YAML structure used in job
//     files under configs/jobs/.
//  3. Passivity: the model carries values; defaults are applied where the
//     values are consumed, not here.
package config

import "encoding/json"

// Job describes one reconciliation run. It is the top-level object decoded
// from a job file.
type Job struct {
	// Name identifies the run for logs and metrics labeling.
	Name string `json:"job" yaml:"job"`

	// Sources maps a logical source key (imis_tap, imis_schemes, zp, mjp,
	// gsda, pgrs) to the dump it should be read from. Sources may be left
	// out; the pipeline treats them as absent and fills downstream.
	Sources map[string]SourceConfig `json:"sources" yaml:"sources"`

	// DumpDir, when set, points at a drop directory whose *.csv files are
	// classified by filename into logical sources. Explicit Sources entries
	// win over classified files for the same key.
	DumpDir string `json:"dump_dir" yaml:"dump_dir"`

	// Parser holds per-source parser overrides (delimiter, header renames,
	// expected field count) keyed by logical source. Most jobs never need
	// this; it exists for districts that edit exports by hand.
	Parser map[string]Options `json:"parser" yaml:"parser"`

	// Rules adjusts reconciliation thresholds. Zero values mean defaults.
	Rules RulesConfig `json:"rules" yaml:"rules"`

	// Output controls where the unified envelope is written.
	Output OutputConfig `json:"output" yaml:"output"`

	// Storage optionally persists the reconciled tables to a database.
	Storage Storage `json:"storage" yaml:"storage"`

	// Runtime controls ingestion parallelism and storage batching.
	Runtime RuntimeConfig `json:"runtime" yaml:"runtime"`
}

// SourceConfig locates one department dump.
type SourceConfig struct {
	// Location is a local path, a file:// URL, or an http(s):// URL.
	Location string `json:"location" yaml:"location"`

	// InsecureTLS skips certificate verification for https locations.
	InsecureTLS bool `json:"insecure_tls" yaml:"insecure_tls"`
}

// RulesConfig overrides the reconciliation rule constants. All fields are
// optional; zero values fall back to the built-in defaults.
type RulesConfig struct {
	// CanonicalStates is the approved list of state names. Names outside the
	// list are flagged, not rejected.
	CanonicalStates []string `json:"canonical_states" yaml:"canonical_states"`

	// SwapThreshold is the lakhs/actuals magnitude boundary used to detect
	// swapped financial columns.
	SwapThreshold float64 `json:"swap_threshold" yaml:"swap_threshold"`

	// MismatchTolerance is the absolute stated-vs-corrected difference above
	// which a corrected financial row is flagged.
	MismatchTolerance float64 `json:"mismatch_tolerance" yaml:"mismatch_tolerance"`

	// GhostThreshold is the financial progress percentage above which a
	// scheme with zero physical progress is flagged.
	GhostThreshold float64 `json:"ghost_threshold" yaml:"ghost_threshold"`

	// SyncPhysicalPct is the physical progress percentage at or below which
	// a "Completed" master status is treated as conflicting with district
	// reporting.
	SyncPhysicalPct float64 `json:"sync_physical_pct" yaml:"sync_physical_pct"`
}

// OutputConfig controls envelope rendering.
type OutputConfig struct {
	// Path is where the unified JSON envelope is written. Empty means stdout.
	Path string `json:"path" yaml:"path"`

	// Pretty toggles indented JSON.
	Pretty bool `json:"pretty" yaml:"pretty"`
}

// Storage selects the sink used to persist reconciled tables.
type Storage struct {
	// Kind selects the backend: "postgres", "sqlite", "mssql", or "mysql".
	// Empty means no database persistence.
	Kind string `json:"kind" yaml:"kind"`

	// DB carries connection options shared by all backends.
	DB DBConfig `json:"db" yaml:"db"`
}

// DBConfig configures the database sink.
type DBConfig struct {
	// DSN is the backend-specific connection string.
	DSN string `json:"dsn" yaml:"dsn"`

	// TablePrefix is prepended to the fixed table names (table_schemes,
	// table_districts, table_master, table_anomalies). Postgres deployments
	// typically set "public.".
	TablePrefix string `json:"table_prefix" yaml:"table_prefix"`

	// AutoCreateTable creates missing tables on first write.
	AutoCreateTable bool `json:"auto_create_table" yaml:"auto_create_table"`
}

// RuntimeConfig controls concurrency and batching.
type RuntimeConfig struct {
	// FetchWorkers caps how many source dumps are ingested concurrently.
	FetchWorkers int `json:"fetch_workers" yaml:"fetch_workers"`

	// BatchSize is the row batch used by database writers.
	BatchSize int `json:"batch_size" yaml:"batch_size"`
}

// Options fetches typed values from free-form maps without a heavier
// configuration layer. It performs minimal coercion and returns the provided
// default when a key is absent or has an unexpected type.
//
// Options backs the per-source parser overrides, whose shape varies by
// parser setting.
type Options map[string]any

// String returns the string value for key or def if key is missing or not a
// string.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Bool returns the bool value for key or def if key is missing or not a bool.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Int returns the int value for key or def. JSON numbers decode as float64
// and YAML integers as int64 or uint64, so all are accepted.
func (o Options) Int(key string, def int) int {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		case int64:
			return int(n)
		case uint64:
			return int(n)
		}
	}
	return def
}

// Rune returns the first rune of a string value for key, or def if key is
// missing or empty. Used for single-character settings such as a delimiter.
func (o Options) Rune(key string, def rune) rune {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok && len(s) > 0 {
			return []rune(s)[0]
		}
	}
	return def
}

// StringMap returns a map[string]string for key when the value is an object
// with string values. Non-string values are ignored. Returns an empty map
// when the key is missing or not an object.
func (o Options) StringMap(key string) map[string]string {
	res := map[string]string{}
	if v, ok := o[key]; ok {
		if m, ok := v.(map[string]any); ok {
			for k, vv := range m {
				if s, ok := vv.(string); ok {
					res[k] = s
				}
			}
		}
	}
	return res
}

// StringSlice returns a []string for key when the value is an array of
// strings. Returns nil when the key is missing or not an array.
func (o Options) StringSlice(key string) []string {
	if v, ok := o[key]; ok {
		switch vv := v.(type) {
		case []any:
			out := make([]string, 0, len(vv))
			for _, x := range vv {
				if s, ok := x.(string); ok {
					out = append(out, s)
				}
			}
			return out
		case []string:
			return vv
		}
	}
	return nil
}

// UnmarshalJSON decodes a missing or null options object to a non-nil empty
// map so call sites never nil-check.
func (o *Options) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	var tmp map[string]any
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}
