// internal/config/config_test.go
//
// Tests for job decoding (JSON and YAML), the Options helper, and the
// static validator.

package config

import (
	"os"
	"path/filepath"
	"testing"
)

const jobJSON = `{
  "job": "maharashtra_weekly",
  "sources": {
    "imis_schemes": {"location": "dumps/imis_scheme_master.csv"},
    "zp":           {"location": "dumps/zp_district_progress.csv"},
    "mjp":          {"location": "https://portal.example/mjp.csv", "insecure_tls": true}
  },
  "parser": {
    "zp": {"comma": ";", "expected_fields": 5, "header_map": {"Scheme Code": "Scheme_ID"}}
  },
  "rules": {"canonical_states": ["Maharashtra"], "swap_threshold": 1000, "mismatch_tolerance": 1.5},
  "output": {"path": "out/unified.json", "pretty": true},
  "storage": {"kind": "sqlite", "db": {"dsn": "file:jjm.db", "auto_create_table": true}},
  "runtime": {"fetch_workers": 4, "batch_size": 500}
}`

const jobYAML = `job: maharashtra_weekly
sources:
  imis_schemes:
    location: dumps/imis_scheme_master.csv
  zp:
    location: dumps/zp_district_progress.csv
parser:
  zp:
    comma: ";"
    expected_fields: 5
output:
  path: out/unified.json
runtime:
  fetch_workers: 4
`

func TestLoad_JSONAndYAML(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "job.json")
	if err := os.WriteFile(jsonPath, []byte(jobJSON), 0o644); err != nil {
		t.Fatalf("write json job: %v", err)
	}
	yamlPath := filepath.Join(dir, "job.yaml")
	if err := os.WriteFile(yamlPath, []byte(jobYAML), 0o644); err != nil {
		t.Fatalf("write yaml job: %v", err)
	}

	for _, path := range []string{jsonPath, yamlPath} {
		j, err := Load(path)
		if err != nil {
			t.Fatalf("Load(%s): %v", path, err)
		}
		if j.Name != "maharashtra_weekly" {
			t.Fatalf("%s: job name = %q", path, j.Name)
		}
		if j.Sources["zp"].Location != "dumps/zp_district_progress.csv" {
			t.Fatalf("%s: zp location = %q", path, j.Sources["zp"].Location)
		}
		if got := j.Parser["zp"].Rune("comma", ','); got != ';' {
			t.Fatalf("%s: zp comma override = %q", path, got)
		}
		if got := j.Parser["zp"].Int("expected_fields", 0); got != 5 {
			t.Fatalf("%s: zp expected_fields = %d", path, got)
		}
		if j.Runtime.FetchWorkers != 4 {
			t.Fatalf("%s: fetch_workers = %d", path, j.Runtime.FetchWorkers)
		}
	}
}

func TestLoad_JSONSpecifics(t *testing.T) {
	t.Parallel()

	j, err := FromJSON([]byte(jobJSON))
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	if !j.Sources["mjp"].InsecureTLS {
		t.Fatalf("mjp insecure_tls not carried")
	}
	if got := j.Parser["zp"].StringMap("header_map")["Scheme Code"]; got != "Scheme_ID" {
		t.Fatalf("header_map override = %q", got)
	}
	if len(j.Rules.CanonicalStates) != 1 || j.Rules.CanonicalStates[0] != "Maharashtra" {
		t.Fatalf("canonical_states = %v", j.Rules.CanonicalStates)
	}
	if j.Rules.MismatchTolerance != 1.5 {
		t.Fatalf("mismatch_tolerance = %v", j.Rules.MismatchTolerance)
	}
	if j.Storage.Kind != "sqlite" || !j.Storage.DB.AutoCreateTable {
		t.Fatalf("storage = %+v", j.Storage)
	}
	if !j.Output.Pretty || j.Output.Path != "out/unified.json" {
		t.Fatalf("output = %+v", j.Output)
	}
}

func TestOptions_TypedAccess(t *testing.T) {
	t.Parallel()

	o := Options{
		"comma":      ";",
		"trim":       true,
		"fields":     float64(7), // as encoding/json decodes numbers
		"fields_y":   int64(7),   // as YAML decodes integers
		"fields_u":   uint64(7),
		"names":      []any{"a", "b", 3},
		"header_map": map[string]any{"A": "a", "skip": 1},
	}

	if got := o.String("comma", ","); got != ";" {
		t.Fatalf("String = %q", got)
	}
	if got := o.String("absent", "def"); got != "def" {
		t.Fatalf("String default = %q", got)
	}
	if !o.Bool("trim", false) {
		t.Fatalf("Bool failed")
	}
	for _, key := range []string{"fields", "fields_y", "fields_u"} {
		if got := o.Int(key, 0); got != 7 {
			t.Fatalf("Int(%q) = %d", key, got)
		}
	}
	if got := o.Rune("comma", ','); got != ';' {
		t.Fatalf("Rune = %q", got)
	}
	if got := o.StringSlice("names"); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("StringSlice = %v", got)
	}
	m := o.StringMap("header_map")
	if m["A"] != "a" {
		t.Fatalf("StringMap = %v", m)
	}
	if _, ok := m["skip"]; ok {
		t.Fatalf("non-string value should be ignored")
	}
}

func TestOptions_NullDecodesEmpty(t *testing.T) {
	t.Parallel()

	j, err := FromJSON([]byte(`{"job":"x","sources":{"zp":{"location":"a.csv"}},"parser":{"zp":null}}`))
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	if j.Parser["zp"] == nil {
		t.Fatalf("null options should decode to an empty map")
	}
	if got := j.Parser["zp"].String("comma", ","); got != "," {
		t.Fatalf("default lookup on empty options = %q", got)
	}
}

func TestValidateJob(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		job       Job
		wantPaths map[string]IssueSeverity
	}{
		{
			name: "valid job has no issues",
			job: Job{
				Name: "weekly",
				Sources: map[string]SourceConfig{
					"imis_schemes": {Location: "a.csv"},
				},
			},
			wantPaths: map[string]IssueSeverity{},
		},
		{
			name: "empty name and no sources",
			job:  Job{},
			wantPaths: map[string]IssueSeverity{
				"job":     SeverityError,
				"sources": SeverityError,
			},
		},
		{
			name: "unknown source key warns, blank location errors",
			job: Job{
				Name: "weekly",
				Sources: map[string]SourceConfig{
					"swachh": {Location: "x.csv"},
					"zp":     {},
				},
			},
			wantPaths: map[string]IssueSeverity{
				"sources.swachh":      SeverityWarning,
				"sources.zp.location": SeverityError,
			},
		},
		{
			name: "insecure_tls on plain http warns",
			job: Job{
				Name: "weekly",
				Sources: map[string]SourceConfig{
					"mjp": {Location: "http://portal/mjp.csv", InsecureTLS: true},
				},
			},
			wantPaths: map[string]IssueSeverity{
				"sources.mjp.insecure_tls": SeverityWarning,
			},
		},
		{
			name: "storage kind unknown and missing dsn",
			job: Job{
				Name:    "weekly",
				DumpDir: "dumps",
				Storage: Storage{Kind: "oracle"},
			},
			wantPaths: map[string]IssueSeverity{
				"storage.kind":   SeverityError,
				"storage.db.dsn": SeverityError,
			},
		},
		{
			name: "rule thresholds out of range",
			job: Job{
				Name:    "weekly",
				DumpDir: "dumps",
				Rules:   RulesConfig{GhostThreshold: 150, SyncPhysicalPct: -1, MismatchTolerance: -0.5},
			},
			wantPaths: map[string]IssueSeverity{
				"rules.ghost_threshold":    SeverityError,
				"rules.sync_physical_pct":  SeverityError,
				"rules.mismatch_tolerance": SeverityError,
			},
		},
		{
			name: "multi-rune delimiter override",
			job: Job{
				Name:    "weekly",
				DumpDir: "dumps",
				Parser:  map[string]Options{"zp": {"comma": ";;"}},
			},
			wantPaths: map[string]IssueSeverity{
				"parser.zp.comma": SeverityError,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issues := ValidateJob(tt.job)
			got := map[string]IssueSeverity{}
			for _, iss := range issues {
				got[iss.Path] = iss.Severity
			}
			if len(got) != len(tt.wantPaths) {
				t.Fatalf("issues mismatch:\n got  %v\n want %v", issues, tt.wantPaths)
			}
			for path, sev := range tt.wantPaths {
				if got[path] != sev {
					t.Fatalf("missing or wrong severity for %s: got %v, issues %v", path, got[path], issues)
				}
			}
		})
	}
}

func TestIssue_Error(t *testing.T) {
	t.Parallel()

	iss := Issue{Severity: SeverityError, Path: "sources.zp.location", Message: "source requires a non-empty location"}
	want := "error at sources.zp.location: source requires a non-empty location"
	if iss.Error() != want {
		t.Fatalf("Error() = %q, want %q", iss.Error(), want)
	}
}
