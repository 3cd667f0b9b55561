package main

/*
End-to-end tests: the full run over generated department dumps, and the
save/load round trip through a real SQLite database.

The generated dumps carry known defects — every tenth district board row
reports money against zero physical work, financial report rows 5 and 15 ship
with transposed columns, and one scheme is Completed in the master while the
board shows nothing built — so most anomaly counts are fixed by construction.
The seed-dependent ones (backdated grievance tickets, distinct scheme ids)
are derived from the generated rows instead of hard-coded.
*/

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shiv0924/jjm-platform/internal/config"
	"github.com/shiv0924/jjm-platform/internal/domain"
	"github.com/shiv0924/jjm-platform/internal/fixture"
	"github.com/shiv0924/jjm-platform/internal/reconcile"
)

// writeDumps generates the seeded dumps into a temp dir and returns the dir
// plus the in-memory files for deriving expectations.
func writeDumps(tb testing.TB, seed int64) (string, []fixture.File) {
	tb.Helper()
	files := fixture.Generate(fixture.Config{Seed: seed})
	dir := tb.TempDir()
	if err := fixture.WriteDir(dir, files); err != nil {
		tb.Fatalf("write dumps: %v", err)
	}
	return dir, files
}

func fixtureFile(tb testing.TB, files []fixture.File, name string) fixture.File {
	tb.Helper()
	for _, f := range files {
		if f.Name == name {
			return f
		}
	}
	tb.Fatalf("fixture file %s not generated", name)
	return fixture.File{}
}

type expectedCounts struct {
	schemes   int
	districts int
	logical   int
}

// deriveExpected computes the seed-dependent expectations from the generated
// rows: distinct scheme ids and districts across the three scheme-keyed
// sources, and the number of grievance tickets resolved before they were
// reported.
func deriveExpected(tb testing.TB, files []fixture.File) expectedCounts {
	tb.Helper()

	ids := map[string]bool{}
	districts := map[string]bool{}
	for _, name := range []string{fixture.FileIMISSchemes, fixture.FileZP, fixture.FileMJP} {
		for _, row := range fixtureFile(tb, files, name).Rows {
			ids[row[0]] = true
			districts[row[1]] = true
		}
	}

	logical := 0
	for _, row := range fixtureFile(tb, files, fixture.FilePGRS).Rows {
		reported, err := time.Parse("2006-01-02", row[3])
		if err != nil {
			tb.Fatalf("parse reported date %q: %v", row[3], err)
		}
		resolved, err := time.Parse("2006-01-02", row[4])
		if err != nil {
			tb.Fatalf("parse resolved date %q: %v", row[4], err)
		}
		if resolved.Before(reported) {
			logical++
		}
	}
	return expectedCounts{schemes: len(ids), districts: len(districts), logical: logical}
}

func readEnvelope(tb testing.TB, path string) domain.Result {
	tb.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		tb.Fatalf("read envelope: %v", err)
	}
	var res domain.Result
	if err := json.Unmarshal(b, &res); err != nil {
		tb.Fatalf("unmarshal envelope: %v", err)
	}
	return res
}

// openSQL opens a raw *sql.DB to the same DSN so we can verify inserted rows.
// The sqlite adapter blank-import ensures the driver is available.
func openSQL(tb testing.TB, dsn string) *sql.DB {
	tb.Helper()
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		tb.Fatalf("sql open: %v", err)
	}
	tb.Cleanup(func() { _ = db.Close() })
	return db
}

func TestRunJob_E2E_Dumps(t *testing.T) {
	t.Parallel()

	dir, files := writeDumps(t, 20240101)
	want := deriveExpected(t, files)

	out := filepath.Join(t.TempDir(), "envelope.json")
	job := config.Job{
		Name:    "e2e",
		DumpDir: dir,
		Output:  config.OutputConfig{Pretty: true},
	}
	if err := runJob(context.Background(), job, runOptions{OutPath: out}); err != nil {
		t.Fatalf("runJob: %v", err)
	}

	res := readEnvelope(t, out)
	if res.Status != domain.StatusSuccess {
		t.Fatalf("status = %q, want success", res.Status)
	}
	if len(res.Schemes) != want.schemes {
		t.Errorf("schemes = %d, want %d", len(res.Schemes), want.schemes)
	}
	if len(res.Master) != len(res.Schemes) {
		t.Errorf("master rows = %d, want one per scheme (%d)", len(res.Master), len(res.Schemes))
	}
	if len(res.Districts) != want.districts {
		t.Errorf("districts = %d, want %d", len(res.Districts), want.districts)
	}

	counts := map[domain.IssueType]int{}
	for _, a := range res.Anomalies {
		counts[a.IssueType]++
	}
	// 50 board rows, every tenth a ghost.
	if counts[domain.IssueGhostAsset] != 5 {
		t.Errorf("ghost assets = %d, want 5", counts[domain.IssueGhostAsset])
	}
	// Transposed financial rows 5 and 15.
	if counts[domain.IssueColumnMismatch] != 2 {
		t.Errorf("column mismatches = %d, want 2", counts[domain.IssueColumnMismatch])
	}
	if counts[domain.IssueSyncConflict] != 1 {
		t.Errorf("sync conflicts = %d, want 1", counts[domain.IssueSyncConflict])
	}
	// Both lab states use approved spellings; the abbreviated label lives in
	// the tap tracker, which the naming check does not cover.
	if counts[domain.IssueNamingConvention] != 0 {
		t.Errorf("naming anomalies = %d, want 0", counts[domain.IssueNamingConvention])
	}
	if counts[domain.IssueLogicalDataError] != want.logical {
		t.Errorf("logical errors = %d, want %d", counts[domain.IssueLogicalDataError], want.logical)
	}

	var conflict *domain.MasterRecord
	for i := range res.Master {
		if res.Master[i].SchemeID == fixture.ConflictSchemeID {
			conflict = &res.Master[i]
			break
		}
	}
	if conflict == nil {
		t.Fatalf("seeded conflict scheme %s missing from master view", fixture.ConflictSchemeID)
	}
	if conflict.UnifiedStatus != reconcile.StatusDataConflict {
		t.Errorf("conflict UnifiedStatus = %q, want %q", conflict.UnifiedStatus, reconcile.StatusDataConflict)
	}
	if conflict.District != fixture.ConflictDistrict {
		t.Errorf("conflict district = %q, want %q", conflict.District, fixture.ConflictDistrict)
	}
}

func TestRunJob_E2E_SQLiteRoundTrip(t *testing.T) {
	t.Parallel()

	dir, files := writeDumps(t, 7)
	want := deriveExpected(t, files)

	// Use a file: URI with mode=rwc so multiple handles see the same DB
	// reliably.
	dbPath := filepath.Join(t.TempDir(), "e2e.sqlite")
	dsn := "file:" + url.PathEscape(dbPath) + "?mode=rwc"

	job := config.Job{
		Name:    "roundtrip",
		DumpDir: dir,
		Storage: config.Storage{
			Kind: "sqlite",
			DB:   config.DBConfig{DSN: dsn, AutoCreateTable: true},
		},
		// Small batch so the save spans several bulk calls.
		Runtime: config.RuntimeConfig{BatchSize: 16},
	}

	saveOut := filepath.Join(t.TempDir(), "save.json")
	if err := runJob(context.Background(), job, runOptions{OutPath: saveOut, Save: true}); err != nil {
		t.Fatalf("save run: %v", err)
	}
	saved := readEnvelope(t, saveOut)
	if len(saved.Schemes) != want.schemes {
		t.Fatalf("saved schemes = %d, want %d", len(saved.Schemes), want.schemes)
	}

	db := openSQL(t, dsn)
	var got int
	if err := db.QueryRow(`SELECT COUNT(*) FROM table_schemes`).Scan(&got); err != nil {
		t.Fatalf("verify count: %v", err)
	}
	if got != want.schemes {
		t.Fatalf("persisted scheme rows = %d, want %d", got, want.schemes)
	}

	loadOut := filepath.Join(t.TempDir(), "load.json")
	if err := runJob(context.Background(), job, runOptions{OutPath: loadOut, Load: true}); err != nil {
		t.Fatalf("load run: %v", err)
	}
	loaded := readEnvelope(t, loadOut)

	if loaded.Status != domain.StatusSuccess {
		t.Fatalf("loaded status = %q, want success", loaded.Status)
	}
	if len(loaded.Schemes) != len(saved.Schemes) ||
		len(loaded.Districts) != len(saved.Districts) ||
		len(loaded.Master) != len(saved.Master) ||
		len(loaded.Anomalies) != len(saved.Anomalies) {
		t.Fatalf("loaded table sizes %d/%d/%d/%d, saved %d/%d/%d/%d",
			len(loaded.Schemes), len(loaded.Districts), len(loaded.Master), len(loaded.Anomalies),
			len(saved.Schemes), len(saved.Districts), len(saved.Master), len(saved.Anomalies))
	}

	// Row order through the database is not guaranteed; check the seeded
	// conflict scheme round-trips intact instead of comparing slices.
	find := func(schemes []domain.UnifiedScheme) *domain.UnifiedScheme {
		for i := range schemes {
			if schemes[i].SchemeID == fixture.ConflictSchemeID {
				return &schemes[i]
			}
		}
		return nil
	}
	before, after := find(saved.Schemes), find(loaded.Schemes)
	if before == nil || after == nil {
		t.Fatalf("conflict scheme missing: saved=%v loaded=%v", before != nil, after != nil)
	}
	if *before != *after {
		t.Errorf("conflict scheme changed across round trip:\nsaved:  %+v\nloaded: %+v", *before, *after)
	}
}
