package main

/*
container.go wires the run together: ingest → reconcile → envelope, plus the
optional persistence legs. It owns no business logic; every stage lives in an
internal package and is composed here so the pieces stay testable on their
own. Stage boundaries are where metrics and logs are emitted.
*/

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/shiv0924/jjm-platform/internal/config"
	"github.com/shiv0924/jjm-platform/internal/domain"
	"github.com/shiv0924/jjm-platform/internal/ingest"
	"github.com/shiv0924/jjm-platform/internal/logging"
	"github.com/shiv0924/jjm-platform/internal/metrics"
	"github.com/shiv0924/jjm-platform/internal/reconcile"
	"github.com/shiv0924/jjm-platform/internal/storage"
)

// runOptions carries the flag-level mode switches into the run.
type runOptions struct {
	// OutPath overrides the job's output path; "-" forces stdout.
	OutPath string
	// Save persists the reconciled tables to the configured database.
	Save bool
	// Load skips the pipeline and reads the persisted result back instead.
	Load bool
}

// Function variables used to introduce test seams.
// In production these point at the real implementations; tests override them.
var (
	newRepositoryFn = func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		return storage.New(ctx, cfg)
	}

	loadSourcesFn = func(ctx context.Context, job config.Job) (domain.SourceSet, ingest.Report, error) {
		return ingest.NewLoader(job).Load(ctx)
	}

	stdout io.Writer = os.Stdout
)

// runJob executes one reconciliation run end to end. In the default mode it
// ingests the dumps, reconciles them, writes the envelope and, with Save set,
// persists the tables. With Load set it skips the pipeline entirely and
// renders whatever the database holds.
func runJob(ctx context.Context, job config.Job, opt runOptions) error {
	if opt.Load {
		return runLoad(ctx, job, opt)
	}

	start := time.Now()
	set, report, err := loadSourcesFn(ctx, job)
	metrics.RecordStage(job.Name, "ingest", err, time.Since(start))
	if err != nil {
		return fmt.Errorf("ingest: %w", err)
	}
	for _, st := range report.Stats {
		if st.Err != nil {
			logging.Warn().Str("source", st.Key).Err(st.Err).Msg("source skipped")
			continue
		}
		logging.Debug().
			Str("source", st.Key).
			Str("location", st.Location).
			Int("rows", st.Rows).
			Int("skipped_lines", st.SkippedLines).
			Int("dropped_records", st.DroppedRecords).
			Msg("source ingested")
		metrics.RecordRows(job.Name, st.Key, "parsed", int64(st.Rows))
		metrics.RecordRows(job.Name, st.Key, "skipped", int64(st.SkippedLines))
		metrics.RecordRows(job.Name, st.Key, "dropped", int64(st.DroppedRecords))
	}
	for _, name := range report.Unclassified {
		logging.Warn().Str("file", name).Msg("dump matched no known source")
	}

	start = time.Now()
	res, err := reconcile.Run(set, optionsFromRules(job.Rules))
	metrics.RecordStage(job.Name, "reconcile", err, time.Since(start))
	if err != nil {
		return fmt.Errorf("reconcile: %w", err)
	}
	for issueType, n := range countByIssue(res.Anomalies) {
		metrics.RecordAnomalies(job.Name, issueType, n)
	}
	logging.Info().
		Int("schemes", len(res.Schemes)).
		Int("districts", len(res.Districts)).
		Int("master", len(res.Master)).
		Int("anomalies", len(res.Anomalies)).
		Msg("reconciliation complete")

	start = time.Now()
	err = writeEnvelope(res, resolveOutPath(job, opt), job.Output.Pretty)
	metrics.RecordStage(job.Name, "render", err, time.Since(start))
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}

	if opt.Save {
		start = time.Now()
		written, err := persist(ctx, job, res)
		metrics.RecordStage(job.Name, "persist", err, time.Since(start))
		if err != nil {
			return fmt.Errorf("persist: %w", err)
		}
		metrics.RecordRows(job.Name, "db", "persisted", written.Total())
		logging.Info().
			Int64("schemes", written.Schemes).
			Int64("districts", written.Districts).
			Int64("master", written.Master).
			Int64("anomalies", written.Anomalies).
			Msg("tables persisted")
	}
	return nil
}

// runLoad renders the envelope from the database instead of running the
// pipeline. A database that was never written to yields the empty envelope,
// not an error.
func runLoad(ctx context.Context, job config.Job, opt runOptions) error {
	if job.Storage.Kind == "" {
		return fmt.Errorf("load requested but storage.kind is empty")
	}

	repo, err := newRepositoryFn(ctx, storage.Config{Kind: job.Storage.Kind, DSN: job.Storage.DB.DSN})
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}
	defer repo.Close()

	start := time.Now()
	res, err := storage.LoadResult(ctx, repo, job.Storage.DB.TablePrefix)
	metrics.RecordStage(job.Name, "load", err, time.Since(start))
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}
	return writeEnvelope(res, resolveOutPath(job, opt), job.Output.Pretty)
}

// persist opens the configured repository, ensures the tables when the job
// asks for it, and writes the four output tables.
func persist(ctx context.Context, job config.Job, res domain.Result) (storage.Written, error) {
	if job.Storage.Kind == "" {
		return storage.Written{}, fmt.Errorf("save requested but storage.kind is empty")
	}

	repo, err := newRepositoryFn(ctx, storage.Config{Kind: job.Storage.Kind, DSN: job.Storage.DB.DSN})
	if err != nil {
		return storage.Written{}, err
	}
	defer repo.Close()

	prefix := job.Storage.DB.TablePrefix
	if job.Storage.DB.AutoCreateTable {
		if err := storage.EnsureTables(ctx, job.Storage.Kind, repo, prefix); err != nil {
			return storage.Written{}, err
		}
	}
	return storage.SaveResult(ctx, repo, prefix, job.Runtime.BatchSize, res)
}

// optionsFromRules maps the job's rule overrides onto the built-in defaults.
// Zero values keep the default; the canonical state list is replaced only
// when the job names one.
func optionsFromRules(r config.RulesConfig) reconcile.Options {
	opt := reconcile.DefaultOptions()
	if len(r.CanonicalStates) > 0 {
		opt.CanonicalStates = r.CanonicalStates
	}
	if r.SwapThreshold > 0 {
		opt.SwapThreshold = r.SwapThreshold
	}
	if r.MismatchTolerance > 0 {
		opt.MismatchTolerance = r.MismatchTolerance
	}
	if r.GhostThreshold > 0 {
		opt.GhostThreshold = r.GhostThreshold
	}
	if r.SyncPhysicalPct > 0 {
		opt.SyncPhysicalPct = r.SyncPhysicalPct
	}
	return opt
}

func countByIssue(anomalies []domain.Anomaly) map[string]int64 {
	out := make(map[string]int64, 4)
	for _, a := range anomalies {
		out[string(a.IssueType)]++
	}
	return out
}

// resolveOutPath picks the envelope destination: the -out flag wins over the
// job's output path; empty still means stdout.
func resolveOutPath(job config.Job, opt runOptions) string {
	if opt.OutPath != "" {
		return opt.OutPath
	}
	return job.Output.Path
}

// writeEnvelope serializes the result. Path "" or "-" writes to stdout.
func writeEnvelope(res domain.Result, path string, pretty bool) error {
	if path == "" || path == "-" {
		return encodeEnvelope(stdout, res, pretty)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := encodeEnvelope(f, res, pretty); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func encodeEnvelope(w io.Writer, res domain.Result, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	return nil
}
