// Package ingest acquires the department dumps for a run and turns them
// into typed rows.
//
// Acquisition is deliberately forgiving: a portal being down or a district
// shipping a broken export must not sink the whole reconciliation. Each
// source loads independently and concurrently; failures are recorded on the
// run report and the source is treated as absent. The single exception is
// the IMIS scheme master, the spine every join hangs off: without it the
// run aborts.
package ingest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/zeebo/xxh3"
	"golang.org/x/sync/errgroup"

	"github.com/shiv0924/jjm-platform/internal/config"
	"github.com/shiv0924/jjm-platform/internal/datasource"
	"github.com/shiv0924/jjm-platform/internal/datasource/file"
	"github.com/shiv0924/jjm-platform/internal/datasource/httpds"
	"github.com/shiv0924/jjm-platform/internal/domain"
	apperr "github.com/shiv0924/jjm-platform/internal/errors"
	"github.com/shiv0924/jjm-platform/internal/logging"
	csvparser "github.com/shiv0924/jjm-platform/internal/parser/csv"
	"github.com/shiv0924/jjm-platform/internal/schema"
)

// Stat summarizes how one source fared during ingestion.
type Stat struct {
	Key      string
	Location string
	// Rows is the number of typed records decoded.
	Rows int
	// SkippedLines counts parser-level skips (malformed or misaligned CSV).
	SkippedLines int
	// DroppedRecords counts decode-level drops (missing required fields).
	DroppedRecords int
	// Fingerprint is the xxh3 hash of the raw dump bytes, for change
	// detection between runs.
	Fingerprint string
	// Err is set when the source could not be fetched or parsed at all.
	Err error
}

// Report is the ingestion outcome across all resolved sources.
type Report struct {
	// Stats in canonical source order, one per resolved source.
	Stats []Stat
	// Unclassified lists drop-directory files matching no known source.
	Unclassified []string
}

// Stat returns the stat for a logical source key.
func (r Report) Stat(key string) (Stat, bool) {
	for _, s := range r.Stats {
		if s.Key == key {
			return s, true
		}
	}
	return Stat{}, false
}

// Loader acquires and decodes the dumps named by a job.
type Loader struct {
	job     config.Job
	workers int
}

// NewLoader builds a Loader for the job. FetchWorkers defaults to the
// number of known sources, so a default run fetches everything at once.
func NewLoader(job config.Job) *Loader {
	workers := job.Runtime.FetchWorkers
	if workers <= 0 {
		workers = len(domain.SourceKeys)
	}
	return &Loader{job: job, workers: workers}
}

// target is one resolved source location.
type target struct {
	key      string
	location string
	insecure bool
	parser   config.Options
}

// fetched is the raw outcome of one source load.
type fetched struct {
	rows        []csvparser.Row
	parserSkips int
	fingerprint uint64
	err         error
}

// Load fetches every resolved source concurrently, decodes the survivors,
// and returns the typed set. Per-source failures are soft: they land on the
// report and the source counts as absent. A scheme master that is missing,
// unreadable, or decodes to zero rows aborts with an error matching
// errors.ErrMissingCriticalSource.
func (l *Loader) Load(ctx context.Context) (domain.SourceSet, Report, error) {
	var set domain.SourceSet

	targets, unclassified, err := l.resolve()
	if err != nil {
		return set, Report{}, err
	}
	report := Report{Unclassified: unclassified}

	results := make([]fetched, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)
	for i, t := range targets {
		i, t := i, t
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = loadOne(gctx, t)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return set, report, err
	}

	// Decode sequentially in canonical order so logs and stats are stable.
	for i, t := range targets {
		res := results[i]
		stat := Stat{Key: t.key, Location: t.location}
		if res.err != nil {
			stat.Err = res.err
			report.Stats = append(report.Stats, stat)
			logging.Warn().
				Str("source", t.key).
				Str("location", t.location).
				Err(res.err).
				Msg("source unavailable, continuing without it")
			continue
		}

		// Header renames were applied at parse time; decode only needs the
		// field set and layouts.
		contract, _ := schema.ForSource(t.key)
		dropErrs := DecodeInto(&set, t.key, res.rows, contract)

		stat.Rows = len(res.rows) - len(dropErrs)
		stat.SkippedLines = res.parserSkips
		stat.DroppedRecords = len(dropErrs)
		stat.Fingerprint = fmt.Sprintf("%016x", res.fingerprint)
		report.Stats = append(report.Stats, stat)

		agg := newErrAgg(5)
		for _, e := range dropErrs {
			agg.add(e.Error())
		}
		ev := logging.Info().
			Str("source", t.key).
			Int("rows", stat.Rows).
			Int("skipped_lines", stat.SkippedLines).
			Int("dropped_records", stat.DroppedRecords).
			Str("fingerprint", stat.Fingerprint)
		if agg.total() > 0 {
			ev = ev.Strs("drop_sample", agg.sample())
		}
		ev.Msg("source ingested")
	}

	if !set.Has(domain.SourceIMISSchemes) || len(set.Schemes) == 0 {
		return set, report, apperr.NewSourceError(
			domain.SourceIMISSchemes,
			apperr.New("scheme master absent, unreadable, or empty"),
		)
	}
	return set, report, nil
}

// resolve merges drop-directory classification with explicit source
// configuration. Explicit entries win; unknown configured keys are skipped
// (the validator already warned about them).
func (l *Loader) resolve() ([]target, []string, error) {
	byKey := make(map[string]target)
	var unclassified []string

	if dir := strings.TrimSpace(l.job.DumpDir); dir != "" {
		paths, err := file.ListCSV(dir)
		if err != nil {
			return nil, nil, fmt.Errorf("resolve dump dir: %w", err)
		}
		classified, unknown := ClassifyPaths(paths)
		unclassified = unknown
		for key, path := range classified {
			byKey[key] = target{key: key, location: path}
		}
	}

	for key, sc := range l.job.Sources {
		if _, ok := schema.ForSource(key); !ok {
			continue
		}
		byKey[key] = target{key: key, location: sc.Location, insecure: sc.InsecureTLS}
	}

	var targets []target
	for _, key := range domain.SourceKeys {
		t, ok := byKey[key]
		if !ok {
			continue
		}
		t.parser = l.job.Parser[key]
		targets = append(targets, t)
	}
	return targets, unclassified, nil
}

// sourceFor picks the data source implementation for a location.
func sourceFor(t target) datasource.Source {
	switch {
	case strings.HasPrefix(t.location, "http://"), strings.HasPrefix(t.location, "https://"):
		client := httpds.NewClient(httpds.Config{InsecureSkipVerify: t.insecure})
		return httpds.NewRemote(client, t.location, nil)
	case strings.HasPrefix(t.location, "file://"):
		return file.NewLocal(strings.TrimPrefix(t.location, "file://"))
	default:
		return file.NewLocal(t.location)
	}
}

// loadOne fetches and parses a single dump.
func loadOne(ctx context.Context, t target) fetched {
	rc, err := sourceFor(t).Open(ctx)
	if err != nil {
		return fetched{err: apperr.NewSourceError(t.key, err)}
	}
	data, err := io.ReadAll(rc)
	_ = rc.Close()
	if err != nil {
		return fetched{err: apperr.NewSourceError(t.key, err)}
	}

	contract, ok := schema.ForSource(t.key)
	if !ok {
		return fetched{err: apperr.NewSourceError(t.key, fmt.Errorf("no contract registered"))}
	}
	contract = contract.MergeHeaderMap(t.parser.StringMap("header_map"))

	opts := csvparser.Options{
		HasHeader:      t.parser.Bool("has_header", true),
		Comma:          t.parser.Rune("comma", ','),
		TrimSpace:      t.parser.Bool("trim_space", true),
		ExpectedFields: t.parser.Int("expected_fields", len(contract.Fields)),
		HeaderMap:      contract.HeaderMap,
		LazyQuotes:     t.parser.Bool("lazy_quotes", false),
	}
	rows, skipped, err := csvparser.NewParser(opts).Parse(bytes.NewReader(data))
	if err != nil {
		return fetched{err: apperr.NewSourceError(t.key, err)}
	}

	return fetched{
		rows:        rows,
		parserSkips: skipped,
		fingerprint: xxh3.Hash(data),
	}
}
