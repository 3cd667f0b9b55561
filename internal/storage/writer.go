// This file implements the bridge between the in-memory reconciliation
// result and the Repository contract: flattening domain records into
// column-aligned rows on save, and coercing driver values back on load.
package storage

import (
	"context"

	"github.com/shiv0924/jjm-platform/internal/ddl"
	"github.com/shiv0924/jjm-platform/internal/domain"
	apperr "github.com/shiv0924/jjm-platform/internal/errors"
)

// EmptyMessage is returned in the envelope when a load finds no rows.
const EmptyMessage = "No data in database."

// Written reports how many rows each table accepted during a save.
type Written struct {
	Schemes   int64
	Districts int64
	Master    int64
	Anomalies int64
}

// Total returns the row count across all four tables.
func (w Written) Total() int64 {
	return w.Schemes + w.Districts + w.Master + w.Anomalies
}

// SaveResult persists a reconciliation result into the four output tables.
// Scheme, district and master rows are upserted by key so repeated runs
// against the same database converge; anomalies are replaced wholesale since
// they are the output of a run, not a keyed entity. batchSize caps rows per
// bulk call (<= 0 writes each table in one call).
//
// Errors wrap ErrPersistenceFailure. The in-memory result is never modified,
// so a failed save can be retried or the envelope still rendered.
func SaveResult(ctx context.Context, repo Repository, tablePrefix string, batchSize int, res domain.Result) (Written, error) {
	var w Written

	schemeRows := make([][]any, 0, len(res.Schemes))
	for _, s := range res.Schemes {
		schemeRows = append(schemeRows, schemeValues(s))
	}
	n, err := upsertBatched(ctx, repo, SchemesTable(tablePrefix), schemeRows, batchSize)
	w.Schemes = n
	if err != nil {
		return w, err
	}

	districtRows := make([][]any, 0, len(res.Districts))
	for _, d := range res.Districts {
		districtRows = append(districtRows, districtValues(d))
	}
	n, err = upsertBatched(ctx, repo, DistrictsTable(tablePrefix), districtRows, batchSize)
	w.Districts = n
	if err != nil {
		return w, err
	}

	masterRows := make([][]any, 0, len(res.Master))
	for _, m := range res.Master {
		masterRows = append(masterRows, masterValues(m))
	}
	n, err = upsertBatched(ctx, repo, MasterTable(tablePrefix), masterRows, batchSize)
	w.Master = n
	if err != nil {
		return w, err
	}

	anomalyRows := make([][]any, 0, len(res.Anomalies))
	for _, a := range res.Anomalies {
		anomalyRows = append(anomalyRows, anomalyValues(a))
	}
	anomalies := AnomaliesTable(tablePrefix)
	n, err = repo.ReplaceAll(ctx, anomalies.Name, anomalies.ColumnNames(), anomalyRows)
	w.Anomalies = n
	if err != nil {
		return w, apperr.NewStorageError("replace", anomalies.Name, err)
	}
	return w, nil
}

func upsertBatched(ctx context.Context, repo Repository, def ddl.TableDef, rows [][]any, batchSize int) (int64, error) {
	if batchSize <= 0 || batchSize >= len(rows) {
		n, err := repo.BulkUpsert(ctx, def.Name, def.ColumnNames(), def.KeyColumns(), rows)
		if err != nil {
			return n, apperr.NewStorageError("upsert", def.Name, err)
		}
		return n, nil
	}
	var total int64
	for start := 0; start < len(rows); start += batchSize {
		end := start + batchSize
		if end > len(rows) {
			end = len(rows)
		}
		n, err := repo.BulkUpsert(ctx, def.Name, def.ColumnNames(), def.KeyColumns(), rows[start:end])
		total += n
		if err != nil {
			return total, apperr.NewStorageError("upsert", def.Name, err)
		}
	}
	return total, nil
}

// LoadResult reads the four output tables back into a Result envelope.
//
// A failure or zero rows on the scheme table yields the empty envelope
// (status "empty"): absent tables surface as query errors on every backend
// and a database that was never written to is not an error condition.
// Failures on the remaining tables after schemes loaded are real storage
// errors and wrap ErrPersistenceFailure.
func LoadResult(ctx context.Context, repo Repository, tablePrefix string) (domain.Result, error) {
	schemes := SchemesTable(tablePrefix)
	rows, err := repo.QueryRows(ctx, schemes.Name, schemes.ColumnNames())
	if err != nil || len(rows) == 0 {
		return domain.Result{
			Status:    domain.StatusEmpty,
			Message:   EmptyMessage,
			Anomalies: []domain.Anomaly{},
			Schemes:   []domain.UnifiedScheme{},
			Districts: []domain.DistrictRecord{},
			Master:    []domain.MasterRecord{},
		}, nil
	}

	res := domain.Result{
		Status:    domain.StatusSuccess,
		Anomalies: []domain.Anomaly{},
		Schemes:   make([]domain.UnifiedScheme, 0, len(rows)),
		Districts: []domain.DistrictRecord{},
		Master:    []domain.MasterRecord{},
	}
	for _, row := range rows {
		s, err := schemeFromRow(row)
		if err != nil {
			return domain.Result{}, apperr.NewStorageError("query", schemes.Name, err)
		}
		res.Schemes = append(res.Schemes, s)
	}

	districts := DistrictsTable(tablePrefix)
	rows, err = repo.QueryRows(ctx, districts.Name, districts.ColumnNames())
	if err != nil {
		return domain.Result{}, apperr.NewStorageError("query", districts.Name, err)
	}
	for _, row := range rows {
		d, err := districtFromRow(row)
		if err != nil {
			return domain.Result{}, apperr.NewStorageError("query", districts.Name, err)
		}
		res.Districts = append(res.Districts, d)
	}

	master := MasterTable(tablePrefix)
	rows, err = repo.QueryRows(ctx, master.Name, master.ColumnNames())
	if err != nil {
		return domain.Result{}, apperr.NewStorageError("query", master.Name, err)
	}
	for _, row := range rows {
		m, err := masterFromRow(row)
		if err != nil {
			return domain.Result{}, apperr.NewStorageError("query", master.Name, err)
		}
		res.Master = append(res.Master, m)
	}

	anomalies := AnomaliesTable(tablePrefix)
	rows, err = repo.QueryRows(ctx, anomalies.Name, anomalies.ColumnNames())
	if err != nil {
		return domain.Result{}, apperr.NewStorageError("query", anomalies.Name, err)
	}
	for _, row := range rows {
		a, err := anomalyFromRow(row)
		if err != nil {
			return domain.Result{}, apperr.NewStorageError("query", anomalies.Name, err)
		}
		res.Anomalies = append(res.Anomalies, a)
	}
	return res, nil
}
