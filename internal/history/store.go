// Package history persists headline KPI values per refresh date in Postgres
// so trend series can be drawn from real observations instead of a ramp.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/lib/pq"

	"github.com/trialscope/trialscope/pkg/snapshot"
)

// Store reads and writes the kpi_history table.
type Store struct {
	db *sql.DB
}

// NewStore wraps an open database. The schema is expected to be migrated.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Append records one value per series for the given date. A second append
// for the same date overwrites the earlier values.
func (s *Store) Append(ctx context.Context, date string, values map[string]float64) error {
	if len(values) == 0 {
		return nil
	}
	day, err := time.Parse(snapshot.DateLayout, date)
	if err != nil {
		return fmt.Errorf("parse history date %q: %w", date, err)
	}
	names, vals := columns(values)

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO kpi_history (recorded_on, series, value)
		 SELECT $1::date, t.series, t.value
		 FROM unnest($2::text[], $3::float8[]) AS t(series, value)
		 ON CONFLICT (recorded_on, series) DO UPDATE
		   SET value = EXCLUDED.value, recorded_at = now()`,
		day, pq.Array(names), pq.Array(vals),
	)
	if err != nil {
		return fmt.Errorf("append kpi history for %s: %w", date, err)
	}
	return nil
}

// Recent returns up to n of the newest points for every series, oldest
// first within each series.
func (s *Store) Recent(ctx context.Context, n int) (map[string][]snapshot.Point, error) {
	if n <= 0 {
		return map[string][]snapshot.Point{}, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT series, recorded_on, value FROM (
		   SELECT series, recorded_on, value,
		          row_number() OVER (PARTITION BY series ORDER BY recorded_on DESC) AS rn
		   FROM kpi_history
		 ) h
		 WHERE rn <= $1
		 ORDER BY series, recorded_on`,
		n,
	)
	if err != nil {
		return nil, fmt.Errorf("query kpi history: %w", err)
	}
	defer rows.Close()

	var recs []record
	for rows.Next() {
		var r record
		if err := rows.Scan(&r.Series, &r.Day, &r.Value); err != nil {
			return nil, fmt.Errorf("scan kpi history: %w", err)
		}
		recs = append(recs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate kpi history: %w", err)
	}
	return group(recs), nil
}

// Prune deletes rows recorded before the cutoff date and reports how many
// were removed.
func (s *Store) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM kpi_history WHERE recorded_on < $1::date`,
		before.UTC().Truncate(24*time.Hour),
	)
	if err != nil {
		return 0, fmt.Errorf("prune kpi history: %w", err)
	}
	return res.RowsAffected()
}

type record struct {
	Series string
	Day    time.Time
	Value  float64
}

// columns splits values into parallel arrays ordered by series name.
func columns(values map[string]float64) ([]string, []float64) {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	vals := make([]float64, len(names))
	for i, name := range names {
		vals[i] = values[name]
	}
	return names, vals
}

func group(recs []record) map[string][]snapshot.Point {
	out := make(map[string][]snapshot.Point)
	for _, r := range recs {
		out[r.Series] = append(out[r.Series], snapshot.Point{
			Date:  r.Day.UTC().Format(snapshot.DateLayout),
			Value: r.Value,
		})
	}
	for _, pts := range out {
		sort.SliceStable(pts, func(i, j int) bool { return pts[i].Date < pts[j].Date })
	}
	return out
}
