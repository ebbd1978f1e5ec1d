package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/gridfin/minigrid-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY,
	scenario     TEXT NOT NULL,
	site_count   INTEGER NOT NULL,
	viable_count INTEGER NOT NULL,
	created_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS run_results (
	run_id           TEXT NOT NULL REFERENCES runs(id),
	site_id          TEXT NOT NULL,
	name             TEXT NOT NULL,
	viability_score  REAL NOT NULL,
	rank             INTEGER NOT NULL,
	tier             TEXT NOT NULL,
	pv_kw            REAL NOT NULL,
	battery_kwh      REAL NOT NULL,
	capex            REAL NOT NULL,
	npv              REAL NOT NULL,
	irr              REAL NOT NULL,
	payback_year     INTEGER NOT NULL,
	payback_achieved INTEGER NOT NULL,
	avg_dscr         REAL,
	irr_pass         INTEGER NOT NULL,
	dscr_pass        INTEGER NOT NULL,
	PRIMARY KEY (run_id, site_id)
);

CREATE INDEX IF NOT EXISTS idx_run_results_run_id ON run_results(run_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveRun(ctx context.Context, scenario string, rows []model.PipelineRow) (*Run, error) {
	run := &Run{
		ID:          uuid.New().String(),
		Scenario:    scenario,
		SiteCount:   len(rows),
		ViableCount: viable(rows),
		CreatedAt:   time.Now().UTC(),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, scenario, site_count, viable_count, created_at) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.Scenario, run.SiteCount, run.ViableCount, run.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	for _, r := range rows {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO run_results (
				run_id, site_id, name, viability_score, rank, tier,
				pv_kw, battery_kwh, capex, npv, irr,
				payback_year, payback_achieved, avg_dscr, irr_pass, dscr_pass
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID, r.SiteID, r.Name, r.ViabilityScore, r.Rank, string(r.Tier),
			r.PVCapacityKW, r.BatteryKWh, r.CAPEX, r.NPV, r.IRR,
			r.PaybackYear, r.PaybackAchieved, nullableDSCR(r.AvgDSCR), r.IRRPass, r.DSCRPass,
		)
		if err != nil {
			return nil, eris.Wrapf(err, "sqlite: insert result for site %s", r.SiteID)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "sqlite: commit")
	}
	return run, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, scenario, site_count, viable_count, created_at FROM runs ORDER BY created_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close() //nolint:errcheck

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Scenario, &r.SiteCount, &r.ViableCount, &r.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: iterate runs")
}

func (s *SQLiteStore) GetRunResults(ctx context.Context, runID string) ([]model.PipelineRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT site_id, name, viability_score, rank, tier,
			pv_kw, battery_kwh, capex, npv, irr,
			payback_year, payback_achieved, avg_dscr, irr_pass, dscr_pass
		FROM run_results WHERE run_id = ? ORDER BY rank`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get results for run %s", runID)
	}
	defer rows.Close() //nolint:errcheck

	var results []model.PipelineRow
	for rows.Next() {
		r, err := scanPipelineRow(rows.Scan)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan result")
		}
		results = append(results, r)
	}
	return results, eris.Wrap(rows.Err(), "sqlite: iterate results")
}

// scanPipelineRow scans one run_results row via the given Scan function,
// shared by the SQLite and Postgres stores.
func scanPipelineRow(scan func(...any) error) (model.PipelineRow, error) {
	var r model.PipelineRow
	var tier string
	var dscr sql.NullFloat64
	err := scan(
		&r.SiteID, &r.Name, &r.ViabilityScore, &r.Rank, &tier,
		&r.PVCapacityKW, &r.BatteryKWh, &r.CAPEX, &r.NPV, &r.IRR,
		&r.PaybackYear, &r.PaybackAchieved, &dscr, &r.IRRPass, &r.DSCRPass,
	)
	if err != nil {
		return r, err
	}
	r.Tier = model.Tier(tier)
	if dscr.Valid {
		v := dscr.Float64
		r.AvgDSCR = &v
	}
	return r, nil
}

// nullableDSCR maps an undefined DSCR to SQL NULL.
func nullableDSCR(dscr *float64) any {
	if dscr == nil {
		return nil
	}
	return *dscr
}
