package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/gridfin/minigrid-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. Tests substitute a mock.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY,
	scenario     TEXT NOT NULL,
	site_count   INTEGER NOT NULL,
	viable_count INTEGER NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS run_results (
	run_id           TEXT NOT NULL REFERENCES runs(id),
	site_id          TEXT NOT NULL,
	name             TEXT NOT NULL,
	viability_score  DOUBLE PRECISION NOT NULL,
	rank             INTEGER NOT NULL,
	tier             TEXT NOT NULL,
	pv_kw            DOUBLE PRECISION NOT NULL,
	battery_kwh      DOUBLE PRECISION NOT NULL,
	capex            DOUBLE PRECISION NOT NULL,
	npv              DOUBLE PRECISION NOT NULL,
	irr              DOUBLE PRECISION NOT NULL,
	payback_year     INTEGER NOT NULL,
	payback_achieved BOOLEAN NOT NULL,
	avg_dscr         DOUBLE PRECISION,
	irr_pass         BOOLEAN NOT NULL,
	dscr_pass        BOOLEAN NOT NULL,
	PRIMARY KEY (run_id, site_id)
);

CREATE INDEX IF NOT EXISTS idx_run_results_run_id ON run_results(run_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) SaveRun(ctx context.Context, scenario string, rows []model.PipelineRow) (*Run, error) {
	run := &Run{
		ID:          uuid.New().String(),
		Scenario:    scenario,
		SiteCount:   len(rows),
		ViableCount: viable(rows),
		CreatedAt:   time.Now().UTC(),
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO runs (id, scenario, site_count, viable_count, created_at) VALUES ($1, $2, $3, $4, $5)`,
		run.ID, run.Scenario, run.SiteCount, run.ViableCount, run.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}

	for _, r := range rows {
		_, err = s.pool.Exec(ctx,
			`INSERT INTO run_results (
				run_id, site_id, name, viability_score, rank, tier,
				pv_kw, battery_kwh, capex, npv, irr,
				payback_year, payback_achieved, avg_dscr, irr_pass, dscr_pass
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
			run.ID, r.SiteID, r.Name, r.ViabilityScore, r.Rank, string(r.Tier),
			r.PVCapacityKW, r.BatteryKWh, r.CAPEX, r.NPV, r.IRR,
			r.PaybackYear, r.PaybackAchieved, nullableDSCR(r.AvgDSCR), r.IRRPass, r.DSCRPass,
		)
		if err != nil {
			return nil, eris.Wrapf(err, "postgres: insert result for site %s", r.SiteID)
		}
	}

	return run, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, scenario, site_count, viable_count, created_at FROM runs ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Scenario, &r.SiteCount, &r.ViableCount, &r.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: iterate runs")
}

func (s *PostgresStore) GetRunResults(ctx context.Context, runID string) ([]model.PipelineRow, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT site_id, name, viability_score, rank, tier,
			pv_kw, battery_kwh, capex, npv, irr,
			payback_year, payback_achieved, avg_dscr, irr_pass, dscr_pass
		FROM run_results WHERE run_id = $1 ORDER BY rank`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get results for run %s", runID)
	}
	defer rows.Close()

	var results []model.PipelineRow
	for rows.Next() {
		r, err := scanPipelineRow(rows.Scan)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan result")
		}
		results = append(results, r)
	}
	return results, eris.Wrap(rows.Err(), "postgres: iterate results")
}
