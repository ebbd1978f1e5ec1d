// Package store persists analysis runs and their pipeline results.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/gridfin/minigrid-cli/internal/config"
	"github.com/gridfin/minigrid-cli/internal/model"
)

// Run is one persisted analysis run.
type Run struct {
	ID          string    `json:"id"`
	Scenario    string    `json:"scenario"`
	SiteCount   int       `json:"site_count"`
	ViableCount int       `json:"viable_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store defines the persistence interface for analysis runs.
type Store interface {
	SaveRun(ctx context.Context, scenario string, rows []model.PipelineRow) (*Run, error)
	ListRuns(ctx context.Context, limit int) ([]Run, error)
	GetRunResults(ctx context.Context, runID string) ([]model.PipelineRow, error)

	Migrate(ctx context.Context) error
	Close() error
}

// New creates a Store for the configured driver.
func New(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "sqlite":
		return NewSQLite(cfg.Path)
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL)
	default:
		return nil, eris.Errorf("store: unsupported driver %q", cfg.Driver)
	}
}

// viable counts rows passing both the IRR and DSCR checks.
func viable(rows []model.PipelineRow) int {
	var n int
	for _, r := range rows {
		if r.IRRPass && r.DSCRPass {
			n++
		}
	}
	return n
}
