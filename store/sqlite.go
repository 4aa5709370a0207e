package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/pthm-cable/hexgas/telemetry"
)

// RunRecord summarizes one archived run.
type RunRecord struct {
	ID             int64
	CreatedAt      time.Time
	Seed           uint64
	Size           int
	Betaj          float64
	FillRate       float64
	OrderThreshold float64
	Steps          int
	Reason         string
	FinalEnergy    int
	FinalOrder     float64
	AcceptRate     float64
}

// SweepPoint summarizes one run of an archived sweep.
type SweepPoint struct {
	Index      int
	Value      float64
	Label      string
	Seed       uint64
	Size       int
	Betaj      float64
	FillRate   float64
	Steps      int
	FinalOrder float64
	OrderMean  float64
	OrderStd   float64
	AcceptRate float64
}

// Store is a SQLite archive of runs and sweeps.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // single writer

	if err := InitSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// SaveRun archives a run and its per-timestep samples in one transaction
// and returns the run ID.
func (s *Store) SaveRun(ctx context.Context, rec RunRecord, samples []telemetry.Sample) (int64, error) {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs (
			created_at, seed, size, betaj, fill_rate, order_threshold,
			steps, reason, final_energy, final_order, accept_rate
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.CreatedAt.Format(time.RFC3339), int64(rec.Seed), rec.Size, rec.Betaj, rec.FillRate, rec.OrderThreshold,
		rec.Steps, rec.Reason, rec.FinalEnergy, rec.FinalOrder, rec.AcceptRate)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read run id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO run_samples (run_id, step, energy, order_a, order_b, order_c, order_single)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare sample insert: %w", err)
	}
	defer stmt.Close()

	for _, smp := range samples {
		if _, err := stmt.ExecContext(ctx, id, smp.Step, smp.Energy, smp.OrderA, smp.OrderB, smp.OrderC, smp.Order); err != nil {
			return 0, fmt.Errorf("failed to insert sample %d: %w", smp.Step, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}
	return id, nil
}

// SaveSweep archives the points of a sweep and returns the sweep ID.
func (s *Store) SaveSweep(ctx context.Context, name, kind string, points []SweepPoint) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `INSERT INTO sweeps (created_at, name, kind) VALUES (?, ?, ?)`,
		time.Now().Format(time.RFC3339), name, kind)
	if err != nil {
		return 0, fmt.Errorf("failed to insert sweep: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read sweep id: %w", err)
	}

	for _, p := range points {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO sweep_points (
				sweep_id, idx, value, label, seed, size, betaj, fill_rate, steps,
				final_order, order_mean, order_std, accept_rate
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, id, p.Index, p.Value, p.Label, int64(p.Seed), p.Size, p.Betaj, p.FillRate, p.Steps,
			p.FinalOrder, p.OrderMean, p.OrderStd, p.AcceptRate)
		if err != nil {
			return 0, fmt.Errorf("failed to insert sweep point %d: %w", p.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit sweep: %w", err)
	}
	return id, nil
}

// Runs returns every archived run, oldest first.
func (s *Store) Runs(ctx context.Context) ([]RunRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, seed, size, betaj, fill_rate, order_threshold,
			steps, reason, final_energy, final_order, accept_rate
		FROM runs ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var rec RunRecord
		var createdAt string
		var seed int64
		if err := rows.Scan(&rec.ID, &createdAt, &seed, &rec.Size, &rec.Betaj, &rec.FillRate, &rec.OrderThreshold,
			&rec.Steps, &rec.Reason, &rec.FinalEnergy, &rec.FinalOrder, &rec.AcceptRate); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		rec.Seed = uint64(seed)
		if rec.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, fmt.Errorf("run %d: bad created_at %q: %w", rec.ID, createdAt, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// RunSamples returns the samples of run id in step order.
func (s *Store) RunSamples(ctx context.Context, id int64) ([]telemetry.Sample, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT step, energy, order_a, order_b, order_c, order_single
		FROM run_samples WHERE run_id = ? ORDER BY step
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query samples: %w", err)
	}
	defer rows.Close()

	var out []telemetry.Sample
	for rows.Next() {
		var smp telemetry.Sample
		if err := rows.Scan(&smp.Step, &smp.Energy, &smp.OrderA, &smp.OrderB, &smp.OrderC, &smp.Order); err != nil {
			return nil, fmt.Errorf("failed to scan sample: %w", err)
		}
		out = append(out, smp)
	}
	return out, rows.Err()
}

// SweepPoints returns the points of the most recent sweep with the given
// name in index order, or sql.ErrNoRows if there is none.
func (s *Store) SweepPoints(ctx context.Context, name string) ([]SweepPoint, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM sweeps WHERE name = ? ORDER BY id DESC LIMIT 1`, name).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("sweep %q: %w", name, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT idx, value, label, seed, size, betaj, fill_rate, steps,
			final_order, order_mean, order_std, accept_rate
		FROM sweep_points WHERE sweep_id = ? ORDER BY idx
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query sweep points: %w", err)
	}
	defer rows.Close()

	var out []SweepPoint
	for rows.Next() {
		var p SweepPoint
		var seed int64
		if err := rows.Scan(&p.Index, &p.Value, &p.Label, &seed, &p.Size, &p.Betaj, &p.FillRate, &p.Steps,
			&p.FinalOrder, &p.OrderMean, &p.OrderStd, &p.AcceptRate); err != nil {
			return nil, fmt.Errorf("failed to scan sweep point: %w", err)
		}
		p.Seed = uint64(seed)
		out = append(out, p)
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
