package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Run is one recorded solver session.
type Run struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId,omitempty"`
	GameID    string    `json:"gameId"`
	Secret    string    `json:"secret"` // palette names, comma separated
	Solved    bool      `json:"solved"`
	Attempts  int       `json:"attempts"`
	Source    string    `json:"source"` // "api" | "bench"
	CreatedAt time.Time `json:"createdAt"`
}

// RunStats aggregates recorded runs.
type RunStats struct {
	Total     int         `json:"total"`
	Solved    int         `json:"solved"`
	Worst     int         `json:"worst"`
	Mean      float64     `json:"mean"`
	Histogram map[int]int `json:"histogram"` // attempts → solved runs
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// InsertRun records a run, assigning an ID when empty.
func (d *DB) InsertRun(ctx context.Context, r *Run) error {
	return insertRun(ctx, d.SQL, r)
}

// InsertRuns records many runs in one transaction.
func (d *DB) InsertRuns(ctx context.Context, runs []Run) error {
	tx, err := d.SQL.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	for i := range runs {
		if err := insertRun(ctx, tx, &runs[i]); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func insertRun(ctx context.Context, ex execer, r *Run) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	_, err := ex.ExecContext(ctx, `
        INSERT INTO runs (id, user_id, game_id, secret, solved, attempts, source, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, nullable(r.UserID), r.GameID, r.Secret, r.Solved, r.Attempts, r.Source,
		r.CreatedAt.Format(time.RFC3339),
	)
	return err
}

// RecentRuns lists a user's latest runs, newest first.
func (d *DB) RecentRuns(ctx context.Context, userID string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := d.SQL.QueryContext(ctx, `
        SELECT id, COALESCE(user_id, ''), game_id, secret, solved, attempts, source, created_at
        FROM runs
        WHERE user_id=?
        ORDER BY created_at DESC, id
        LIMIT ?`, userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Run, 0, limit)
	for rows.Next() {
		var r Run
		var created string
		if err := rows.Scan(&r.ID, &r.UserID, &r.GameID, &r.Secret, &r.Solved, &r.Attempts, &r.Source, &created); err != nil {
			return nil, err
		}
		r.CreatedAt, _ = time.Parse(time.RFC3339, created)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Stats aggregates all runs, optionally restricted to one source.
func (d *DB) Stats(ctx context.Context, source string) (RunStats, error) {
	rows, err := d.SQL.QueryContext(ctx, `
        SELECT solved, attempts, COUNT(1)
        FROM runs
        WHERE ?='' OR source=?
        GROUP BY solved, attempts`, source, source,
	)
	if err != nil {
		return RunStats{}, err
	}
	defer rows.Close()

	st := RunStats{Histogram: map[int]int{}}
	sum := 0
	for rows.Next() {
		var solved bool
		var attempts, n int
		if err := rows.Scan(&solved, &attempts, &n); err != nil {
			return RunStats{}, err
		}
		st.Total += n
		if !solved {
			continue
		}
		st.Solved += n
		st.Histogram[attempts] += n
		st.Worst = max(st.Worst, attempts)
		sum += attempts * n
	}
	if st.Solved > 0 {
		st.Mean = float64(sum) / float64(st.Solved)
	}
	return st, rows.Err()
}

// nullable maps "" to SQL NULL.
func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
