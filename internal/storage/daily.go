package storage

import "context"

// DailyResult is one player's finished daily challenge.
type DailyResult struct {
	PlayerID  string `json:"playerId"`
	Date      string `json:"date"` // YYYY-MM-DD (UTC)
	Attempts  int    `json:"attempts"`
	Solved    bool   `json:"solved"`
	ElapsedMs int64  `json:"elapsedMs"`
}

// DailyPlayed reports whether a player already finished the given date.
func (d *DB) DailyPlayed(ctx context.Context, playerID, date string) (bool, error) {
	var cnt int
	err := d.SQL.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM daily_results WHERE player_id=? AND date=?`,
		playerID, date,
	).Scan(&cnt)
	return cnt > 0, err
}

// InsertDailyResult records a result; a second result for the same
// player and date is ignored.
func (d *DB) InsertDailyResult(ctx context.Context, r DailyResult) error {
	_, err := d.SQL.ExecContext(ctx, `
        INSERT OR IGNORE INTO daily_results (player_id, date, attempts, solved, elapsed_ms)
        VALUES (?, ?, ?, ?, ?)`,
		r.PlayerID, r.Date, r.Attempts, r.Solved, r.ElapsedMs,
	)
	return err
}

// DailyLeaderboard returns the best solved results for a date:
// fewest attempts, then fastest, then earliest.
func (d *DB) DailyLeaderboard(ctx context.Context, date string, limit int) ([]DailyResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := d.SQL.QueryContext(ctx, `
        SELECT player_id, date, attempts, solved, elapsed_ms
        FROM daily_results
        WHERE date=? AND solved=1
        ORDER BY attempts ASC, elapsed_ms ASC, created_at ASC
        LIMIT ?`, date, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]DailyResult, 0, limit)
	for rows.Next() {
		var r DailyResult
		if err := rows.Scan(&r.PlayerID, &r.Date, &r.Attempts, &r.Solved, &r.ElapsedMs); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
