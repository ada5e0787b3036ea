package arena

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

const tableName = "match_results"

// timeLayout is fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000Z"

type ResultStore struct {
	db *sql.DB
}

// Standing is one strategy's record across all stored matches.
type Standing struct {
	Name   string
	Wins   int
	Losses int
	Draws  int
}

func (s Standing) Games() int {
	return s.Wins + s.Losses + s.Draws
}

// OpenResultStore opens (or creates) the sqlite database at path.
// ":memory:" gives a private in-memory store.
func OpenResultStore(path string) (*ResultStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open result store %s: %w", path, err)
	}
	// An in-memory database only exists on the connection that created it.
	db.SetMaxOpenConns(1)

	store := &ResultStore{db: db}
	if err := store.createTable(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (store *ResultStore) Close() error {
	return store.db.Close()
}

func (store *ResultStore) createTable() error {
	const createTableSQL = `
	CREATE TABLE IF NOT EXISTS ` + tableName + ` (
		id TEXT PRIMARY KEY,
		player_one TEXT NOT NULL,
		player_two TEXT NOT NULL,
		outcome TEXT NOT NULL,
		turns INTEGER NOT NULL,
		width INTEGER NOT NULL,
		height INTEGER NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_` + tableName + `_created_at ON ` + tableName + ` (created_at);`

	if _, err := store.db.Exec(createTableSQL); err != nil {
		return fmt.Errorf("failed to execute CREATE TABLE: %w", err)
	}
	log.Debug("Match results table ensured.")
	return nil
}

func (store *ResultStore) Save(ctx context.Context, result Result) error {
	const insertSQL = `
	INSERT INTO ` + tableName + ` (id, player_one, player_two, outcome, turns, width, height, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?);`

	if result.ID == uuid.Nil {
		result.ID = uuid.New()
	}
	if result.CreatedAt.IsZero() {
		result.CreatedAt = time.Now()
	}

	_, err := store.db.ExecContext(ctx, insertSQL,
		result.ID.String(),
		result.PlayerOne,
		result.PlayerTwo,
		result.Outcome.String(),
		result.Turns,
		result.Width,
		result.Height,
		result.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to insert result %s: %w", result.ID, err)
	}
	return nil
}

// Recent returns a page of results, newest first.
func (store *ResultStore) Recent(ctx context.Context, limit, offset int) ([]Result, error) {
	const selectSQL = `
	SELECT id, player_one, player_two, outcome, turns, width, height, created_at
	FROM ` + tableName + `
	ORDER BY created_at DESC, id
	LIMIT ? OFFSET ?;`

	rows, err := store.db.QueryContext(ctx, selectSQL, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var result Result
		var id, outcome, createdAt string
		err := rows.Scan(&id, &result.PlayerOne, &result.PlayerTwo, &outcome,
			&result.Turns, &result.Width, &result.Height, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		if result.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("result has malformed id %q: %w", id, err)
		}
		if result.Outcome, err = ParseOutcome(outcome); err != nil {
			return nil, fmt.Errorf("result %s: %w", id, err)
		}
		if result.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
			log.Warn("Time parsing error for result", "id", id, "raw", createdAt, "error", err)
		}
		results = append(results, result)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating rows: %w", err)
	}
	return results, nil
}

// Standings ranks every strategy by wins, then by fewest losses.
func (store *ResultStore) Standings(ctx context.Context) ([]Standing, error) {
	const standingsSQL = `
	SELECT name, SUM(win), SUM(loss), SUM(draw) FROM (
		SELECT player_one AS name,
			outcome = 'player_one' AS win, outcome = 'player_two' AS loss, outcome = 'draw' AS draw
		FROM ` + tableName + `
		UNION ALL
		SELECT player_two AS name,
			outcome = 'player_two' AS win, outcome = 'player_one' AS loss, outcome = 'draw' AS draw
		FROM ` + tableName + `
	)
	GROUP BY name
	ORDER BY SUM(win) DESC, SUM(loss) ASC, name ASC;`

	rows, err := store.db.QueryContext(ctx, standingsSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to query standings: %w", err)
	}
	defer rows.Close()

	var standings []Standing
	for rows.Next() {
		var standing Standing
		if err := rows.Scan(&standing.Name, &standing.Wins, &standing.Losses, &standing.Draws); err != nil {
			return nil, fmt.Errorf("failed to scan standing: %w", err)
		}
		standings = append(standings, standing)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating standings: %w", err)
	}
	return standings, nil
}

func (store *ResultStore) Count(ctx context.Context) (int, error) {
	const countSQL = `SELECT COUNT(*) FROM ` + tableName + `;`
	var count int
	if err := store.db.QueryRowContext(ctx, countSQL).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to get total result count: %w", err)
	}
	return count, nil
}

// PruneOlderThan deletes results created more than age ago.
func (store *ResultStore) PruneOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	const deleteSQL = `DELETE FROM ` + tableName + ` WHERE created_at < ?;`

	cutoff := time.Now().Add(-age).UTC().Format(timeLayout)
	res, err := store.db.ExecContext(ctx, deleteSQL, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune results before %s: %w", cutoff, err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned results: %w", err)
	}
	return deleted, nil
}
