package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteDB implements the DB interface using SQLite.
type SQLiteDB struct {
	db *sql.DB
}

// NewSQLiteDB opens (or creates) the database at path. Use ":memory:" for
// an ephemeral store.
func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	return &SQLiteDB{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

// Migrate runs database migrations.
func (s *SQLiteDB) Migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			user_id TEXT PRIMARY KEY,
			balance INTEGER NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS balance_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id TEXT NOT NULL,
			balance INTEGER NOT NULL,
			change TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_history_user ON balance_history(user_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_accounts_balance ON accounts(balance DESC)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// SaveBalance upserts the account record for the user.
func (s *SQLiteDB) SaveBalance(userID string, balance int64) error {
	_, err := s.db.Exec(
		`INSERT INTO accounts (user_id, balance, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(user_id) DO UPDATE SET balance = excluded.balance, updated_at = CURRENT_TIMESTAMP`,
		userID, balance,
	)
	if err != nil {
		return fmt.Errorf("save balance: %w", err)
	}
	return nil
}

// AppendHistory writes an immutable balance snapshot with a change tag.
func (s *SQLiteDB) AppendHistory(userID string, balance int64, change string) error {
	_, err := s.db.Exec(
		`INSERT INTO balance_history (user_id, balance, change) VALUES (?, ?, ?)`,
		userID, balance, change,
	)
	if err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

// GetBalance loads the persisted balance; the second return reports
// whether a record exists.
func (s *SQLiteDB) GetBalance(userID string) (int64, bool, error) {
	var balance int64
	err := s.db.QueryRow(`SELECT balance FROM accounts WHERE user_id = ?`, userID).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get balance: %w", err)
	}
	return balance, true, nil
}

// Leaderboard returns the top accounts by balance.
func (s *SQLiteDB) Leaderboard(limit int) ([]AccountRow, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.Query(
		`SELECT user_id, balance, updated_at FROM accounts ORDER BY balance DESC, user_id ASC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("leaderboard query: %w", err)
	}
	defer rows.Close()

	var out []AccountRow
	for rows.Next() {
		var row AccountRow
		if err := rows.Scan(&row.UserID, &row.Balance, &row.UpdatedAt); err != nil {
			return nil, fmt.Errorf("leaderboard scan: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// History returns the user's balance snapshots, newest first.
func (s *SQLiteDB) History(userID string, limit int) ([]HistoryRow, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT user_id, balance, change, created_at FROM balance_history
		 WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("history query: %w", err)
	}
	defer rows.Close()

	var out []HistoryRow
	for rows.Next() {
		var row HistoryRow
		if err := rows.Scan(&row.UserID, &row.Balance, &row.Change, &row.CreatedAt); err != nil {
			return nil, fmt.Errorf("history scan: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
