package store

import "time"

// DB is the account persistence interface: a key-value balance per user
// plus an append-only history log. Engines never talk to it directly;
// the session's ledger sink does.
type DB interface {
	Close() error
	Migrate() error
	SaveBalance(userID string, balance int64) error
	AppendHistory(userID string, balance int64, change string) error
	GetBalance(userID string) (int64, bool, error)
	Leaderboard(limit int) ([]AccountRow, error)
	History(userID string, limit int) ([]HistoryRow, error)
}

// AccountRow is one leaderboard entry.
type AccountRow struct {
	UserID    string    `json:"user_id"`
	Balance   int64     `json:"balance"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HistoryRow is one immutable balance snapshot.
type HistoryRow struct {
	UserID    string    `json:"user_id"`
	Balance   int64     `json:"balance"`
	Change    string    `json:"change"`
	CreatedAt time.Time `json:"created_at"`
}
