package sqlite

import (
	"database/sql"
	"errors"
)

// StateRepo implements repository.StateRepository on SQLite
type StateRepo struct {
	db *sql.DB
}

// NewStateRepo creates a new state repository
func NewStateRepo(db *sql.DB) *StateRepo {
	return &StateRepo{db: db}
}

// LoadState returns the JSON document stored under key
func (r *StateRepo) LoadState(key string) ([]byte, error) {
	var data string
	err := r.db.QueryRow(`SELECT data FROM app_state WHERE key = ?`, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return []byte(data), nil
}

// SaveState upserts the JSON document under key
func (r *StateRepo) SaveState(key string, data []byte) error {
	query := `
		INSERT INTO app_state (key, data, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (key)
		DO UPDATE SET data = excluded.data, updated_at = CURRENT_TIMESTAMP
	`
	_, err := r.db.Exec(query, key, string(data))
	return err
}
