package postgres

import (
	"database/sql"
)

// StateRepo implements repository.StateRepository on PostgreSQL
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
	query := `SELECT data FROM app_state WHERE key = $1`
	err := r.db.QueryRow(query, key).Scan(&data)

	if err == sql.ErrNoRows {
		// Nothing saved yet
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
		VALUES ($1, $2, NOW())
		ON CONFLICT (key)
		DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()
	`
	_, err := r.db.Exec(query, key, string(data))
	return err
}
