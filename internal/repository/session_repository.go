// internal/repository/session_repository.go
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"serial-terminal/internal/model"
)

// SessionRepository persists named serial configuration presets
type SessionRepository interface {
	Save(ctx context.Context, session model.Session) error
	Get(ctx context.Context, name string) (*model.Session, error)
	List(ctx context.Context) ([]model.Session, error)
	Delete(ctx context.Context, name string) error
}

// ErrSessionNotFound is returned when no preset exists with the given name
var ErrSessionNotFound = fmt.Errorf("session not found")

type sessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a sqlite-backed session repository
func NewSessionRepository(db *sql.DB) SessionRepository {
	return &sessionRepository{db: db}
}

// Save inserts or updates a preset under its name. CreatedAt is kept on
// update; UpdatedAt always moves forward.
func (r *sessionRepository) Save(ctx context.Context, session model.Session) error {
	if session.Name == "" {
		return fmt.Errorf("session name is required")
	}
	if err := session.Config.Validate(); err != nil {
		return fmt.Errorf("invalid session config: %w", err)
	}

	configJSON, err := json.Marshal(session.Config)
	if err != nil {
		return fmt.Errorf("failed to marshal session config: %w", err)
	}

	now := time.Now().UTC()
	query := `
		INSERT INTO sessions (name, config, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			config = excluded.config,
			updated_at = excluded.updated_at`

	if _, err := r.db.ExecContext(ctx, query, session.Name, string(configJSON), now, now); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Get returns the preset with the given name
func (r *sessionRepository) Get(ctx context.Context, name string) (*model.Session, error) {
	query := `SELECT name, config, created_at, updated_at FROM sessions WHERE name = ?`

	session, err := scanSession(r.db.QueryRowContext(ctx, query, name))
	if err == sql.ErrNoRows {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return session, nil
}

// List returns all presets ordered by name
func (r *sessionRepository) List(ctx context.Context) ([]model.Session, error) {
	query := `SELECT name, config, created_at, updated_at FROM sessions ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]model.Session, 0)
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, *session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}
	return sessions, nil
}

// Delete removes the preset with the given name
func (r *sessionRepository) Delete(ctx context.Context, name string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return ErrSessionNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSession(row rowScanner) (*model.Session, error) {
	var session model.Session
	var configJSON string

	if err := row.Scan(&session.Name, &configJSON, &session.CreatedAt, &session.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(configJSON), &session.Config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session config: %w", err)
	}
	return &session, nil
}
