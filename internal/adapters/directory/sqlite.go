package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dkeye/VoiceCall/internal/domain"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// SQLite keeps user profiles in a single-table sqlite database.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database at path.
func OpenSQLite(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create directory dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec(`
		PRAGMA journal_mode = WAL;
		PRAGMA busy_timeout = 5000;
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure database: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id          TEXT PRIMARY KEY,
			username    TEXT NOT NULL,
			email       TEXT DEFAULT '',
			profile_pic TEXT DEFAULT '',
			created_at  DATETIME DEFAULT CURRENT_TIMESTAMP
		);
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create users table: %w", err)
	}

	log.Info().Str("module", "adapters.directory").Str("path", path).Msg("sqlite directory opened")
	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) ListUsers(ctx context.Context) ([]domain.UserProfile, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, username, email, profile_pic FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []domain.UserProfile
	for rows.Next() {
		var p domain.UserProfile
		if err := rows.Scan(&p.ID, &p.Username, &p.Email, &p.ProfilePic); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLite) GetUser(ctx context.Context, id domain.UserID) (domain.UserProfile, error) {
	var p domain.UserProfile
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, email, profile_pic FROM users WHERE id = ?`, string(id),
	).Scan(&p.ID, &p.Username, &p.Email, &p.ProfilePic)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.UserProfile{}, ErrUserNotFound
	}
	if err != nil {
		return domain.UserProfile{}, fmt.Errorf("get user %s: %w", id, err)
	}
	return p, nil
}

// PutUser inserts or replaces a profile.
func (s *SQLite) PutUser(ctx context.Context, p domain.UserProfile) error {
	if p.ID == "" {
		return domain.ErrUserIDEmpty
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, username, email, profile_pic) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			username = excluded.username,
			email = excluded.email,
			profile_pic = excluded.profile_pic`,
		string(p.ID), p.Username, p.Email, p.ProfilePic)
	if err != nil {
		return fmt.Errorf("put user %s: %w", p.ID, err)
	}
	return nil
}

// Seed upserts every profile.
func Seed(ctx context.Context, d Directory, users []domain.UserProfile) error {
	for _, p := range users {
		if err := d.PutUser(ctx, p); err != nil {
			return err
		}
	}
	return nil
}
