package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ndudarev/filevault/internal/models"
)

// Postgres is an alternative user store for deployments that keep
// accounts in PostgreSQL instead of the document database. It satisfies
// the same UserStore surface as Mongo.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Migrate creates the users table if it doesn't exist. The unique
// constraint on login gives the same atomic insert-if-absent guarantee
// as the Mongo index.
func (s *Postgres) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			login      VARCHAR(255) PRIMARY KEY,
			password   VARCHAR(255) NOT NULL,
			created_at TIMESTAMPTZ  DEFAULT NOW()
		)
	`)
	return err
}

func (s *Postgres) FindUser(ctx context.Context, login string) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx,
		`SELECT login, password FROM users WHERE login = $1`, login,
	).Scan(&u.Login, &u.Password)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres find user: %w", err)
	}
	return &u, nil
}

func (s *Postgres) InsertUser(ctx context.Context, login, digest string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (login, password) VALUES ($1, $2)`, login, digest,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrLoginTaken
	}
	if err != nil {
		return fmt.Errorf("postgres insert user: %w", err)
	}
	return nil
}
