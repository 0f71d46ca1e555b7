package database

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// Options tunes the pool. Zero values fall back to the defaults below.
type Options struct {
	MaxConns     int32
	MinConns     int32
	PasswordFile string
}

func NewPool(ctx context.Context, dsn string, opts Options, log zerolog.Logger) (*pgxpool.Pool, error) {
	dsn, err := InjectPasswordFile(dsn, opts.PasswordFile)
	if err != nil {
		return nil, err
	}

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse DSN: %w", err)
	}

	config.MaxConns = 25
	if opts.MaxConns > 0 {
		config.MaxConns = opts.MaxConns
	}
	config.MinConns = 2
	if opts.MinConns > 0 {
		config.MinConns = opts.MinConns
	}
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = 30 * time.Minute
	config.HealthCheckPeriod = time.Minute

	// NUMERIC columns scan into decimal.Decimal on every pooled connection.
	config.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	log.Info().Int32("max_conns", config.MaxConns).Msg("database connected")
	return pool, nil
}

// InjectPasswordFile replaces the password of a postgres URL with the trimmed
// contents of passwordFile. An empty passwordFile returns dsn untouched.
func InjectPasswordFile(dsn, passwordFile string) (string, error) {
	if passwordFile == "" {
		return dsn, nil
	}

	raw, err := os.ReadFile(passwordFile)
	if err != nil {
		return "", fmt.Errorf("read password file: %w", err)
	}
	password := strings.TrimSpace(string(raw))

	u, err := url.Parse(dsn)
	if err != nil || u.Scheme == "" {
		return "", fmt.Errorf("password file requires a URL-style DATABASE_URL")
	}
	user := "postgres"
	if u.User != nil && u.User.Username() != "" {
		user = u.User.Username()
	}
	u.User = url.UserPassword(user, password)
	return u.String(), nil
}
