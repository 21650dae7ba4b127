package database

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/gatortutors/gator-tutors-api/pkg/config"
)

// NewPostgres returns a configured PostgreSQL client. The pool is constructed
// here and handed to callers; nothing else in the codebase opens connections.
// Startup retries a few times with a fixed backoff so the API can come up
// before the database finishes booting.
func NewPostgres(cfg config.DatabaseConfig, logger *zap.Logger) (*sqlx.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.Name,
		cfg.SSLMode,
	)

	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	db.SetConnMaxLifetime(1 * time.Hour)
	db.SetConnMaxIdleTime(30 * time.Minute)

	retries := cfg.ConnectRetries
	if retries < 1 {
		retries = 1
	}
	backoff := cfg.ConnectBackoff
	if backoff <= 0 {
		backoff = 2 * time.Second
	}

	var pingErr error
	for attempt := 1; attempt <= retries; attempt++ {
		pingErr = db.Ping()
		if pingErr == nil {
			return db, nil
		}
		if logger != nil {
			logger.Warn("database not reachable",
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", retries),
				zap.Error(pingErr),
			)
		}
		if attempt < retries {
			time.Sleep(backoff)
		}
	}

	_ = db.Close()
	return nil, fmt.Errorf("connect postgres after %d attempts: %w", retries, pingErr)
}
