package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"cravecart/internal/config"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/sirupsen/logrus"
)

// Service is the handle the HTTP health endpoint and the serve command hold.
type Service interface {
	// Health pings the store with a one second budget. status is "up" or "down".
	Health(ctx context.Context) map[string]string
	Close() error
}

type service struct {
	db   *sql.DB
	name string
	log  *logrus.Entry
}

// NewPostgres opens a pgx-backed handle and verifies it answers.
func NewPostgres(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	return Open(ctx, cfg.DSN())
}

func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

func New(db *sql.DB, name string, log *logrus.Entry) Service {
	return &service{db: db, name: name, log: log}
}

// Health never fails the process: a failed ping is logged and reported as
// status "down" together with the pool counters.
func (s *service) Health(ctx context.Context) map[string]string {
	ctx, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()

	stats := make(map[string]string)
	if err := s.db.PingContext(ctx); err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("db down: %v", err)
		s.log.WithError(err).Warn("database health check failed")
		return stats
	}

	stats["status"] = "up"

	dbStats := s.db.Stats()
	stats["open_connections"] = strconv.Itoa(dbStats.OpenConnections)
	stats["in_use"] = strconv.Itoa(dbStats.InUse)
	stats["idle"] = strconv.Itoa(dbStats.Idle)
	stats["wait_count"] = strconv.FormatInt(dbStats.WaitCount, 10)
	stats["wait_duration"] = dbStats.WaitDuration.String()

	// The pool is capped at 25 open connections.
	if dbStats.OpenConnections > 20 || dbStats.WaitCount > 1000 {
		stats["pool"] = "saturated"
		s.log.WithFields(logrus.Fields{"open": dbStats.OpenConnections, "waits": dbStats.WaitCount}).Warn("order store connection pool under pressure")
	}
	return stats
}

func (s *service) Close() error {
	s.log.WithField("database", s.name).Info("disconnected from database")
	return s.db.Close()
}
