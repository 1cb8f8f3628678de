// Package db provides a pgxpool-based connection pool with prepared statement
// registration and health checking.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/albapepper/kickoff-notifier/internal/config"
)

// Pool wraps pgxpool.Pool with application-specific helpers.
type Pool struct {
	*pgxpool.Pool
}

// New creates and validates a new connection pool.
func New(ctx context.Context, cfg *config.Config) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	if cfg.DBPoolMinConns > 0 {
		poolCfg.MinConns = int32(cfg.DBPoolMinConns)
	}
	if cfg.DBPoolMaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.DBPoolMaxConns)
	}
	if cfg.DBPoolMaxLife > 0 {
		poolCfg.MaxConnLifetime = cfg.DBPoolMaxLife
	}
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	// Register prepared statements on every new connection.
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return registerPreparedStatements(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// Verify connectivity
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// HealthCheck runs a trivial query to verify the database is reachable.
func (p *Pool) HealthCheck(ctx context.Context) error {
	var n int
	return p.QueryRow(ctx, "health_check").Scan(&n)
}

// Statement names shared with the notifications store.
const (
	StmtHealthCheck     = "health_check"
	StmtLiveCandidates  = "live_match_candidates"
	StmtDeviceTokens    = "device_tokens"
	StmtMarkMatchLive   = "mark_match_live"
	StmtInsertLog       = "insert_notification_log"
	StmtEndStaleMatches = "end_stale_matches"
)

// Statements maps every prepared statement name to its SQL. Ids are compared
// as text so the service works whether the matches table uses int8 or uuid keys.
var Statements = map[string]string{
	StmtHealthCheck: "SELECT 1",

	// Live-match detection: active, not yet notified, kickoff inside [$1, $2]
	StmtLiveCandidates: `
		SELECT id::text,
		       COALESCE(opponent1_name, ''), COALESCE(opponent2_name, ''),
		       match_time, COALESCE(live_url, ''), COALESCE(status, '')
		FROM matches
		WHERE is_active = true
		  AND live_notification_sent = false
		  AND match_time >= $1
		  AND match_time <= $2
		ORDER BY match_time`,

	// Every registered device, no preference filtering
	StmtDeviceTokens: "SELECT fcm_token FROM users WHERE fcm_token IS NOT NULL",

	StmtMarkMatchLive: "UPDATE matches SET live_notification_sent = true, status = $2 WHERE id::text = $1",

	StmtInsertLog: `
		INSERT INTO notifications_log (title, message, status, recipients_count, notification_type)
		VALUES ($1, $2, $3, $4, $5)`,

	// Status sweep: one bulk statement, $1 is the ended label, $2 the cutoff
	StmtEndStaleMatches: `
		UPDATE matches SET status = $1
		WHERE is_active = true
		  AND status <> $1
		  AND match_time < $2`,
}

// registerPreparedStatements registers all statements the scheduler uses.
func registerPreparedStatements(ctx context.Context, conn *pgx.Conn) error {
	for name, sql := range Statements {
		if _, err := conn.Prepare(ctx, name, sql); err != nil {
			return fmt.Errorf("prepare %q: %w", name, err)
		}
	}
	return nil
}
