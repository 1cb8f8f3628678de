package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/albapepper/kickoff-notifier/internal/db"
)

var _ Store = (*PGStore)(nil)

// PGStore implements Store over the prepared statements registered by db.New.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore wraps a connection pool.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// LiveCandidates returns active, not yet notified matches with kickoff in [from, to].
func (s *PGStore) LiveCandidates(ctx context.Context, from, to time.Time) ([]Match, error) {
	rows, err := s.pool.Query(ctx, db.StmtLiveCandidates, from, to)
	if err != nil {
		return nil, fmt.Errorf("query live candidates: %w", err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var m Match
		if err := rows.Scan(&m.ID, &m.Opponent1, &m.Opponent2, &m.MatchTime, &m.LiveURL, &m.Status); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// DeviceTokens returns every non-null, non-empty FCM token.
func (s *PGStore) DeviceTokens(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, db.StmtDeviceTokens)
	if err != nil {
		return nil, fmt.Errorf("query device tokens: %w", err)
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan device token: %w", err)
		}
		if t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens, rows.Err()
}

// MarkLive sets live_notification_sent and the live status label on one match.
func (s *PGStore) MarkLive(ctx context.Context, matchID, status string) error {
	if _, err := s.pool.Exec(ctx, db.StmtMarkMatchLive, matchID, status); err != nil {
		return fmt.Errorf("mark match %s live: %w", matchID, err)
	}
	return nil
}

// InsertLog appends a notifications_log row.
func (s *PGStore) InsertLog(ctx context.Context, e LogEntry) error {
	_, err := s.pool.Exec(ctx, db.StmtInsertLog,
		e.Title, e.Message, e.Status, e.RecipientsCount, e.NotificationType)
	if err != nil {
		return fmt.Errorf("insert notification log: %w", err)
	}
	return nil
}

// EndStale flips every active match that kicked off before the cutoff to the
// ended label in one statement. Returns the number of rows changed.
func (s *PGStore) EndStale(ctx context.Context, endedStatus string, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, db.StmtEndStaleMatches, endedStatus, before)
	if err != nil {
		return 0, fmt.Errorf("end stale matches: %w", err)
	}
	return tag.RowsAffected(), nil
}
