// Package notifications detects football matches that have just kicked off,
// pushes a "match is live" message to every registered device, and sweeps
// stale matches to their ended status.
//
// Pipeline per tick: detect live candidates → dispatch each one sequentially
// (tokens → multicast → mark live → log) → end stale matches.
package notifications

import (
	"context"
	"fmt"
	"time"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	// Defaults used when a Settings field is left zero.
	defaultLiveWindow  = 5 * time.Minute
	defaultEndedAfter  = 2 * time.Hour
	defaultLiveStatus  = "live"
	defaultEndedStatus = "ended"
	defaultTitle       = "⚽ Match started!"
	defaultBody        = "{opponent1} VS {opponent2} - live now"

	// Values written to notifications_log and the push data payload.
	logStatusSent    = "sent"
	notificationLive = "live"

	// FCM rejects multicast messages with more than 500 tokens.
	maxMulticastTokens = 500
)

// --------------------------------------------------------------------------
// Types
// --------------------------------------------------------------------------

// Match is a row from the matches table.
type Match struct {
	ID        string
	Opponent1 string
	Opponent2 string
	MatchTime time.Time
	LiveURL   string
	Status    string
}

// LogEntry is one notifications_log row, written once per completed dispatch.
type LogEntry struct {
	Title            string
	Message          string
	Status           string
	RecipientsCount  int
	NotificationType string
}

// Message is a rendered push notification for one match.
type Message struct {
	Title string
	Body  string
	Data  map[string]string
}

// Settings holds the tunables shared by the detector, dispatcher and updater.
type Settings struct {
	LiveWindow    time.Duration
	EndedAfter    time.Duration
	LiveStatus    string
	EndedStatus   string
	TitleTemplate string
	BodyTemplate  string
}

func (s Settings) withDefaults() Settings {
	if s.LiveWindow <= 0 {
		s.LiveWindow = defaultLiveWindow
	}
	if s.EndedAfter <= 0 {
		s.EndedAfter = defaultEndedAfter
	}
	if s.LiveStatus == "" {
		s.LiveStatus = defaultLiveStatus
	}
	if s.EndedStatus == "" {
		s.EndedStatus = defaultEndedStatus
	}
	if s.TitleTemplate == "" {
		s.TitleTemplate = defaultTitle
	}
	if s.BodyTemplate == "" {
		s.BodyTemplate = defaultBody
	}
	return s
}

// Store is the subset of the remote data store the scheduler touches.
type Store interface {
	LiveCandidates(ctx context.Context, from, to time.Time) ([]Match, error)
	DeviceTokens(ctx context.Context) ([]string, error)
	MarkLive(ctx context.Context, matchID, status string) error
	InsertLog(ctx context.Context, entry LogEntry) error
	EndStale(ctx context.Context, endedStatus string, before time.Time) (int64, error)
}

// Sender delivers one message to many device tokens and reports how many
// deliveries succeeded.
type Sender interface {
	SendMulticast(ctx context.Context, tokens []string, msg Message) (int, error)
}

// --------------------------------------------------------------------------
// Results
// --------------------------------------------------------------------------

// Outcome is the result of dispatching a single match.
type Outcome int

const (
	OutcomeNotified Outcome = iota
	OutcomeSkipped          // no device tokens; stays retry-eligible
	OutcomeFailed           // store or gateway error; stays retry-eligible
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNotified:
		return "notified"
	case OutcomeSkipped:
		return "skipped"
	default:
		return "failed"
	}
}

// DetectResult tracks the outcome of one detector run.
type DetectResult struct {
	Found      int
	Notified   int
	Skipped    int
	Failed     int
	Recipients int
	Duration   time.Duration
	Err        error
}

// Summary returns a human-readable summary.
func (r *DetectResult) Summary() string {
	return fmt.Sprintf("found=%d notified=%d skipped=%d failed=%d recipients=%d dur=%s",
		r.Found, r.Notified, r.Skipped, r.Failed, r.Recipients,
		r.Duration.Round(time.Millisecond))
}

// StatusResult tracks the outcome of one status sweep.
type StatusResult struct {
	Ended    int64
	Duration time.Duration
	Err      error
}
