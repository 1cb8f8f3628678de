// Package handler provides the HTTP handlers of the operations server.
// Nothing here mutates match state; handlers only report on the database
// and the scheduler loop.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/albapepper/kickoff-notifier/internal/api/respond"
	"github.com/albapepper/kickoff-notifier/internal/scheduler"
)

// Pinger verifies database connectivity.
type Pinger interface {
	HealthCheck(ctx context.Context) error
}

// TickSource exposes the scheduler's most recent tick.
type TickSource interface {
	Last() (scheduler.TickSnapshot, bool)
	Interval() time.Duration
}

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	db      Pinger
	ticks   TickSource
	version string
	now     func() time.Time
}

// New creates a Handler with shared dependencies.
func New(db Pinger, ticks TickSource, version string) *Handler {
	return &Handler{db: db, ticks: ticks, version: version, now: time.Now}
}

// Root serves service info at /.
// @Summary Service info
// @Description Returns service name, version and status.
// @Tags meta
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router / [get]
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"name":    "kickoff-notifier",
		"version": h.version,
		"status":  "running",
		"docs":    "/docs/",
	})
}

// HealthCheck returns basic health status.
// @Summary Health check
// @Description Returns basic health status and timestamp.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": h.now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckDB verifies database connectivity.
// @Summary Database health check
// @Description Verifies Postgres connectivity.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health/db [get]
func (h *Handler) HealthCheckDB(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.HealthCheck(ctx); err != nil {
		respond.WriteJSONObject(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":    "unhealthy",
			"database":  "disconnected",
			"error":     "Database connection check failed",
			"timestamp": h.now().UTC().Format(time.RFC3339),
		})
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"database":  "connected",
		"timestamp": h.now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckScheduler reports the most recent tick.
// Unhealthy when no tick has completed yet or the last one finished more than
// three intervals ago (the loop is stuck on a remote call).
// @Summary Scheduler health check
// @Description Returns the last tick's detector and updater results.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health/scheduler [get]
func (h *Handler) HealthCheckScheduler(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.ticks.Last()
	if !ok {
		respond.WriteJSONObject(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":    "starting",
			"timestamp": h.now().UTC().Format(time.RFC3339),
		})
		return
	}

	finished := snap.StartedAt.Add(snap.Duration)
	age := h.now().Sub(finished)
	status, code := "healthy", http.StatusOK
	if age > 3*h.ticks.Interval() {
		status, code = "stale", http.StatusServiceUnavailable
	}

	respond.WriteJSONObject(w, code, map[string]interface{}{
		"status":      status,
		"tick":        snap.Seq,
		"started_at":  snap.StartedAt.UTC().Format(time.RFC3339),
		"duration_ms": snap.Duration.Milliseconds(),
		"age_seconds": int(age.Seconds()),
		"detect": map[string]interface{}{
			"found":      snap.Detect.Found,
			"notified":   snap.Detect.Notified,
			"skipped":    snap.Detect.Skipped,
			"failed":     snap.Detect.Failed,
			"recipients": snap.Detect.Recipients,
			"error":      errString(snap.Detect.Err),
		},
		"status_update": map[string]interface{}{
			"ended": snap.Status.Ended,
			"error": errString(snap.Status.Err),
		},
		"timestamp": h.now().UTC().Format(time.RFC3339),
	})
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
