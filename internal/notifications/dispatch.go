package notifications

import (
	"context"
	"log/slog"
	"time"
)

// Notifier runs the live-match detector, the per-match dispatcher and the
// status sweep against one store and one push gateway. Both are created once
// at startup and reused for the process lifetime.
type Notifier struct {
	store    Store
	sender   Sender
	settings Settings
	logger   *slog.Logger
	now      func() time.Time
}

// New creates a Notifier. Zero-valued settings fall back to the defaults
// (5 minute live window, 2 hour ended threshold).
func New(store Store, sender Sender, settings Settings, logger *slog.Logger) *Notifier {
	return &Notifier{
		store:    store,
		sender:   sender,
		settings: settings.withDefaults(),
		logger:   logger,
		now:      time.Now,
	}
}

// Dispatch notifies every registered device that m is live. Returns the
// outcome and the gateway's success count.
//
// A match with no tokens available, or whose multicast fails, is left
// untouched so a later tick can retry it while it is still inside the live
// window. A completed multicast marks the match live and appends one log
// row, whatever the per-device delivery rate.
func (n *Notifier) Dispatch(ctx context.Context, m Match) (Outcome, int) {
	log := n.logger.With("match_id", m.ID)
	log.Info("Sending live notification", "opponent1", m.Opponent1, "opponent2", m.Opponent2)

	tokens, err := n.store.DeviceTokens(ctx)
	if err != nil {
		log.Error("Failed to fetch device tokens", "error", err)
		return OutcomeFailed, 0
	}
	if len(tokens) == 0 {
		log.Warn("No FCM tokens found")
		return OutcomeSkipped, 0
	}

	msg := BuildMessage(m, n.settings.TitleTemplate, n.settings.BodyTemplate)

	success, err := n.sender.SendMulticast(ctx, tokens, msg)
	if err != nil {
		log.Error("Failed to send live notification", "tokens", len(tokens), "error", err)
		return OutcomeFailed, 0
	}
	log.Info("Live notification sent", "success", success, "tokens", len(tokens))

	if err := n.store.MarkLive(ctx, m.ID, n.settings.LiveStatus); err != nil {
		log.Error("Failed to mark match as notified", "error", err)
		return OutcomeFailed, success
	}

	if err := n.store.InsertLog(ctx, LogEntry{
		Title:            msg.Title,
		Message:          msg.Body,
		Status:           logStatusSent,
		RecipientsCount:  success,
		NotificationType: notificationLive,
	}); err != nil {
		log.Error("Failed to write notification log", "error", err)
	}

	return OutcomeNotified, success
}
