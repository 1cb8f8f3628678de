package notifications

import (
	"context"
	"time"
)

// EndStale marks every active match that kicked off more than EndedAfter ago
// as ended, in a single bulk update. Re-running it is a no-op.
func (n *Notifier) EndStale(ctx context.Context) StatusResult {
	start := time.Now()
	cutoff := n.now().Add(-n.settings.EndedAfter)

	ended, err := n.store.EndStale(ctx, n.settings.EndedStatus, cutoff)
	if err != nil {
		n.logger.Error("Error updating match statuses", "error", err)
		return StatusResult{Err: err, Duration: time.Since(start)}
	}
	if ended > 0 {
		n.logger.Info("Marked matches as ended", "count", ended, "cutoff", cutoff.Format(time.RFC3339))
	}
	return StatusResult{Ended: ended, Duration: time.Since(start)}
}
