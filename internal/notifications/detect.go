package notifications

import (
	"context"
	"time"
)

// DetectLive finds matches that kicked off within the live window and have
// not been announced yet, then dispatches them one at a time.
// Errors are logged and reported in the result, never returned: the next
// tick re-queries the same rolling window.
func (n *Notifier) DetectLive(ctx context.Context) DetectResult {
	start := time.Now()
	var result DetectResult

	now := n.now()
	from := now.Add(-n.settings.LiveWindow)

	matches, err := n.store.LiveCandidates(ctx, from, now)
	if err != nil {
		n.logger.Error("Error fetching live matches", "error", err)
		result.Err = err
		result.Duration = time.Since(start)
		return result
	}

	result.Found = len(matches)
	if len(matches) == 0 {
		n.logger.Info("No new live matches")
		result.Duration = time.Since(start)
		return result
	}
	n.logger.Info("Found new live matches", "count", len(matches))

	for _, m := range matches {
		outcome, recipients := n.Dispatch(ctx, m)
		switch outcome {
		case OutcomeNotified:
			result.Notified++
			result.Recipients += recipients
		case OutcomeSkipped:
			result.Skipped++
		default:
			result.Failed++
		}
	}

	result.Duration = time.Since(start)
	return result
}
