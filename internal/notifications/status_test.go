package notifications

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEndStale_EndsOldActiveMatches(t *testing.T) {
	store := newMemStore()
	store.add(liveRow("C", testNow.Add(-3*time.Hour)))

	live := liveRow("live-old", testNow.Add(-150*time.Minute))
	live.Status = "live"
	live.LiveNotificationSent = true
	store.add(live)

	result := newTestNotifier(store, &fakeSender{}).EndStale(context.Background())

	assert.NoError(t, result.Err)
	assert.EqualValues(t, 2, result.Ended)
	assert.Equal(t, "ended", store.get("C").Status)
	assert.Equal(t, "ended", store.get("live-old").Status)
}

func TestEndStale_LeavesRecentInactiveAndEnded(t *testing.T) {
	store := newMemStore()
	store.add(liveRow("recent", testNow.Add(-90*time.Minute)))

	inactive := liveRow("inactive", testNow.Add(-5*time.Hour))
	inactive.IsActive = false
	store.add(inactive)

	ended := liveRow("ended", testNow.Add(-5*time.Hour))
	ended.Status = "ended"
	store.add(ended)

	result := newTestNotifier(store, &fakeSender{}).EndStale(context.Background())

	assert.Zero(t, result.Ended)
	assert.Equal(t, "scheduled", store.get("recent").Status)
	assert.Equal(t, "scheduled", store.get("inactive").Status)
}

func TestEndStale_Idempotent(t *testing.T) {
	store := newMemStore()
	store.add(liveRow("C", testNow.Add(-3*time.Hour)))
	n := newTestNotifier(store, &fakeSender{})

	assert.EqualValues(t, 1, n.EndStale(context.Background()).Ended)
	assert.EqualValues(t, 0, n.EndStale(context.Background()).Ended)
	assert.Equal(t, "ended", store.get("C").Status)
}

func TestEndStale_UsesConfiguredLabel(t *testing.T) {
	store := newMemStore()
	store.add(liveRow("C", testNow.Add(-3*time.Hour)))

	n := New(store, &fakeSender{}, Settings{EndedStatus: "انتهت"}, discardLogger())
	n.now = func() time.Time { return testNow }
	n.EndStale(context.Background())

	assert.Equal(t, "انتهت", store.get("C").Status)
}

func TestEndStale_StoreFailure(t *testing.T) {
	store := newMemStore()
	store.endErr = errors.New("deadlock detected")

	result := newTestNotifier(store, &fakeSender{}).EndStale(context.Background())

	assert.Error(t, result.Err)
	assert.Zero(t, result.Ended)
}
