package scheduler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	mTicks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kickoff_ticks_total", Help: "Scheduler ticks completed",
	})
	mTickDur = promauto.NewHistogram(prometheus.HistogramOpts{
		Name: "kickoff_tick_duration_seconds", Help: "Scheduler tick duration",
		Buckets: prometheus.DefBuckets,
	})
	mMatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kickoff_matches_total", Help: "Live matches handled by outcome",
	}, []string{"outcome"})
	mRecipients = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kickoff_recipients_total", Help: "Devices that accepted a live notification",
	})
	mEnded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kickoff_matches_ended_total", Help: "Matches flipped to the ended status",
	})
	mErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kickoff_check_errors_total", Help: "Checks aborted by a store error",
	}, []string{"check"})
)

func observeTick(s TickSnapshot) {
	mTicks.Inc()
	mTickDur.Observe(s.Duration.Seconds())

	mMatches.WithLabelValues("notified").Add(float64(s.Detect.Notified))
	mMatches.WithLabelValues("skipped").Add(float64(s.Detect.Skipped))
	mMatches.WithLabelValues("failed").Add(float64(s.Detect.Failed))
	mRecipients.Add(float64(s.Detect.Recipients))
	mEnded.Add(float64(s.Status.Ended))

	if s.Detect.Err != nil {
		mErrors.WithLabelValues("detect").Inc()
	}
	if s.Status.Err != nil {
		mErrors.WithLabelValues("status").Inc()
	}
}
