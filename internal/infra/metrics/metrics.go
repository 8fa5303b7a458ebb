// Package metrics provides Prometheus metrics for clickquest.
// Counters, gauges and histograms for clicks, levels, decay, challenges,
// storage retries and health.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "clickquest"

// ─── Activity ───────────────────────────────────────────────────────────────

// ClicksRecorded tracks recorded activity by direction ("increment" or "decrement").
var ClicksRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "clicks_recorded_total",
	Help:      "Total goal activity events recorded.",
}, []string{"direction"})

// RecordLatency tracks end-to-end time of one activity event.
var RecordLatency = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: namespace,
	Name:      "record_latency_seconds",
	Help:      "Time to record one goal activity event.",
	Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
})

// ─── Levels ─────────────────────────────────────────────────────────────────

// LevelUps tracks goal level increases.
var LevelUps = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "level_ups_total",
	Help:      "Total goal level increases.",
})

// LevelDowns tracks goal level decreases by cause ("unclick" or "decay").
var LevelDowns = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "level_downs_total",
	Help:      "Total goal level decreases.",
}, []string{"cause"})

// AchievementsUnlocked tracks unlocks by achievement key.
var AchievementsUnlocked = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "achievements_unlocked_total",
	Help:      "Total achievements unlocked.",
}, []string{"key"})

// ─── Decay ──────────────────────────────────────────────────────────────────

// DecayPointsLost tracks points removed by decay sweeps.
var DecayPointsLost = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "decay_points_lost_total",
	Help:      "Total goal points removed by decay.",
})

// DecaySweepDuration tracks how long one decay sweep takes.
var DecaySweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: namespace,
	Name:      "decay_sweep_duration_seconds",
	Help:      "Duration of a full decay sweep.",
	Buckets:   prometheus.DefBuckets,
})

// ─── Challenges ─────────────────────────────────────────────────────────────

// ChallengesGenerated tracks daily challenges issued by type.
var ChallengesGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "challenges_generated_total",
	Help:      "Total daily challenges generated.",
}, []string{"type"})

// ChallengesCompleted tracks daily challenges completed by type.
var ChallengesCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "challenges_completed_total",
	Help:      "Total daily challenges completed.",
}, []string{"type"})

// ─── Storage ────────────────────────────────────────────────────────────────

// TxRetries tracks transactions re-run after SQLite lock contention.
var TxRetries = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "tx_retries_total",
	Help:      "Total transaction retries after busy errors.",
})

// ─── Health ─────────────────────────────────────────────────────────────────

// HealthCheckStatus tracks health check results (1=healthy, 0=unhealthy).
var HealthCheckStatus = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: namespace,
	Name:      "health_check_status",
	Help:      "Health check result per component (1=healthy, 0=unhealthy).",
}, []string{"check"})

// HealthRecoveries tracks auto-recovery attempts.
var HealthRecoveries = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "health_recoveries_total",
	Help:      "Total auto-recovery attempts per check.",
}, []string{"check"})
