package metrics

import (
	"time"

	"Backend-Attendance/src/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the attendance core.
type Metrics struct {
	ScansTotal     *prometheus.CounterVec
	ScanDuration   prometheus.Histogram
	SessionsIssued prometheus.Counter
	TeamRecomputes prometheus.Counter
	SessionsReaped prometheus.Counter
}

// New creates and registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ScansTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "attendance_scans_total",
			Help: "Attendance scans by outcome code",
		}, []string{"code"}),
		ScanDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "attendance_scan_duration_seconds",
			Help:    "Time spent validating and recording a scan",
			Buckets: prometheus.DefBuckets,
		}),
		SessionsIssued: f.NewCounter(prometheus.CounterOpts{
			Name: "attendance_sessions_issued_total",
			Help: "Attendance sessions issued",
		}),
		TeamRecomputes: f.NewCounter(prometheus.CounterOpts{
			Name: "attendance_team_recomputes_total",
			Help: "Team attendance summaries written",
		}),
		SessionsReaped: f.NewCounter(prometheus.CounterOpts{
			Name: "attendance_sessions_reaped_total",
			Help: "Expired sessions removed by the reaper sweep",
		}),
	}
}

// ObserveScan records one scan outcome.
func (m *Metrics) ObserveScan(code models.ScanCode, elapsed time.Duration) {
	m.ScansTotal.WithLabelValues(string(code)).Inc()
	m.ScanDuration.Observe(elapsed.Seconds())
}

// IncrementSessionsIssued increments the issued counter by 1.
func (m *Metrics) IncrementSessionsIssued() {
	m.SessionsIssued.Inc()
}

// ObserveTeamRecompute counts a stored summary.
func (m *Metrics) ObserveTeamRecompute(models.TeamAttendanceSummary) {
	m.TeamRecomputes.Inc()
}

// AddSessionsReaped adds n reaped sessions.
func (m *Metrics) AddSessionsReaped(n int64) {
	if n > 0 {
		m.SessionsReaped.Add(float64(n))
	}
}
