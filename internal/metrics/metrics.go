// Package metrics exposes simulator counters for Prometheus scraping.
package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Udeesh-Dinnipati/bugsu-ai-hunter-pro/internal/debugsim"
)

// Compile-time interface check.
var _ debugsim.Observer = (*Recorder)(nil)

// Recorder is a debugsim.Observer that counts engine events. It uses its
// own registry so tests and multiple servers never collide on the default
// one.
type Recorder struct {
	registry *prometheus.Registry

	runsStarted      prometheus.Counter
	runsFinished     *prometheus.CounterVec
	stageTransitions *prometheus.CounterVec
	faults           *prometheus.CounterVec
	issuesDiscovered prometheus.Counter
	issuesFixed      *prometheus.CounterVec
	sessions         prometheus.Gauge

	urlScans        *prometheus.CounterVec
	urlScanFindings *prometheus.CounterVec
}

// New creates a recorder with every metric registered.
func New() (*Recorder, error) {
	r := &Recorder{registry: prometheus.NewRegistry()}

	r.runsStarted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bugsu_runs_started_total",
		Help: "Debug runs that entered the scanning stage",
	})
	r.runsFinished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bugsu_runs_finished_total",
			Help: "Debug runs that reached a terminal stage",
		},
		[]string{"outcome"},
	)
	r.stageTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bugsu_stage_transitions_total",
			Help: "Stage transitions by source and target stage",
		},
		[]string{"from", "to"},
	)
	r.faults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bugsu_faults_total",
			Help: "Injected faults by phase",
		},
		[]string{"phase"},
	)
	r.issuesDiscovered = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bugsu_issues_discovered_total",
		Help: "Issues discovered while scanning",
	})
	r.issuesFixed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bugsu_issues_fixed_total",
			Help: "Issues fixed, by repair tick or forced at completion",
		},
		[]string{"mode"},
	)
	r.sessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "bugsu_sessions",
		Help: "Live debug-tool sessions",
	})
	r.urlScans = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bugsu_url_scans_total",
			Help: "Simulated URL scans by outcome",
		},
		[]string{"outcome"},
	)
	r.urlScanFindings = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bugsu_url_scan_findings_total",
			Help: "Fabricated vulnerabilities reported by URL scans, by severity",
		},
		[]string{"severity"},
	)

	collectors := []prometheus.Collector{
		r.runsStarted,
		r.runsFinished,
		r.stageTransitions,
		r.faults,
		r.issuesDiscovered,
		r.issuesFixed,
		r.sessions,
		r.urlScans,
		r.urlScanFindings,
	}
	for _, c := range collectors {
		if err := r.registry.Register(c); err != nil {
			return nil, fmt.Errorf("register metric: %w", err)
		}
	}
	return r, nil
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Sessions is the live-session gauge, handed to the session manager.
func (r *Recorder) Sessions() prometheus.Gauge {
	return r.sessions
}

func (r *Recorder) StageChanged(_ string, from, to debugsim.Stage) {
	r.stageTransitions.WithLabelValues(string(from), string(to)).Inc()
	switch to {
	case debugsim.StageScanning:
		r.runsStarted.Inc()
	case debugsim.StageComplete, debugsim.StageError:
		r.runsFinished.WithLabelValues(string(to)).Inc()
	}
}

func (r *Recorder) IssueDiscovered(string, debugsim.Issue) {
	r.issuesDiscovered.Inc()
}

func (r *Recorder) IssueFixed(_ string, _ debugsim.Issue, forced bool) {
	mode := "repaired"
	if forced {
		mode = "forced"
	}
	r.issuesFixed.WithLabelValues(mode).Inc()
}

func (r *Recorder) FaultInjected(_ string, phase debugsim.Stage, _ string) {
	r.faults.WithLabelValues(string(phase)).Inc()
}

// URLScanFinished records one simulated URL scan. severities holds the
// severity of each reported vulnerability.
func (r *Recorder) URLScanFinished(severities []string, err error) {
	if err != nil {
		r.urlScans.WithLabelValues("error").Inc()
		return
	}
	r.urlScans.WithLabelValues("ok").Inc()
	for _, s := range severities {
		r.urlScanFindings.WithLabelValues(s).Inc()
	}
}
