package telemetry

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/core/domain"
	"github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/usecase"
)

// DefaultNamespace prefixes every collector exported by the service.
const DefaultNamespace = "trend_diary"

// Register registers collector with reg, reusing an identical collector that is already registered.
func Register[T prometheus.Collector](reg prometheus.Registerer, collector T) (T, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	if err := reg.Register(collector); err != nil {
		var already prometheus.AlreadyRegisteredError
		if !errors.As(err, &already) {
			return collector, fmt.Errorf("register collector: %w", err)
		}
		existing, ok := already.ExistingCollector.(T)
		if !ok {
			return collector, fmt.Errorf("existing collector has unexpected type %T", already.ExistingCollector)
		}
		return existing, nil
	}

	return collector, nil
}

// AuthMetricsOptions configures the authentication and authorization collectors.
type AuthMetricsOptions struct {
	Registerer prometheus.Registerer
	Namespace  string
}

// AuthMetrics counts session authentication outcomes and authorization decisions.
type AuthMetrics struct {
	Authentications  *prometheus.CounterVec
	Decisions        *prometheus.CounterVec
	DecisionDuration prometheus.Histogram
	ProbeRejections  prometheus.Counter
}

// NewAuthMetrics constructs and registers the collectors.
func NewAuthMetrics(opts AuthMetricsOptions) (*AuthMetrics, error) {
	namespace := opts.Namespace
	if namespace == "" {
		namespace = DefaultNamespace
	}

	authentications, err := Register(opts.Registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "auth",
		Name:      "session_authentications_total",
		Help:      "Session authentication attempts partitioned by outcome.",
	}, []string{"outcome"}))
	if err != nil {
		return nil, fmt.Errorf("authentications: %w", err)
	}

	decisions, err := Register(opts.Registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "authz",
		Name:      "decisions_total",
		Help:      "Authorization decisions partitioned by outcome and reason.",
	}, []string{"outcome", "reason"}))
	if err != nil {
		return nil, fmt.Errorf("decisions: %w", err)
	}

	duration, err := Register(opts.Registerer, prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "authz",
		Name:      "decision_duration_seconds",
		Help:      "Time spent resolving permissions and deciding a request.",
		Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
	}))
	if err != nil {
		return nil, fmt.Errorf("decision duration: %w", err)
	}

	rejections, err := Register(opts.Registerer, prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "auth",
		Name:      "probe_guard_rejections_total",
		Help:      "Requests rejected because the client exceeded the failed authentication limit.",
	}))
	if err != nil {
		return nil, fmt.Errorf("probe rejections: %w", err)
	}

	return &AuthMetrics{
		Authentications:  authentications,
		Decisions:        decisions,
		DecisionDuration: duration,
		ProbeRejections:  rejections,
	}, nil
}

// RecordAuthentication implements usecase.AuthenticationRecorder.
func (m *AuthMetrics) RecordAuthentication(outcome usecase.AuthOutcome) {
	if m == nil {
		return
	}
	m.Authentications.WithLabelValues(string(outcome)).Inc()
}

// RecordDecision implements usecase.DecisionRecorder.
func (m *AuthMetrics) RecordDecision(decision domain.Decision, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Decisions.WithLabelValues(decision.Outcome(), string(decision.Reason)).Inc()
	m.DecisionDuration.Observe(elapsed.Seconds())
}

// RecordProbeRejection counts a request refused by the probe guard.
func (m *AuthMetrics) RecordProbeRejection() {
	if m == nil {
		return
	}
	m.ProbeRejections.Inc()
}

var (
	_ usecase.AuthenticationRecorder = (*AuthMetrics)(nil)
	_ usecase.DecisionRecorder       = (*AuthMetrics)(nil)
)
