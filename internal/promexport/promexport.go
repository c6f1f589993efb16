// Package promexport publishes computed team metrics as a Prometheus textfile.
package promexport

import (
	"fmt"
	"strings"

	"github.com/huangsam/gitpulse/schema"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const defaultNamespace = "gitpulse"

// Exporter holds the gauges of one run on a private registry.
type Exporter struct {
	namespace string
	registry  *prometheus.Registry

	// Leaderboard
	performance   *prometheus.GaugeVec
	commits       *prometheus.GaugeVec
	bestPerformer *prometheus.GaugeVec

	// Capacity
	capacityScore   *prometheus.GaugeVec
	activeMembers   *prometheus.GaugeVec
	averageVelocity *prometheus.GaugeVec
	memberVelocity  *prometheus.GaugeVec

	// Burnout
	overallRisk *prometheus.GaugeVec
	memberRisk  *prometheus.GaugeVec

	// DORA
	deployFrequency   *prometheus.GaugeVec
	leadTimeHours     *prometheus.GaugeVec
	changeFailureRate *prometheus.GaugeVec
	mttrMinutes       *prometheus.GaugeVec

	// Bottlenecks
	alerts *prometheus.GaugeVec
}

// Option applies a configuration option to the Exporter.
type Option func(*Exporter)

// WithNamespace sets the namespace for all metrics.
func WithNamespace(namespace string) Option {
	return func(e *Exporter) {
		if namespace != "" {
			e.namespace = namespace
		}
	}
}

// New creates an Exporter with every gauge registered.
func New(opts ...Option) *Exporter {
	e := &Exporter{
		namespace: defaultNamespace,
		registry:  prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.initializeMetrics()
	return e
}

func (e *Exporter) gauge(subsystem, name, help string, labels ...string) *prometheus.GaugeVec {
	return promauto.With(e.registry).NewGaugeVec(prometheus.GaugeOpts{
		Namespace: e.namespace,
		Subsystem: subsystem,
		Name:      name,
		Help:      help,
	}, append([]string{"scope"}, labels...))
}

func (e *Exporter) initializeMetrics() {
	e.performance = e.gauge("leaderboard", "performance_score", "Composite performance score per contributor", "identity")
	e.commits = e.gauge("leaderboard", "commits", "Commits per contributor in the analysis window", "identity")
	e.bestPerformer = e.gauge("leaderboard", "best_performer", "1 for the best performer of the scope", "identity")

	e.capacityScore = e.gauge("capacity", "score", "Team capacity score between 0 and 100")
	e.activeMembers = e.gauge("capacity", "active_members", "Contributors with commits in the capacity window")
	e.averageVelocity = e.gauge("capacity", "average_velocity", "Average commits per day of active members")
	e.memberVelocity = e.gauge("capacity", "member_velocity", "Commits per day per contributor", "identity", "status")

	e.overallRisk = e.gauge("burnout", "overall_risk", "Mean burnout risk of assessed members")
	e.memberRisk = e.gauge("burnout", "member_risk", "Burnout risk score per contributor", "identity", "status")

	e.deployFrequency = e.gauge("dora", "deployment_frequency", "Deployments per day")
	e.leadTimeHours = e.gauge("dora", "lead_time_hours", "Mean hours from PR creation to merge")
	e.changeFailureRate = e.gauge("dora", "change_failure_rate", "Percentage of deployments that failed")
	e.mttrMinutes = e.gauge("dora", "mttr_minutes", "Mean minutes to restore after an incident")

	e.alerts = e.gauge("bottlenecks", "alerts", "Open bottleneck alerts by severity", "severity")
}

// Registry returns the registry holding the exporter's gauges.
func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}

// ObserveLeaderboard sets the per-contributor leaderboard gauges.
func (e *Exporter) ObserveLeaderboard(scope schema.Scope, a schema.TeamAnalysis) {
	id := scope.ID()
	for _, entry := range a.Entries {
		e.performance.WithLabelValues(id, entry.Identity.Key).Set(entry.Scores.Performance)
		e.commits.WithLabelValues(id, entry.Identity.Key).Set(float64(entry.Counts.Commits))
		best := 0.0
		if entry.IsBestPerformer {
			best = 1
		}
		e.bestPerformer.WithLabelValues(id, entry.Identity.Key).Set(best)
	}
}

// ObserveCapacity sets the capacity gauges.
func (e *Exporter) ObserveCapacity(scope schema.Scope, c schema.CapacitySnapshot) {
	id := scope.ID()
	e.capacityScore.WithLabelValues(id).Set(c.TotalCapacityScore)
	e.activeMembers.WithLabelValues(id).Set(float64(c.ActiveMembersCount))
	e.averageVelocity.WithLabelValues(id).Set(c.AverageVelocity)
	for _, m := range c.MemberLoads {
		e.memberVelocity.WithLabelValues(id, m.IdentityKey, strings.ToLower(string(m.Status))).Set(m.Velocity)
	}
}

// ObserveBurnout sets the burnout gauges.
func (e *Exporter) ObserveBurnout(scope schema.Scope, b schema.BurnoutReport) {
	id := scope.ID()
	e.overallRisk.WithLabelValues(id).Set(b.OverallRisk)
	for _, m := range b.Members {
		e.memberRisk.WithLabelValues(id, m.IdentityKey, strings.ToLower(string(m.Status))).Set(m.RiskScore)
	}
}

// ObserveDORA sets the four DORA gauges.
func (e *Exporter) ObserveDORA(scope schema.Scope, d schema.DORASnapshot) {
	id := scope.ID()
	e.deployFrequency.WithLabelValues(id).Set(d.DeploymentFrequency)
	e.leadTimeHours.WithLabelValues(id).Set(d.LeadTimeHours)
	e.changeFailureRate.WithLabelValues(id).Set(d.ChangeFailureRate)
	e.mttrMinutes.WithLabelValues(id).Set(d.MTTRMinutes)
}

// ObserveBottlenecks sets the alert count per severity.
func (e *Exporter) ObserveBottlenecks(scope schema.Scope, r schema.BottleneckReport) {
	id := scope.ID()
	counts := map[schema.Severity]int{schema.HighSeverity: 0, schema.MediumSeverity: 0, schema.LowSeverity: 0}
	for _, a := range r.Alerts {
		counts[a.Severity]++
	}
	for sev, n := range counts {
		e.alerts.WithLabelValues(id, string(sev)).Set(float64(n))
	}
}

// ObserveReport sets every gauge from a combined team report.
func (e *Exporter) ObserveReport(r schema.TeamReport) {
	e.ObserveLeaderboard(r.Scope, r.Leaderboard)
	e.ObserveCapacity(r.Scope, r.Capacity)
	e.ObserveBurnout(r.Scope, r.Burnout)
	e.ObserveDORA(r.Scope, r.DORA)
	e.ObserveBottlenecks(r.Scope, r.Bottlenecks)
}

// WriteTextfile writes the registry in the node_exporter textfile format.
// The file is replaced atomically.
func (e *Exporter) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, e.registry); err != nil {
		return fmt.Errorf("failed to write metrics file %s: %w", path, err)
	}
	return nil
}
