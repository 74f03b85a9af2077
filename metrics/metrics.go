package metrics

import (
	"github.com/netsampler/flowlabel/labeller"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	NAMESPACE = "flowlabel"
)

var (
	FlowsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:      "flows_total",
			Help:      "Flow records read from input files.",
			Namespace: NAMESPACE},
		[]string{"engine", "mode"},
	)
	FlowsLabelled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:      "flows_labelled_total",
			Help:      "Flow records labelled malicious.",
			Namespace: NAMESPACE},
		[]string{"engine", "mode"},
	)
	FlowsSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:      "flows_skipped_total",
			Help:      "Flow records dropped by the validity filter.",
			Namespace: NAMESPACE},
		[]string{"mode"},
	)
	HostMatches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:      "host_matches_total",
			Help:      "Blocklisted address matches by direction.",
			Namespace: NAMESPACE},
		[]string{"mode", "direction"},
	)
	FilesProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:      "files_total",
			Help:      "Flow files processed.",
			Namespace: NAMESPACE},
		[]string{"engine", "status"},
	)
	ReferenceEntries = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name:      "reference_entries",
			Help:      "Entries loaded from reference data.",
			Namespace: NAMESPACE},
		[]string{"kind"},
	)
	RunDuration = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name:      "run_duration_ms",
			Help:      "Duration of the last run in milliseconds.",
			Namespace: NAMESPACE},
		[]string{"engine"},
	)
)

func init() {
	prometheus.MustRegister(FlowsProcessed)
	prometheus.MustRegister(FlowsLabelled)
	prometheus.MustRegister(FlowsSkipped)
	prometheus.MustRegister(HostMatches)
	prometheus.MustRegister(FilesProcessed)
	prometheus.MustRegister(ReferenceEntries)
	prometheus.MustRegister(RunDuration)
}

// ObserveHost records the statistics of one host labelling pass.
func ObserveHost(mode labeller.Mode, stats labeller.HostStats) {
	m := string(mode)
	FlowsProcessed.With(
		prometheus.Labels{
			"engine": "host",
			"mode":   m,
		}).
		Add(float64(stats.Flows))
	FlowsLabelled.With(
		prometheus.Labels{
			"engine": "host",
			"mode":   m,
		}).
		Add(float64(stats.Labelled))
	FlowsSkipped.With(
		prometheus.Labels{
			"mode": m,
		}).
		Add(float64(stats.Skipped))
	HostMatches.With(
		prometheus.Labels{
			"mode":      m,
			"direction": "src",
		}).
		Add(float64(stats.SrcMatches))
	HostMatches.With(
		prometheus.Labels{
			"mode":      m,
			"direction": "dst",
		}).
		Add(float64(stats.DstMatches))
}

// ObserveSession records the statistics of one session labelling pass.
func ObserveSession(mode labeller.Mode, stats labeller.SessionStats) {
	m := string(mode)
	FlowsProcessed.With(
		prometheus.Labels{
			"engine": "session",
			"mode":   m,
		}).
		Add(float64(stats.Flows))
	FlowsLabelled.With(
		prometheus.Labels{
			"engine": "session",
			"mode":   m,
		}).
		Add(float64(stats.Labelled))
}

// ObserveFile counts a processed file as ok or error.
func ObserveFile(engine string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	FilesProcessed.With(
		prometheus.Labels{
			"engine": engine,
			"status": status,
		}).
		Inc()
}

// ObserveReference sets the number of loaded entries of a reference data kind.
func ObserveReference(kind string, entries int) {
	ReferenceEntries.With(
		prometheus.Labels{
			"kind": kind,
		}).
		Set(float64(entries))
}
