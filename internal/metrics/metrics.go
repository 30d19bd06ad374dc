package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "servoasr_runs_total",
			Help: "Total ASR generation runs",
		},
		[]string{"status"},
	)

	FormsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "servoasr_forms_generated_total",
			Help: "Total ASR forms written to template sheets",
		},
		[]string{"station", "kind"},
	)

	Warnings = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "servoasr_warnings_total",
			Help: "Total recoverable problems logged during runs",
		},
		[]string{"station"},
	)

	GroupsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "servoasr_groups_skipped_total",
			Help: "Sample groups dropped because their date-time could not be parsed",
		},
		[]string{"station"},
	)

	LastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "servoasr_last_run_timestamp_seconds",
			Help: "Unix time of the last finished run",
		},
	)
)

// WriteTextfile dumps the default registry in the node_exporter textfile
// format.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
