// Package metrics counts what a generator run did, in Prometheus format.
package metrics

import (
	"github.com/cms-top/crabgen/util/fsutil"
	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	prometheus.MustRegister(configsWritten)
	prometheus.MustRegister(dasQueries)
	prometheus.MustRegister(dasRetries)
	prometheus.MustRegister(submissions)
}

var configsWritten = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "crabgen",
		Name:      "configs_written_total",
		Help:      "Number of submission configs written, by era.",
	},
	[]string{"era"},
)

var dasQueries = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "crabgen",
		Subsystem: "das",
		Name:      "queries_total",
		Help:      "Number of parent lookups, by outcome (ok, error, cached).",
	},
	[]string{"outcome"},
)

var dasRetries = prometheus.NewCounter(prometheus.CounterOpts{
	Namespace: "crabgen",
	Subsystem: "das",
	Name:      "retries_total",
	Help:      "Number of retried parent lookup attempts.",
})

var submissions = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "crabgen",
		Name:      "submissions_total",
		Help:      "Number of crab submissions, by outcome (ok, error).",
	},
	[]string{"outcome"},
)

// ConfigWritten counts a submission config written for "era".
func ConfigWritten(era string) {
	configsWritten.WithLabelValues(era).Inc()
}

// DASQuery counts a parent lookup with the given outcome.
func DASQuery(outcome string) {
	dasQueries.WithLabelValues(outcome).Inc()
}

// DASRetry counts a retried parent lookup attempt.
func DASRetry() {
	dasRetries.Inc()
}

// Submission counts a crab submission.
func Submission(err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	submissions.WithLabelValues(outcome).Inc()
}

// WriteTextfile writes every registered metric to "path" in the text format
// read by the node exporter textfile collector.
func WriteTextfile(path string) error {
	if err := fsutil.EnsurePath(path); err != nil {
		return err
	}
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
