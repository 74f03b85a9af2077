package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// WriteTextfile dumps the default registry in the node exporter textfile
// format, replacing path atomically.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("could not write metrics, %w", err)
	}
	return nil
}

// Push sends the default registry to a pushgateway under job.
func Push(uri, job string) error {
	err := push.New(uri, job).
		Gatherer(prometheus.DefaultGatherer).
		Push()
	if err != nil {
		return fmt.Errorf("could not push metrics, %w", err)
	}
	return nil
}
