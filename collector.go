package psu

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector exports a client's exchange metrics to Prometheus. Values are
// read from the client's counters at scrape time.
type Collector struct {
	client *Client

	exchanges       *prometheus.Desc
	answered        *prometheus.Desc
	noResponses     *prometheus.Desc
	errors          *prometheus.Desc
	bytesWritten    *prometheus.Desc
	bytesRead       *prometheus.Desc
	maxLatency      *prometheus.Desc
	consecutiveFail *prometheus.Desc
	healthScore     *prometheus.Desc
}

// NewCollector returns a Collector for c. Every series carries the
// client's id as a constant "client" label.
func NewCollector(c *Client, namespace string) *Collector {
	labels := prometheus.Labels{"client": c.ID()}
	desc := func(name, help string, variable ...string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "psu", name), help, variable, labels)
	}

	return &Collector{
		client:          c,
		exchanges:       desc("exchanges_total", "Command exchanges started."),
		answered:        desc("answered_total", "Exchanges terminated by the OK line."),
		noResponses:     desc("no_response_total", "Exchanges that received nothing within the read timeout."),
		errors:          desc("errors_total", "Failed exchanges and rejected values by kind.", "kind"),
		bytesWritten:    desc("bytes_written_total", "Bytes written to the supply."),
		bytesRead:       desc("bytes_read_total", "Bytes read from the supply."),
		maxLatency:      desc("exchange_max_seconds", "Slowest exchange observed."),
		consecutiveFail: desc("consecutive_failures", "Failures since the last answered exchange."),
		healthScore:     desc("health_score", "Link health from 0 to 100."),
	}
}

// Describe implements prometheus.Collector.
func (col *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- col.exchanges
	ch <- col.answered
	ch <- col.noResponses
	ch <- col.errors
	ch <- col.bytesWritten
	ch <- col.bytesRead
	ch <- col.maxLatency
	ch <- col.consecutiveFail
	ch <- col.healthScore
}

// Collect implements prometheus.Collector.
func (col *Collector) Collect(ch chan<- prometheus.Metric) {
	s := col.client.MetricsSnapshot()

	counter := func(d *prometheus.Desc, v int64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v), labels...)
	}
	gauge := func(d *prometheus.Desc, v float64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, v)
	}

	counter(col.exchanges, s.Exchanges)
	counter(col.answered, s.Answered)
	counter(col.noResponses, s.NoResponses)
	counter(col.errors, s.FormatErrors, "format")
	counter(col.errors, s.EncodingErrors, "encoding")
	counter(col.errors, s.TransportErrors, "transport")
	counter(col.bytesWritten, s.BytesWritten)
	counter(col.bytesRead, s.BytesRead)
	gauge(col.maxLatency, s.MaxLatency.Seconds())
	gauge(col.consecutiveFail, float64(s.ConsecutiveFailures))
	gauge(col.healthScore, s.HealthScore)
}
