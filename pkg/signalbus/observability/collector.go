package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Stats is a point-in-time view of a bus.
type Stats struct {
	Senders     int    // senders with at least one connection
	Signals     int    // (sender, signal) pairs with at least one connection
	Connections int    // (sender, signal, receiver) triples
	Activity    uint64 // signals sent through sources bound to the bus
	Cycles      uint64 // ProcessSignals calls
	Deliveries  uint64 // coalesced receiver callbacks
	Occurrences uint64 // occurrences carried by those callbacks
	Panics      uint64 // receiver callbacks that panicked
}

// StatsSource is implemented by anything that reports Stats.
type StatsSource interface {
	ID() string
	Stats() Stats
}

// Collector exports a bus's Stats as Prometheus metrics.
type Collector struct {
	source StatsSource

	senders     *prometheus.Desc
	signals     *prometheus.Desc
	connections *prometheus.Desc
	activity    *prometheus.Desc
	cycles      *prometheus.Desc
	deliveries  *prometheus.Desc
	occurrences *prometheus.Desc
	panics      *prometheus.Desc
}

var _ prometheus.Collector = (*Collector)(nil)

// NewCollector creates a collector reading from source on every scrape.
//
//	reg := prometheus.NewRegistry()
//	reg.MustRegister(observability.NewCollector(bus))
func NewCollector(source StatsSource) *Collector {
	labels := prometheus.Labels{"bus_id": source.ID()}
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName("signalbus", "", name), help, nil, labels)
	}
	return &Collector{
		source:      source,
		senders:     desc("senders", "Senders with at least one connection."),
		signals:     desc("signals", "Connected (sender, signal) pairs."),
		connections: desc("connections", "Connected (sender, signal, receiver) triples."),
		activity:    desc("activity_total", "Signals sent through sources bound to the bus."),
		cycles:      desc("cycles_total", "Signal processing cycles."),
		deliveries:  desc("deliveries_total", "Coalesced deliveries to receivers."),
		occurrences: desc("occurrences_total", "Signal occurrences delivered to receivers."),
		panics:      desc("receiver_panics_total", "Receiver callbacks that panicked."),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.senders
	ch <- c.signals
	ch <- c.connections
	ch <- c.activity
	ch <- c.cycles
	ch <- c.deliveries
	ch <- c.occurrences
	ch <- c.panics
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.source.Stats()
	ch <- prometheus.MustNewConstMetric(c.senders, prometheus.GaugeValue, float64(s.Senders))
	ch <- prometheus.MustNewConstMetric(c.signals, prometheus.GaugeValue, float64(s.Signals))
	ch <- prometheus.MustNewConstMetric(c.connections, prometheus.GaugeValue, float64(s.Connections))
	ch <- prometheus.MustNewConstMetric(c.activity, prometheus.CounterValue, float64(s.Activity))
	ch <- prometheus.MustNewConstMetric(c.cycles, prometheus.CounterValue, float64(s.Cycles))
	ch <- prometheus.MustNewConstMetric(c.deliveries, prometheus.CounterValue, float64(s.Deliveries))
	ch <- prometheus.MustNewConstMetric(c.occurrences, prometheus.CounterValue, float64(s.Occurrences))
	ch <- prometheus.MustNewConstMetric(c.panics, prometheus.CounterValue, float64(s.Panics))
}
