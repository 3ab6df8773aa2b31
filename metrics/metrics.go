// Package metrics exports pool statistics to Prometheus.
//
// Pools are single-goroutine, so the collector never touches them while
// scraping. The game loop calls Refresh to copy the current numbers and
// Collect serves that copy.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/milk9111/gamearch/pool"
)

const namespace = "gamearch"

var (
	freeDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "pool", "free"),
		"Entities waiting on the pool's free list.",
		[]string{"pool"}, nil,
	)
	spawnedDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "pool", "spawned"),
		"Entities currently handed out by the pool.",
		[]string{"pool"}, nil,
	)
	createdDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "pool", "created_total"),
		"Entities built by the pool's factory.",
		[]string{"pool"}, nil,
	)
	discardedDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "pool", "discarded_total"),
		"Dead entities the pool dropped.",
		[]string{"pool"}, nil,
	)
)

// StatsSource is satisfied by *pool.Registry.
type StatsSource interface {
	Stats() []pool.Stats
}

// Collector is a prometheus.Collector over every pool in a registry.
type Collector struct {
	source StatsSource

	mu    sync.RWMutex
	stats []pool.Stats
}

func NewCollector(source StatsSource) *Collector {
	c := &Collector{source: source}
	c.Refresh()
	return c
}

// Refresh snapshots the source. Call it from the goroutine that owns the
// pools.
func (c *Collector) Refresh() {
	stats := c.source.Stats()
	c.mu.Lock()
	c.stats = stats
	c.mu.Unlock()
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- freeDesc
	ch <- spawnedDesc
	ch <- createdDesc
	ch <- discardedDesc
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, s := range c.stats {
		ch <- prometheus.MustNewConstMetric(freeDesc, prometheus.GaugeValue, float64(s.Free), s.Name)
		ch <- prometheus.MustNewConstMetric(spawnedDesc, prometheus.GaugeValue, float64(s.Spawned), s.Name)
		ch <- prometheus.MustNewConstMetric(createdDesc, prometheus.CounterValue, float64(s.Created), s.Name)
		ch <- prometheus.MustNewConstMetric(discardedDesc, prometheus.CounterValue, float64(s.Discarded), s.Name)
	}
}
