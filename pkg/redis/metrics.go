package redis

import (
	"github.com/prometheus/client_golang/prometheus"
	redis "github.com/redis/go-redis/v9"
)

// PoolStatsCollector exports go-redis connection pool statistics as
// Prometheus gauges. Register it once per process.
type PoolStatsCollector struct {
	client *redis.Client

	hits       *prometheus.Desc
	misses     *prometheus.Desc
	timeouts   *prometheus.Desc
	totalConns *prometheus.Desc
	idleConns  *prometheus.Desc
	staleConns *prometheus.Desc
}

var _ prometheus.Collector = (*PoolStatsCollector)(nil)

// NewPoolStatsCollector builds a collector reading client's pool stats.
func NewPoolStatsCollector(client *redis.Client) *PoolStatsCollector {
	return &PoolStatsCollector{
		client:     client,
		hits:       prometheus.NewDesc("redis_pool_hits_total", "Connections reused from the pool.", nil, nil),
		misses:     prometheus.NewDesc("redis_pool_misses_total", "Connections opened because the pool was empty.", nil, nil),
		timeouts:   prometheus.NewDesc("redis_pool_timeouts_total", "Pool checkout timeouts.", nil, nil),
		totalConns: prometheus.NewDesc("redis_pool_conns", "Connections currently in the pool.", nil, nil),
		idleConns:  prometheus.NewDesc("redis_pool_idle_conns", "Idle connections in the pool.", nil, nil),
		staleConns: prometheus.NewDesc("redis_pool_stale_conns_total", "Connections removed as stale.", nil, nil),
	}
}

func (c *PoolStatsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.hits
	ch <- c.misses
	ch <- c.timeouts
	ch <- c.totalConns
	ch <- c.idleConns
	ch <- c.staleConns
}

func (c *PoolStatsCollector) Collect(ch chan<- prometheus.Metric) {
	stats := c.client.PoolStats()

	ch <- prometheus.MustNewConstMetric(c.hits, prometheus.CounterValue, float64(stats.Hits))
	ch <- prometheus.MustNewConstMetric(c.misses, prometheus.CounterValue, float64(stats.Misses))
	ch <- prometheus.MustNewConstMetric(c.timeouts, prometheus.CounterValue, float64(stats.Timeouts))
	ch <- prometheus.MustNewConstMetric(c.totalConns, prometheus.GaugeValue, float64(stats.TotalConns))
	ch <- prometheus.MustNewConstMetric(c.idleConns, prometheus.GaugeValue, float64(stats.IdleConns))
	ch <- prometheus.MustNewConstMetric(c.staleConns, prometheus.CounterValue, float64(stats.StaleConns))
}
