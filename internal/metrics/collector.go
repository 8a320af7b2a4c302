package metrics

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// SessionStats provides the metrics collector access to live session state.
type SessionStats interface {
	Count() int
	SubscriberCount() int
}

// QueueStats exposes the batch transcription queue depth.
type QueueStats interface {
	Pending() int
}

// Collector implements prometheus.Collector to read live gauges at scrape time.
type Collector struct {
	pool     *pgxpool.Pool
	sessions SessionStats
	queue    QueueStats

	activeSessions      *prometheus.Desc
	playbackSubscribers *prometheus.Desc
	batchQueuePending   *prometheus.Desc
	dbTotalConns        *prometheus.Desc
	dbAcquiredConns     *prometheus.Desc
	dbIdleConns         *prometheus.Desc
}

// NewCollector creates a collector that reads live state at scrape time. Any
// argument may be nil; the corresponding gauges then report 0.
func NewCollector(pool *pgxpool.Pool, sessions SessionStats, queue QueueStats) *Collector {
	return &Collector{
		pool:     pool,
		sessions: sessions,
		queue:    queue,
		activeSessions: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "active_sessions"),
			"Current number of editor sessions.",
			nil, nil,
		),
		playbackSubscribers: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "playback_subscribers_active"),
			"Current number of playback clock subscribers across all sessions.",
			nil, nil,
		),
		batchQueuePending: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "batch", "queue_pending"),
			"Drop-dir transcription jobs waiting in the queue.",
			nil, nil,
		),
		dbTotalConns: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "db_pool", "total_conns"),
			"Total database pool connections.",
			nil, nil,
		),
		dbAcquiredConns: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "db_pool", "acquired_conns"),
			"Database pool connections currently in use.",
			nil, nil,
		),
		dbIdleConns: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "db_pool", "idle_conns"),
			"Database pool idle connections.",
			nil, nil,
		),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.activeSessions
	ch <- c.playbackSubscribers
	ch <- c.batchQueuePending
	ch <- c.dbTotalConns
	ch <- c.dbAcquiredConns
	ch <- c.dbIdleConns
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	if c.sessions != nil {
		ch <- prometheus.MustNewConstMetric(c.activeSessions, prometheus.GaugeValue, float64(c.sessions.Count()))
		ch <- prometheus.MustNewConstMetric(c.playbackSubscribers, prometheus.GaugeValue, float64(c.sessions.SubscriberCount()))
	} else {
		ch <- prometheus.MustNewConstMetric(c.activeSessions, prometheus.GaugeValue, 0)
		ch <- prometheus.MustNewConstMetric(c.playbackSubscribers, prometheus.GaugeValue, 0)
	}

	if c.queue != nil {
		ch <- prometheus.MustNewConstMetric(c.batchQueuePending, prometheus.GaugeValue, float64(c.queue.Pending()))
	} else {
		ch <- prometheus.MustNewConstMetric(c.batchQueuePending, prometheus.GaugeValue, 0)
	}

	if c.pool != nil {
		stat := c.pool.Stat()
		ch <- prometheus.MustNewConstMetric(c.dbTotalConns, prometheus.GaugeValue, float64(stat.TotalConns()))
		ch <- prometheus.MustNewConstMetric(c.dbAcquiredConns, prometheus.GaugeValue, float64(stat.AcquiredConns()))
		ch <- prometheus.MustNewConstMetric(c.dbIdleConns, prometheus.GaugeValue, float64(stat.IdleConns()))
	} else {
		ch <- prometheus.MustNewConstMetric(c.dbTotalConns, prometheus.GaugeValue, 0)
		ch <- prometheus.MustNewConstMetric(c.dbAcquiredConns, prometheus.GaugeValue, 0)
		ch <- prometheus.MustNewConstMetric(c.dbIdleConns, prometheus.GaugeValue, 0)
	}
}
