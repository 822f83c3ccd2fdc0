package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the backup server's Prometheus metrics.
type Metrics struct {
	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Backup metrics
	BackupsStored     prometheus.Counter
	BackupsDownloaded prometheus.Counter
	BackupBytes       prometheus.Histogram

	// Authentication metrics
	UsersRegistered prometheus.Counter
	AuthAttempts    *prometheus.CounterVec
	TokensRevoked   prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		HTTPRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "networth_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "networth_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		BackupsStored: promauto.NewCounter(prometheus.CounterOpts{
			Name: "networth_backups_stored_total",
			Help: "Total backup documents stored",
		}),
		BackupsDownloaded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "networth_backups_downloaded_total",
			Help: "Total backup documents downloaded",
		}),
		BackupBytes: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "networth_backup_bytes",
			Help:    "Size of stored backup documents",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
		}),

		UsersRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "networth_users_registered_total",
			Help: "Total users registered",
		}),
		AuthAttempts: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "networth_auth_attempts_total",
				Help: "Total authentication attempts",
			},
			[]string{"status"},
		),
		TokensRevoked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "networth_tokens_revoked_total",
			Help: "Total tokens revoked via logout",
		}),
	}
}
