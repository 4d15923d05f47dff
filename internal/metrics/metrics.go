// Package metrics provides Prometheus metrics for the mirror.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	filesDownloaded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "drivemirror_files_downloaded_total",
			Help: "Total number of files materialized from the remote tree",
		},
	)

	filesSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "drivemirror_files_skipped_total",
			Help: "Total number of files skipped because the local copy was already satisfied",
		},
	)

	bytesDownloaded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "drivemirror_bytes_downloaded_total",
			Help: "Total bytes written to local disk",
		},
	)

	transferErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "drivemirror_transfer_errors_total",
			Help: "Total number of file transfers that failed mid-stream",
		},
	)

	foldersVisited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "drivemirror_folders_visited_total",
			Help: "Total number of remote folders listed",
		},
	)

	downloadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "drivemirror_download_duration_seconds",
			Help:    "Time to download a single file",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// FileDownloaded records a completed transfer.
func FileDownloaded(bytes int64, duration time.Duration) {
	filesDownloaded.Inc()
	bytesDownloaded.Add(float64(bytes))
	downloadDuration.Observe(duration.Seconds())
}

// FileSkipped records a size-satisfied skip.
func FileSkipped() {
	filesSkipped.Inc()
}

// TransferFailed records a failed transfer.
func TransferFailed() {
	transferErrors.Inc()
}

// FolderVisited records a folder listing.
func FolderVisited() {
	foldersVisited.Inc()
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Serve exposes the scrape handler on addr in a background goroutine.
func Serve(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	go http.ListenAndServe(addr, mux)
}
