package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(exportsTotal, exportPages) }

var (
	exportsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booklet_exports_total",
			Help: "Booklet exports labeled by status (succeeded/empty/failed).",
		},
		[]string{"status"},
	)

	exportPages = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "booklet_export_pages",
			Help:    "Pages per exported booklet.",
			Buckets: []float64{1, 2, 3, 5, 8, 13, 21},
		},
	)
)

func IncExport(status string) {
	exportsTotal.WithLabelValues(norm(status)).Inc()
}

func ObserveExportPages(n int) {
	exportPages.Observe(float64(n))
}
