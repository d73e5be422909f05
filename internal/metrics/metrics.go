package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Recorder holds the storefront's Prometheus metrics. A nil *Recorder is
// valid and records nothing.
type Recorder struct {
	Registry       *prometheus.Registry
	LikeToggles    *prometheus.CounterVec
	ListingFetches *prometheus.CounterVec
	ListingLatency *prometheus.HistogramVec
}

func New(namespace string) *Recorder {
	reg := prometheus.NewRegistry()

	likeToggles := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "like_toggles_total",
		Help:      "Like toggles by entity kind and outcome (liked, unliked, rolled_back, deflected).",
	}, []string{"kind", "outcome"})

	listingFetches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "listing_fetches_total",
		Help:      "Listing page fetches by listing strategy and result.",
	}, []string{"listing", "result"})

	listingLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "listing_fetch_seconds",
		Help:      "Latency of listing fetches against the marketplace API.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"listing"})

	reg.MustRegister(
		likeToggles,
		listingFetches,
		listingLatency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Recorder{
		Registry:       reg,
		LikeToggles:    likeToggles,
		ListingFetches: listingFetches,
		ListingLatency: listingLatency,
	}
}

func (r *Recorder) LikeToggle(kind, outcome string) {
	if r == nil {
		return
	}
	r.LikeToggles.WithLabelValues(kind, outcome).Inc()
}

func (r *Recorder) ListingFetch(listing string, took time.Duration, err error) {
	if r == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.ListingFetches.WithLabelValues(listing, result).Inc()
	r.ListingLatency.WithLabelValues(listing).Observe(took.Seconds())
}
