package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Scrape limits for the metrics endpoint.
const (
	scrapeTimeout        = 10 * time.Second
	maxConcurrentScrapes = 4
)

// Handler serves the collector's private registry in the Prometheus and
// OpenMetrics text formats. A failing collector is reported in the scrape
// rather than failing it.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		EnableOpenMetrics:   true,
		ErrorHandling:       promhttp.ContinueOnError,
		Timeout:             scrapeTimeout,
		MaxRequestsInFlight: maxConcurrentScrapes,
	})
}
