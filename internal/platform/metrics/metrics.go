package metrics

import (
	"net/http"
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds process-level gauges. Feature packages register their own
// collectors on the same Registry.
type Metrics struct {
	Registry *prometheus.Registry

	BuildInfo    *prometheus.GaugeVec
	NFCAvailable prometheus.Gauge
	Ready        prometheus.Gauge
}

// New creates a fresh registry with Go and process collectors and the
// process gauges.
func New(version string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	m := &Metrics{
		Registry: reg,
		BuildInfo: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "inro_build_info",
			Help: "Build information, value is always 1",
		}, []string{"version", "go_version"}),
		NFCAvailable: factory.NewGauge(prometheus.GaugeOpts{
			Name: "inro_nfc_available",
			Help: "1 when the card capability can read, 0 when it reports not_supported",
		}),
		Ready: factory.NewGauge(prometheus.GaugeOpts{
			Name: "inro_ready",
			Help: "1 while the server accepts traffic, 0 while starting or draining",
		}),
	}
	m.BuildInfo.WithLabelValues(version, runtime.Version()).Set(1)
	return m
}

// SetNFCAvailable records the capability chosen at startup.
func (m *Metrics) SetNFCAvailable(available bool) {
	m.NFCAvailable.Set(boolToFloat(available))
}

// SetReady flips the readiness gauge.
func (m *Metrics) SetReady(ready bool) {
	m.Ready.Set(boolToFloat(ready))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
