package obs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Frame outcome labels used by Metrics.Frames.
const (
	FrameDecoded = "decoded"
	FramePlain   = "plain"
	FrameDropped = "dropped"
)

// Metrics aggregates the session counters. Each session owns its own set
// registered against its own registerer; there are no package-level
// collectors.
type Metrics struct {
	Frames     *prometheus.CounterVec
	Updates    *prometheus.CounterVec
	Reconnects prometheus.Counter
	Connected  prometheus.Gauge
}

// NewMetrics registers the session collectors with reg. A nil reg yields
// unregistered (but usable) collectors, which keeps tests independent.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Frames: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fieldscope_frames_total",
			Help: "Inbound socket frames by outcome (decoded, plain, dropped).",
		}, []string{"outcome"}),
		Updates: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fieldscope_updates_applied_total",
			Help: "Field store updates applied, by operation.",
		}, []string{"op"}),
		Reconnects: factory.NewCounter(prometheus.CounterOpts{
			Name: "fieldscope_reconnects_total",
			Help: "Reconnect attempts scheduled after a transport failure.",
		}),
		Connected: factory.NewGauge(prometheus.GaugeOpts{
			Name: "fieldscope_connected",
			Help: "1 while the socket is connected, 0 otherwise.",
		}),
	}
}
