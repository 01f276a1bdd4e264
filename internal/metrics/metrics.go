/*
file: respd/internal/metrics/metrics.go
*/
// Package metrics wires the four instruments respd exposes to
// Prometheus: a command counter, a connection gauge, an expired-keys
// counter, and a keyspace-size gauge. The teacher's INFO command
// (info.go) reports most of this same data textually; here it is
// exported instead, the way the rest of the example pack's services
// do it.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// CommandsTotal counts dispatched commands by name, including
	// unknown ones (recorded under the literal "unknown").
	CommandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "respd_commands_total",
		Help: "Total number of commands dispatched, by command name.",
	}, []string{"command"})

	// ConnectionsActive tracks live client connections.
	ConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "respd_connections_active",
		Help: "Number of currently open client connections.",
	})

	// ExpiredKeysTotal counts keys retired by the expire worker.
	ExpiredKeysTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "respd_expired_keys_total",
		Help: "Total number of keys removed by the expiration worker.",
	})

	// KeyspaceSize is set periodically by internal/diag to the live
	// key count.
	KeyspaceSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "respd_keyspace_size",
		Help: "Current number of keys in the keyspace.",
	})
)

// Handler returns the HTTP handler to mount on the metrics listener.
func Handler() http.Handler {
	return promhttp.Handler()
}
