/*
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package stats

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusExporter wires Counters and a live offset reading into a
// prometheus.Registry for scraping via promhttp.
type PrometheusExporter struct {
	registry *prometheus.Registry

	roundsTotal     prometheus.Counter
	roundsUpdated   prometheus.Counter
	roundsSkipped   prometheus.Counter
	samplesAccepted prometheus.Counter
	samplesRejected prometheus.Counter
	authFailures    prometheus.Counter
	offsetGauge     prometheus.Gauge
}

// NewPrometheusExporter creates and registers all of the node's metrics.
func NewPrometheusExporter() *PrometheusExporter {
	e := &PrometheusExporter{
		registry: prometheus.NewRegistry(),
		roundsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "meshclock_rounds_total", Help: "Number of rounds run.",
		}),
		roundsUpdated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "meshclock_rounds_updated_total", Help: "Number of rounds that updated the offset.",
		}),
		roundsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "meshclock_rounds_skipped_total", Help: "Number of rounds skipped for insufficient samples.",
		}),
		samplesAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "meshclock_samples_accepted_total", Help: "Number of probe samples accepted into a round.",
		}),
		samplesRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "meshclock_samples_rejected_total", Help: "Number of per-round peer probes that yielded no accepted sample (every attempt timed out or was rejected).",
		}),
		authFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "meshclock_auth_failures_total", Help: "Number of RESP signature verification failures.",
		}),
		offsetGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "meshclock_offset_seconds", Help: "Current logical offset applied to the local wall clock.",
		}),
	}
	e.registry.MustRegister(
		e.roundsTotal, e.roundsUpdated, e.roundsSkipped,
		e.samplesAccepted, e.samplesRejected, e.authFailures, e.offsetGauge,
	)
	return e
}

// Registry exposes the underlying registry for mounting under promhttp.
func (e *PrometheusExporter) Registry() *prometheus.Registry {
	return e.registry
}

// Update syncs the exporter's counters/gauge to the current Counters
// snapshot and offset. Prometheus counters only move forward, so this adds
// the delta since the last observed snapshot.
func (e *PrometheusExporter) Update(prev, cur Snapshot, offset float64) {
	e.roundsTotal.Add(float64(cur.RoundsTotal - prev.RoundsTotal))
	e.roundsUpdated.Add(float64(cur.RoundsUpdated - prev.RoundsUpdated))
	e.roundsSkipped.Add(float64(cur.RoundsSkipped - prev.RoundsSkipped))
	e.samplesAccepted.Add(float64(cur.SamplesAccepted - prev.SamplesAccepted))
	e.samplesRejected.Add(float64(cur.SamplesRejected - prev.SamplesRejected))
	e.authFailures.Add(float64(cur.AuthFailures - prev.AuthFailures))
	e.offsetGauge.Set(offset)
}
