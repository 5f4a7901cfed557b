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
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PeerStatus is one row of the "status" view: the last sample seen from a
// peer, or the fact that none has ever succeeded.
type PeerStatus struct {
	Peer       string    `json:"peer"`
	LastTheta  float64   `json:"last_theta"`
	LastDelta  float64   `json:"last_delta"`
	LastOK     time.Time `json:"last_ok"`
	EverProbed bool      `json:"ever_probed"`
}

// View is the full JSON payload served at "/".
type View struct {
	PeerID  string       `json:"peer_id"`
	Offset  float64      `json:"offset"`
	Counts  Snapshot     `json:"counts"`
	Process ProcessStats `json:"process"`
	Peers   []PeerStatus `json:"peers"`
}

// ViewFunc is called on every request to the status endpoint to build the
// current View; it lets Server avoid holding a reference to node state
// directly (kept in the node package, to avoid an import cycle).
type ViewFunc func() View

// Server serves the JSON status view and, alongside it, the Prometheus
// /metrics endpoint.
type Server struct {
	viewFn   ViewFunc
	exporter *PrometheusExporter
}

// NewServer builds a status server. exporter may be nil to disable /metrics.
func NewServer(viewFn ViewFunc, exporter *PrometheusExporter) *Server {
	return &Server{viewFn: viewFn, exporter: exporter}
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	v := s.viewFn()
	js, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(js); err != nil {
		log.Errorf("stats: failed to write status response: %v", err)
	}
}

// Start serves the status endpoints on port until the process exits. It
// blocks, matching the teacher's JSONStats.Start convention; callers run it
// in its own goroutine.
func (s *Server) Start(port int) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleStatus)
	if s.exporter != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(s.exporter.Registry(), promhttp.HandlerOpts{}))
	}
	addr := fmt.Sprintf(":%d", port)
	log.Infof("stats: serving status on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Errorf("stats: status server stopped: %v", err)
	}
}

// FetchView fetches and decodes a View from a running node's status endpoint,
// used by the "status" CLI subcommand.
func FetchView(url string) (View, error) {
	c := http.Client{Timeout: 2 * time.Second}
	resp, err := c.Get(url)
	if err != nil {
		return View{}, err
	}
	defer resp.Body.Close()
	var v View
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		return View{}, fmt.Errorf("stats: decoding status response: %w", err)
	}
	return v, nil
}
