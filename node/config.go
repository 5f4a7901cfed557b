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

// Package node wires the wire, auth, pending, timesource, stats and
// aggregate packages into a running peer: the responder, the per-peer
// prober, the round scheduler/aggregator, and the process lifecycle.
package node

import (
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v2"
)

// Config specifies a node's run options. Timeouts and intervals are plain
// float64 seconds, matching the rest of the core's time arithmetic, rather
// than time.Duration.
type Config struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	// Peers is the static peer list, each entry "host:port".
	Peers []string `yaml:"peers"`

	SamplesPerPeer      int     `yaml:"samples_per_peer"`
	PerRoundPeerCount   int     `yaml:"per_round_peer_count"`
	RequestTimeout      float64 `yaml:"request_timeout"`
	RoundInterval       float64 `yaml:"round_interval"`
	EMAAlpha            float64 `yaml:"ema_alpha"`
	TrimRatio           float64 `yaml:"trim_ratio"`
	MinSamplesForUpdate int     `yaml:"min_samples_for_update"`

	// CryptoEnabled turns on signing of RESPs and signature verification
	// of RESPs we receive. A deployment-time choice (spec.md §4.2), not a
	// per-peer one.
	CryptoEnabled bool `yaml:"crypto_enabled"`

	// StatusPort, if nonzero, serves the JSON/Prometheus status endpoint
	// (see the stats package). 0 disables it.
	StatusPort int `yaml:"status_port"`
}

// DefaultConfig returns the option defaults enumerated in spec.md §6, for
// callers (such as the CLI) building a Config without a YAML file.
func DefaultConfig() Config {
	return defaultConfig()
}

// defaultConfig mirrors the defaults enumerated in spec.md §6.
func defaultConfig() Config {
	return Config{
		Host:                "0.0.0.0",
		Port:                9123,
		SamplesPerPeer:      3,
		PerRoundPeerCount:   20,
		RequestTimeout:      5.0,
		RoundInterval:       60.0,
		EMAAlpha:            0.3,
		TrimRatio:           0.15,
		MinSamplesForUpdate: 5,
	}
}

// ReadConfig loads a Config from a YAML file, pre-seeded with defaults so
// that an omitted field falls back rather than zeroing out.
func ReadConfig(path string) (*Config, error) {
	c := defaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("node: reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("node: parsing config %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate rejects configurations that would make the protocol's numerical
// arithmetic meaningless.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("node: invalid port %d", c.Port)
	}
	if c.SamplesPerPeer < 1 {
		return fmt.Errorf("node: samples_per_peer must be >= 1")
	}
	if c.PerRoundPeerCount < 1 {
		return fmt.Errorf("node: per_round_peer_count must be >= 1")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("node: request_timeout must be > 0")
	}
	if c.RoundInterval <= 0 {
		return fmt.Errorf("node: round_interval must be > 0")
	}
	if c.EMAAlpha <= 0 || c.EMAAlpha > 1 {
		return fmt.Errorf("node: ema_alpha must be in (0, 1]")
	}
	if c.TrimRatio < 0 || c.TrimRatio >= 0.5 {
		return fmt.Errorf("node: trim_ratio must be in [0, 0.5)")
	}
	if c.MinSamplesForUpdate < 1 {
		return fmt.Errorf("node: min_samples_for_update must be >= 1")
	}
	return nil
}
