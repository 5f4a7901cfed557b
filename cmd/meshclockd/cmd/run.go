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

package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/TYEclipse/p2p-time-sync/node"
)

var (
	runConfigFlag string
	runHostFlag   string
	runPortFlag   int
	runPeerFlag   []string
	runCryptoFlag bool
)

func init() {
	RootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&runConfigFlag, "config", "c", "", "path to a YAML config file")
	runCmd.Flags().StringVar(&runHostFlag, "host", "", "bind address, overrides config")
	runCmd.Flags().IntVar(&runPortFlag, "port", 0, "bind port, overrides config")
	runCmd.Flags().StringArrayVar(&runPeerFlag, "peer", nil, "peer address host:port, repeatable; overrides config")
	runCmd.Flags().BoolVar(&runCryptoFlag, "crypto", false, "sign and verify RESPs")
}

// prepareConfig loads a config file if given, then layers CLI flag
// overrides on top, mirroring the teacher's sptp prepareConfig.
func prepareConfig() (node.Config, error) {
	cfg := node.DefaultConfig()
	if runConfigFlag != "" {
		c, err := node.ReadConfig(runConfigFlag)
		if err != nil {
			return node.Config{}, fmt.Errorf("reading config %q: %w", runConfigFlag, err)
		}
		cfg = *c
	}
	if runHostFlag != "" {
		log.Debugf("overriding host from CLI flag")
		cfg.Host = runHostFlag
	}
	if runPortFlag != 0 {
		log.Debugf("overriding port from CLI flag")
		cfg.Port = runPortFlag
	}
	if len(runPeerFlag) > 0 {
		log.Debugf("overriding peers from CLI flag")
		cfg.Peers = runPeerFlag
	}
	if runCryptoFlag {
		cfg.CryptoEnabled = true
	}
	return cfg, nil
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the synchronization daemon",
	Run: func(_ *cobra.Command, _ []string) {
		ConfigureVerbosity()

		cfg, err := prepareConfig()
		if err != nil {
			log.Fatal(err)
		}
		if err := cfg.Validate(); err != nil {
			log.Fatal(err)
		}

		n, err := node.New(cfg)
		if err != nil {
			log.Fatal(err)
		}
		defer n.Close()
		log.Infof("meshclockd: peer id %s, listening on %s:%d", n.PeerID(), cfg.Host, cfg.Port)

		if cfg.StatusPort != 0 {
			go n.StatusServer().Start(cfg.StatusPort)
		}

		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		if err := n.Run(ctx); err != nil {
			log.Fatal(err)
		}
	},
}
