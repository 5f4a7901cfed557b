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
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/TYEclipse/p2p-time-sync/stats"
)

var statusURLFlag string

func init() {
	RootCmd.AddCommand(statusCmd)
	statusCmd.Flags().StringVarP(&statusURLFlag, "url", "u", "http://127.0.0.1:8080/", "status endpoint of a running meshclockd")
}

func printStatus(v stats.View) {
	fmt.Printf("peer id:  %s\n", v.PeerID)
	fmt.Printf("offset:   %.6fs\n", v.Offset)
	fmt.Printf("rounds:   %d total, %d updated, %d skipped\n", v.Counts.RoundsTotal, v.Counts.RoundsUpdated, v.Counts.RoundsSkipped)

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"peer", "theta", "delta", "ever probed"})
	for _, p := range v.Peers {
		table.Append([]string{
			p.Peer,
			strconv.FormatFloat(p.LastTheta, 'f', 6, 64),
			strconv.FormatFloat(p.LastDelta, 'f', 6, 64),
			strconv.FormatBool(p.EverProbed),
		})
	}
	table.Render()
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Query a running node's peer and offset status",
	Run: func(_ *cobra.Command, _ []string) {
		ConfigureVerbosity()

		v, err := stats.FetchView(statusURLFlag)
		if err != nil {
			log.Fatal(err)
		}
		printStatus(v)
	},
}
