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
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/process"
)

var procStartTime = time.Now()

// ProcessStats is a snapshot of this process's resource usage, reported
// alongside protocol counters so an operator can tell "node is slow" from
// "node is starved".
type ProcessStats struct {
	UptimeSeconds int64
	Goroutines    int
	RSSBytes      uint64
	CPUPercent    float64
}

// CollectProcessStats gathers a fresh ProcessStats snapshot.
func CollectProcessStats() (ProcessStats, error) {
	ps := ProcessStats{
		UptimeSeconds: int64(time.Since(procStartTime).Seconds()),
		Goroutines:    runtime.NumGoroutine(),
	}
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return ps, err
	}
	if mi, err := proc.MemoryInfo(); err == nil {
		ps.RSSBytes = mi.RSS
	}
	if pct, err := proc.Percent(0); err == nil {
		ps.CPUPercent = pct
	}
	return ps, nil
}
