// Package monitor is an optional observer that samples process CPU and
// resident memory on a fixed interval, exports the samples as gauges and logs
// threshold breaches. It reads only system counters and shares nothing with
// the solve path.
package monitor

import (
	"log"
	"time"

	"github.com/prometheus/procfs"

	"fieldroute/internal/metrics"
)

type Monitor struct {
	Interval      time.Duration
	CPUPercentMax float64 // 0 disables the CPU threshold
	RSSMaxBytes   int64   // 0 disables the memory threshold
	Stop          chan struct{}

	lastCPU    float64
	lastSample time.Time
}

func New(interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Monitor{Interval: interval, Stop: make(chan struct{})}
}

func (m *Monitor) Start() {
	go func() {
		ticker := time.NewTicker(m.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-m.Stop:
				return
			case <-ticker.C:
				m.sampleOnce()
			}
		}
	}()
}

func (m *Monitor) sampleOnce() {
	proc, err := procfs.Self()
	if err != nil {
		return
	}
	stat, err := proc.Stat()
	if err != nil {
		return
	}
	now := time.Now()
	cpu := stat.CPUTime()
	rss := int64(stat.ResidentMemory())
	metrics.ProcessRSSBytes.Set(float64(rss))
	if !m.lastSample.IsZero() {
		elapsed := now.Sub(m.lastSample).Seconds()
		if elapsed > 0 {
			pct := (cpu - m.lastCPU) / elapsed * 100
			metrics.ProcessCPUPercent.Set(pct)
			if m.CPUPercentMax > 0 && pct > m.CPUPercentMax {
				log.Printf("monitor: cpu %.1f%% above threshold %.1f%%", pct, m.CPUPercentMax)
			}
		}
	}
	if m.RSSMaxBytes > 0 && rss > m.RSSMaxBytes {
		log.Printf("monitor: rss %d bytes above threshold %d", rss, m.RSSMaxBytes)
	}
	m.lastCPU = cpu
	m.lastSample = now
}
