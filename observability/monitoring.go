// Package observability aggregates relay counters and process metrics
// for the stats endpoint. Counters are atomic; nothing here sits on the
// hot path longer than an atomic add.
package observability

import (
	"log/slog"
	"os"
	goruntime "runtime"
	"sync/atomic"

	"github.com/shirou/gopsutil/process"
)

type Stats struct {
	SocketsConnected  int64   `json:"sockets_connected"`
	MessagesPosted    uint64  `json:"messages_posted"`
	MessagesDelivered uint64  `json:"messages_delivered"`
	FramesRelayed     uint64  `json:"frames_relayed"`
	FrameBytesRelayed uint64  `json:"frame_bytes_relayed"`
	EventsDropped     uint64  `json:"events_dropped"`
	Goroutines        int     `json:"goroutines"`
	AllocMemMb        uint64  `json:"alloc_mem_mb"`
	NumGC             uint32  `json:"num_gc"`
	RSSMb             uint64  `json:"rss_mb"`
	CPUPercent        float64 `json:"cpu_percent"`
}

type Monitor struct {
	log  *slog.Logger
	proc *process.Process

	sockets           int64
	messagesPosted    uint64
	messagesDelivered uint64
	framesRelayed     uint64
	frameBytes        uint64
	eventsDropped     uint64
}

func NewMonitor(log *slog.Logger) *Monitor {
	// Process handle failures (exotic platforms) degrade to Go runtime
	// metrics only.
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		log.Warn("process metrics unavailable", "error", err)
		proc = nil
	}
	return &Monitor{log: log, proc: proc}
}

func (m *Monitor) SocketOpened() { atomic.AddInt64(&m.sockets, 1) }
func (m *Monitor) SocketClosed() { atomic.AddInt64(&m.sockets, -1) }

func (m *Monitor) MessagePosted() { atomic.AddUint64(&m.messagesPosted, 1) }

func (m *Monitor) MessagesDelivered(n int) {
	atomic.AddUint64(&m.messagesDelivered, uint64(n))
}

func (m *Monitor) FrameRelayed(bytes int) {
	atomic.AddUint64(&m.framesRelayed, 1)
	atomic.AddUint64(&m.frameBytes, uint64(bytes))
}

func (m *Monitor) EventDropped() { atomic.AddUint64(&m.eventsDropped, 1) }

// Snapshot collects counters plus Go runtime and OS process metrics.
func (m *Monitor) Snapshot() Stats {
	var mem goruntime.MemStats
	goruntime.ReadMemStats(&mem)

	stats := Stats{
		SocketsConnected:  atomic.LoadInt64(&m.sockets),
		MessagesPosted:    atomic.LoadUint64(&m.messagesPosted),
		MessagesDelivered: atomic.LoadUint64(&m.messagesDelivered),
		FramesRelayed:     atomic.LoadUint64(&m.framesRelayed),
		FrameBytesRelayed: atomic.LoadUint64(&m.frameBytes),
		EventsDropped:     atomic.LoadUint64(&m.eventsDropped),
		Goroutines:        goruntime.NumGoroutine(),
		AllocMemMb:        mem.Alloc / 1024 / 1024,
		NumGC:             mem.NumGC,
	}

	if m.proc != nil {
		if info, err := m.proc.MemoryInfo(); err == nil {
			stats.RSSMb = info.RSS / 1024 / 1024
		}
		if cpu, err := m.proc.CPUPercent(); err == nil {
			stats.CPUPercent = cpu
		}
	}
	return stats
}
