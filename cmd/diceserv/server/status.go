package server

import (
	"fmt"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v4/net"
	"github.com/shirou/gopsutil/v4/process"
)

// Status describes the running server process.
type Status struct {
	Pid         int32    `json:"pid"`
	Uptime      string   `json:"uptime"`
	Goroutines  int      `json:"goroutines"`
	Subscribers int      `json:"subscribers"`
	RSSBytes    uint64   `json:"rss_bytes,omitempty"`
	CPUPercent  float64  `json:"cpu_percent,omitempty"`
	Listeners   []string `json:"listeners,omitempty"`
}

// ProcessStatus collects the process figures. Fields the platform cannot
// report are left zero.
func ProcessStatus(started time.Time) (Status, error) {
	pid := int32(os.Getpid())
	st := Status{
		Pid:        pid,
		Uptime:     time.Since(started).Truncate(time.Second).String(),
		Goroutines: runtime.NumGoroutine(),
	}
	p, err := process.NewProcess(pid)
	if err != nil {
		return st, fmt.Errorf("unable to find PID %d: %w", pid, err)
	}
	if mem, err := p.MemoryInfo(); err == nil {
		st.RSSBytes = mem.RSS
	}
	if cpu, err := p.CPUPercent(); err == nil {
		st.CPUPercent = cpu
	}
	if conns, err := net.ConnectionsPid("tcp", pid); err == nil {
		for _, c := range conns {
			if c.Status == "LISTEN" {
				st.Listeners = append(st.Listeners, fmt.Sprintf("%s:%d", c.Laddr.IP, c.Laddr.Port))
			}
		}
	}
	return st, nil
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st, err := ProcessStatus(s.started)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	st.Subscribers = s.hub.Count()
	writeJSON(w, http.StatusOK, st)
}
