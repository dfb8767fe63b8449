package api

import (
	"net/http"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"

	"github.com/reconly/reconly/core/logx"
)

type systemStatus struct {
	Build         BuildInfo `json:"build"`
	GoVersion     string    `json:"go_version"`
	NumGoroutines int       `json:"num_goroutines"`
	CPUPercent    float64   `json:"cpu_percent"`
	MemUsed       uint64    `json:"mem_used_bytes"`
	MemTotal      uint64    `json:"mem_total_bytes"`
	UptimeSeconds uint64    `json:"uptime_seconds"`
	Time          time.Time `json:"time"`
}

// systemStatus reports host and process health for the dashboard. Probe
// failures degrade to zero values rather than failing the endpoint.
func (a *API) systemStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	st := systemStatus{
		Build:         a.Build,
		GoVersion:     runtime.Version(),
		NumGoroutines: runtime.NumGoroutine(),
		Time:          time.Now().UTC(),
	}
	if percents, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(percents) > 0 {
		st.CPUPercent = percents[0]
	} else if err != nil {
		log := logx.Component("api")
		log.Debug().Err(err).Msg("cpu probe failed")
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		st.MemUsed = vm.Used
		st.MemTotal = vm.Total
	}
	if up, err := host.UptimeWithContext(ctx); err == nil {
		st.UptimeSeconds = up
	}
	writeJSON(w, http.StatusOK, st)
}
