package server

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/abfi/platform/internal/database"
	"github.com/abfi/platform/internal/scheduler"
)

// SystemHandlers serves operational status endpoints
type SystemHandlers struct {
	log         zerolog.Logger
	db          *database.DB
	jobs        JobLister
	version     string
	startupTime time.Time

	// Overridable for tests
	systemStats func() (cpuPercent, ramPercent float64)
}

// NewSystemHandlers creates system handlers. db and jobs may be nil.
func NewSystemHandlers(log zerolog.Logger, db *database.DB, jobs JobLister, version string) *SystemHandlers {
	h := &SystemHandlers{
		log:         log.With().Str("handler", "system").Logger(),
		db:          db,
		jobs:        jobs,
		version:     version,
		startupTime: time.Now(),
	}
	h.systemStats = h.getSystemStats
	return h
}

// DatabaseStatus reports database reachability and size
type DatabaseStatus struct {
	Reachable bool            `json:"reachable"`
	Error     string          `json:"error,omitempty"`
	Stats     *database.Stats `json:"stats,omitempty"`
}

// SystemStatusResponse is the body of GET /api/system/status
type SystemStatusResponse struct {
	Status        string         `json:"status"` // "healthy" or "degraded"
	Version       string         `json:"version"`
	UptimeSeconds float64        `json:"uptime_seconds"`
	CPUPercent    float64        `json:"cpu_percent"`
	RAMPercent    float64        `json:"ram_percent"`
	Goroutines    int            `json:"goroutines"`
	Database      DatabaseStatus `json:"database"`
	Timestamp     string         `json:"timestamp"`
}

// HandleSystemStatus returns process, host and database health
// GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	cpuPercent, ramPercent := h.systemStats()

	resp := SystemStatusResponse{
		Status:        "healthy",
		Version:       h.version,
		UptimeSeconds: time.Since(h.startupTime).Seconds(),
		CPUPercent:    cpuPercent,
		RAMPercent:    ramPercent,
		Goroutines:    runtime.NumGoroutine(),
		Database:      h.databaseStatus(ctx),
		Timestamp:     time.Now().Format(time.RFC3339),
	}
	if !resp.Database.Reachable {
		resp.Status = "degraded"
	}

	writeJSON(h.log, w, http.StatusOK, resp)
}

// HandleJobs lists scheduled background jobs
// GET /api/system/jobs
func (h *SystemHandlers) HandleJobs(w http.ResponseWriter, r *http.Request) {
	jobs := []scheduler.JobStatus{}
	if h.jobs != nil {
		jobs = h.jobs.Jobs()
	}
	writeJSON(h.log, w, http.StatusOK, map[string]interface{}{
		"jobs":  jobs,
		"count": len(jobs),
	})
}

func (h *SystemHandlers) databaseStatus(ctx context.Context) DatabaseStatus {
	if h.db == nil {
		return DatabaseStatus{Error: "database not configured"}
	}
	if err := h.db.QuickCheck(ctx); err != nil {
		h.log.Warn().Err(err).Msg("Database health check failed")
		return DatabaseStatus{Error: err.Error()}
	}

	status := DatabaseStatus{Reachable: true}
	stats, err := h.db.GetStats(ctx)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get database stats")
		return status
	}
	status.Stats = stats
	return status
}

// getSystemStats samples CPU over 100ms and reads RAM usage instantly
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}
