package controllers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"customermind/pkg/utils"

	"github.com/gin-gonic/gin"
)

const dependencyPingTimeout = 3 * time.Second

// Dependency is a backing service reported by the health endpoint.
type Dependency struct {
	Name string
	Ping func(ctx context.Context) error
}

type DependencyStatus struct {
	Status    string `json:"status"`
	LatencyMs int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

type SystemController struct {
	deps []Dependency
}

func NewSystemController(deps []Dependency) *SystemController {
	return &SystemController{deps: deps}
}

// Health godoc
// @Summary Service health
// @Description Pings every backing store. 503 when any of them is down.
// @Tags System
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Failure 503 {object} utils.APIResponse
// @Router /health [get]
func (s *SystemController) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), dependencyPingTimeout)
	defer cancel()

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		healthy = true
		report  = make(map[string]DependencyStatus, len(s.deps))
	)
	for _, d := range s.deps {
		wg.Add(1)
		go func(d Dependency) {
			defer wg.Done()
			started := time.Now()
			err := d.Ping(ctx)
			st := DependencyStatus{Status: "up", LatencyMs: time.Since(started).Milliseconds()}
			if err != nil {
				st.Status = "down"
				st.Error = err.Error()
			}

			mu.Lock()
			defer mu.Unlock()
			report[d.Name] = st
			if err != nil {
				healthy = false
			}
		}(d)
	}
	wg.Wait()

	if !healthy {
		utils.RespondErrorWithData(c, http.StatusServiceUnavailable, report, "One or more dependencies are unavailable")
		return
	}
	utils.RespondSuccess(c, report, "ok")
}
