// Package health reports whether the diagnostic API can serve requests.
package health

import (
	"context"
	"math"
	"net/http"
	"time"

	"github.com/giygas/diagnostic-api/interfaces"
)

const pingTimeout = 2 * time.Second

// Pinger is satisfied by the records store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthCheckerImpl implements the interfaces.HealthChecker interface
type HealthCheckerImpl struct {
	dataStore      interfaces.DataStore
	records        Pinger
	reloadInterval time.Duration
	now            func() time.Time
}

// NewHealthChecker creates a new health checker with injected dependencies.
// records may be nil when no records store is configured.
func NewHealthChecker(dataStore interfaces.DataStore, records Pinger, reloadInterval time.Duration) interfaces.HealthChecker {
	return &HealthCheckerImpl{
		dataStore:      dataStore,
		records:        records,
		reloadInterval: reloadInterval,
		now:            time.Now,
	}
}

// HealthCheck returns health data for the /health endpoint
func (h *HealthCheckerImpl) HealthCheck() (status string, data map[string]any, httpStatus int) {
	now := h.now()
	isUpdating := h.dataStore.IsUpdating()

	data = map[string]any{
		"is_updating": isUpdating,
		"next_reload": h.CalculateNextReload().Format(time.RFC3339),
	}
	if start := h.dataStore.GetServerStartTime(); !start.IsZero() {
		data["uptime_seconds"] = math.Round(now.Sub(start).Seconds())
	}

	snap, err := h.dataStore.GetSnapshot()
	if err != nil {
		data["knowledge_base"] = "unavailable"
		return "unhealthy", data, http.StatusServiceUnavailable
	}

	dataAge := now.Sub(snap.LoadedAt)
	data["knowledge_base_version"] = snap.Version
	data["last_update"] = snap.LoadedAt.Format(time.RFC3339)
	data["data_age_hours"] = math.Round(dataAge.Hours()*10) / 10
	data["symptoms"] = len(snap.KB.Symptoms)
	data["pathologies"] = len(snap.KB.Pathologies)
	data["product_kits"] = len(snap.KB.ProductKits)

	recordsOK := true
	if h.records != nil {
		ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
		defer cancel()
		if err := h.records.Ping(ctx); err != nil {
			recordsOK = false
			data["records_store"] = "unreachable"
		} else {
			data["records_store"] = "ok"
		}
	}

	switch {
	case len(snap.KB.Pathologies) == 0 || len(snap.KB.Symptoms) == 0:
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable

	case !recordsOK:
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable

	default:
		status = "healthy"
		httpStatus = http.StatusOK
	}

	return status, data, httpStatus
}

// CalculateNextReload returns the next scheduled knowledge base check. Reloads
// run every reloadInterval starting from the server start time.
func (h *HealthCheckerImpl) CalculateNextReload() time.Time {
	now := h.now()
	if h.reloadInterval <= 0 {
		return now
	}

	start := h.dataStore.GetServerStartTime()
	if start.IsZero() || start.After(now) {
		return now.Add(h.reloadInterval)
	}

	elapsed := now.Sub(start)
	periods := elapsed/h.reloadInterval + 1
	return start.Add(periods * h.reloadInterval)
}
