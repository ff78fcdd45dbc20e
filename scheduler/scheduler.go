// Package scheduler reloads the knowledge base when its source changes and
// watches how long ago the last successful load happened.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/giygas/diagnostic-api/interfaces"
	"github.com/giygas/diagnostic-api/logging"
	"github.com/giygas/diagnostic-api/metrics"
	"github.com/go-co-op/gocron"
)

const (
	loadTimeout         = 2 * time.Minute
	healthCheckInterval = time.Hour
)

// ErrReloadInProgress is returned by Reload when another reload holds the update flag.
var ErrReloadInProgress = errors.New("knowledge base reload already in progress")

// Compile-time check to ensure Scheduler implements Scheduler interface
var _ interfaces.Scheduler = (*Scheduler)(nil)

// Scheduler handles knowledge base reloads and health monitoring using dependency injection
type Scheduler struct {
	dataStore interfaces.DataStore
	source    interfaces.KnowledgeBaseSource
	validator interfaces.DataValidator
	interval  time.Duration
	scheduler *gocron.Scheduler

	mu          sync.Mutex
	lastModTime time.Time
	lastCheck   time.Time
	onReload    []func(version uint64)

	stopOnce sync.Once
	done     chan struct{}
}

// NewScheduler creates a new scheduler instance with injected dependencies
func NewScheduler(dataStore interfaces.DataStore, source interfaces.KnowledgeBaseSource, validator interfaces.DataValidator, interval time.Duration) *Scheduler {
	return &Scheduler{
		dataStore: dataStore,
		source:    source,
		validator: validator,
		interval:  interval,
		scheduler: gocron.NewScheduler(time.Local),
		done:      make(chan struct{}),
	}
}

// OnReload registers fn to run after every successful publish.
func (s *Scheduler) OnReload(fn func(version uint64)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onReload = append(s.onReload, fn)
}

// Start performs the initial load, then checks the source every interval
func (s *Scheduler) Start() error {
	if err := s.Reload(context.Background(), true); err != nil {
		logging.Error("Failed to perform initial knowledge base load", "error", err)
		return fmt.Errorf("initial knowledge base load failed: %w", err)
	}

	_, err := s.scheduler.Every(s.interval).WaitForSchedule().Do(func() {
		if err := s.Reload(context.Background(), false); err != nil && !errors.Is(err, ErrReloadInProgress) {
			logging.Error("Failed to reload knowledge base", "error", err)
		}
	})
	if err != nil {
		logging.Error("Failed to schedule reloads", "error", err)
		return fmt.Errorf("failed to schedule reloads: %w", err)
	}

	s.scheduler.StartAsync()

	s.startHealthMonitoring()

	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
	s.stopOnce.Do(func() { close(s.done) })
}

// Reload loads the knowledge base and publishes it. Without force, it does
// nothing when the source modification time has not changed. On failure the
// previous snapshot stays in place.
func (s *Scheduler) Reload(ctx context.Context, force bool) error {
	if !s.dataStore.BeginUpdate() {
		logging.Info("Reload already in progress, skipping...")
		metrics.KnowledgeBaseReloads.WithLabelValues("skipped").Inc()
		return ErrReloadInProgress
	}
	defer s.dataStore.EndUpdate()

	modTime, err := s.source.ModTime()
	if err != nil {
		metrics.KnowledgeBaseReloads.WithLabelValues("failure").Inc()
		return fmt.Errorf("failed to stat knowledge base %s: %w", s.source.Path(), err)
	}

	s.mu.Lock()
	unchanged := !force && modTime.Equal(s.lastModTime)
	if unchanged {
		s.lastCheck = time.Now()
	}
	s.mu.Unlock()
	if unchanged {
		logging.Debug("Knowledge base unchanged", "path", s.source.Path())
		return nil
	}

	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, loadTimeout)
	defer cancel()

	kb, err := s.source.Load(ctx)
	if err != nil {
		metrics.KnowledgeBaseReloads.WithLabelValues("failure").Inc()
		return fmt.Errorf("failed to load knowledge base: %w", err)
	}

	if s.validator != nil {
		report := s.validator.ReportDataQuality(kb)
		if len(report.PathologiesWithoutSymptoms) > 0 {
			logging.Warn("Pathologies without symptoms will never match",
				"count", len(report.PathologiesWithoutSymptoms),
				"ids", report.PathologiesWithoutSymptoms,
			)
		}
	}

	version := s.dataStore.UpdateKnowledgeBase(kb)

	s.mu.Lock()
	s.lastModTime = modTime
	s.lastCheck = time.Now()
	hooks := append([]func(uint64){}, s.onReload...)
	s.mu.Unlock()

	for _, fn := range hooks {
		fn(version)
	}

	metrics.KnowledgeBaseReloads.WithLabelValues("success").Inc()
	logging.Info("Knowledge base loaded",
		"duration", time.Since(start).String(),
		"version", version,
		"symptoms", len(kb.Symptoms),
		"pathologies", len(kb.Pathologies),
		"product_kits", len(kb.ProductKits),
	)

	return nil
}

// startHealthMonitoring warns when the source has not been read successfully
// for several intervals
func (s *Scheduler) startHealthMonitoring() {
	go func() {
		ticker := time.NewTicker(healthCheckInterval)
		defer ticker.Stop()

		for {
			select {
			case <-s.done:
				return
			case <-ticker.C:
				s.checkStaleness(time.Now())
			}
		}
	}()
}

// checkStaleness logs and reports true when the last successful check is older
// than three reload intervals.
func (s *Scheduler) checkStaleness(now time.Time) bool {
	s.mu.Lock()
	lastCheck := s.lastCheck
	s.mu.Unlock()

	if lastCheck.IsZero() {
		logging.Warn("Knowledge base has never been loaded")
		return true
	}
	if now.Sub(lastCheck) > 3*s.interval {
		logging.Warn("Knowledge base source has not been read successfully",
			"since", lastCheck.Format(time.RFC3339),
			"path", s.source.Path(),
		)
		return true
	}
	return false
}
