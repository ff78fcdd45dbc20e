// Package data holds the published knowledge base snapshot. Readers never lock:
// a reload builds a new snapshot and swaps it in atomically.
package data

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/giygas/diagnostic-api/entities"
	"github.com/giygas/diagnostic-api/interfaces"
	"github.com/giygas/diagnostic-api/logging"
)

// ErrKnowledgeBaseUnavailable is returned while no knowledge base has been published.
var ErrKnowledgeBaseUnavailable = errors.New("knowledge base unavailable")

// Compile-time check to ensure DataContainer implements DataStore
var _ interfaces.DataStore = (*DataContainer)(nil)

// DataContainer holds the knowledge base with atomic pointers for zero-downtime updates
type DataContainer struct {
	snapshot        atomic.Pointer[interfaces.Snapshot]
	version         atomic.Uint64
	updating        atomic.Bool
	serverStartTime atomic.Value // time.Time
}

// NewDataContainer creates an empty container. GetSnapshot fails until the first update.
func NewDataContainer() *DataContainer {
	dc := &DataContainer{}
	dc.serverStartTime.Store(time.Time{})
	return dc
}

// GetSnapshot returns the current snapshot or ErrKnowledgeBaseUnavailable
func (dc *DataContainer) GetSnapshot() (*interfaces.Snapshot, error) {
	snap := dc.snapshot.Load()
	if snap == nil || snap.KB == nil {
		return nil, ErrKnowledgeBaseUnavailable
	}
	return snap, nil
}

// GetKnowledgeBase returns the current knowledge base. Callers must not mutate it.
func (dc *DataContainer) GetKnowledgeBase() (*entities.KnowledgeBase, error) {
	snap, err := dc.GetSnapshot()
	if err != nil {
		return nil, err
	}
	return snap.KB, nil
}

// GetLastUpdated returns the timestamp of the last knowledge base swap
func (dc *DataContainer) GetLastUpdated() time.Time {
	if snap := dc.snapshot.Load(); snap != nil {
		return snap.LoadedAt
	}
	return time.Time{}
}

// IsUpdating returns true if a reload is currently in progress
func (dc *DataContainer) IsUpdating() bool {
	return dc.updating.Load()
}

// SetServerStartTime sets the server start time
func (dc *DataContainer) SetServerStartTime(startTime time.Time) {
	dc.serverStartTime.Store(startTime)
}

// GetServerStartTime returns the server start time
func (dc *DataContainer) GetServerStartTime() time.Time {
	if v := dc.serverStartTime.Load(); v != nil {
		if startTime, ok := v.(time.Time); ok {
			return startTime
		}
	}

	logging.Warn("Could not get the server start time value")
	return time.Time{}
}

// UpdateKnowledgeBase publishes kb as a new snapshot and returns its version.
// A nil kb is ignored and the current version is returned.
func (dc *DataContainer) UpdateKnowledgeBase(kb *entities.KnowledgeBase) uint64 {
	if kb == nil {
		logging.Warn("Ignoring nil knowledge base update")
		return dc.version.Load()
	}
	version := dc.version.Add(1)
	dc.snapshot.Store(&interfaces.Snapshot{
		KB:       kb,
		Version:  version,
		LoadedAt: time.Now(),
	})
	return version
}

// BeginUpdate marks the start of a reload.
// Returns true if the reload can proceed, false if another one is in progress
func (dc *DataContainer) BeginUpdate() bool {
	return dc.updating.CompareAndSwap(false, true)
}

// EndUpdate marks the end of a reload
func (dc *DataContainer) EndUpdate() {
	dc.updating.Store(false)
}
