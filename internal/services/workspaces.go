package services

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/igorsal/iam-dashboard/internal/interfaces"
	"github.com/igorsal/iam-dashboard/internal/tester"
)

const (
	DefaultWorkspaceTTL = 24 * time.Hour
	CleanupInterval     = 10 * time.Minute
)

// WorkspaceRegistry owns the explorer workspace of every browser, keyed by
// the id stored in the workspace cookie
type WorkspaceRegistry struct {
	workspaces map[string]*tester.Workspace
	mu         sync.RWMutex
	ttl        time.Duration
	logger     interfaces.Logger
	metrics    interfaces.MetricsCollector
	now        func() time.Time
	stopCh     chan struct{}
	stopOnce   sync.Once
}

func NewWorkspaceRegistry(ttl time.Duration, logger interfaces.Logger, metrics interfaces.MetricsCollector) *WorkspaceRegistry {
	if ttl <= 0 {
		ttl = DefaultWorkspaceTTL
	}
	wr := &WorkspaceRegistry{
		workspaces: make(map[string]*tester.Workspace),
		ttl:        ttl,
		logger:     logger,
		metrics:    metrics,
		now:        time.Now,
		stopCh:     make(chan struct{}),
	}

	go wr.cleanupExpired()

	return wr
}

// Acquire returns the live workspace for id, or a fresh one under a new id
// when id is unknown or expired. The boolean reports whether it was created.
func (wr *WorkspaceRegistry) Acquire(id string) (*tester.Workspace, bool) {
	now := wr.now()

	if id != "" {
		wr.mu.RLock()
		ws, exists := wr.workspaces[id]
		wr.mu.RUnlock()
		if exists && now.Sub(ws.LastSeen()) < wr.ttl {
			ws.Touch(now)
			return ws, false
		}
	}

	ws := tester.NewWorkspace(uuid.NewString())
	ws.Touch(now)

	wr.mu.Lock()
	wr.workspaces[ws.ID] = ws
	count := len(wr.workspaces)
	wr.mu.Unlock()

	wr.metrics.SetGauge("workspaces_active", float64(count), nil)
	wr.logger.Debug("Created explorer workspace", "workspace_id", ws.ID)

	return ws, true
}

// Get returns the workspace for id without creating one
func (wr *WorkspaceRegistry) Get(id string) (*tester.Workspace, bool) {
	wr.mu.RLock()
	defer wr.mu.RUnlock()

	ws, exists := wr.workspaces[id]
	if !exists || wr.now().Sub(ws.LastSeen()) >= wr.ttl {
		return nil, false
	}
	return ws, true
}

func (wr *WorkspaceRegistry) Discard(id string) {
	wr.mu.Lock()
	delete(wr.workspaces, id)
	count := len(wr.workspaces)
	wr.mu.Unlock()

	wr.metrics.SetGauge("workspaces_active", float64(count), nil)
}

func (wr *WorkspaceRegistry) Len() int {
	wr.mu.RLock()
	defer wr.mu.RUnlock()
	return len(wr.workspaces)
}

func (wr *WorkspaceRegistry) Stop() {
	wr.stopOnce.Do(func() { close(wr.stopCh) })
}

func (wr *WorkspaceRegistry) cleanupExpired() {
	ticker := time.NewTicker(CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			wr.performCleanup()
		case <-wr.stopCh:
			return
		}
	}
}

func (wr *WorkspaceRegistry) performCleanup() {
	wr.mu.Lock()

	now := wr.now()
	var expired []string

	for id, ws := range wr.workspaces {
		if now.Sub(ws.LastSeen()) >= wr.ttl {
			expired = append(expired, id)
		}
	}

	for _, id := range expired {
		delete(wr.workspaces, id)
	}
	count := len(wr.workspaces)
	wr.mu.Unlock()

	wr.metrics.SetGauge("workspaces_active", float64(count), nil)
	if len(expired) > 0 {
		wr.logger.Info("Cleaned up idle workspaces", "count", len(expired))
	}
}
