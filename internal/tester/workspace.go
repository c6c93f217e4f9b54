package tester

import (
	"context"
	"sync"
	"time"

	"github.com/igorsal/iam-dashboard/internal/interfaces"
	"github.com/igorsal/iam-dashboard/internal/models"
)

// Workspace holds one browser's explorer inputs and results, keyed by
// endpoint key. Inputs are created on first write and never dropped; a
// result is replaced whenever a newer run settles.
type Workspace struct {
	ID string

	mu       sync.Mutex
	inputs   map[string]map[string]string
	results  map[string]models.TestOutcome
	lastSeen time.Time
}

func NewWorkspace(id string) *Workspace {
	return &Workspace{
		ID:       id,
		inputs:   make(map[string]map[string]string),
		results:  make(map[string]models.TestOutcome),
		lastSeen: time.Now(),
	}
}

// SetInput records one field value for an endpoint
func (w *Workspace) SetInput(key, field, value string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	fields, ok := w.inputs[key]
	if !ok {
		fields = make(map[string]string)
		w.inputs[key] = fields
	}
	fields[field] = value
}

// Inputs returns a copy of the fields recorded for an endpoint
func (w *Workspace) Inputs(key string) map[string]string {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make(map[string]string, len(w.inputs[key]))
	for k, v := range w.inputs[key] {
		out[k] = v
	}
	return out
}

// Store overwrites the result slot for key
func (w *Workspace) Store(key string, outcome models.TestOutcome) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.results[key] = outcome
}

func (w *Workspace) Result(key string) (models.TestOutcome, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	outcome, ok := w.results[key]
	return outcome, ok
}

func (w *Workspace) Touch(now time.Time) {
	w.mu.Lock()
	w.lastSeen = now
	w.mu.Unlock()
}

func (w *Workspace) LastSeen() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastSeen
}

// Run tests endpoint with the workspace's current inputs and stores the
// outcome when the request settles. Concurrent runs for one key keep
// whichever settles last.
func (w *Workspace) Run(ctx context.Context, t interfaces.RequestTester, endpoint models.EndpointDescriptor) models.TestOutcome {
	key := endpoint.Key()
	outcome := t.RunTest(ctx, endpoint, w.Inputs(key))
	w.Store(key, outcome)
	return outcome
}
