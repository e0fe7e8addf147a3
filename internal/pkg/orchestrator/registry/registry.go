package registry

import (
	"context"
	"fmt"
	"sync"

	"test-orchestrator/internal/pkg/orchestrator"
)

// AvailabilityChecker answers whether a component can currently be tested.
// Implementations must not fail: problems are reported as unavailable with a detail.
type AvailabilityChecker interface {
	Availability(ctx context.Context, component string) (available bool, detail string)
}

// Registry is the source of truth for which components exist and their last observed status
type Registry struct {
	components []string
	known      map[string]struct{}
	checker    AvailabilityChecker

	mu       sync.RWMutex
	statuses map[string]orchestrator.ComponentStatus
}

// New creates a registry over the given component names
func New(components []string, checker AvailabilityChecker) *Registry {
	known := make(map[string]struct{}, len(components))
	ordered := make([]string, 0, len(components))
	for _, c := range components {
		if _, dup := known[c]; dup {
			continue
		}
		known[c] = struct{}{}
		ordered = append(ordered, c)
	}

	return &Registry{
		components: ordered,
		known:      known,
		checker:    checker,
		statuses:   make(map[string]orchestrator.ComponentStatus),
	}
}

// Components returns the known component names in declaration order
func (r *Registry) Components() []string {
	out := make([]string, len(r.components))
	copy(out, r.components)
	return out
}

// Known reports whether the component name is part of the registry
func (r *Registry) Known(component string) bool {
	_, ok := r.known[component]
	return ok
}

// Availability asks the configured checker about a component.
// Unknown names are unavailable.
func (r *Registry) Availability(ctx context.Context, component string) (bool, string) {
	if !r.Known(component) {
		return false, fmt.Sprintf("Component %s is not registered", component)
	}
	return r.checker.Availability(ctx, component)
}

// SetStatus overwrites the status of one component
func (r *Registry) SetStatus(status orchestrator.ComponentStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses[status.Name] = status
}

// Status returns the last recorded status of a component
func (r *Registry) Status(component string) (orchestrator.ComponentStatus, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.statuses[component]
	return s, ok
}

// Snapshot returns a copy of every recorded status
func (r *Registry) Snapshot() map[string]orchestrator.ComponentStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]orchestrator.ComponentStatus, len(r.statuses))
	for k, v := range r.statuses {
		out[k] = v
	}
	return out
}

// StaticAvailability answers from a fixed table
type StaticAvailability struct {
	table map[string]bool
}

// NewStaticAvailability copies the table so later edits by the caller have no effect
func NewStaticAvailability(table map[string]bool) *StaticAvailability {
	t := make(map[string]bool, len(table))
	for k, v := range table {
		t[k] = v
	}
	return &StaticAvailability{table: t}
}

// Availability implements AvailabilityChecker
func (s *StaticAvailability) Availability(_ context.Context, component string) (bool, string) {
	return s.table[component], "Component implementation status checked"
}

// Pinger is anything that can prove a component is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingAvailability treats a component as available when its pinger answers
type PingAvailability struct {
	pingers map[string]Pinger
}

// NewPingAvailability creates a live availability checker
func NewPingAvailability(pingers map[string]Pinger) *PingAvailability {
	return &PingAvailability{pingers: pingers}
}

// Availability implements AvailabilityChecker
func (p *PingAvailability) Availability(ctx context.Context, component string) (bool, string) {
	pinger, ok := p.pingers[component]
	if !ok {
		return false, fmt.Sprintf("No client configured for component %s", component)
	}
	if err := pinger.Ping(ctx); err != nil {
		return false, fmt.Sprintf("Component %s did not answer: %v", component, err)
	}
	return true, "Component responding"
}
