package health

import (
	"maps"
	"slices"
	"strings"
	"sync"
	"time"
)

// Monitor collects the statuses the cache, the NATS connection, the ingest
// pipeline and the gateway report about themselves. The gateway reads the
// aggregate back out for /healthz.
type Monitor struct {
	mu       sync.RWMutex
	statuses map[string]Status
}

// NewMonitor creates an empty monitor.
func NewMonitor() *Monitor {
	return &Monitor{
		statuses: make(map[string]Status),
	}
}

// Update records the status for a named component, stamping the component
// name and, when absent, the report time.
func (m *Monitor) Update(name string, status Status) {
	status.Component = name
	if status.Timestamp.IsZero() {
		status.Timestamp = time.Now()
	}

	m.mu.Lock()
	m.statuses[name] = status
	m.mu.Unlock()
}

// UpdateHealthy marks a component healthy.
func (m *Monitor) UpdateHealthy(name, message string) {
	m.Update(name, NewHealthy(name, message))
}

// UpdateUnhealthy marks a component unhealthy.
func (m *Monitor) UpdateUnhealthy(name, message string) {
	m.Update(name, NewUnhealthy(name, message))
}

// UpdateDegraded marks a component degraded.
func (m *Monitor) UpdateDegraded(name, message string) {
	m.Update(name, NewDegraded(name, message))
}

// Get returns the last reported status for a component.
func (m *Monitor) Get(name string) (Status, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	status, exists := m.statuses[name]
	return status, exists
}

// GetAll returns a copy of every component's current status.
func (m *Monitor) GetAll() map[string]Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return maps.Clone(m.statuses)
}

// Remove drops a component from monitoring, for components that are shut
// down deliberately rather than failing.
func (m *Monitor) Remove(name string) {
	m.mu.Lock()
	delete(m.statuses, name)
	m.mu.Unlock()
}

// AggregateHealth rolls every component status up into one system status.
// Sub-statuses are ordered by component name so the /healthz body is stable
// across calls.
func (m *Monitor) AggregateHealth(systemName string) Status {
	return Aggregate(systemName, m.snapshot())
}

// Count returns the number of components being monitored.
func (m *Monitor) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.statuses)
}

// snapshot copies the statuses out of the map in component-name order.
func (m *Monitor) snapshot() []Status {
	m.mu.RLock()
	statuses := slices.Collect(maps.Values(m.statuses))
	m.mu.RUnlock()

	slices.SortFunc(statuses, func(a, b Status) int {
		return strings.Compare(a.Component, b.Component)
	})
	return statuses
}
