package prober

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"test-orchestrator/internal/app/config"
	"test-orchestrator/internal/pkg/orchestrator"
	"test-orchestrator/internal/pkg/orchestrator/registry"
	"test-orchestrator/internal/shared/logger"
	"test-orchestrator/internal/shared/metrics"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

func newProber(backend registry.Pinger) (*Prober, *registry.Registry, *metrics.Metrics) {
	log := logger.NewNop()
	m := metrics.New("test", log)
	reg := registry.New(config.DefaultComponents(), registry.NewStaticAvailability(config.DefaultAvailability()))
	return New(reg, backend, m, log), reg, m
}

func TestProbeBackendHealthy(t *testing.T) {
	p, reg, m := newProber(stubPinger{})

	assert.True(t, p.ProbeBackend(context.Background()))

	status, ok := reg.Status(orchestrator.BackendComponent)
	require.True(t, ok)
	assert.Equal(t, orchestrator.StateAvailable, status.State)
	assert.Equal(t, "gRPC service responding", status.Detail)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HealthChecksCounter().WithLabelValues("backend", "available")))
}

func TestProbeBackendFailureIsAbsorbed(t *testing.T) {
	p, reg, m := newProber(stubPinger{err: errors.New("connection refused")})

	assert.False(t, p.ProbeBackend(context.Background()))

	status, _ := reg.Status(orchestrator.BackendComponent)
	assert.Equal(t, orchestrator.StateNotReady, status.State)
	assert.Contains(t, status.Detail, "connection refused")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HealthChecksCounter().WithLabelValues("backend", "not_ready")))
}

func TestProbeBackendNotConfigured(t *testing.T) {
	p, reg, _ := newProber(nil)

	assert.False(t, p.ProbeBackend(context.Background()))
	status, _ := reg.Status(orchestrator.BackendComponent)
	assert.Equal(t, orchestrator.StateNotReady, status.State)
}

func TestProbeComponentRecordsStateAndCountsOnce(t *testing.T) {
	p, reg, m := newProber(stubPinger{})

	assert.False(t, p.ProbeComponent(context.Background(), "csp"))
	assert.True(t, p.ProbeComponent(context.Background(), "pkcs11"))
	assert.False(t, p.ProbeComponent(context.Background(), "csp"))

	status, _ := reg.Status("csp")
	assert.Equal(t, orchestrator.StateNotReady, status.State)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.HealthChecksCounter().WithLabelValues("csp", "not_ready")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HealthChecksCounter().WithLabelValues("pkcs11", "available")))
}

func TestProbeUnknownComponent(t *testing.T) {
	p, reg, _ := newProber(stubPinger{})

	assert.False(t, p.ProbeComponent(context.Background(), "hsm"))
	status, ok := reg.Status("hsm")
	require.True(t, ok)
	assert.Equal(t, orchestrator.StateNotReady, status.State)
}

func TestProbeAll(t *testing.T) {
	p, reg, _ := newProber(stubPinger{err: errors.New("unavailable")})

	backendHealthy, components := p.ProbeAll(context.Background())
	assert.False(t, backendHealthy)
	assert.Len(t, components, 5)
	assert.True(t, components["ctk"])
	assert.False(t, components["ksp"])

	// liveness result wins for the backend entry
	status, _ := reg.Status(orchestrator.BackendComponent)
	assert.Equal(t, orchestrator.StateNotReady, status.State)
}
