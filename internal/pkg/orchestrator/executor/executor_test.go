package executor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"test-orchestrator/internal/app/config"
	"test-orchestrator/internal/pkg/orchestrator"
	"test-orchestrator/internal/pkg/orchestrator/prober"
	"test-orchestrator/internal/pkg/orchestrator/registry"
	"test-orchestrator/internal/pkg/orchestrator/store"
	"test-orchestrator/internal/pkg/provider"
	"test-orchestrator/internal/shared/logger"
	"test-orchestrator/internal/shared/metrics"
)

type fixture struct {
	executor *Executor
	store    *store.Store
	metrics  *metrics.Metrics
}

func newFixture(t *testing.T, timeout time.Duration) fixture {
	t.Helper()

	log := logger.NewNop()
	m := metrics.New("test", log)
	reg := registry.New(config.DefaultComponents(), registry.NewStaticAvailability(config.DefaultAvailability()))
	p := prober.New(reg, nil, m, log)

	clients := provider.Clients{}
	for _, c := range config.DefaultComponents() {
		clients[c] = provider.NewSoftwareClient(c)
	}

	s := store.New()
	return fixture{executor: New(p, clients, s, m, log, timeout), store: s, metrics: m}
}

func TestExecuteDefaultStrategiesPass(t *testing.T) {
	f := newFixture(t, 5*time.Second)

	for _, testType := range f.executor.TestTypes() {
		t.Run(testType, func(t *testing.T) {
			r := f.executor.Execute(context.Background(), "t_"+testType, "pkcs11", testType)
			assert.Equal(t, orchestrator.StatusPassed, r.Status, r.Details)
			assert.Equal(t, "pkcs11", r.Component)
			assert.Equal(t, testType, r.TestType)
			assert.GreaterOrEqual(t, r.DurationSeconds, 0.0)
		})
	}

	assert.Equal(t, len(DefaultStrategies()), f.store.Count())
}

func TestExecuteSkipsUnavailableComponent(t *testing.T) {
	f := newFixture(t, time.Second)

	r := f.executor.Execute(context.Background(), "manual_csp-1", "csp", "signing")

	assert.Equal(t, orchestrator.StatusSkipped, r.Status)
	assert.Equal(t, "Component csp not ready for testing", r.Details)
	assert.Less(t, r.DurationSeconds, 0.5)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.TestsCounter().WithLabelValues("signing", "csp", "skipped")))

	// a skipped test is neither recorded nor timed
	assert.Zero(t, f.store.Count())
	n, err := testutil.GatherAndCount(f.metrics.Registry(), "test_test_duration_seconds")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestExecuteUnknownTestType(t *testing.T) {
	f := newFixture(t, time.Second)

	r := f.executor.Execute(context.Background(), "x", "pkcs11", "fuzzing")

	assert.Equal(t, orchestrator.StatusFailed, r.Status)
	assert.Contains(t, r.Details, "no strategy registered")
	assert.Equal(t, "fuzzing", r.TestType)
	assert.Equal(t, 1, f.store.Count())
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.TestsCounter().WithLabelValues(UnregisteredTestType, "pkcs11", "failed")))
}

func TestUnregisteredTestTypesShareOneMetricSeries(t *testing.T) {
	f := newFixture(t, time.Second)

	for _, testType := range []string{"fuzzing", "zzzz", "quantum_safe"} {
		f.executor.Execute(context.Background(), "id_"+testType, "pkcs11", testType)
	}
	f.executor.Execute(context.Background(), "id_signing", "pkcs11", "signing")

	assert.Equal(t, 2, testutil.CollectAndCount(f.metrics.TestsCounter()))
	assert.Equal(t, 3.0, testutil.ToFloat64(f.metrics.TestsCounter().WithLabelValues(UnregisteredTestType, "pkcs11", "failed")))
	assert.True(t, f.executor.Supports("signing"))
	assert.False(t, f.executor.Supports("zzzz"))
}

func TestExecuteStrategyError(t *testing.T) {
	f := newFixture(t, time.Second)
	f.executor.Register(StrategyFunc{
		TestType: "connectivity",
		Expected: time.Millisecond,
		Fn: func(context.Context, provider.Client) error {
			return errors.New("token removed")
		},
	})

	r := f.executor.Execute(context.Background(), "x", "ctk", "connectivity")
	assert.Equal(t, orchestrator.StatusFailed, r.Status)
	assert.Contains(t, r.Details, "token removed")
}

func TestExecuteRecoversFromPanic(t *testing.T) {
	f := newFixture(t, time.Second)
	f.executor.Register(StrategyFunc{
		TestType: "signing",
		Expected: time.Millisecond,
		Fn: func(context.Context, provider.Client) error {
			panic("driver crashed")
		},
	})

	var r orchestrator.TestResult
	require.NotPanics(t, func() {
		r = f.executor.Execute(context.Background(), "x", "pkcs11", "signing")
	})
	assert.Equal(t, orchestrator.StatusFailed, r.Status)
	assert.Contains(t, r.Details, "driver crashed")
	assert.Equal(t, 1, f.store.Count())
}

func TestExecuteTimesOut(t *testing.T) {
	f := newFixture(t, 20*time.Millisecond)

	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	f.executor.Register(StrategyFunc{
		TestType: "key_generation",
		Expected: time.Millisecond,
		Fn: func(context.Context, provider.Client) error {
			<-release
			return nil
		},
	})

	r := f.executor.Execute(context.Background(), "x", "backend", "key_generation")
	assert.Equal(t, orchestrator.StatusFailed, r.Status)
	assert.Contains(t, r.Details, "timed out after 20ms")
}

func TestExecuteMissingClient(t *testing.T) {
	log := logger.NewNop()
	m := metrics.New("test", log)
	reg := registry.New([]string{"pkcs11"}, registry.NewStaticAvailability(map[string]bool{"pkcs11": true}))
	e := New(prober.New(reg, nil, m, log), provider.Clients{}, store.New(), m, log, time.Second)

	r := e.Execute(context.Background(), "x", "pkcs11", "connectivity")
	assert.Equal(t, orchestrator.StatusFailed, r.Status)
	assert.Contains(t, r.Details, "no provider client")
}

func TestBudgetUsesLargerOfTimeoutAndExpected(t *testing.T) {
	f := newFixture(t, time.Second)

	slow := StrategyFunc{TestType: "slow", Expected: 2 * time.Second}
	fast := StrategyFunc{TestType: "fast", Expected: 100 * time.Millisecond}

	assert.Equal(t, 4*time.Second, f.executor.budget(slow))
	assert.Equal(t, time.Second, f.executor.budget(fast))
}

func TestDefaultStrategiesDestroyKeys(t *testing.T) {
	client := provider.NewSoftwareClient("pkcs11")
	for _, s := range DefaultStrategies() {
		require.NoError(t, s.Run(context.Background(), client), s.Name())
	}
	assert.Equal(t, 0, client.KeyCount())
}
