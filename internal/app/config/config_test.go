package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaultsWithoutFile(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, DefaultComponents(), cfg.Components)
	assert.Equal(t, AvailabilityStatic, cfg.AvailabilityMode)
	assert.Equal(t, 30*time.Second, cfg.TestTimeout)
	assert.Equal(t, 3*time.Second, cfg.BackendProbeTimeout)
	assert.Equal(t, 4, cfg.SuiteConcurrency)
	assert.False(t, cfg.ComponentAvailability["csp"])
	assert.True(t, cfg.ComponentAvailability["pkcs11"])
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	yaml := `
server_port: 9000
test_timeout: 5s
availability_mode: file
availability_file: /etc/orchestrator/availability.yaml
suites:
  - name: signing_only
    description: Signing on the backend
    components: [backend]
    test_types: [signing, verification]
scheduled_suites:
  signing_only: "@hourly"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.ServerPort)
	assert.Equal(t, 5*time.Second, cfg.TestTimeout)
	assert.Equal(t, AvailabilityFile, cfg.AvailabilityMode)
	require.Len(t, cfg.Suites, 1)
	assert.Equal(t, []string{"signing", "verification"}, cfg.Suites[0].TestTypes)
	assert.Equal(t, "@hourly", cfg.ScheduledSuites["signing_only"])
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("SUITE_CONCURRENCY", "8")
	t.Setenv("BACKEND_GRPC_ENDPOINT", "localhost:6000")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.SuiteConcurrency)
	assert.Equal(t, "localhost:6000", cfg.BackendGRPCEndpoint)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Components:       DefaultComponents(),
			AvailabilityMode: AvailabilityStatic,
			SuiteConcurrency: 1,
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "no components", mutate: func(c *Config) { c.Components = nil }, wantErr: "at least one component"},
		{name: "bad mode", mutate: func(c *Config) { c.AvailabilityMode = "magic" }, wantErr: "unknown availability_mode"},
		{name: "file mode without path", mutate: func(c *Config) { c.AvailabilityMode = AvailabilityFile }, wantErr: "availability_file is required"},
		{name: "zero concurrency", mutate: func(c *Config) { c.SuiteConcurrency = 0 }, wantErr: "suite_concurrency"},
		{
			name:    "unnamed suite",
			mutate:  func(c *Config) { c.Suites = []SuiteConfig{{TestTypes: []string{"signing"}}} },
			wantErr: "require a name",
		},
		{
			name:    "suite without test types",
			mutate:  func(c *Config) { c.Suites = []SuiteConfig{{Name: "s", Components: []string{"backend"}}} },
			wantErr: "declares no test types",
		},
		{
			name: "suite with unknown component",
			mutate: func(c *Config) {
				c.Suites = []SuiteConfig{{Name: "s", Components: []string{"hsm"}, TestTypes: []string{"signing"}}}
			},
			wantErr: `unknown component "hsm"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
