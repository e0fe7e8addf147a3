package suite

import (
	"sync"

	"test-orchestrator/internal/pkg/orchestrator"
)

// DefaultSuites is the built-in suite catalog
func DefaultSuites() []orchestrator.SuiteDefinition {
	return []orchestrator.SuiteDefinition{
		{
			Name:        "basic_connectivity",
			Description: "Connectivity and health checks across the core components",
			Components:  []string{"backend", "pkcs11", "ctk"},
			TestTypes:   []string{"connectivity", "health_check"},
		},
		{
			Name:        "cryptographic_operations",
			Description: "Key generation, signing and verification",
			Components:  []string{"backend", "pkcs11"},
			TestTypes:   []string{"key_generation", "signing", "verification"},
		},
		{
			Name:        "cross_platform",
			Description: "Key lifecycle and encryption on platform providers",
			Components:  []string{"pkcs11", "ctk"},
			TestTypes:   []string{"key_generation", "signing", "encryption"},
		},
	}
}

// Catalog holds suite definitions by name. Later definitions replace earlier ones with the same name.
type Catalog struct {
	order  []string
	byName map[string]orchestrator.SuiteDefinition
}

// NewCatalog builds a catalog from the given definitions
func NewCatalog(defs ...orchestrator.SuiteDefinition) *Catalog {
	c := &Catalog{byName: make(map[string]orchestrator.SuiteDefinition)}
	for _, d := range defs {
		if _, exists := c.byName[d.Name]; !exists {
			c.order = append(c.order, d.Name)
		}
		c.byName[d.Name] = d
	}
	return c
}

// Get looks up a suite by name
func (c *Catalog) Get(name string) (orchestrator.SuiteDefinition, bool) {
	d, ok := c.byName[name]
	return d, ok
}

// List returns every suite in declaration order
func (c *Catalog) List() []orchestrator.SuiteDefinition {
	out := make([]orchestrator.SuiteDefinition, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.byName[name])
	}
	return out
}

// Sequencer hands out per-suite test indices. Each run reserves a contiguous block
// so ids stay unique across repeated and concurrent runs of the same suite.
type Sequencer struct {
	mu   sync.Mutex
	next map[string]int
}

// NewSequencer creates a sequencer where every suite starts at index 1
func NewSequencer() *Sequencer {
	return &Sequencer{next: make(map[string]int)}
}

// Reserve returns the first index of a block of n indices for suite
func (s *Sequencer) Reserve(suite string, n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	first := s.next[suite] + 1
	s.next[suite] += n
	return first
}
