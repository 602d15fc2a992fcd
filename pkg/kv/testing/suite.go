// Package testing provides a conformance suite every kv.Store must pass.
package testing

import (
	"testing"

	"github.com/marmos91/dittotree/pkg/kv"
)

// StoreTestSuite tests the kv.Store contract, not implementation details,
// making it reusable across the memory, badger and redis backends.
type StoreTestSuite struct {
	// NewStore creates a fresh, empty store for each test. Implementations
	// register their own cleanup on t.
	NewStore func(t *testing.T) kv.Store

	// SkipRollback skips the checks that a failed batch leaves no trace.
	// Redis transactions do not roll back commands that fail at runtime.
	SkipRollback bool
}

// Run executes all tests in the suite.
func (suite *StoreTestSuite) Run(test *testing.T) {
	test.Run("Strings", suite.RunStringTests)
	test.Run("Hashes", suite.RunHashTests)
	test.Run("Keys", suite.RunKeyTests)
	test.Run("Pipeline", suite.RunPipelineTests)
	test.Run("Healthcheck", suite.RunHealthcheckTests)
}

func (suite *StoreTestSuite) newClient(test *testing.T) *kv.Client {
	return kv.NewClient(suite.NewStore(test))
}
