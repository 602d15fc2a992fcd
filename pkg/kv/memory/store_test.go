package memory

import (
	"testing"

	"github.com/marmos91/dittotree/pkg/kv"
	kvtesting "github.com/marmos91/dittotree/pkg/kv/testing"
)

func TestMemoryStore(t *testing.T) {
	suite := &kvtesting.StoreTestSuite{
		NewStore: func(t *testing.T) kv.Store {
			return NewMemoryStore()
		},
	}
	suite.Run(t)
}
