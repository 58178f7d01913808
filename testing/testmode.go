// Package testing switches the process into test mode. Test files that build
// the app or auth stacks import it for side effects:
//
//	import _ "github.com/solutions-liquify/tms/testing"
package testing

import (
	"os"
	"sync"
)

var once sync.Once

// Enable sets TMS_TEST_MODE and a throwaway JWT_SECRET when none is set.
func Enable() {
	once.Do(func() {
		_ = os.Setenv("TMS_TEST_MODE", "1")
		if os.Getenv("JWT_SECRET") == "" {
			_ = os.Setenv("JWT_SECRET", "test-secret-test-secret-test-secret")
		}
	})
}

func init() {
	Enable()
}
