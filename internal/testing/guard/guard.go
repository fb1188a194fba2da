// Package guard forces test mode for packages that import it, keeping runtime
// side effects (server startup, queue connections) out of test binaries.
package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("FIXPOINT_TEST_MODE") == "" {
			_ = os.Setenv("FIXPOINT_TEST_MODE", "1")
		}
	})
}
