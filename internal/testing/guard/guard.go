// Package guard flips binaries into test mode when imported from tests.
package guard

import (
	"os"
	"sync"
)

// EnvTestMode is read by app.InTestMode.
const EnvTestMode = "SHOPLEDGER_TEST_MODE"

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv(EnvTestMode) == "" {
			_ = os.Setenv(EnvTestMode, "1")
		}
	})
}
