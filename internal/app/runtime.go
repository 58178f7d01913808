package app

import (
	"os"
	"sync"
	"sync/atomic"

	"github.com/shopspring/decimal"
)

const testModeEnv = "TMS_TEST_MODE"

var (
	testModeFlag atomic.Bool
	testModeOnce sync.Once
)

func detectTestMode() {
	testModeFlag.Store(os.Getenv(testModeEnv) == "1")
}

// InTestMode reports whether binaries should skip network side effects.
func InTestMode() bool {
	testModeOnce.Do(detectTestMode)
	return testModeFlag.Load()
}

// UseNumericDecimals makes decimal quantities encode as JSON numbers, the
// portal's wire format. Binaries call it once before serving.
func UseNumericDecimals() {
	decimal.MarshalJSONWithoutQuotes = true
}
