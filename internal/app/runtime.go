package app

import (
	"os"
	"strconv"
	"sync/atomic"
)

const testModeEnv = "STOCKROOM_TEST_MODE"

var testMode atomic.Pointer[bool]

// InTestMode reports whether STOCKROOM_TEST_MODE asks binaries to skip
// runtime startup. The variable is read once and cached.
func InTestMode() bool {
	if v := testMode.Load(); v != nil {
		return *v
	}
	return RefreshTestMode()
}

// RefreshTestMode re-reads STOCKROOM_TEST_MODE after environment changes.
func RefreshTestMode() bool {
	on, _ := strconv.ParseBool(os.Getenv(testModeEnv))
	testMode.Store(&on)
	return on
}
