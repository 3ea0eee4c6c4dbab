package testutil

import (
	"os"
	"testing"
)

// CleanConformanceEnv ensures that no environment variables configuring a conformance run are set in the test case `t`.
// The calling process of `go test` may run on a CI host with `JENKINS_HOME` set,
// which would be inherited by our test cases and enable scenarios modifying the system.
// The variables are restored when `t` finishes.
func CleanConformanceEnv(t *testing.T) {
	for _, name := range []string{"UDISKS_CONFORMANCE_DEVICE", "UDISKS_CONFORMANCE_MODIFY_SYSTEM", "JENKINS_HOME"} {
		// `t.Setenv` registers the restore, `os.Unsetenv` makes the variable absent rather than empty.
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
}
