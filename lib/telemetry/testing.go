package telemetry

import (
	"testing"
)

var setupTestEnvironments = map[string]bool{}

// SetupForTesting sets up logging in a testing environment, ensuring that
// it isn't set up more than once per service name. debug logs are only
// shown with go test -v.
func SetupForTesting(t testing.TB, serviceName string) func() {
	if setupTestEnvironments[serviceName] {
		return func() {}
	}
	setupTestEnvironments[serviceName] = true

	InitSlog(testing.Verbose())
	t.Logf("telemetry set up for %s", serviceName)
	return func() {}
}
