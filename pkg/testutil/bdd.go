package testutil

import "testing"

// Scenario steps run as nested subtests named after their keyword, so
// `go test -run 'Given_a_verified_stake/When'` selects a single branch of a
// ledger scenario. Each step reports whether its subtest passed.

func Given(t *testing.T, desc string, fn func(t *testing.T)) bool {
	t.Helper()
	return step(t, "Given", desc, fn)
}

func When(t *testing.T, desc string, fn func(t *testing.T)) bool {
	t.Helper()
	return step(t, "When", desc, fn)
}

func Then(t *testing.T, desc string, fn func(t *testing.T)) bool {
	t.Helper()
	return step(t, "Then", desc, fn)
}

// And continues the enclosing step. It is skipped once a sibling step has
// failed, since its setup no longer holds.
func And(t *testing.T, desc string, fn func(t *testing.T)) bool {
	t.Helper()
	if t.Failed() {
		t.Skipf("And %s: earlier step failed", desc)
	}
	return step(t, "And", desc, fn)
}

func step(t *testing.T, keyword, desc string, fn func(t *testing.T)) bool {
	t.Helper()
	return t.Run(keyword+" "+desc, fn)
}
