// Package e2e builds the peakmem binary and runs it against real processes.
//
// Run with:
//
//	E2E_TEST=true go test ./test/e2e/...
package e2e
