// Package assert provides utilities for making assertions during tests.
package assert

import (
	"os"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// Equals fails the test if `want` and `got` are not equal.
func Equals(t *testing.T, want any, got any) {
	t.Helper()
	if diff := cmp.Diff(want, got, cmpopts.EquateErrors(), cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("Assertion failure (-want +got):\n%s", diff)
	}
}

// NoError fails the test if `err` is not nil.
func NoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("Expected no error, but got: %s", err)
	}
}

// ErrorContains fails the test if `err` is nil or its message does not contain `substr`.
func ErrorContains(t *testing.T, err error, substr string) {
	t.Helper()
	if err == nil {
		t.Fatalf("Expected an error containing %q, but got nil", substr)
	}
	if !strings.Contains(err.Error(), substr) {
		t.Fatalf("Expected an error containing %q, but got: %s", substr, err)
	}
}

// FileNotExists fails the test if the file at the given path exists.
func FileNotExists(t *testing.T, path string) {
	t.Helper()
	_, err := os.Stat(path)
	if err == nil {
		t.Fatalf("Expected file %q to not exist, but it does", path)
	}
	if !os.IsNotExist(err) {
		t.Fatalf("Expected file %q to not exist, got unexpected error: %s", path, err)
	}
}
