// Package test holds small helpers shared by the package tests.
//
// The Demand functions stop the test on failure and should be used when later
// checks depend on the value. The Expect functions record the failure and let
// the test continue.
package test

import (
	"fmt"
	"testing"
)

func id(tags ...any) string {
	if len(tags) == 0 {
		return ""
	}
	return fmt.Sprint(tags...) + ": "
}

// DemandEquality fails the test immediately if v does not equal want.
func DemandEquality[T comparable](t *testing.T, v T, want T, tags ...any) {
	t.Helper()
	if v != want {
		t.Fatalf("%sgot %v want %v", id(tags...), v, want)
	}
}

// ExpectEquality records a failure if v does not equal want.
func ExpectEquality[T comparable](t *testing.T, v T, want T, tags ...any) bool {
	t.Helper()
	if v != want {
		t.Errorf("%sgot %v want %v", id(tags...), v, want)
		return false
	}
	return true
}

// ExpectSuccess tests v for a success value. Supported types are bool (true)
// and error (nil). A nil interface counts as success.
func ExpectSuccess(t *testing.T, v any, tags ...any) bool {
	t.Helper()
	switch v := v.(type) {
	case nil:
		return true
	case bool:
		if !v {
			t.Errorf("%sexpected success (bool)", id(tags...))
			return false
		}
	case error:
		t.Errorf("%sexpected success (error: %v)", id(tags...), v)
		return false
	default:
		t.Fatalf("unsupported type (%T) for expectation testing", v)
	}
	return true
}

// ExpectFailure is the inverse of ExpectSuccess.
func ExpectFailure(t *testing.T, v any, tags ...any) bool {
	t.Helper()
	switch v := v.(type) {
	case nil:
		t.Errorf("%sexpected failure (nil)", id(tags...))
		return false
	case bool:
		if v {
			t.Errorf("%sexpected failure (bool)", id(tags...))
			return false
		}
	case error:
		return true
	default:
		t.Fatalf("unsupported type (%T) for expectation testing", v)
	}
	return true
}

// ExpectPanic runs f and records a failure if it returns normally. Engine
// invariant violations panic, and this is how tests observe them.
func ExpectPanic(t *testing.T, f func(), tags ...any) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Errorf("%sexpected panic", id(tags...))
		}
	}()
	f()
}
