package testutil

import (
	"context"
	"testing"
	"time"

	"caredex/pkg/requestcontext"
)

// Given, When, and Then helpers keep test descriptions readable without pulling
// in a heavy BDD framework.
func Given(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	t.Run("Given "+desc, fn)
}

func When(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	t.Run("When "+desc, fn)
}

func Then(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	t.Run("Then "+desc, fn)
}

// ContextAt returns a context carrying a fixed request time, so services under
// test evaluate confidence against a deterministic clock.
func ContextAt(now time.Time) context.Context {
	return requestcontext.WithTime(context.Background(), now)
}
