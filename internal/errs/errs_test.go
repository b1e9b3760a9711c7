package errs_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"trainlog/internal/errs"
)

func TestErrorMessageNamesBackend(t *testing.T) {
	err := errs.E(errs.Quota, "local cache", "storage full")
	if got := err.Error(); got != "local cache: storage full" {
		t.Fatalf("unexpected message: %q", got)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := errs.Wrap(errs.Network, "remote store", "put 2026-W7", cause)
	if !errors.Is(err, cause) {
		t.Fatal("wrapped cause must survive errors.Is")
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Fatalf("message must include the cause: %q", err.Error())
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want errs.Kind
	}{
		{"nil", nil, ""},
		{"direct", errs.E(errs.Auth, "remote store", "no user"), errs.Auth},
		{"wrapped once", fmt.Errorf("save: %w", errs.E(errs.Quota, "local cache", "full")), errs.Quota},
		{"plain error", errors.New("boom"), errs.Internal},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := errs.KindOf(tc.err); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestIsKind(t *testing.T) {
	err := errs.E(errs.DoubleFailure, "", "both backends failed")
	if !errs.IsKind(err, errs.DoubleFailure) {
		t.Fatal("expected double failure kind")
	}
	if errs.IsKind(nil, errs.DoubleFailure) {
		t.Fatal("nil is never a kind")
	}
}
