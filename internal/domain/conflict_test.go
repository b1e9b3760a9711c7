package domain_test

import (
	"testing"
	"time"

	"trainlog/internal/domain"
)

func TestHasConflictBoundary(t *testing.T) {
	base := time.Unix(1700000000, 0)
	tests := []struct {
		name  string
		delta time.Duration
		want  bool
	}{
		{"identical", 0, false},
		{"within tolerance", 500 * time.Millisecond, false},
		{"exactly 1000ms", 1000 * time.Millisecond, false},
		{"1001ms diverges", 1001 * time.Millisecond, true},
		{"far apart", 2 * time.Minute, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := domain.HasConflict(base, base.Add(tc.delta)); got != tc.want {
				t.Fatalf("remote ahead: expected %v, got %v", tc.want, got)
			}
			if got := domain.HasConflict(base.Add(tc.delta), base); got != tc.want {
				t.Fatalf("local ahead: expected %v, got %v", tc.want, got)
			}
		})
	}
}
