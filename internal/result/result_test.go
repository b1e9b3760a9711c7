package result_test

import (
	"errors"
	"testing"

	"trainlog/internal/result"
)

func TestOkCarriesValue(t *testing.T) {
	r := result.Ok(42)
	if !r.IsOk() || r.IsErr() {
		t.Fatal("expected Ok result")
	}
	if r.Value() != 42 {
		t.Fatalf("expected 42, got %d", r.Value())
	}
	if r.Err() != nil {
		t.Fatalf("unexpected error: %v", r.Err())
	}
}

func TestErrCarriesError(t *testing.T) {
	boom := errors.New("boom")
	r := result.Err[int](boom)
	if r.IsOk() || !r.IsErr() {
		t.Fatal("expected Err result")
	}
	if r.Err() != boom {
		t.Fatalf("expected boom, got %v", r.Err())
	}
	if r.Value() != 0 {
		t.Fatalf("expected zero value, got %d", r.Value())
	}
}

func TestMapTransformsOk(t *testing.T) {
	r := result.Map(result.Ok(2), func(v int) int { return v * 10 })
	if got := r.Value(); got != 20 {
		t.Fatalf("expected 20, got %d", got)
	}
}

func TestMapSkipsErr(t *testing.T) {
	boom := errors.New("boom")
	called := false
	r := result.Map(result.Err[int](boom), func(v int) int {
		called = true
		return v
	})
	if called {
		t.Fatal("map must not invoke the transform on Err")
	}
	if !r.IsErr() || r.Err() != boom {
		t.Fatalf("expected original error to pass through, got %v", r.Err())
	}
}

func TestChainReturnsTransformOutput(t *testing.T) {
	inner := result.Ok("seven")
	r := result.Chain(result.Ok(7), func(v int) result.Result[string] {
		if v != 7 {
			t.Fatalf("expected 7, got %d", v)
		}
		return inner
	})
	if r != inner {
		t.Fatal("chain must return exactly f(v)")
	}
}

func TestChainPropagatesErr(t *testing.T) {
	boom := errors.New("boom")
	called := false
	r := result.Chain(result.Err[int](boom), func(v int) result.Result[string] {
		called = true
		return result.Ok("nope")
	})
	if called {
		t.Fatal("chain must not invoke the transform on Err")
	}
	if !r.IsErr() || r.Err() != boom {
		t.Fatalf("expected original error to pass through, got %v", r.Err())
	}
}

func TestChainCanFail(t *testing.T) {
	boom := errors.New("boom")
	r := result.Chain(result.Ok(1), func(int) result.Result[int] {
		return result.Err[int](boom)
	})
	if !r.IsErr() || r.Err() != boom {
		t.Fatalf("expected boom, got %v", r.Err())
	}
}

func TestUnwrap(t *testing.T) {
	v, err := result.Ok("x").Unwrap()
	if v != "x" || err != nil {
		t.Fatalf("expected (x, nil), got (%q, %v)", v, err)
	}
	boom := errors.New("boom")
	_, err = result.Err[string](boom).Unwrap()
	if err != boom {
		t.Fatalf("expected boom, got %v", err)
	}
}
