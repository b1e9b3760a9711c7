// Package result provides the tagged success/failure container used by every
// fallible storage operation. A Result never panics for well-typed input;
// failure travels as a value until it reaches the boundary.
package result

// Result is either Ok carrying a value or Err carrying an error. The zero
// value is an Err with a nil error; construct through Ok and Err.
type Result[T any] struct {
	value T
	err   error
	ok    bool
}

// Ok wraps a success value.
func Ok[T any](v T) Result[T] {
	return Result[T]{value: v, ok: true}
}

// Err wraps a failure.
func Err[T any](err error) Result[T] {
	return Result[T]{err: err}
}

// IsOk reports whether the result carries a value.
func (r Result[T]) IsOk() bool { return r.ok }

// IsErr reports whether the result carries an error.
func (r Result[T]) IsErr() bool { return !r.ok }

// Value returns the carried value, or the zero value for an Err result.
func (r Result[T]) Value() T { return r.value }

// Err returns the carried error, or nil for an Ok result.
func (r Result[T]) Err() error { return r.err }

// Unwrap returns the value and error in Go's native shape.
func (r Result[T]) Unwrap() (T, error) { return r.value, r.err }

// Map applies f to an Ok value and re-wraps the output. An Err result passes
// through unchanged and f is never invoked.
func Map[T, U any](r Result[T], f func(T) U) Result[U] {
	if r.IsErr() {
		return Err[U](r.err)
	}
	return Ok(f(r.value))
}

// Chain applies f, which itself returns a Result, to an Ok value. An Err
// result passes through unchanged and f is never invoked.
func Chain[T, U any](r Result[T], f func(T) Result[U]) Result[U] {
	if r.IsErr() {
		return Err[U](r.err)
	}
	return f(r.value)
}
