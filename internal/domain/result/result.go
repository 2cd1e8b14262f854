// Package result carries the outcome of a collaborator call so callers can
// tell "nothing found" apart from "the fetch failed".
package result

// Status is the kind of outcome.
type Status string

const (
	StatusOK     Status = "ok"
	StatusEmpty  Status = "empty"
	StatusFailed Status = "failed"
)

// Result is a sequence of records or the error that prevented reading them.
type Result[T any] struct {
	Items  []T
	Status Status
	Err    error
}

// OK wraps items, reporting StatusEmpty when there are none.
func OK[T any](items []T) Result[T] {
	if len(items) == 0 {
		return Result[T]{Items: []T{}, Status: StatusEmpty}
	}
	return Result[T]{Items: items, Status: StatusOK}
}

// Empty is a successful read that found nothing.
func Empty[T any]() Result[T] {
	return Result[T]{Items: []T{}, Status: StatusEmpty}
}

// Failed wraps a read error. Items is empty, never nil.
func Failed[T any](err error) Result[T] {
	return Result[T]{Items: []T{}, Status: StatusFailed, Err: err}
}

// From builds a Result from the usual (items, err) pair.
func From[T any](items []T, err error) Result[T] {
	if err != nil {
		return Failed[T](err)
	}
	return OK(items)
}

// Failed reports whether the call errored.
func (r Result[T]) Failed() bool {
	return r.Status == StatusFailed
}

// Empty reports whether there are no items, for any reason.
func (r Result[T]) Empty() bool {
	return len(r.Items) == 0
}
