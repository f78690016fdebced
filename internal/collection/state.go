package collection

import (
	"fmt"

	"catalogview/internal/domain/page"
)

// Status is the tag of a State
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusFailed:
		return "failed"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	switch string(b) {
	case "idle":
		*s = StatusIdle
	case "loading":
		*s = StatusLoading
	case "success":
		*s = StatusSuccess
	case "failed":
		*s = StatusFailed
	default:
		return fmt.Errorf("unknown fetch status %q", b)
	}
	return nil
}

// State is the view-state of a controller: Idle, Loading(previous), Success(result)
// or Failed(message, previous). Result is set only for Success; Previous only for
// Loading and Failed, and always points at the last successful payload.
type State[T any] struct {
	Status   Status          `json:"status"`
	Result   *page.Result[T] `json:"result,omitempty"`
	Previous *page.Result[T] `json:"previous,omitempty"`
	Message  string          `json:"message,omitempty"`
	Errors   []string        `json:"errors,omitempty"`
	Seq      uint64          `json:"seq"`
}

// Latest returns the freshest result a view can render, or nil
func (s State[T]) Latest() *page.Result[T] {
	if s.Result != nil {
		return s.Result
	}
	return s.Previous
}

func idle[T any]() State[T] {
	return State[T]{Status: StatusIdle}
}

func loading[T any](previous *page.Result[T], seq uint64) State[T] {
	return State[T]{Status: StatusLoading, Previous: previous, Seq: seq}
}

func succeeded[T any](result *page.Result[T], seq uint64) State[T] {
	return State[T]{Status: StatusSuccess, Result: result, Seq: seq}
}

func failed[T any](messages []string, previous *page.Result[T], seq uint64) State[T] {
	return State[T]{Status: StatusFailed, Message: messages[0], Errors: messages, Previous: previous, Seq: seq}
}
