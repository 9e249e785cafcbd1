package query

import "time"

// Status is the lifecycle position of an entry.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// State is an immutable view of an entry at one point in time. Data is shared
// by reference with every subscriber of the key and must not be mutated.
type State struct {
	Key        Key
	Status     Status
	Data       any
	Err        *Error
	Generation uint64 // generation of the latest issued fetch
	FetchCount int
	UpdatedAt  time.Time // last successful fetch
	ErrorAt    time.Time // last failed fetch

	keyID   string
	version uint64
}

// IsIdle reports whether no fetch has been issued yet.
func (s State) IsIdle() bool { return s.Status == StatusIdle }

// IsLoading reports whether a fetch for the current generation is in flight.
func (s State) IsLoading() bool { return s.Status == StatusLoading }

// IsSuccess reports whether the latest completed fetch succeeded and no
// newer fetch is in flight.
func (s State) IsSuccess() bool { return s.Status == StatusSuccess }

// IsError reports whether the latest completed fetch failed. It stays true
// while a retry is loading and clears on the next success.
func (s State) IsError() bool { return s.Err != nil }

// HasData reports whether a payload from a successful fetch is available.
func (s State) HasData() bool { return !s.UpdatedAt.IsZero() }
