package dashboard

import (
	"fmt"

	"github.com/google/uuid"
)

// Status of a Stage.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusLoaded
	StatusFailed
)

var statusNames = [...]string{"idle", "loading", "loaded", "failed"}

func (st Status) String() string {
	if int(st) < len(statusNames) {
		return statusNames[st]
	}
	return "unknown"
}

func (st Status) MarshalText() ([]byte, error) {
	return []byte(st.String()), nil
}

func (st *Status) UnmarshalText(text []byte) error {
	for i, name := range statusNames {
		if name == string(text) {
			*st = Status(i)
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", text)
}

// Stage tracks one asynchronous fetch or mutation.
// Every start issues a new ticket; a result is applied only with the latest ticket,
// so a slow response for an older key can never overwrite a newer one.
type Stage[T any] struct {
	Status Status `json:"status"`
	Key    string `json:"key,omitempty"`
	Data   T      `json:"data"`
	Error  string `json:"error,omitempty"`
	ticket string
}

func (s *Stage[T]) start(key string) string {
	if s.Key != key {
		var zero T
		s.Data = zero
	}
	s.Status = StatusLoading
	s.Key = key
	s.Error = ""
	s.ticket = uuid.NewString()
	return s.ticket
}

func (s *Stage[T]) current(ticket string) bool {
	return ticket != "" && s.ticket == ticket
}

// resolve applies the outcome of the request identified by ticket; it reports false for stale tickets.
// A failure keeps the previously loaded data.
func (s *Stage[T]) resolve(ticket string, data T, err error) bool {
	if !s.current(ticket) {
		return false
	}
	s.ticket = ""
	if err != nil {
		s.Status = StatusFailed
		s.Error = err.Error()
		return true
	}
	s.Status = StatusLoaded
	s.Data = data
	return true
}

func (s *Stage[T]) reset() {
	*s = Stage[T]{}
}
