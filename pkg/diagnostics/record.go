package diagnostics

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Record is one persisted diagnostic entry.
type Record struct {
	ID         uuid.UUID  `json:"id"`
	RequestID  *uuid.UUID `json:"requestId,omitempty"`
	Code       int        `json:"code"`
	Kind       string     `json:"kind"`
	Message    string     `json:"message"`
	Reason     string     `json:"reason,omitempty"`
	OccurredAt time.Time  `json:"occurredAt"`
}

// RequestError ties an error to the request that produced it.
type RequestError struct {
	RequestID uuid.UUID
	Err       error
}

// WithRequest wraps err with the originating request ID. A nil err stays nil.
func WithRequest(id uuid.UUID, err error) error {
	if err == nil {
		return nil
	}
	return &RequestError{RequestID: id, Err: err}
}

func (e *RequestError) Error() string { return e.Err.Error() }

func (e *RequestError) Unwrap() error { return e.Err }

// NewRecord builds a Record for err stamped with the current UTC time.
func NewRecord(err error) Record {
	code, kind, message, reason := Describe(err)
	rec := Record{
		ID:         uuid.New(),
		Code:       code,
		Kind:       kind,
		Message:    message,
		Reason:     reason,
		OccurredAt: time.Now().UTC(),
	}
	var re *RequestError
	if errors.As(err, &re) {
		id := re.RequestID
		rec.RequestID = &id
	}
	return rec
}
