// Package events defines pipeline notifications and the publishers that deliver them.
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/morezero/platform-client/pkg/apierror"
)

// Kind names a notification. Values double as NATS subject suffixes.
type Kind string

const (
	KindNetworkReachable   Kind = "network.reachable"
	KindNetworkUnreachable Kind = "network.unreachable"
	KindServerMaintenance  Kind = "server.maintenance"
	KindSDKDeprecated      Kind = "sdk.deprecated"
	KindKYCNotPassed       Kind = "kyc.not_passed"
	KindSessionInvalid     Kind = "session.invalid"
	KindSessionExpired     Kind = "session.expired"
)

// AllKinds lists every kind in a stable order.
var AllKinds = []Kind{
	KindNetworkReachable,
	KindNetworkUnreachable,
	KindServerMaintenance,
	KindSDKDeprecated,
	KindKYCNotPassed,
	KindSessionInvalid,
	KindSessionExpired,
}

func (k Kind) String() string { return string(k) }

// Event is a single notification. Error is set for error-triggered kinds and nil for
// connectivity changes. RequestID identifies the request that triggered it, if any.
type Event struct {
	Kind      Kind                   `json:"kind"`
	Error     *apierror.BackendError `json:"error,omitempty"`
	RequestID *uuid.UUID             `json:"requestId,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// NewEvent creates an Event stamped with the current UTC time.
func NewEvent(kind Kind, err *apierror.BackendError) *Event {
	return &Event{Kind: kind, Error: err, Timestamp: time.Now().UTC()}
}

// WithRequest sets RequestID and returns e.
func (e *Event) WithRequest(id uuid.UUID) *Event {
	e.RequestID = &id
	return e
}

// KindForError maps a classified error to the notification it triggers. The second
// return is false for kinds that are delivered only through the callback.
func KindForError(err *apierror.BackendError) (Kind, bool) {
	if err == nil {
		return "", false
	}
	switch {
	case err.Code == apierror.CodeNetworkNotAvailable:
		return KindNetworkUnreachable, true
	case err.Code == apierror.CodeServerMaintenance:
		return KindServerMaintenance, true
	case err.IsKYCNotPassed():
		return KindKYCNotPassed, true
	case err.IsSDKDeprecated():
		return KindSDKDeprecated, true
	case err.IsSessionExpired():
		return KindSessionExpired, true
	case err.IsSessionInvalid():
		return KindSessionInvalid, true
	}
	return "", false
}
