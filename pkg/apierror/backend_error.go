package apierror

import (
	"encoding/json"
	"errors"
	"strings"
)

// BackendError is a classified platform error. Reason carries transport-level detail
// (e.g. the underlying client error message); Message carries the server's text.
type BackendError struct {
	Code    Code   `json:"code"`
	Message string `json:"message,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// New creates a BackendError for the given code.
func New(code Code) *BackendError {
	return &BackendError{Code: code}
}

// NewWithReason creates a BackendError carrying a reason.
func NewWithReason(code Code, reason string) *BackendError {
	return &BackendError{Code: code, Reason: reason}
}

func (e *BackendError) Error() string {
	var b strings.Builder
	b.WriteString(e.Code.String())
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Reason != "" {
		b.WriteString(" (")
		b.WriteString(e.Reason)
		b.WriteString(")")
	}
	return b.String()
}

// Is matches another *BackendError by code only, so
// errors.Is(err, apierror.New(apierror.CodeServerMaintenance)) works.
func (e *BackendError) Is(target error) bool {
	var other *BackendError
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

// IsSessionInvalid reports the invalid-session family: unknown, auth, empty or the
// generic invalid session.
func (e *BackendError) IsSessionInvalid() bool {
	switch e.Code {
	case CodeInvalidSession, CodeUnknownSession, CodeSessionAuthError, CodeEmptySession:
		return true
	}
	return false
}

// IsSessionExpired reports an expired session.
func (e *BackendError) IsSessionExpired() bool {
	return e.Code == CodeSessionExpired
}

// IsSessionError reports any session sub-kind, invalid or expired.
func (e *BackendError) IsSessionError() bool {
	return e.IsSessionInvalid() || e.IsSessionExpired()
}

func (e *BackendError) IsSDKDeprecated() bool { return e.Code == CodeSDKDeprecated }

func (e *BackendError) IsKYCNotPassed() bool { return e.Code == CodeKYCNotPassed }

// IsDeferrable reports kinds expected to resolve through an external signal
// (connectivity restored, maintenance over, KYC completed).
func (e *BackendError) IsDeferrable() bool {
	switch e.Code {
	case CodeNetworkNotAvailable, CodeServerMaintenance, CodeKYCNotPassed:
		return true
	}
	return false
}

// As extracts a *BackendError from err.
func As(err error) (*BackendError, bool) {
	var be *BackendError
	if errors.As(err, &be) {
		return be, true
	}
	return nil, false
}

// HasCode reports whether err is a BackendError with the given code.
func HasCode(err error, code Code) bool {
	be, ok := As(err)
	return ok && be.Code == code
}

// errorBody is the server error envelope. Every field is optional.
type errorBody struct {
	Code    *int   `json:"code"`
	Message string `json:"message"`
	Reason  string `json:"reason"`
}

// DecodeBody extracts a server-supplied error from a JSON body. It returns false when
// the body is empty, malformed, lacks a code, or carries a code outside the taxonomy.
func DecodeBody(data []byte) (*BackendError, bool) {
	if len(data) == 0 {
		return nil, false
	}
	var body errorBody
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, false
	}
	if body.Code == nil {
		return nil, false
	}
	code, ok := Lookup(*body.Code)
	if !ok {
		return nil, false
	}
	return &BackendError{Code: code, Message: body.Message, Reason: body.Reason}, true
}
