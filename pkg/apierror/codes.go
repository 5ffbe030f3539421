// Package apierror defines the platform error taxonomy shared by the server and the client.
package apierror

import "fmt"

// Code is a stable numeric error code. Values are part of the server contract and
// must never be renumbered.
type Code int

const (
	CodeUndefined           Code = 1
	CodeServiceUnavailable  Code = 2
	CodeInvalidSession      Code = 3
	CodeIncorrectParameters Code = 4
	CodeJSONError           Code = 5
	CodeServerMaintenance   Code = 6
	CodeSDKDeprecated       Code = 7
	CodeNetworkNotAvailable Code = 8
	CodeTooManyRequests     Code = 9

	// Session sub-kinds reported by the server on 401 responses.
	CodeSessionAuthError Code = 3030
	CodeUnknownSession   Code = 3031
	CodeEmptySession     Code = 3032
	CodeSessionExpired   Code = 3033

	CodeKYCNotPassed Code = 90263
)

var codeNames = map[Code]string{
	CodeUndefined:           "undefined",
	CodeServiceUnavailable:  "service_unavailable",
	CodeInvalidSession:      "invalid_session",
	CodeIncorrectParameters: "incorrect_parameters",
	CodeJSONError:           "json_error",
	CodeServerMaintenance:   "server_maintenance",
	CodeSDKDeprecated:       "sdk_deprecated",
	CodeNetworkNotAvailable: "network_not_available",
	CodeTooManyRequests:     "too_many_requests",
	CodeSessionAuthError:    "session_auth_error",
	CodeUnknownSession:      "unknown_session",
	CodeEmptySession:        "empty_session",
	CodeSessionExpired:      "session_expired",
	CodeKYCNotPassed:        "kyc_not_passed",
}

// Lookup returns the Code for a raw integer when it belongs to the taxonomy.
func Lookup(raw int) (Code, bool) {
	c := Code(raw)
	_, ok := codeNames[c]
	return c, ok
}

// String returns the snake_case kind name, or "code_<n>" for unknown values.
func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("code_%d", int(c))
}

// Known reports whether c is part of the taxonomy.
func (c Code) Known() bool {
	_, ok := codeNames[c]
	return ok
}
