package apierror

import (
	"errors"
	"fmt"
	"testing"
)

const apierrorTestPrefix = "apierror:apierror_test"

func TestLookup(t *testing.T) {
	tests := []struct {
		name   string
		raw    int
		want   Code
		wantOK bool
	}{
		{"service unavailable", 2, CodeServiceUnavailable, true},
		{"maintenance", 6, CodeServerMaintenance, true},
		{"session expired", 3033, CodeSessionExpired, true},
		{"kyc", 90263, CodeKYCNotPassed, true},
		{"unknown", 4242, Code(4242), false},
		{"zero", 0, Code(0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Lookup(tt.raw)
			if ok != tt.wantOK {
				t.Fatalf("%s - Lookup(%d) ok = %v, want %v", apierrorTestPrefix, tt.raw, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("%s - Lookup(%d) = %v, want %v", apierrorTestPrefix, tt.raw, got, tt.want)
			}
		})
	}
}

func TestCodeValuesAreStable(t *testing.T) {
	stable := map[Code]int{
		CodeUndefined:           1,
		CodeServiceUnavailable:  2,
		CodeInvalidSession:      3,
		CodeIncorrectParameters: 4,
		CodeJSONError:           5,
		CodeServerMaintenance:   6,
		CodeSDKDeprecated:       7,
		CodeNetworkNotAvailable: 8,
		CodeTooManyRequests:     9,
		CodeSessionAuthError:    3030,
		CodeUnknownSession:      3031,
		CodeEmptySession:        3032,
		CodeSessionExpired:      3033,
		CodeKYCNotPassed:        90263,
	}
	for code, want := range stable {
		if int(code) != want {
			t.Errorf("%s - %s = %d, want %d", apierrorTestPrefix, code, int(code), want)
		}
	}
}

func TestCodeString(t *testing.T) {
	if got := CodeServerMaintenance.String(); got != "server_maintenance" {
		t.Errorf("%s - String() = %q, want server_maintenance", apierrorTestPrefix, got)
	}
	if got := Code(77).String(); got != "code_77" {
		t.Errorf("%s - String() = %q, want code_77", apierrorTestPrefix, got)
	}
}

func TestBackendError_Predicates(t *testing.T) {
	tests := []struct {
		code           Code
		sessionInvalid bool
		sessionExpired bool
		deferrable     bool
	}{
		{CodeInvalidSession, true, false, false},
		{CodeUnknownSession, true, false, false},
		{CodeSessionAuthError, true, false, false},
		{CodeEmptySession, true, false, false},
		{CodeSessionExpired, false, true, false},
		{CodeNetworkNotAvailable, false, false, true},
		{CodeServerMaintenance, false, false, true},
		{CodeKYCNotPassed, false, false, true},
		{CodeSDKDeprecated, false, false, false},
		{CodeTooManyRequests, false, false, false},
		{CodeServiceUnavailable, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.code.String(), func(t *testing.T) {
			e := New(tt.code)
			if e.IsSessionInvalid() != tt.sessionInvalid {
				t.Errorf("%s - IsSessionInvalid() = %v, want %v", apierrorTestPrefix, e.IsSessionInvalid(), tt.sessionInvalid)
			}
			if e.IsSessionExpired() != tt.sessionExpired {
				t.Errorf("%s - IsSessionExpired() = %v, want %v", apierrorTestPrefix, e.IsSessionExpired(), tt.sessionExpired)
			}
			if e.IsDeferrable() != tt.deferrable {
				t.Errorf("%s - IsDeferrable() = %v, want %v", apierrorTestPrefix, e.IsDeferrable(), tt.deferrable)
			}
			if e.IsSessionError() != (tt.sessionInvalid || tt.sessionExpired) {
				t.Errorf("%s - IsSessionError() mismatch", apierrorTestPrefix)
			}
		})
	}
}

func TestBackendError_IsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NewWithReason(CodeServerMaintenance, "window"))

	if !errors.Is(err, New(CodeServerMaintenance)) {
		t.Errorf("%s - expected errors.Is to match by code", apierrorTestPrefix)
	}
	if errors.Is(err, New(CodeServiceUnavailable)) {
		t.Errorf("%s - expected errors.Is not to match a different code", apierrorTestPrefix)
	}
	if !HasCode(err, CodeServerMaintenance) {
		t.Errorf("%s - expected HasCode to see through wrapping", apierrorTestPrefix)
	}
	if HasCode(errors.New("plain"), CodeServerMaintenance) {
		t.Errorf("%s - expected HasCode false for plain errors", apierrorTestPrefix)
	}
}

func TestBackendError_Error(t *testing.T) {
	e := &BackendError{Code: CodeServiceUnavailable, Message: "db down", Reason: "EOF"}
	want := "service_unavailable: db down (EOF)"
	if got := e.Error(); got != want {
		t.Errorf("%s - Error() = %q, want %q", apierrorTestPrefix, got, want)
	}
	if got := New(CodeSDKDeprecated).Error(); got != "sdk_deprecated" {
		t.Errorf("%s - Error() = %q, want sdk_deprecated", apierrorTestPrefix, got)
	}
}

func TestDecodeBody(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantOK      bool
		wantCode    Code
		wantMessage string
		wantReason  string
	}{
		{"code only", `{"code": 3033}`, true, CodeSessionExpired, "", ""},
		{"code and message", `{"code": 4, "message": "bad phone"}`, true, CodeIncorrectParameters, "bad phone", ""},
		{"code and reason", `{"code": 90263, "reason": "pending review"}`, true, CodeKYCNotPassed, "", "pending review"},
		{"unknown code", `{"code": 12345}`, false, 0, "", ""},
		{"missing code", `{"message": "oops"}`, false, 0, "", ""},
		{"malformed", `{"code": `, false, 0, "", ""},
		{"not an object", `[1,2,3]`, false, 0, "", ""},
		{"string code", `{"code": "6"}`, false, 0, "", ""},
		{"empty", ``, false, 0, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DecodeBody([]byte(tt.body))
			if ok != tt.wantOK {
				t.Fatalf("%s - DecodeBody ok = %v, want %v", apierrorTestPrefix, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if got.Code != tt.wantCode {
				t.Errorf("%s - Code = %v, want %v", apierrorTestPrefix, got.Code, tt.wantCode)
			}
			if got.Message != tt.wantMessage {
				t.Errorf("%s - Message = %q, want %q", apierrorTestPrefix, got.Message, tt.wantMessage)
			}
			if got.Reason != tt.wantReason {
				t.Errorf("%s - Reason = %q, want %q", apierrorTestPrefix, got.Reason, tt.wantReason)
			}
		})
	}
}

func TestUserError(t *testing.T) {
	err := NewUserError("Card number is not valid")
	if err.Error() != "Card number is not valid" {
		t.Errorf("%s - Error() = %q", apierrorTestPrefix, err.Error())
	}
	if err.Code() != 1436 {
		t.Errorf("%s - Code() = %d, want 1436", apierrorTestPrefix, err.Code())
	}
	if err.Domain() != "user" {
		t.Errorf("%s - Domain() = %q, want user", apierrorTestPrefix, err.Domain())
	}
}
