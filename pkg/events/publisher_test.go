package events

import (
	"context"
	"errors"
	"testing"

	"github.com/morezero/platform-client/pkg/apierror"
)

func TestNoOpPublisher(t *testing.T) {
	pub := &NoOpPublisher{}
	err := pub.Publish(context.Background(), NewEvent(KindNetworkReachable, nil))
	if err != nil {
		t.Errorf("events:publisher_test - expected no error, got %v", err)
	}
}

func TestCallbackPublisher(t *testing.T) {
	var captured *Event

	pub := NewCallbackPublisher(func(_ context.Context, event *Event) error {
		captured = event
		return nil
	})

	event := NewEvent(KindServerMaintenance, apierror.New(apierror.CodeServerMaintenance))
	if err := pub.Publish(context.Background(), event); err != nil {
		t.Errorf("events:publisher_test - expected no error, got %v", err)
	}

	if captured == nil {
		t.Fatal("events:publisher_test - expected callback to be called")
	}
	if captured.Kind != KindServerMaintenance {
		t.Errorf("events:publisher_test - Kind = %s, want %s", captured.Kind, KindServerMaintenance)
	}
	if captured.Error == nil || captured.Error.Code != apierror.CodeServerMaintenance {
		t.Errorf("events:publisher_test - Error = %v, want server_maintenance", captured.Error)
	}
}

func TestMultiPublisher_CallsAllAndJoinsErrors(t *testing.T) {
	var calls []string
	errFirst := errors.New("first failed")

	multi := NewMultiPublisher(
		NewCallbackPublisher(func(_ context.Context, _ *Event) error {
			calls = append(calls, "first")
			return errFirst
		}),
		nil,
		NewCallbackPublisher(func(_ context.Context, _ *Event) error {
			calls = append(calls, "second")
			return nil
		}),
	)

	err := multi.Publish(context.Background(), NewEvent(KindSDKDeprecated, nil))
	if !errors.Is(err, errFirst) {
		t.Errorf("events:publisher_test - err = %v, want first failure", err)
	}
	if len(calls) != 2 || calls[0] != "first" || calls[1] != "second" {
		t.Errorf("events:publisher_test - calls = %v, want [first second]", calls)
	}
}

func TestKindForError(t *testing.T) {
	tests := []struct {
		code   apierror.Code
		want   Kind
		wantOK bool
	}{
		{apierror.CodeNetworkNotAvailable, KindNetworkUnreachable, true},
		{apierror.CodeServerMaintenance, KindServerMaintenance, true},
		{apierror.CodeKYCNotPassed, KindKYCNotPassed, true},
		{apierror.CodeSDKDeprecated, KindSDKDeprecated, true},
		{apierror.CodeSessionExpired, KindSessionExpired, true},
		{apierror.CodeUnknownSession, KindSessionInvalid, true},
		{apierror.CodeSessionAuthError, KindSessionInvalid, true},
		{apierror.CodeEmptySession, KindSessionInvalid, true},
		{apierror.CodeInvalidSession, KindSessionInvalid, true},
		{apierror.CodeTooManyRequests, "", false},
		{apierror.CodeIncorrectParameters, "", false},
		{apierror.CodeServiceUnavailable, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.code.String(), func(t *testing.T) {
			got, ok := KindForError(apierror.New(tt.code))
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("events:publisher_test - KindForError(%s) = (%q, %v), want (%q, %v)", tt.code, got, ok, tt.want, tt.wantOK)
			}
		})
	}

	if _, ok := KindForError(nil); ok {
		t.Errorf("events:publisher_test - KindForError(nil) should be false")
	}
}
