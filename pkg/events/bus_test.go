package events

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

const busTestPrefix = "events:bus_test"

func TestBus_DeliversToMatchingSubscribers(t *testing.T) {
	bus := NewBus(nil)

	var all, sessions []Kind
	bus.Subscribe(func(_ context.Context, e *Event) { all = append(all, e.Kind) })
	bus.Subscribe(func(_ context.Context, e *Event) { sessions = append(sessions, e.Kind) }, KindSessionInvalid, KindSessionExpired)

	ctx := context.Background()
	for _, k := range []Kind{KindNetworkUnreachable, KindSessionExpired, KindSDKDeprecated, KindSessionInvalid} {
		if err := bus.Publish(ctx, NewEvent(k, nil)); err != nil {
			t.Fatalf("%s - Publish(%s): %v", busTestPrefix, k, err)
		}
	}

	if len(all) != 4 {
		t.Errorf("%s - wildcard subscriber got %d events, want 4", busTestPrefix, len(all))
	}
	if len(sessions) != 2 || sessions[0] != KindSessionExpired || sessions[1] != KindSessionInvalid {
		t.Errorf("%s - session subscriber got %v", busTestPrefix, sessions)
	}
}

func TestBus_DeliversInSubscriptionOrder(t *testing.T) {
	bus := NewBus(nil)
	var order []int
	for i := 1; i <= 3; i++ {
		i := i
		bus.Subscribe(func(_ context.Context, _ *Event) { order = append(order, i) })
	}

	_ = bus.Publish(context.Background(), NewEvent(KindNetworkReachable, nil))

	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Errorf("%s - order = %v, want [1 2 3]", busTestPrefix, order)
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus(nil)
	var count int
	sub := bus.Subscribe(func(_ context.Context, _ *Event) { count++ })

	_ = bus.Publish(context.Background(), NewEvent(KindNetworkReachable, nil))
	sub.Unsubscribe()
	sub.Unsubscribe()
	_ = bus.Publish(context.Background(), NewEvent(KindNetworkReachable, nil))

	if count != 1 {
		t.Errorf("%s - count = %d, want 1", busTestPrefix, count)
	}
	if bus.SubscriberCount() != 0 {
		t.Errorf("%s - SubscriberCount = %d, want 0", busTestPrefix, bus.SubscriberCount())
	}
}

func TestBus_PanickingHandlerDoesNotStopDelivery(t *testing.T) {
	bus := NewBus(nil)
	var reached bool
	bus.Subscribe(func(_ context.Context, _ *Event) { panic("boom") })
	bus.Subscribe(func(_ context.Context, _ *Event) { reached = true })

	if err := bus.Publish(context.Background(), NewEvent(KindSDKDeprecated, nil)); err != nil {
		t.Fatalf("%s - Publish: %v", busTestPrefix, err)
	}
	if !reached {
		t.Errorf("%s - second handler not reached after panic", busTestPrefix)
	}
}

func TestBus_ForwardsAfterLocalHandlers(t *testing.T) {
	var seq []string
	forwardErr := errors.New("broker down")
	bus := NewBus(NewCallbackPublisher(func(_ context.Context, _ *Event) error {
		seq = append(seq, "forward")
		return forwardErr
	}))
	bus.Subscribe(func(_ context.Context, _ *Event) { seq = append(seq, "local") })

	id := uuid.New()
	err := bus.Publish(context.Background(), NewEvent(KindKYCNotPassed, nil).WithRequest(id))
	if !errors.Is(err, forwardErr) {
		t.Errorf("%s - err = %v, want forward error", busTestPrefix, err)
	}
	if len(seq) != 2 || seq[0] != "local" || seq[1] != "forward" {
		t.Errorf("%s - seq = %v, want [local forward]", busTestPrefix, seq)
	}
}

func TestBus_NilEvent(t *testing.T) {
	bus := NewBus(nil)
	called := false
	bus.Subscribe(func(_ context.Context, _ *Event) { called = true })
	if err := bus.Publish(context.Background(), nil); err != nil {
		t.Errorf("%s - Publish(nil) = %v", busTestPrefix, err)
	}
	if called {
		t.Errorf("%s - handler called for nil event", busTestPrefix)
	}
}
