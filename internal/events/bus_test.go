package events

import (
	"testing"
	"time"
)

func TestBus_PublishSubscribe(t *testing.T) {
	bus := New()
	received := make(chan SceneChangedEvent, 1)

	unsub := bus.Subscribe(func(e SceneChangedEvent) {
		received <- e
	})
	defer unsub()

	bus.Publish(SceneChangedEvent{From: 0, To: 1, Scene: "interview"})

	got := <-received
	if got.Scene != "interview" {
		t.Errorf("Expected scene 'interview', got %q", got.Scene)
	}
	if got.To != 1 {
		t.Errorf("Expected to=1, got %d", got.To)
	}
}

func TestBus_MultipleSubscribers(_ *testing.T) {
	bus := New()
	received1 := make(chan BitrateAdjustedEvent, 1)
	received2 := make(chan BitrateAdjustedEvent, 1)

	unsub1 := bus.Subscribe(func(e BitrateAdjustedEvent) {
		received1 <- e
	})
	defer unsub1()

	unsub2 := bus.Subscribe(func(e BitrateAdjustedEvent) {
		received2 <- e
	})
	defer unsub2()

	bus.Publish(BitrateAdjustedEvent{Direction: "up", BitrateKbps: 4256, ThroughputKbps: 2000})

	<-received1
	<-received2
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := New()
	received := make(chan TransitionFinishedEvent, 2)

	unsub := bus.Subscribe(func(e TransitionFinishedEvent) {
		received <- e
	})

	bus.Publish(TransitionFinishedEvent{From: 0, To: 1})
	<-received

	unsub()
	bus.Publish(TransitionFinishedEvent{From: 1, To: 0})

	select {
	case <-received:
		t.Error("Received event after unsubscribe")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBus_TypeIsolation(t *testing.T) {
	bus := New()
	outputs := make(chan OutputAddedEvent, 1)

	unsub := bus.Subscribe(func(e OutputAddedEvent) {
		outputs <- e
	})
	defer unsub()

	bus.Publish(OverlayRotatedEvent{Overlay: "ticker", Message: "live"})
	bus.Publish(OutputAddedEvent{Protocol: "rtmp", Target: "rtmp://a/live"})

	got := <-outputs
	if got.Protocol != "rtmp" {
		t.Errorf("Expected protocol 'rtmp', got %q", got.Protocol)
	}

	select {
	case extra := <-outputs:
		t.Errorf("Unexpected extra event: %+v", extra)
	case <-time.After(50 * time.Millisecond):
	}
}
