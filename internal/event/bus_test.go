package event

import (
	"sync"
	"testing"
)

func TestBus_Subscribe(t *testing.T) {
	bus := NewBus()

	called := false
	id := bus.Subscribe("test.event", func(e Event) {
		called = true
	})

	if id == "" {
		t.Error("Subscribe should return a non-empty ID")
	}
	if bus.SubscriptionCount() != 1 {
		t.Errorf("Expected 1 subscription, got %d", bus.SubscriptionCount())
	}
	if called {
		t.Error("Handler should not be called until an event is published")
	}
}

func TestBus_Publish(t *testing.T) {
	bus := NewBus()

	var received Event
	bus.Subscribe(TypeLocked, func(e Event) {
		received = e
	})

	bus.Publish(NewClaimEvent(TypeLocked, "A", "build#1"))

	if received == nil {
		t.Fatal("Handler should have received the event")
	}
	ce, ok := received.(ClaimEvent)
	if !ok {
		t.Fatalf("event type = %T, want ClaimEvent", received)
	}
	if ce.Resource != "A" || ce.Actor != "build#1" {
		t.Errorf("event = %+v, want resource A actor build#1", ce)
	}
}

func TestBus_PublishOrder(t *testing.T) {
	bus := NewBus()

	var order []string
	bus.SubscribeAll(func(e Event) { order = append(order, "wildcard") })
	bus.Subscribe(TypeFreed, func(e Event) { order = append(order, "specific-1") })
	bus.Subscribe(TypeFreed, func(e Event) { order = append(order, "specific-2") })

	bus.Publish(NewFreedEvent("A", nil))

	want := []string{"specific-1", "specific-2", "wildcard"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order[%d] = %q, want %q", i, order[i], want[i])
		}
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus()

	calls := 0
	id := bus.Subscribe(TypeReset, func(e Event) { calls++ })
	keep := bus.Subscribe(TypeReset, func(e Event) { calls += 10 })

	if !bus.Unsubscribe(id) {
		t.Fatal("Unsubscribe should find the subscription")
	}
	if bus.Unsubscribe(id) {
		t.Error("second Unsubscribe should report false")
	}

	bus.Publish(NewClaimEvent(TypeReset, "A", ""))
	if calls != 10 {
		t.Errorf("calls = %d, want 10 (only %s should fire)", calls, keep)
	}
}

func TestBus_PanicRecovery(t *testing.T) {
	var recovered any
	bus := NewBus(WithPanicHandler(func(e Event, r any, stack []byte) {
		recovered = r
	}))

	secondCalled := false
	bus.Subscribe(TypeQueued, func(e Event) { panic("boom") })
	bus.Subscribe(TypeQueued, func(e Event) { secondCalled = true })

	bus.Publish(NewQueueEvent(TypeQueued, "A", "job", "", "t1"))

	if recovered != "boom" {
		t.Errorf("recovered = %v, want boom", recovered)
	}
	if !secondCalled {
		t.Error("handlers after a panicking handler should still run")
	}
}

func TestBus_NilPublish(t *testing.T) {
	var bus *Bus
	bus.Publish(NewReloadedEvent(nil, nil, nil))
}

func TestBus_Concurrent(t *testing.T) {
	bus := NewBus()

	var mu sync.Mutex
	count := 0
	bus.Subscribe(TypeReserved, func(e Event) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bus.Publish(NewReservedEvent("A", "alice", ""))
		}()
	}
	wg.Wait()

	if count != 50 {
		t.Errorf("count = %d, want 50", count)
	}

	bus.Clear()
	if bus.SubscriptionCount() != 0 {
		t.Errorf("SubscriptionCount() after Clear = %d, want 0", bus.SubscriptionCount())
	}
}
