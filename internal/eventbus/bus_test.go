// SPDX-License-Identifier: MPL-2.0

package eventbus

import (
	"testing"
	"time"
)

func TestPublishSubscribe(t *testing.T) {
	t.Parallel()

	bus := New()
	events := bus.Subscribe("exec-1")

	bus.Publish(Event{Topic: TopicStepStarted, Payload: StepStartedPayload{Exec: "exec-1", Step: "a"}})

	select {
	case e := <-events:
		if e.Topic != TopicStepStarted {
			t.Errorf("expected TopicStepStarted, got %v", e.Topic)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestUnsubscribe_ClosesChannel(t *testing.T) {
	t.Parallel()

	bus := New()
	events := bus.Subscribe("exec-1")
	bus.Unsubscribe("exec-1")

	if _, ok := <-events; ok {
		t.Error("expected channel to be closed after Unsubscribe")
	}
	if bus.SubscriberCount() != 0 {
		t.Error("expected no subscribers after Unsubscribe")
	}
}

func TestPublish_FanOutToMultipleSubscribers(t *testing.T) {
	t.Parallel()

	bus := New()
	a := bus.Subscribe("a")
	b := bus.Subscribe("b")

	bus.Publish(Event{Topic: TopicFinished, Payload: FinishedPayload{Exec: "e", Status: "succeeded"}})

	for _, ch := range []<-chan Event{a, b} {
		select {
		case <-ch:
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for fan-out event")
		}
	}
}

func TestPublish_DropsOnFullBuffer(t *testing.T) {
	t.Parallel()

	bus := New()
	_ = bus.Subscribe("slow")

	// Overflow the buffer; Publish must never block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer+10; i++ {
			bus.Publish(Event{Topic: TopicTermData, Payload: TermDataPayload{ID: "t"}})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a full subscriber buffer")
	}
}
