package playback

import (
	"testing"
	"time"
)

func TestBridgePublishSubscribe(t *testing.T) {
	t.Run("subscriber_receives_event", func(t *testing.T) {
		b := NewBridge()
		ch, cancel := b.Subscribe()
		defer cancel()

		b.Publish(TimeEvent(1.5))

		select {
		case e := <-ch:
			if e.Type != EventTime {
				t.Errorf("Type = %q, want time", e.Type)
			}
			if e.CurrentTime != 1.5 {
				t.Errorf("CurrentTime = %g, want 1.5", e.CurrentTime)
			}
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for event")
		}
	})

	t.Run("slow_consumer_coalesces_to_latest", func(t *testing.T) {
		b := NewBridge()
		ch, cancel := b.Subscribe()
		defer cancel()

		// Nobody draining: each publish replaces the mailbox slot.
		b.Publish(TimeEvent(1))
		b.Publish(TimeEvent(2))
		b.Publish(TimeEvent(3))

		e := <-ch
		if e.CurrentTime != 3 {
			t.Errorf("CurrentTime = %g, want latest (3)", e.CurrentTime)
		}
		select {
		case e := <-ch:
			t.Fatalf("unexpected buffered event %+v", e)
		default:
		}
	})

	t.Run("delivery_order_not_timestamp_order", func(t *testing.T) {
		b := NewBridge()
		ch, cancel := b.Subscribe()
		defer cancel()

		// Out-of-order timestamps: the view must trust delivery order,
		// so the last event seen is t=1.5.
		var got Event
		for _, ts := range []float64{1, 2, 1.5} {
			b.Publish(TimeEvent(ts))
			got = <-ch
		}
		if got.CurrentTime != 1.5 {
			t.Errorf("last delivered = %g, want 1.5", got.CurrentTime)
		}
	})

	t.Run("fan_out_to_multiple_subscribers", func(t *testing.T) {
		b := NewBridge()
		ch1, cancel1 := b.Subscribe()
		ch2, cancel2 := b.Subscribe()
		defer cancel1()
		defer cancel2()

		b.Publish(TimeEvent(7))
		if e := <-ch1; e.CurrentTime != 7 {
			t.Errorf("sub1 got %g", e.CurrentTime)
		}
		if e := <-ch2; e.CurrentTime != 7 {
			t.Errorf("sub2 got %g", e.CurrentTime)
		}
	})

	t.Run("cancel_unsubscribes", func(t *testing.T) {
		b := NewBridge()
		ch, cancel := b.Subscribe()
		cancel()

		b.Publish(TimeEvent(1))
		if _, ok := <-ch; ok {
			t.Error("should not receive after cancel")
		}
		if b.SubscriberCount() != 0 {
			t.Errorf("SubscriberCount = %d, want 0", b.SubscriberCount())
		}
	})

	t.Run("cancel_is_idempotent", func(t *testing.T) {
		b := NewBridge()
		_, cancel := b.Subscribe()
		cancel()
		cancel() // must not panic on double close
	})

	t.Run("last_tracks_most_recent", func(t *testing.T) {
		b := NewBridge()
		if _, ok := b.Last(); ok {
			t.Error("Last should be empty before any publish")
		}
		b.Publish(TimeEvent(4))
		b.Publish(TimeEvent(5))
		e, ok := b.Last()
		if !ok || e.CurrentTime != 5 {
			t.Errorf("Last = %+v,%v, want 5,true", e, ok)
		}
	})
}
