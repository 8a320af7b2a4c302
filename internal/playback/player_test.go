package playback

import (
	"testing"
	"time"
)

func drain(ch <-chan Event) {
	for {
		select {
		case <-ch:
		default:
			return
		}
	}
}

func TestPlayerStateMachine(t *testing.T) {
	t.Run("play_emits_immediately", func(t *testing.T) {
		b := NewBridge()
		ch, cancel := b.Subscribe()
		defer cancel()
		p := NewPlayer(b, time.Hour) // tick far away; only the immediate emit matters
		defer p.Stop()

		p.Play()
		select {
		case e := <-ch:
			if e.Type != EventTime {
				t.Errorf("Type = %q", e.Type)
			}
		case <-time.After(time.Second):
			t.Fatal("no event on play")
		}
		if p.State() != StatePlaying {
			t.Errorf("state = %v, want playing", p.State())
		}
	})

	t.Run("pause_emits_final_event_and_stops_ticks", func(t *testing.T) {
		b := NewBridge()
		p := NewPlayer(b, 5*time.Millisecond)
		p.Play()
		time.Sleep(20 * time.Millisecond)
		p.Pause()
		if p.State() != StatePaused {
			t.Fatalf("state = %v, want paused", p.State())
		}

		ch, cancel := b.Subscribe()
		defer cancel()
		// Ticker must be cancelled: no event may arrive while paused.
		select {
		case e := <-ch:
			t.Fatalf("tick leaked into paused state: %+v", e)
		case <-time.After(30 * time.Millisecond):
		}

		// Position frozen while paused.
		p1 := p.Position()
		time.Sleep(10 * time.Millisecond)
		if p2 := p.Position(); p2 != p1 {
			t.Errorf("position advanced while paused: %g -> %g", p1, p2)
		}
	})

	t.Run("periodic_ticks_while_playing", func(t *testing.T) {
		b := NewBridge()
		ch, cancel := b.Subscribe()
		defer cancel()
		p := NewPlayer(b, 5*time.Millisecond)
		defer p.Stop()

		p.Play()
		<-ch // immediate emit
		select {
		case <-ch:
		case <-time.After(time.Second):
			t.Fatal("no periodic tick while playing")
		}
	})

	t.Run("seek_roundtrip_from_paused", func(t *testing.T) {
		b := NewBridge()
		p := NewPlayer(b, time.Hour)
		p.Play()
		p.Pause()

		ch, cancel := b.Subscribe()
		defer cancel()

		p.BeginSeek()
		if p.State() != StateSeeking {
			t.Fatalf("state = %v, want seeking", p.State())
		}
		<-ch // seeking emit
		p.EndSeek(12.5)
		e := <-ch
		if e.CurrentTime != 12.5 {
			t.Errorf("seeked emit = %g, want 12.5", e.CurrentTime)
		}
		if p.State() != StatePaused {
			t.Errorf("state = %v, want paused after seek from paused", p.State())
		}
		if p.Position() != 12.5 {
			t.Errorf("position = %g, want 12.5", p.Position())
		}
	})

	t.Run("seek_resumes_playing", func(t *testing.T) {
		b := NewBridge()
		p := NewPlayer(b, 5*time.Millisecond)
		defer p.Stop()
		p.Play()
		p.BeginSeek()
		p.EndSeek(3)
		if p.State() != StatePlaying {
			t.Errorf("state = %v, want playing after seek from playing", p.State())
		}

		ch, cancel := b.Subscribe()
		defer cancel()
		drain(ch)
		select {
		case <-ch:
		case <-time.After(time.Second):
			t.Fatal("ticker did not resume after seek")
		}
	})

	t.Run("sync_reanchors_and_publishes", func(t *testing.T) {
		b := NewBridge()
		ch, cancel := b.Subscribe()
		defer cancel()
		p := NewPlayer(b, time.Hour)
		defer p.Stop()

		p.Sync(42)
		e := <-ch
		if e.CurrentTime != 42 {
			t.Errorf("sync emit = %g, want 42", e.CurrentTime)
		}
		if p.Position() != 42 {
			t.Errorf("position = %g, want 42", p.Position())
		}
	})

	t.Run("play_is_idempotent", func(t *testing.T) {
		b := NewBridge()
		p := NewPlayer(b, time.Hour)
		defer p.Stop()
		p.Play()
		p.Play() // second call must not spawn a second ticker or panic
		if p.State() != StatePlaying {
			t.Errorf("state = %v", p.State())
		}
	})

	t.Run("pause_without_play_is_noop", func(t *testing.T) {
		b := NewBridge()
		ch, cancel := b.Subscribe()
		defer cancel()
		p := NewPlayer(b, time.Hour)

		p.Pause()
		if p.State() != StateIdle {
			t.Errorf("state = %v, want idle", p.State())
		}
		select {
		case e := <-ch:
			t.Fatalf("unexpected emit %+v", e)
		default:
		}
	})
}
