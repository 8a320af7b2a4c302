package playback

import (
	"sync"
	"time"
)

// State is the media player driver state.
type State int

const (
	StateIdle State = iota
	StatePlaying
	StatePaused
	StateSeeking
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateSeeking:
		return "seeking"
	}
	return "unknown"
}

// DefaultTick is the periodic emit interval while playing.
const DefaultTick = 150 * time.Millisecond

// Player is the server-side media player driver. It mirrors the playback
// state machine of the client player and feeds the session bridge: one event
// immediately on play, pause, seek start and seek end, plus a periodic tick
// while playing. The ticker is cancelled on every transition out of Playing
// so no tick can advance the highlight after a pause.
//
// Client time reports re-anchor the clock through Sync, so the interpolated
// position between reports never drifts far.
type Player struct {
	mu       sync.Mutex
	state    State
	before   State // state to restore when a seek completes
	pos      float64
	anchor   time.Time // wall clock at last pos update while playing
	tick     time.Duration
	bridge   *Bridge
	stopTick chan struct{}
}

// NewPlayer creates a player bound to a session bridge. A non-positive tick
// falls back to DefaultTick.
func NewPlayer(bridge *Bridge, tick time.Duration) *Player {
	if tick <= 0 {
		tick = DefaultTick
	}
	return &Player{bridge: bridge, tick: tick}
}

// State returns the current driver state.
func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Position returns the current playback position in seconds.
func (p *Player) Position() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.positionLocked()
}

func (p *Player) positionLocked() float64 {
	if p.state == StatePlaying {
		return p.pos + time.Since(p.anchor).Seconds()
	}
	return p.pos
}

// Play transitions Idle/Paused → Playing: emits immediately, then starts the
// periodic ticker. No-op while already playing or mid-seek.
func (p *Player) Play() {
	p.mu.Lock()
	if p.state == StatePlaying || p.state == StateSeeking {
		p.mu.Unlock()
		return
	}
	p.state = StatePlaying
	p.anchor = time.Now()
	stop := make(chan struct{})
	p.stopTick = stop
	pos := p.pos
	p.mu.Unlock()

	p.bridge.Publish(TimeEvent(pos))
	go p.tickLoop(stop)
}

func (p *Player) tickLoop(stop chan struct{}) {
	t := time.NewTicker(p.tick)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			p.mu.Lock()
			if p.state != StatePlaying {
				p.mu.Unlock()
				return
			}
			pos := p.positionLocked()
			p.mu.Unlock()
			p.bridge.Publish(TimeEvent(pos))
		}
	}
}

// Pause transitions Playing → Paused, emitting one final event at the pause
// instant. No-op unless playing.
func (p *Player) Pause() {
	p.mu.Lock()
	if p.state != StatePlaying {
		p.mu.Unlock()
		return
	}
	p.pos = p.positionLocked()
	p.state = StatePaused
	p.cancelTickLocked()
	pos := p.pos
	p.mu.Unlock()

	p.bridge.Publish(TimeEvent(pos))
}

// BeginSeek enters Seeking from any state, remembering where to return,
// and emits one event at the scrub start position.
func (p *Player) BeginSeek() {
	p.mu.Lock()
	if p.state == StateSeeking {
		p.mu.Unlock()
		return
	}
	p.pos = p.positionLocked()
	p.before = p.state
	p.state = StateSeeking
	p.cancelTickLocked()
	pos := p.pos
	p.mu.Unlock()

	p.bridge.Publish(TimeEvent(pos))
}

// EndSeek completes a scrub at position t, emits one event, and restores the
// prior playing/paused state (resuming the ticker if it was playing).
func (p *Player) EndSeek(t float64) {
	p.mu.Lock()
	if p.state != StateSeeking {
		p.mu.Unlock()
		return
	}
	p.pos = t
	resume := p.before == StatePlaying
	if resume {
		p.state = StatePlaying
		p.anchor = time.Now()
		stop := make(chan struct{})
		p.stopTick = stop
		p.mu.Unlock()
		p.bridge.Publish(TimeEvent(t))
		go p.tickLoop(stop)
		return
	}
	if p.before == StateIdle {
		p.state = StateIdle
	} else {
		p.state = StatePaused
	}
	p.mu.Unlock()
	p.bridge.Publish(TimeEvent(t))
}

// Sync re-anchors the clock from a client-reported playback time and
// republishes it. Works in any state; while playing the tick continues from
// the reported position.
func (p *Player) Sync(t float64) {
	p.mu.Lock()
	p.pos = t
	p.anchor = time.Now()
	p.mu.Unlock()
	p.bridge.Publish(TimeEvent(t))
}

// Stop tears the driver down, cancelling any ticker. The player returns to
// Idle at position zero.
func (p *Player) Stop() {
	p.mu.Lock()
	p.cancelTickLocked()
	p.state = StateIdle
	p.pos = 0
	p.mu.Unlock()
}

func (p *Player) cancelTickLocked() {
	if p.stopTick != nil {
		close(p.stopTick)
		p.stopTick = nil
	}
}
