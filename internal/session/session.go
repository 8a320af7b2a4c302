package session

import (
	"errors"
	"sync"
	"time"

	"github.com/mhollis/scribesync/internal/playback"
	"github.com/mhollis/scribesync/internal/transcript"
)

// Mode is the top-level processing mode.
type Mode string

const (
	ModeTranscribe Mode = "transcribe"
	ModeTranslate  Mode = "translate"
)

// ParseMode validates a mode string, defaulting empty input to transcribe.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "":
		return ModeTranscribe, nil
	case ModeTranscribe, ModeTranslate:
		return Mode(s), nil
	}
	return "", errors.New("mode must be transcribe or translate")
}

// Buffer names accepted by the edit-buffer operations.
const (
	BufferTranscript  = "transcript"
	BufferTranslation = "translation"
)

var (
	// ErrNoActiveAsset means a transcript/export operation ran with no media
	// selected. Callers treat it as "show nothing", not a hard failure.
	ErrNoActiveAsset = errors.New("no active media asset")

	// ErrProcessingInFlight rejects a second transcription request while one
	// is outstanding for the same asset.
	ErrProcessingInFlight = errors.New("transcription already in flight")

	// ErrStaleBuffer marks an edit-buffer operation bound to an asset that has
	// since been cleared or replaced. The atomic reset should make this
	// unreachable; seeing it means a caller held state across a reset.
	ErrStaleBuffer = errors.New("edit buffer is stale for current asset")

	// ErrNotProcessed means the transcript (or translation) the operation
	// needs has not been produced yet.
	ErrNotProcessed = errors.New("no transcript available")

	// ErrUnknownBuffer rejects buffer names outside the fixed panel set.
	ErrUnknownBuffer = errors.New("unknown edit buffer")

	// ErrAssetReplaced means the asset changed while a transcription was in
	// flight; the stale result is discarded rather than half-installed.
	ErrAssetReplaced = errors.New("asset replaced during processing")
)

// Asset is the currently loaded media file. Exactly one may be current per
// session; switching or clearing it invalidates every piece of derived state.
type Asset struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Key        string    `json:"-"`          // storage key
	MediaType  string    `json:"media_type"` // extension from the allow-list
	UploadedAt time.Time `json:"uploaded_at"`
}

// EditBuffer is a user-mutable text surface seeded once from the flattened
// transcript or translation, fully independent afterwards.
type EditBuffer struct {
	Name     string    `json:"name"`
	AssetID  string    `json:"asset_id"`
	Content  string    `json:"content"`
	SeededAt time.Time `json:"seeded_at"`
}

// Session holds every piece of per-user state: the current asset, the derived
// transcript and translation, the edit buffers, and the playback machinery.
// One mutex guards it all, which is what makes the reset rule a single
// transaction: either every piece of derived state goes, or none does.
type Session struct {
	ID string

	mu          sync.RWMutex
	mode        Mode
	asset       *Asset
	transcript  *transcript.Transcript
	translation *transcript.Translation
	buffers     map[string]*EditBuffer
	inflight    bool

	bridge *playback.Bridge
	player *playback.Player

	createdAt  time.Time
	lastActive time.Time
}

// New creates a session in the given mode with its own bridge and player.
func New(id string, mode Mode, tick time.Duration) *Session {
	bridge := playback.NewBridge()
	now := time.Now()
	return &Session{
		ID:         id,
		mode:       mode,
		buffers:    make(map[string]*EditBuffer),
		bridge:     bridge,
		player:     playback.NewPlayer(bridge, tick),
		createdAt:  now,
		lastActive: now,
	}
}

// Bridge returns the session's playback clock bridge.
func (s *Session) Bridge() *playback.Bridge { return s.bridge }

// Player returns the session's media player driver.
func (s *Session) Player() *playback.Player { return s.player }

// CreatedAt returns when the session was created.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// Touch marks the session active, deferring idle pruning.
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastActive = time.Now()
	s.mu.Unlock()
}

// IdleSince returns the last activity time.
func (s *Session) IdleSince() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastActive
}

// Mode returns the current processing mode.
func (s *Session) Mode() Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// SetMode switches between Transcribe and Translate. A change discards the
// asset and all derived state in one transaction; setting the same mode is a
// no-op. Returns true when a reset happened.
func (s *Session) SetMode(m Mode) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode == m {
		return false
	}
	s.mode = m
	s.asset = nil
	s.resetDerivedLocked()
	return true
}

// Asset returns the current media asset, or nil.
func (s *Session) Asset() *Asset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.asset
}

// SetAsset installs a new current asset, atomically discarding the previous
// asset's transcript, translation and edit buffers.
func (s *Session) SetAsset(a *Asset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.asset = a
	s.resetDerivedLocked()
}

// ClearAsset removes the current asset and all derived state.
func (s *Session) ClearAsset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.asset = nil
	s.resetDerivedLocked()
}

// Reset discards transcript, translation and edit buffers, keeping the asset.
// Used when a retry should start from a clean slate.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetDerivedLocked()
}

// resetDerivedLocked is the single reset transaction. Callers hold s.mu.
func (s *Session) resetDerivedLocked() {
	s.transcript = nil
	s.translation = nil
	s.buffers = make(map[string]*EditBuffer)
	s.player.Stop()
}

// Transcript returns the current transcript, or ErrNoActiveAsset /
// ErrNotProcessed when there is nothing to show.
func (s *Session) Transcript() (*transcript.Transcript, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.asset == nil {
		return nil, ErrNoActiveAsset
	}
	if s.transcript == nil {
		return nil, ErrNotProcessed
	}
	return s.transcript, nil
}

// Translation returns the current translation, if one was produced.
func (s *Session) Translation() (*transcript.Translation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.asset == nil {
		return nil, ErrNoActiveAsset
	}
	if s.translation == nil {
		return nil, ErrNotProcessed
	}
	return s.translation, nil
}

// BeginProcessing claims the single transcription slot for the current asset.
// The caller must EndProcessing exactly once after a successful claim.
func (s *Session) BeginProcessing() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.asset == nil {
		return ErrNoActiveAsset
	}
	if s.inflight {
		return ErrProcessingInFlight
	}
	s.inflight = true
	return nil
}

// EndProcessing releases the transcription slot.
func (s *Session) EndProcessing() {
	s.mu.Lock()
	s.inflight = false
	s.mu.Unlock()
}

// Processing reports whether a transcription is in flight.
func (s *Session) Processing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inflight
}

// SetResult installs the transcript and optional translation together for the
// named asset. Failed ASR runs never call this, so session state is
// all-or-nothing: fully updated on success, untouched on failure. A result
// for an asset that has since been replaced is rejected, never half-applied.
func (s *Session) SetResult(assetID string, tr *transcript.Transcript, tl *transcript.Translation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.asset == nil {
		return ErrNoActiveAsset
	}
	if s.asset.ID != assetID {
		return ErrAssetReplaced
	}
	s.transcript = tr
	s.translation = tl
	return nil
}

// Buffer returns the named edit buffer, seeding it from the flattened
// transcript or translation on first access. Seeding happens exactly once per
// asset lifetime: later transcript changes never propagate into a live buffer.
func (s *Session) Buffer(name string) (EditBuffer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.asset == nil {
		return EditBuffer{}, ErrNoActiveAsset
	}
	if b, ok := s.buffers[name]; ok {
		return *b, nil
	}

	var content string
	switch name {
	case BufferTranscript:
		if s.transcript == nil {
			return EditBuffer{}, ErrNotProcessed
		}
		content = s.transcript.Flatten()
	case BufferTranslation:
		if s.translation == nil {
			return EditBuffer{}, ErrNotProcessed
		}
		content = s.translation.Flatten()
	default:
		return EditBuffer{}, ErrUnknownBuffer
	}

	b := &EditBuffer{
		Name:     name,
		AssetID:  s.asset.ID,
		Content:  content,
		SeededAt: time.Now(),
	}
	s.buffers[name] = b
	return *b, nil
}

// UpdateBuffer replaces the named buffer's content. The buffer must already be
// seeded and still belong to the current asset; a mismatch is ErrStaleBuffer.
func (s *Session) UpdateBuffer(name, content string) (EditBuffer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.asset == nil {
		return EditBuffer{}, ErrNoActiveAsset
	}
	if name != BufferTranscript && name != BufferTranslation {
		return EditBuffer{}, ErrUnknownBuffer
	}
	b, ok := s.buffers[name]
	if !ok {
		return EditBuffer{}, ErrNotProcessed
	}
	if b.AssetID != s.asset.ID {
		return EditBuffer{}, ErrStaleBuffer
	}
	b.Content = content
	return *b, nil
}

// Close tears the session down: player stopped, derived state dropped.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.asset = nil
	s.resetDerivedLocked()
}
