// Package media provides a deterministic in-memory media element.
package media

import (
	"sync"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/bassstation/internal/app/playback"
)

// ErrAborted resolves play requests interrupted by Pause or Load.
var ErrAborted = errors.New("play request aborted")

// Sink receives native notifications.
type Sink interface {
	HandleMediaEvent(ev playback.MediaEvent)
}

// Simulator implements playback.Media without audio output.
// Notifications and play completions are queued and delivered by Flush,
// so no Simulator method calls back into its sink.
type Simulator struct {
	mu sync.Mutex

	sink  Sink
	queue []func()

	source     string
	position   float64
	duration   float64
	volume     float64
	muted      bool
	playing    bool
	readyState playback.ReadyState

	// Play requests not yet resolved, keyed by request number
	playSeq      uint64
	pendingPlays map[uint64]bool // true once aborted

	// Failure injection
	rejectPlay error
	seekErr    error

	// Call history
	loads []string
	seeks []float64
}

// NewSimulator creates a paused simulator at full volume.
func NewSimulator() *Simulator {
	return &Simulator{
		volume:       1,
		pendingPlays: make(map[uint64]bool),
	}
}

// Attach sets the notification sink.
func (s *Simulator) Attach(sink Sink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sink = sink
}

// Load implements playback.Media.
func (s *Simulator) Load(source string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.abortPlaysLocked()
	s.source = source
	s.position = 0
	s.duration = 0
	s.readyState = playback.HaveNothing
	s.loads = append(s.loads, source)
	if s.playing {
		s.playing = false
		s.emitLocked(playback.MediaEvent{Type: playback.MediaPause})
	}
}

// Play implements playback.Media.
func (s *Simulator) Play(done func(err error)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.playSeq++
	seq := s.playSeq
	s.pendingPlays[seq] = false

	s.queue = append(s.queue, func() {
		s.mu.Lock()
		aborted := s.pendingPlays[seq]
		delete(s.pendingPlays, seq)
		reject := s.rejectPlay
		if aborted || reject != nil {
			s.mu.Unlock()
			if aborted {
				done(ErrAborted)
			} else {
				done(reject)
			}
			return
		}
		wasPlaying := s.playing
		s.playing = true
		s.mu.Unlock()

		if !wasPlaying {
			s.deliver(playback.MediaEvent{Type: playback.MediaPlay})
		}
		done(nil)
		s.deliver(playback.MediaEvent{Type: playback.MediaPlaying})
	})
}

// Pause implements playback.Media.
func (s *Simulator) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.abortPlaysLocked()
	if s.playing {
		s.playing = false
		s.emitLocked(playback.MediaEvent{Type: playback.MediaPause})
	}
}

// Seek implements playback.Media.
func (s *Simulator) Seek(position float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.seekErr != nil {
		return s.seekErr
	}
	s.position = position
	s.seeks = append(s.seeks, position)
	s.emitLocked(playback.MediaEvent{Type: playback.MediaSeeked})
	return nil
}

// Position implements playback.Media.
func (s *Simulator) Position() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.position
}

// SetVolume implements playback.Media.
func (s *Simulator) SetVolume(volume float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.volume != volume {
		s.volume = volume
		s.emitLocked(playback.MediaEvent{Type: playback.MediaVolumeChange})
	}
}

// Volume implements playback.Media.
func (s *Simulator) Volume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

// SetMuted implements playback.Media.
func (s *Simulator) SetMuted(muted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.muted != muted {
		s.muted = muted
		s.emitLocked(playback.MediaEvent{Type: playback.MediaVolumeChange})
	}
}

// Muted implements playback.Media.
func (s *Simulator) Muted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.muted
}

// ReadyState implements playback.Media.
func (s *Simulator) ReadyState() playback.ReadyState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readyState
}

// LoadMetadata reports the duration and enough buffered data to play.
func (s *Simulator) LoadMetadata(duration float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.duration = duration
	s.readyState = playback.HaveEnoughData
	s.emitLocked(playback.MediaEvent{Type: playback.MediaLoadedMetadata, Duration: duration})
	s.emitLocked(playback.MediaEvent{Type: playback.MediaCanPlay})
}

// SetReadyState overrides the reported readiness.
func (s *Simulator) SetReadyState(rs playback.ReadyState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readyState = rs
}

// Advance moves the playback position and reports a time update.
func (s *Simulator) Advance(position float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.position = position
	s.emitLocked(playback.MediaEvent{Type: playback.MediaTimeUpdate})
}

// End stops playback at the end of the track.
func (s *Simulator) End() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.playing = false
	s.position = s.duration
	s.emitLocked(playback.MediaEvent{Type: playback.MediaPause})
	s.emitLocked(playback.MediaEvent{Type: playback.MediaEnded})
}

// Fail stops playback and reports a media error.
func (s *Simulator) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.playing = false
	s.readyState = playback.HaveNothing
	s.emitLocked(playback.MediaEvent{Type: playback.MediaError, Err: err})
}

// Emit queues an arbitrary native notification.
func (s *Simulator) Emit(ev playback.MediaEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emitLocked(ev)
}

// RejectPlay makes play requests fail with err until cleared with nil.
func (s *Simulator) RejectPlay(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejectPlay = err
}

// FailSeeks makes Seek return err until cleared with nil.
func (s *Simulator) FailSeeks(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seekErr = err
}

// Flush delivers queued work in order, including work queued during
// delivery, and returns the number of items run.
func (s *Simulator) Flush() int {
	n := 0
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.mu.Unlock()
			return n
		}
		next := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		next()
		n++
	}
}

// Pending returns the number of queued items.
func (s *Simulator) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Playing reports whether the simulated element is playing.
func (s *Simulator) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

// Source returns the loaded source.
func (s *Simulator) Source() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.source
}

// Loads returns every source passed to Load.
func (s *Simulator) Loads() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.loads...)
}

// Seeks returns every applied seek position.
func (s *Simulator) Seeks() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]float64(nil), s.seeks...)
}

func (s *Simulator) abortPlaysLocked() {
	for seq := range s.pendingPlays {
		s.pendingPlays[seq] = true
	}
}

func (s *Simulator) emitLocked(ev playback.MediaEvent) {
	s.queue = append(s.queue, func() {
		s.deliver(ev)
	})
}

func (s *Simulator) deliver(ev playback.MediaEvent) {
	s.mu.Lock()
	sink := s.sink
	s.mu.Unlock()

	if sink == nil {
		zlog.Debug().Msgf("media: dropping %s, no sink attached", ev.Type)
		return
	}
	sink.HandleMediaEvent(ev)
}
