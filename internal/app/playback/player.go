package playback

import (
	"math"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/bassstation/internal/domain/track"
)

// Errors
var (
	ErrMissingControl = errors.New("missing player control")
	ErrNoTrack        = errors.New("no track loaded")
	ErrMediaFailure   = errors.New("media failure")
	ErrPlayRejected   = errors.New("play request rejected")
	ErrPlayTimeout    = errors.New("play request timed out")
	ErrInvalidSeek    = errors.New("invalid seek target")
	ErrSeekFailed     = errors.New("seek failed")
)

// FailedTitle replaces the track title after a failure.
const FailedTitle = "Load Failed"

// Config holds player configuration.
type Config struct {
	ReadinessThreshold ReadyState    // Minimum ready state for TogglePlayPause to play; zero selects HaveCurrentData
	PlayTimeout        time.Duration // Fails a play request left unresolved; zero disables
}

// Option configures a Player.
type Option func(*Player)

// WithNotifier sets the receiver of player events.
func WithNotifier(n Notifier) Option {
	return func(p *Player) {
		p.notifier = n
	}
}

// WithClock replaces the wall clock used for stop timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Player) {
		p.now = now
	}
}

// Snapshot is a read-only copy of the player state.
type Snapshot struct {
	State             State
	Track             *track.Track
	Playing           bool
	Seeking           bool
	Muted             bool
	Volume            float64
	LastNonZeroVolume float64
	Duration          float64 // Zero when unknown
	DurationKnown     bool
	LastStoppedAt     *time.Time
	HasError          bool
	Err               error // Most recent failure, including seek failures
}

// Player owns all playback state and is its only writer.
type Player struct {
	mu sync.RWMutex

	media    Media
	controls Controls
	config   Config
	notifier Notifier
	now      func() time.Time

	// Player state
	state             State
	track             *track.Track
	playing           bool
	seeking           bool
	muted             bool
	volume            float64
	lastNonZeroVolume float64
	duration          float64
	durationKnown     bool
	lastStoppedAt     *time.Time
	hasError          bool
	lastErr           error

	// Request tracking
	generation  uint64      // Bumped by every command that supersedes outstanding requests
	pendingPlay uint64      // Generation of the outstanding play request, 0 if none
	playTimer   *time.Timer // Fails an unresolved play request

	// Events queued while locked, published on unlock
	pending []Event
}

// New creates a player wired to media and controls.
// It fails with ErrMissingControl if media or any control is nil.
func New(media Media, controls Controls, config Config, opts ...Option) (*Player, error) {
	if media == nil {
		return nil, errors.Mark(errors.New("media element is required"), ErrMissingControl)
	}
	if err := validator.New().Struct(controls); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "controls validation failed"), ErrMissingControl)
	}
	if config.ReadinessThreshold == HaveNothing {
		config.ReadinessThreshold = HaveCurrentData
	}

	p := &Player{
		media:             media,
		controls:          controls,
		config:            config,
		now:               time.Now,
		state:             StateEmpty,
		volume:            1,
		lastNonZeroVolume: 1,
	}
	for _, opt := range opts {
		opt(p)
	}

	p.mu.Lock()
	p.syncVolumeLocked()
	p.resetDisplayLocked()
	p.controls.Loading.SetVisible(false)
	p.mu.Unlock()

	zlog.Debug().Msgf("playback: player initialized: readiness_threshold=%d play_timeout=%v",
		config.ReadinessThreshold, config.PlayTimeout)
	return p, nil
}

// LoadTrack replaces the loaded track and asks the media to load it.
// Playback does not start. Outstanding play requests are superseded.
func (p *Player) LoadTrack(source, title string) {
	p.mu.Lock()
	defer p.unlockAndPublish()

	t := track.New(source, title)
	zlog.Info().Msgf("playback: loading track: title=%s source=%s", title, source)

	wasPlaying := p.playing
	p.supersedeLocked()
	p.track = &t
	p.media.Load(source)
	p.transitionLocked(InputLoad)

	p.playing = false
	if wasPlaying {
		now := p.now()
		p.lastStoppedAt = &now
	}
	p.seeking = false
	p.hasError = false
	p.lastErr = nil
	p.duration = 0
	p.durationKnown = false

	p.controls.Title.SetText(t.DisplayTitle())
	p.resetDisplayLocked()
	p.controls.Seek.SetMax(0)
	p.controls.Seek.SetDisabled(true)
	p.controls.Loading.SetVisible(true)
	p.emitLocked(EventStateChanged)
}

// Play requests playback. The state changes only when the media confirms
// or rejects the request.
func (p *Player) Play() error {
	p.mu.Lock()
	defer p.unlockAndPublish()

	return p.playLocked()
}

// Pause stops playback.
func (p *Player) Pause() {
	p.mu.Lock()
	defer p.unlockAndPublish()

	p.pauseLocked()
}

// TogglePlayPause pauses when playing. Otherwise it plays if the media has
// buffered enough, or reloads the track and shows the loading indicator.
func (p *Player) TogglePlayPause() error {
	p.mu.Lock()
	defer p.unlockAndPublish()

	if p.playing {
		p.pauseLocked()
		return nil
	}
	if p.track == nil {
		return ErrNoTrack
	}

	if rs := p.media.ReadyState(); rs < p.config.ReadinessThreshold {
		zlog.Warn().Msgf("playback: media not ready, reloading: ready_state=%d track=%s", rs, p.track.Title)
		p.supersedeLocked()
		p.media.Load(p.track.Source)
		if from, to := p.transitionLocked(InputLoad); from != to {
			p.emitLocked(EventStateChanged)
		}
		p.controls.Loading.SetVisible(true)
		return nil
	}
	return p.playLocked()
}

// SeekDragStart marks a seek drag in progress and previews value in the
// time label. The media position is not touched.
func (p *Player) SeekDragStart(value float64) {
	p.mu.Lock()
	defer p.unlockAndPublish()

	p.seeking = true
	if isFinite(value) {
		p.controls.CurrentTime.SetText(FormatTime(value))
	}
}

// SeekDragCommit applies the dragged position, clamped to the duration.
// Seeking stays set until the media reports the seek completed.
func (p *Player) SeekDragCommit(value float64) {
	p.mu.Lock()
	defer p.unlockAndPublish()

	if !p.durationKnown || p.duration <= 0 {
		zlog.Debug().Msgf("playback: seek ignored, duration unknown: value=%v", value)
		p.seeking = false
		return
	}
	if !isFinite(value) {
		err := errors.Mark(errors.Newf("seek value %v", value), ErrInvalidSeek)
		zlog.Warn().Err(err).Msg("playback: seek ignored")
		p.seeking = false
		return
	}

	target := math.Max(0, math.Min(value, p.duration))
	if err := p.media.Seek(target); err != nil {
		p.seeking = false
		p.lastErr = errors.Mark(errors.Wrapf(err, "seek to %.2f", target), ErrSeekFailed)
		zlog.Error().Err(p.lastErr).Msg("playback: seek failed")
		return
	}
	p.controls.Seek.SetValue(target)
	p.controls.CurrentTime.SetText(FormatTime(target))
	zlog.Debug().Msgf("playback: seeking: target=%s", FormatTime(target))
}

// SetVolume unmutes and sets the volume, clamped to [0,1].
// Zero volume counts as muted.
func (p *Player) SetVolume(value float64) {
	p.mu.Lock()
	defer p.unlockAndPublish()

	if !isFinite(value) {
		zlog.Warn().Msgf("playback: volume ignored: value=%v", value)
		return
	}
	value = math.Max(0, math.Min(value, 1))

	p.media.SetMuted(false)
	p.media.SetVolume(value)
	p.volume = value
	p.muted = value == 0
	if value > 0 {
		p.lastNonZeroVolume = value
	}
	p.renderVolumeLocked()
}

// ToggleMute mutes, remembering the current volume, or restores it.
func (p *Player) ToggleMute() {
	p.mu.Lock()
	defer p.unlockAndPublish()

	if !p.muted {
		if current := p.media.Volume(); current > 0 {
			p.lastNonZeroVolume = current
		}
		p.volume = 0
		p.muted = true
	} else {
		restore := p.lastNonZeroVolume
		if restore <= 0 {
			restore = 1
		}
		p.volume = restore
		p.muted = false
	}
	p.media.SetVolume(p.volume)
	p.media.SetMuted(p.muted)
	p.renderVolumeLocked()

	zlog.Debug().Msgf("playback: mute toggled: muted=%t volume=%.2f last_volume=%.2f",
		p.muted, p.volume, p.lastNonZeroVolume)
}

// HandleMediaEvent translates a native media notification into player state.
func (p *Player) HandleMediaEvent(ev MediaEvent) {
	p.mu.Lock()
	defer p.unlockAndPublish()

	switch ev.Type {
	case MediaLoadedMetadata:
		p.metadataLocked(ev.Duration)
	case MediaTimeUpdate:
		p.progressLocked()
	case MediaPlay:
		p.playStartedLocked()
	case MediaPause:
		p.pausedLocked()
	case MediaEnded:
		p.endedLocked()
	case MediaVolumeChange:
		p.syncVolumeLocked()
	case MediaWaiting:
		p.transitionLocked(InputWaiting)
		p.controls.Loading.SetVisible(true)
	case MediaPlaying, MediaCanPlay:
		p.transitionLocked(InputCanPlay)
		p.controls.Loading.SetVisible(false)
	case MediaSeeked:
		p.seeking = false
		zlog.Debug().Msgf("playback: seek completed: position=%s", FormatTime(p.media.Position()))
	case MediaError:
		cause := ev.Err
		if cause == nil {
			cause = errors.New("media element error")
		}
		p.failLocked(errors.Mark(errors.Wrap(cause, "media error"), ErrMediaFailure))
	default:
		zlog.Warn().Msgf("playback: unknown media event: %d", ev.Type)
	}
}

// IsCurrentlyPlaying reports whether the media is confirmed playing.
func (p *Player) IsCurrentlyPlaying() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.playing
}

// WasPlayingWithin reports whether playback stopped less than grace ago.
// It is false while playing and before the first stop.
func (p *Player) WasPlayingWithin(grace time.Duration) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.lastStoppedAt == nil {
		return false
	}
	return p.now().Sub(*p.lastStoppedAt) < grace
}

// GetState returns the current player state.
func (p *Player) GetState() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// Snapshot returns a copy of the player state.
func (p *Player) Snapshot() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()

	s := Snapshot{
		State:             p.state,
		Playing:           p.playing,
		Seeking:           p.seeking,
		Muted:             p.muted,
		Volume:            p.volume,
		LastNonZeroVolume: p.lastNonZeroVolume,
		Duration:          p.duration,
		DurationKnown:     p.durationKnown,
		HasError:          p.hasError,
		Err:               p.lastErr,
	}
	if p.track != nil {
		t := *p.track
		s.Track = &t
	}
	if p.lastStoppedAt != nil {
		at := *p.lastStoppedAt
		s.LastStoppedAt = &at
	}
	return s
}

func (p *Player) playLocked() error {
	if p.track == nil {
		return ErrNoTrack
	}
	if p.playing {
		return nil
	}

	p.supersedeLocked()
	gen := p.generation
	trackID := p.track.ID
	p.pendingPlay = gen

	if p.config.PlayTimeout > 0 {
		p.playTimer = time.AfterFunc(p.config.PlayTimeout, func() {
			p.completePlay(gen, trackID, ErrPlayTimeout)
		})
	}

	zlog.Debug().Msgf("playback: play requested: generation=%d track=%s", gen, p.track.Title)
	p.media.Play(func(err error) {
		p.completePlay(gen, trackID, err)
	})
	return nil
}

// completePlay resolves a play request unless a later command superseded it.
func (p *Player) completePlay(gen uint64, trackID string, err error) {
	p.mu.Lock()
	defer p.unlockAndPublish()

	if gen != p.pendingPlay || p.track == nil || p.track.ID != trackID {
		zlog.Debug().Msgf("playback: discarding stale play completion: generation=%d current=%d", gen, p.generation)
		return
	}
	p.pendingPlay = 0
	p.stopPlayTimerLocked()

	if err != nil {
		if !errors.Is(err, ErrPlayTimeout) {
			err = errors.Mark(errors.Wrap(err, "play request rejected"), ErrPlayRejected)
		}
		p.failLocked(err)
		return
	}
	p.playStartedLocked()
}

func (p *Player) pauseLocked() {
	p.supersedeLocked()
	p.media.Pause()
	p.pausedLocked()
}

func (p *Player) playStartedLocked() {
	if p.track == nil {
		zlog.Debug().Msg("playback: play ignored, no track loaded")
		return
	}
	from, to := p.transitionLocked(InputPlayStarted)
	if to != StatePlaying {
		return
	}

	p.playing = true
	p.hasError = false
	p.lastStoppedAt = nil
	p.seeking = false
	p.controls.PlayPause.SetIcon(IconPause, "Pause")
	p.controls.Loading.SetVisible(false)

	if from != to {
		if from == StateError {
			p.controls.Title.SetText(p.track.DisplayTitle())
		}
		p.emitLocked(EventStateChanged)
	}
}

func (p *Player) pausedLocked() {
	from, _ := p.transitionLocked(InputPaused)
	if from != StatePlaying {
		return
	}

	p.playing = false
	now := p.now()
	p.lastStoppedAt = &now
	p.controls.PlayPause.SetIcon(IconPlay, "Play")
	p.controls.Loading.SetVisible(false)
	p.emitLocked(EventStateChanged)
}

func (p *Player) endedLocked() {
	from, to := p.transitionLocked(InputEnded)
	if from == StatePlaying {
		p.playing = false
		now := p.now()
		p.lastStoppedAt = &now
		p.controls.PlayPause.SetIcon(IconPlay, "Play")
		p.emitLocked(EventStateChanged)
	}
	if to != StateReady {
		return
	}

	zlog.Info().Msg("playback: track ended")
	p.seeking = false
	if err := p.media.Seek(0); err != nil {
		zlog.Warn().Err(err).Msg("playback: rewind after end failed")
	}
	p.controls.Seek.SetValue(0)
	p.controls.CurrentTime.SetText(FormatTime(0))
	p.controls.Loading.SetVisible(false)
}

func (p *Player) metadataLocked(duration float64) {
	if p.track == nil {
		zlog.Debug().Msg("playback: metadata ignored, no track loaded")
		return
	}
	from, to := p.transitionLocked(InputMetadata)

	if isFinite(duration) && duration >= 0 {
		p.duration = duration
		p.durationKnown = true
		p.controls.Duration.SetText(FormatTime(duration))
		p.controls.Seek.SetMax(duration)
		p.controls.Seek.SetDisabled(false)
	} else {
		zlog.Warn().Msgf("playback: duration is invalid: %v", duration)
		p.duration = 0
		p.durationKnown = false
		p.controls.Duration.SetText(UnknownDuration)
		p.controls.Seek.SetDisabled(true)
	}
	p.controls.Loading.SetVisible(false)
	if from != to {
		p.emitLocked(EventStateChanged)
	}
}

// progressLocked never overrides the display during a seek drag.
func (p *Player) progressLocked() {
	if p.seeking || !p.durationKnown || p.duration <= 0 {
		return
	}
	pos := p.media.Position()
	if !isFinite(pos) {
		return
	}
	p.controls.Seek.SetValue(pos)
	p.controls.CurrentTime.SetText(FormatTime(pos))
}

func (p *Player) failLocked(err error) {
	from, _ := p.transitionLocked(InputFailed)
	p.supersedeLocked()

	p.playing = false
	p.hasError = true
	p.seeking = false
	now := p.now()
	p.lastStoppedAt = &now
	p.lastErr = err
	if errors.Is(err, ErrMediaFailure) {
		p.track = nil
	}

	p.controls.Title.SetText(FailedTitle)
	p.controls.PlayPause.SetIcon(IconPlay, "Play")
	p.controls.Loading.SetVisible(false)

	zlog.Error().Err(err).Msgf("playback: %s -> %s", from, StateError)
	p.emitLocked(EventPlaybackFailed)
}

func (p *Player) syncVolumeLocked() {
	volume := p.media.Volume()
	muted := p.media.Muted()
	p.volume = volume
	p.muted = muted || volume == 0
	p.renderVolumeLocked()
}

func (p *Player) renderVolumeLocked() {
	if p.muted {
		p.controls.Volume.SetValue(0)
	} else {
		p.controls.Volume.SetValue(p.volume)
	}

	switch {
	case p.muted:
		p.controls.VolumeButton.SetIcon(IconMuted, "Unmute")
	case p.volume < 0.5:
		p.controls.VolumeButton.SetIcon(IconVolumeLow, "Mute")
	default:
		p.controls.VolumeButton.SetIcon(IconVolumeHigh, "Mute")
	}
}

func (p *Player) resetDisplayLocked() {
	p.controls.CurrentTime.SetText(FormatTime(0))
	p.controls.Duration.SetText(FormatTime(0))
	p.controls.Seek.SetValue(0)
	p.controls.PlayPause.SetIcon(IconPlay, "Play")
}

// transitionLocked applies Next to the current state.
func (p *Player) transitionLocked(in Input) (from, to State) {
	from = p.state
	to = Next(from, in)
	p.state = to
	if from != to {
		zlog.Debug().Msgf("playback: %s -> %s on %s", from, to, in)
	}
	return from, to
}

// supersedeLocked invalidates any outstanding play request.
func (p *Player) supersedeLocked() {
	p.generation++
	p.pendingPlay = 0
	p.stopPlayTimerLocked()
}

func (p *Player) stopPlayTimerLocked() {
	if p.playTimer != nil {
		p.playTimer.Stop()
		p.playTimer = nil
	}
}

func (p *Player) emitLocked(t EventType) {
	e := Event{
		Type:     t,
		State:    p.state,
		Playing:  p.playing,
		HasError: p.hasError,
	}
	if p.track != nil {
		tr := *p.track
		e.Track = &tr
	}
	p.pending = append(p.pending, e)
}

// unlockAndPublish releases the lock, then delivers queued events so
// subscribers may query the player.
func (p *Player) unlockAndPublish() {
	events := p.pending
	p.pending = nil
	p.mu.Unlock()

	if p.notifier == nil {
		return
	}
	for _, e := range events {
		p.notifier.Broadcast(e)
	}
}
