package playback

import "github.com/osa030/bassstation/internal/domain/track"

// MediaEventType represents a native media element notification.
type MediaEventType int

const (
	MediaLoadedMetadata MediaEventType = iota // Duration available
	MediaTimeUpdate                           // Playback position advanced
	MediaPlay                                 // Playback started
	MediaPause                                // Playback paused
	MediaEnded                                // Reached the end of the track
	MediaVolumeChange                         // Volume or muted flag changed
	MediaWaiting                              // Buffering started
	MediaPlaying                              // Buffering ended, playing
	MediaCanPlay                              // Enough data to start
	MediaSeeked                               // Seek completed
	MediaError                                // Load or decode failure
)

var mediaEventNames = map[MediaEventType]string{
	MediaLoadedMetadata: "loadedmetadata",
	MediaTimeUpdate:     "timeupdate",
	MediaPlay:           "play",
	MediaPause:          "pause",
	MediaEnded:          "ended",
	MediaVolumeChange:   "volumechange",
	MediaWaiting:        "waiting",
	MediaPlaying:        "playing",
	MediaCanPlay:        "canplay",
	MediaSeeked:         "seeked",
	MediaError:          "error",
}

// String returns the native event name.
func (t MediaEventType) String() string {
	if name, ok := mediaEventNames[t]; ok {
		return name
	}
	return "unknown"
}

// ParseMediaEventType returns the event type for a native event name.
func ParseMediaEventType(name string) (MediaEventType, bool) {
	for t, n := range mediaEventNames {
		if n == name {
			return t, true
		}
	}
	return 0, false
}

// MediaEvent is a native notification delivered to the player.
type MediaEvent struct {
	Type     MediaEventType
	Duration float64 // Set for MediaLoadedMetadata
	Err      error   // Set for MediaError
}

// EventType represents a player notification type.
type EventType int

const (
	EventStateChanged EventType = iota // Phase changed
	EventPlaybackFailed                // Entered the error state
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventStateChanged:
		return "state_changed"
	case EventPlaybackFailed:
		return "playback_failed"
	default:
		return "unknown"
	}
}

// Event is published to the page whenever the player state changes.
type Event struct {
	Type     EventType
	State    State
	Playing  bool
	HasError bool
	Track    *track.Track // nil when nothing is loaded
}

// Notifier receives player events.
// Broadcast is called without the player lock held.
type Notifier interface {
	Broadcast(e Event)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(e Event)

// Broadcast calls f(e).
func (f NotifierFunc) Broadcast(e Event) {
	f(e)
}
