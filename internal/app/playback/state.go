// Package playback provides the audio player state machine.
package playback

// State represents the player state.
type State int

const (
	StateEmpty   State = iota // Nothing loaded yet
	StateLoading              // Track requested, metadata pending
	StateReady                // Metadata known, paused
	StatePlaying              // Media confirmed playing
	StateError                // Load or playback failed
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StatePlaying:
		return "playing"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Input is a state machine input, either a player command outcome or a
// native media notification.
type Input int

const (
	InputLoad        Input = iota // LoadTrack
	InputMetadata                 // Native loadedmetadata
	InputPlayStarted              // Play confirmed or native play
	InputPaused                   // Pause or native pause
	InputEnded                    // Native ended
	InputFailed                   // Native error, play rejection or timeout
	InputWaiting                  // Native waiting
	InputCanPlay                  // Native playing or canplay
)

// String returns the string representation of the input.
func (i Input) String() string {
	switch i {
	case InputLoad:
		return "load"
	case InputMetadata:
		return "metadata"
	case InputPlayStarted:
		return "play_started"
	case InputPaused:
		return "paused"
	case InputEnded:
		return "ended"
	case InputFailed:
		return "failed"
	case InputWaiting:
		return "waiting"
	case InputCanPlay:
		return "can_play"
	default:
		return "unknown"
	}
}

// Next returns the state reached from s on input in.
// Inputs that do not apply to s leave it unchanged.
func Next(s State, in Input) State {
	switch in {
	case InputLoad:
		return StateLoading
	case InputFailed:
		return StateError
	case InputMetadata:
		if s == StateLoading {
			return StateReady
		}
	case InputPlayStarted:
		switch s {
		case StateLoading, StateReady, StateError:
			return StatePlaying
		}
	case InputPaused, InputEnded:
		if s == StatePlaying {
			return StateReady
		}
	}
	return s
}
