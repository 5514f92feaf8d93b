package playback

// ReadyState mirrors the HTML media element readiness levels.
type ReadyState int

const (
	HaveNothing     ReadyState = iota // No information about the media
	HaveMetadata                      // Duration and format known
	HaveCurrentData                   // Data for the current position
	HaveFutureData                    // Data beyond the current position
	HaveEnoughData                    // Playback can run through without stalling
)

// Media is the media-playback primitive the player wraps.
//
// Implementations report native notifications by calling
// Player.HandleMediaEvent and resolve Play through done. Both must happen
// asynchronously: a Media method never calls back into the player before
// returning.
type Media interface {
	Load(source string)
	Play(done func(err error))
	Pause()
	Seek(position float64) error
	Position() float64
	SetVolume(volume float64)
	Volume() float64
	SetMuted(muted bool)
	Muted() bool
	ReadyState() ReadyState
}

// Icon identifies the glyph shown on an icon button.
type Icon string

const (
	IconPlay       Icon = "play"
	IconPause      Icon = "pause"
	IconMuted      Icon = "muted"
	IconVolumeLow  Icon = "volume-low"
	IconVolumeHigh Icon = "volume-high"
)

// Button is a clickable control showing an icon and an accessible label.
type Button interface {
	SetIcon(icon Icon, label string)
}

// Slider is a range input.
type Slider interface {
	SetValue(value float64)
	SetMax(max float64)
	SetDisabled(disabled bool)
}

// Label is a text display.
type Label interface {
	SetText(text string)
}

// Indicator is a show/hide element such as a spinner.
type Indicator interface {
	SetVisible(visible bool)
}

// Controls is the fixed set of UI handles the player drives.
// Every field is required.
type Controls struct {
	PlayPause    Button    `validate:"required"`
	VolumeButton Button    `validate:"required"`
	Seek         Slider    `validate:"required"`
	Volume       Slider    `validate:"required"`
	Title        Label     `validate:"required"`
	CurrentTime  Label     `validate:"required"`
	Duration     Label     `validate:"required"`
	Loading      Indicator `validate:"required"`
}
