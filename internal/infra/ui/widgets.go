// Package ui provides in-memory player controls for headless pages and tests.
package ui

import (
	"sync"

	"github.com/osa030/bassstation/internal/app/playback"
)

// Button records the icon and label last shown.
type Button struct {
	mu    sync.RWMutex
	icon  playback.Icon
	label string
}

// SetIcon implements playback.Button.
func (b *Button) SetIcon(icon playback.Icon, label string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.icon = icon
	b.label = label
}

// Icon returns the current icon.
func (b *Button) Icon() playback.Icon {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.icon
}

// Label returns the current accessible label.
func (b *Button) Label() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.label
}

// Slider records a range input.
type Slider struct {
	mu       sync.RWMutex
	value    float64
	max      float64
	disabled bool
}

// SetValue implements playback.Slider.
func (s *Slider) SetValue(value float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = value
}

// SetMax implements playback.Slider.
func (s *Slider) SetMax(max float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.max = max
}

// SetDisabled implements playback.Slider.
func (s *Slider) SetDisabled(disabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disabled = disabled
}

// Value returns the slider position.
func (s *Slider) Value() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Max returns the slider maximum.
func (s *Slider) Max() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.max
}

// Disabled reports whether the slider is disabled.
func (s *Slider) Disabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.disabled
}

// Label records displayed text.
type Label struct {
	mu   sync.RWMutex
	text string
}

// SetText implements playback.Label.
func (l *Label) SetText(text string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.text = text
}

// Text returns the displayed text.
func (l *Label) Text() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.text
}

// Indicator records visibility.
type Indicator struct {
	mu      sync.RWMutex
	visible bool
}

// SetVisible implements playback.Indicator and footer.View.
func (i *Indicator) SetVisible(visible bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.visible = visible
}

// Visible reports whether the element is shown.
func (i *Indicator) Visible() bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.visible
}

// Panel is the full control set of one audio player container.
type Panel struct {
	PlayPause    Button
	VolumeButton Button
	Seek         Slider
	Volume       Slider
	Title        Label
	CurrentTime  Label
	Duration     Label
	Loading      Indicator
}

// NewPanel creates an empty control set.
func NewPanel() *Panel {
	return &Panel{}
}

// Controls returns the panel wired as player controls.
func (p *Panel) Controls() playback.Controls {
	return playback.Controls{
		PlayPause:    &p.PlayPause,
		VolumeButton: &p.VolumeButton,
		Seek:         &p.Seek,
		Volume:       &p.Volume,
		Title:        &p.Title,
		CurrentTime:  &p.CurrentTime,
		Duration:     &p.Duration,
		Loading:      &p.Loading,
	}
}
