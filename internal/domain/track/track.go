// Package track provides the Track domain entity.
package track

import (
	"time"

	"github.com/google/uuid"
)

// Track represents a mix selected from the page's mix list.
// The player trusts the caller: Source and Title are not validated.
type Track struct {
	ID         string    // Load identity, unique per selection
	Source     string    // Media URL or path
	Title      string    // Display title
	SelectedAt time.Time // When the user selected the track
}

// New creates a track with a fresh load identity.
// Selecting the same mix twice yields two different IDs.
func New(source, title string) Track {
	return Track{
		ID:         uuid.New().String(),
		Source:     source,
		Title:      title,
		SelectedAt: time.Now(),
	}
}

// IsZero reports whether no track is set.
func (t Track) IsZero() bool {
	return t.ID == "" && t.Source == ""
}

// DisplayTitle returns the title, falling back to the source when untitled.
func (t Track) DisplayTitle() string {
	if t.Title != "" {
		return t.Title
	}
	return t.Source
}
