package track

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	a := New("mixes/a.mp3", "Track A")

	assert.NotEmpty(t, a.ID)
	assert.Equal(t, "mixes/a.mp3", a.Source)
	assert.Equal(t, "Track A", a.Title)
	assert.False(t, a.SelectedAt.IsZero())
	assert.False(t, a.IsZero())
}

func TestNew_DistinctIdentity(t *testing.T) {
	a := New("mixes/a.mp3", "Track A")
	b := New("mixes/a.mp3", "Track A")

	assert.NotEqual(t, a.ID, b.ID, "reselecting a mix must produce a new load identity")
}

func TestTrack_IsZero(t *testing.T) {
	var empty Track
	assert.True(t, empty.IsZero())
	assert.False(t, Track{Source: "x.mp3"}.IsZero())
}

func TestTrack_DisplayTitle(t *testing.T) {
	tests := []struct {
		name     string
		track    Track
		expected string
	}{
		{
			name:     "titled",
			track:    Track{Source: "a.mp3", Title: "Track A"},
			expected: "Track A",
		},
		{
			name:     "untitled falls back to source",
			track:    Track{Source: "a.mp3"},
			expected: "a.mp3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.track.DisplayTitle())
		})
	}
}
