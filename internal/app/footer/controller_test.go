package footer

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/bassstation/internal/app/notification"
	"github.com/osa030/bassstation/internal/app/playback"
)

type fakeStatus struct {
	mu        sync.Mutex
	playing   bool
	stoppedAt time.Time
}

func (s *fakeStatus) IsCurrentlyPlaying() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

func (s *fakeStatus) WasPlayingWithin(grace time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.playing || s.stoppedAt.IsZero() {
		return false
	}
	return time.Since(s.stoppedAt) < grace
}

func (s *fakeStatus) play() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playing = true
	s.stoppedAt = time.Time{}
}

func (s *fakeStatus) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playing = false
	s.stoppedAt = time.Now()
}

type fakeView struct {
	mu      sync.Mutex
	visible bool
	calls   int
}

func (v *fakeView) SetVisible(visible bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.visible = visible
	v.calls++
}

func (v *fakeView) isVisible() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.visible
}

func newController(t *testing.T, status Status, viewport Viewport, cfg Config) (*Controller, *fakeView) {
	t.Helper()
	view := &fakeView{}
	c, err := New(status, viewport, view, cfg)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c, view
}

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := New(nil, StaticViewport(0), &fakeView{}, Config{})
	assert.Error(t, err)
	_, err = New(&fakeStatus{}, nil, &fakeView{}, Config{})
	assert.Error(t, err)
	_, err = New(&fakeStatus{}, StaticViewport(0), nil, Config{})
	assert.Error(t, err)
}

func TestController_ShouldBeVisible(t *testing.T) {
	cfg := Config{GracePeriod: time.Hour, HideDelay: time.Millisecond, NearBottomPx: 50}

	tests := []struct {
		name     string
		setup    func(s *fakeStatus)
		distance float64
		expected bool
	}{
		{
			name:     "idle, far from bottom",
			setup:    func(s *fakeStatus) {},
			distance: 500,
			expected: false,
		},
		{
			name:     "playing",
			setup:    func(s *fakeStatus) { s.play() },
			distance: 500,
			expected: true,
		},
		{
			name:     "within grace period",
			setup:    func(s *fakeStatus) { s.play(); s.stop() },
			distance: 500,
			expected: true,
		},
		{
			name:     "near bottom",
			setup:    func(s *fakeStatus) {},
			distance: 49,
			expected: true,
		},
		{
			name:     "exactly at threshold",
			setup:    func(s *fakeStatus) {},
			distance: 50,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status := &fakeStatus{}
			tt.setup(status)
			c, _ := newController(t, status, StaticViewport(tt.distance), cfg)
			assert.Equal(t, tt.expected, c.ShouldBeVisible())
		})
	}
}

func TestController_ShowsImmediatelyHidesAfterDelay(t *testing.T) {
	status := &fakeStatus{}
	c, view := newController(t, status, StaticViewport(1000), Config{
		GracePeriod:  0,
		HideDelay:    20 * time.Millisecond,
		NearBottomPx: 50,
	})

	status.play()
	c.Check()
	assert.True(t, c.Visible())
	assert.True(t, view.isVisible())

	status.mu.Lock()
	status.playing = false
	status.mu.Unlock()
	c.Check()
	assert.True(t, c.Visible(), "hiding is debounced")

	assert.Eventually(t, func() bool { return !c.Visible() }, time.Second, 5*time.Millisecond)
	assert.False(t, view.isVisible())
}

func TestController_HideCancelledWhenPlaybackResumes(t *testing.T) {
	status := &fakeStatus{}
	c, _ := newController(t, status, StaticViewport(1000), Config{
		HideDelay:    30 * time.Millisecond,
		NearBottomPx: 50,
	})

	status.play()
	c.Check()
	status.mu.Lock()
	status.playing = false
	status.mu.Unlock()
	c.Check()
	status.play()
	c.Check()

	time.Sleep(60 * time.Millisecond)
	assert.True(t, c.Visible())
}

func TestController_GraceWindowExpiryRechecks(t *testing.T) {
	status := &fakeStatus{}
	c, _ := newController(t, status, StaticViewport(1000), Config{
		GracePeriod:  40 * time.Millisecond,
		HideDelay:    5 * time.Millisecond,
		NearBottomPx: 50,
	})

	status.play()
	status.stop()
	c.Check()
	assert.True(t, c.Visible(), "visible during grace window")

	assert.Eventually(t, func() bool { return !c.Visible() }, time.Second, 5*time.Millisecond,
		"hidden after the grace window without another scroll")
}

func TestController_SendTriggersCheck(t *testing.T) {
	status := &fakeStatus{}
	c, _ := newController(t, status, StaticViewport(1000), Config{HideDelay: time.Millisecond, NearBottomPx: 50})

	m := notification.NewManager()
	m.Subscribe(c)

	status.play()
	m.Broadcast(playback.Event{Type: playback.EventStateChanged, State: playback.StatePlaying, Playing: true})

	assert.True(t, c.Visible())
}

func TestController_CloseStopsTimers(t *testing.T) {
	status := &fakeStatus{}
	c, view := newController(t, status, StaticViewport(1000), Config{HideDelay: 10 * time.Millisecond, NearBottomPx: 50})

	status.play()
	c.Check()
	status.mu.Lock()
	status.playing = false
	status.mu.Unlock()
	c.Check()
	c.Close()

	time.Sleep(30 * time.Millisecond)
	assert.True(t, view.isVisible(), "no hide after close")
	c.Check()
	assert.True(t, view.isVisible())
}
