// Package footer decides whether the page footer, which hosts the audio
// player, is shown.
package footer

import (
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/bassstation/internal/app/notification"
)

// Status is the read-only player surface the footer polls.
type Status interface {
	IsCurrentlyPlaying() bool
	WasPlayingWithin(grace time.Duration) bool
}

// Viewport reports the scroll position.
type Viewport interface {
	DistanceToBottom() float64 // Pixels between the viewport bottom and the page bottom
}

// StaticViewport is a fixed scroll position.
type StaticViewport float64

// DistanceToBottom implements Viewport.
func (v StaticViewport) DistanceToBottom() float64 {
	return float64(v)
}

// View shows or hides the footer.
type View interface {
	SetVisible(visible bool)
}

// Config holds footer visibility configuration.
type Config struct {
	GracePeriod  time.Duration // Keep showing this long after playback stops
	HideDelay    time.Duration // Debounce before hiding
	NearBottomPx float64       // Show when the viewport is this close to the page bottom
}

// Controller shows the footer while audio is playing, shortly after it
// stops, or when the user has scrolled to the bottom. Showing is immediate;
// hiding is debounced and re-checked.
type Controller struct {
	mu sync.Mutex

	status   Status
	viewport Viewport
	view     View
	config   Config

	visible    bool
	hideTimer  *time.Timer
	graceTimer *time.Timer
	closed     bool
}

// New creates a footer controller. The footer starts hidden; call Check to
// evaluate it.
func New(status Status, viewport Viewport, view View, config Config) (*Controller, error) {
	if status == nil || viewport == nil || view == nil {
		return nil, errors.New("footer: status, viewport and view are required")
	}
	return &Controller{
		status:   status,
		viewport: viewport,
		view:     view,
		config:   config,
	}, nil
}

// ShouldBeVisible evaluates the visibility conditions now.
func (c *Controller) ShouldBeVisible() bool {
	if c.status.IsCurrentlyPlaying() {
		return true
	}
	if c.status.WasPlayingWithin(c.config.GracePeriod) {
		return true
	}
	return c.viewport.DistanceToBottom() < c.config.NearBottomPx
}

// Check re-evaluates visibility. The page calls it on scroll.
func (c *Controller) Check() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.stopTimersLocked()

	if c.ShouldBeVisible() {
		c.setVisibleLocked(true)
		// Re-check once the grace window has certainly expired
		if !c.status.IsCurrentlyPlaying() && c.status.WasPlayingWithin(c.config.GracePeriod) {
			c.graceTimer = time.AfterFunc(c.config.GracePeriod, c.Check)
		}
		return
	}

	if !c.visible {
		return
	}
	c.hideTimer = time.AfterFunc(c.config.HideDelay, c.hideIfIdle)
}

// Send implements notification.Subscriber.
func (c *Controller) Send(n notification.Notification) error {
	zlog.Debug().Msgf("footer: player event: seq=%d type=%s playing=%t", n.SequenceNo, n.Event.Type, n.Event.Playing)
	c.Check()
	return nil
}

// Visible reports whether the footer is shown.
func (c *Controller) Visible() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.visible
}

// Close stops pending timers. Later checks are ignored.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	c.stopTimersLocked()
}

func (c *Controller) hideIfIdle() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.hideTimer = nil
	if c.closed || c.ShouldBeVisible() {
		return
	}
	c.setVisibleLocked(false)
}

func (c *Controller) setVisibleLocked(visible bool) {
	if c.visible == visible {
		return
	}
	c.visible = visible
	c.view.SetVisible(visible)
	zlog.Debug().Msgf("footer: visible=%t", visible)
}

func (c *Controller) stopTimersLocked() {
	if c.hideTimer != nil {
		c.hideTimer.Stop()
		c.hideTimer = nil
	}
	if c.graceTimer != nil {
		c.graceTimer.Stop()
		c.graceTimer = nil
	}
}
