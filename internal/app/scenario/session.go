package scenario

import (
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/osa030/bassstation/internal/app/playback"
	"github.com/osa030/bassstation/internal/infra/media"
	"github.com/osa030/bassstation/internal/infra/ui"
)

// Clock is a manually advanced wall clock.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock creates a clock set to start.
func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

// Now returns the current clock time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Session wires a player to a simulated media element, an in-memory
// control panel and a manual clock.
type Session struct {
	Player *playback.Player
	Media  *media.Simulator
	Panel  *ui.Panel
	Clock  *Clock
}

// NewSession creates a session whose clock starts at startMs epoch
// milliseconds. Options are applied before the session clock.
func NewSession(config playback.Config, startMs int64, opts ...playback.Option) (*Session, error) {
	sim := media.NewSimulator()
	panel := ui.NewPanel()
	clock := NewClock(time.UnixMilli(startMs))

	opts = append(opts, playback.WithClock(clock.Now))
	player, err := playback.New(sim, panel.Controls(), config, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create player")
	}
	sim.Attach(player)

	return &Session{
		Player: player,
		Media:  sim,
		Panel:  panel,
		Clock:  clock,
	}, nil
}

// PlayerConfig returns base with the scenario's player overrides applied.
func (sc *Scenario) PlayerConfig(base playback.Config) playback.Config {
	if sc.Player.ReadinessThreshold > 0 {
		base.ReadinessThreshold = playback.ReadyState(sc.Player.ReadinessThreshold)
	}
	if sc.Player.PlayTimeoutMs > 0 {
		base.PlayTimeout = time.Duration(sc.Player.PlayTimeoutMs) * time.Millisecond
	}
	return base
}
