package scenario

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/bassstation/internal/app/playback"
)

// StepResult records the player snapshot after a step.
type StepResult struct {
	Index    int
	Kind     string
	Name     string
	Snapshot playback.Snapshot
	Err      error // Error returned by an allowed failing action
}

// Report is the outcome of a scenario run.
type Report struct {
	Name  string
	Steps []StepResult
}

type loadArgs struct {
	Source string `mapstructure:"source" validate:"required"`
	Title  string `mapstructure:"title"`
}

type valueArgs struct {
	Value *float64 `mapstructure:"value" validate:"required"`
}

type metadataArgs struct {
	Duration float64 `mapstructure:"duration"`
}

type positionArgs struct {
	Position float64 `mapstructure:"position" validate:"gte=0"`
}

type readyStateArgs struct {
	Value int `mapstructure:"value" validate:"gte=0,lte=4"`
}

type failureArgs struct {
	Message string `mapstructure:"message" default:"simulated failure"`
	Clear   bool   `mapstructure:"clear"`
}

// Run creates a session for sc and replays it.
func Run(sc *Scenario, base playback.Config, opts ...playback.Option) (*Report, error) {
	sess, err := NewSession(sc.PlayerConfig(base), sc.StartMs, opts...)
	if err != nil {
		return nil, err
	}
	return sess.Run(sc)
}

// Run replays sc step by step. It stops at the first failed step and
// returns the partial report together with the error.
func (s *Session) Run(sc *Scenario) (*Report, error) {
	report := &Report{Name: sc.Name}
	zlog.Info().Msgf("scenario: running %q (%d steps)", sc.Name, len(sc.Steps))

	for i, step := range sc.Steps {
		result := StepResult{Index: i + 1, Kind: step.Kind(), Name: stepName(step)}

		err := s.Apply(step)
		if err != nil && step.AllowError && !errors.Is(err, ErrInvalidStep) && !errors.Is(err, ErrExpectationFailed) {
			result.Err = err
			err = nil
		}
		result.Snapshot = s.Player.Snapshot()
		report.Steps = append(report.Steps, result)

		if err != nil {
			zlog.Warn().Msgf("scenario: step %d (%s) failed: %v", result.Index, result.Name, err)
			return report, errors.Wrapf(err, "step %d (%s)", result.Index, result.Name)
		}
		zlog.Debug().Msgf("scenario: step %d (%s) ok: state=%s", result.Index, result.Name, result.Snapshot.State)
	}

	zlog.Info().Msgf("scenario: %q passed", sc.Name)
	return report, nil
}

// Apply executes a single step.
func (s *Session) Apply(step Step) error {
	if err := step.check(); err != nil {
		return err
	}
	switch step.Kind() {
	case "action":
		return s.applyAction(step.Action, step.Args)
	case "media":
		return s.applyMedia(step.Media, step.Args)
	case "advance":
		s.Clock.Advance(time.Duration(step.AdvanceMs) * time.Millisecond)
		return nil
	default:
		return s.applyExpect(step.Expect)
	}
}

func (s *Session) applyAction(action string, args map[string]any) error {
	switch action {
	case "load":
		var a loadArgs
		if err := decodeArgs(args, &a); err != nil {
			return err
		}
		s.Player.LoadTrack(a.Source, a.Title)
	case "play":
		return s.Player.Play()
	case "pause":
		s.Player.Pause()
	case "toggle":
		return s.Player.TogglePlayPause()
	case "seek_start":
		var a valueArgs
		if err := decodeArgs(args, &a); err != nil {
			return err
		}
		s.Player.SeekDragStart(*a.Value)
	case "seek_commit":
		var a valueArgs
		if err := decodeArgs(args, &a); err != nil {
			return err
		}
		s.Player.SeekDragCommit(*a.Value)
	case "volume":
		var a valueArgs
		if err := decodeArgs(args, &a); err != nil {
			return err
		}
		s.Player.SetVolume(*a.Value)
	case "mute":
		s.Player.ToggleMute()
	case "flush":
		s.Media.Flush()
	default:
		return errors.Mark(errors.Newf("unknown action: %s", action), ErrInvalidStep)
	}
	return nil
}

func (s *Session) applyMedia(name string, args map[string]any) error {
	switch name {
	case "metadata":
		var a metadataArgs
		if err := decodeArgs(args, &a); err != nil {
			return err
		}
		s.Media.LoadMetadata(a.Duration)
	case "progress":
		var a positionArgs
		if err := decodeArgs(args, &a); err != nil {
			return err
		}
		s.Media.Advance(a.Position)
	case "end":
		s.Media.End()
	case "fail":
		var a failureArgs
		if err := decodeArgs(args, &a); err != nil {
			return err
		}
		s.Media.Fail(errors.New(a.Message))
	case "ready_state":
		var a readyStateArgs
		if err := decodeArgs(args, &a); err != nil {
			return err
		}
		s.Media.SetReadyState(playback.ReadyState(a.Value))
	case "reject_play":
		var a failureArgs
		if err := decodeArgs(args, &a); err != nil {
			return err
		}
		s.Media.RejectPlay(failureOrNil(a))
	case "fail_seeks":
		var a failureArgs
		if err := decodeArgs(args, &a); err != nil {
			return err
		}
		s.Media.FailSeeks(failureOrNil(a))
	default:
		t, ok := playback.ParseMediaEventType(name)
		if !ok {
			return errors.Mark(errors.Newf("unknown media event: %s", name), ErrInvalidStep)
		}
		var a metadataArgs
		if err := decodeArgs(args, &a); err != nil {
			return err
		}
		ev := playback.MediaEvent{Type: t, Duration: a.Duration}
		if t == playback.MediaError {
			ev.Err = errors.New("simulated media error")
		}
		s.Media.Emit(ev)
	}
	return nil
}

func failureOrNil(a failureArgs) error {
	if a.Clear {
		return nil
	}
	return errors.New(a.Message)
}

func stepName(step Step) string {
	switch step.Kind() {
	case "action":
		return step.Action
	case "media":
		return "media:" + step.Media
	case "advance":
		return fmt.Sprintf("advance:%dms", step.AdvanceMs)
	case "expect":
		keys := make([]string, 0, len(step.Expect))
		for k := range step.Expect {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		return "expect:" + strings.Join(keys, ",")
	default:
		return "invalid"
	}
}
