// Package scenario replays scripted player sessions against a simulated
// media element.
package scenario

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Errors
var (
	ErrInvalidStep       = errors.New("invalid scenario step")
	ErrExpectationFailed = errors.New("expectation failed")
)

// Scenario is a named sequence of steps.
type Scenario struct {
	Name   string `yaml:"name" validate:"required"`
	Player struct {
		ReadinessThreshold int `yaml:"readiness_threshold" validate:"gte=0,lte=4"`
		PlayTimeoutMs      int `yaml:"play_timeout_ms" validate:"gte=0"`
	} `yaml:"player"`
	StartMs int64  `yaml:"start_ms" default:"1000000"`
	Steps   []Step `yaml:"steps" validate:"required,min=1,dive"`
}

// Step is one scenario instruction. Exactly one of Action, Media, AdvanceMs
// and Expect must be set.
type Step struct {
	Action     string         `yaml:"action"`
	Media      string         `yaml:"media"`
	AdvanceMs  int64          `yaml:"advance_ms" validate:"gte=0"`
	Expect     map[string]any `yaml:"expect"`
	Args       map[string]any `yaml:"args"`
	AllowError bool           `yaml:"allow_error"`
}

// Kind returns the step kind: "action", "media", "advance" or "expect".
func (s Step) Kind() string {
	switch {
	case s.Action != "":
		return "action"
	case s.Media != "":
		return "media"
	case s.Expect != nil:
		return "expect"
	case s.AdvanceMs > 0:
		return "advance"
	default:
		return ""
	}
}

func (s Step) check() error {
	set := 0
	if s.Action != "" {
		set++
	}
	if s.Media != "" {
		set++
	}
	if s.Expect != nil {
		set++
	}
	if s.AdvanceMs > 0 {
		set++
	}
	if set != 1 {
		return errors.Mark(errors.Newf("step must set exactly one of action, media, advance_ms, expect (got %d)", set), ErrInvalidStep)
	}
	return nil
}

// Load reads a scenario from a YAML file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read scenario file")
	}
	return Parse(data)
}

// Parse parses and validates a YAML scenario.
func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, errors.Wrap(err, "failed to parse scenario")
	}
	if err := defaults.Set(&sc); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}
	if err := validator.New().Struct(sc); err != nil {
		return nil, errors.Wrap(err, "scenario validation failed")
	}
	for i, step := range sc.Steps {
		if err := step.check(); err != nil {
			return nil, errors.Wrapf(err, "step %d", i+1)
		}
	}
	return &sc, nil
}

// decodeArgs decodes step arguments into out, applies defaults and
// validates the result.
func decodeArgs(args map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused: true,
		Result:      out,
	})
	if err != nil {
		return errors.Wrap(err, "failed to create decoder")
	}
	if err := decoder.Decode(args); err != nil {
		return errors.Mark(errors.Wrap(err, "failed to decode args"), ErrInvalidStep)
	}
	if err := defaults.Set(out); err != nil {
		return errors.Wrap(err, "failed to set defaults")
	}
	if err := validator.New().Struct(out); err != nil {
		return errors.Mark(errors.Wrap(err, "args validation failed"), ErrInvalidStep)
	}
	return nil
}
