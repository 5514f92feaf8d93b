package scenario

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/osa030/bassstation/internal/app/playback"
)

// Expectation lists the assertions of an expect step. Unset fields are
// not checked.
type Expectation struct {
	State        *string  `mapstructure:"state" validate:"omitempty,oneof=empty loading ready playing error"`
	Playing      *bool    `mapstructure:"playing"`
	Seeking      *bool    `mapstructure:"seeking"`
	Muted        *bool    `mapstructure:"muted"`
	HasError     *bool    `mapstructure:"has_error"`
	Error        *string  `mapstructure:"error" validate:"omitempty,oneof=none media_failure play_rejected play_timeout invalid_seek seek_failed"`
	Volume       *float64 `mapstructure:"volume"`
	LastVolume   *float64 `mapstructure:"last_volume"`
	Duration     *float64 `mapstructure:"duration"`
	Title        *string  `mapstructure:"title"`
	CurrentTime  *string  `mapstructure:"current_time"`
	DurationText *string  `mapstructure:"duration_text"`
	PlayIcon     *string  `mapstructure:"play_icon"`
	VolumeIcon   *string  `mapstructure:"volume_icon"`
	Loading      *bool    `mapstructure:"loading"`
	SeekValue    *float64 `mapstructure:"seek_value"`
	SeekDisabled *bool    `mapstructure:"seek_disabled"`
	MediaPlaying *bool    `mapstructure:"media_playing"`
	Loads        *int     `mapstructure:"loads"`
	Seeks        *int     `mapstructure:"seeks"`
	Stopped      *bool    `mapstructure:"stopped"`
	StoppedAtMs  *int64   `mapstructure:"stopped_at_ms"`
	WithinGrace  *bool    `mapstructure:"within_grace"`
	GraceMs      int64    `mapstructure:"grace_ms" default:"8000" validate:"gte=0"`
}

var errorKinds = map[string]error{
	"media_failure": playback.ErrMediaFailure,
	"play_rejected": playback.ErrPlayRejected,
	"play_timeout":  playback.ErrPlayTimeout,
	"invalid_seek":  playback.ErrInvalidSeek,
	"seek_failed":   playback.ErrSeekFailed,
}

const floatTolerance = 1e-9

func (s *Session) applyExpect(raw map[string]any) error {
	var e Expectation
	if err := decodeArgs(raw, &e); err != nil {
		return err
	}

	snap := s.Player.Snapshot()
	var mismatches []string
	check := func(name string, want, got any) {
		if want != got {
			mismatches = append(mismatches, fmt.Sprintf("%s: want %v, got %v", name, want, got))
		}
	}
	checkFloat := func(name string, want, got float64) {
		if math.Abs(want-got) > floatTolerance {
			mismatches = append(mismatches, fmt.Sprintf("%s: want %v, got %v", name, want, got))
		}
	}

	if e.State != nil {
		check("state", *e.State, snap.State.String())
	}
	if e.Playing != nil {
		check("playing", *e.Playing, snap.Playing)
	}
	if e.Seeking != nil {
		check("seeking", *e.Seeking, snap.Seeking)
	}
	if e.Muted != nil {
		check("muted", *e.Muted, snap.Muted)
	}
	if e.HasError != nil {
		check("has_error", *e.HasError, snap.HasError)
	}
	if e.Error != nil {
		check("error", *e.Error, errorKind(snap.Err))
	}
	if e.Volume != nil {
		checkFloat("volume", *e.Volume, snap.Volume)
	}
	if e.LastVolume != nil {
		checkFloat("last_volume", *e.LastVolume, snap.LastNonZeroVolume)
	}
	if e.Duration != nil {
		checkFloat("duration", *e.Duration, snap.Duration)
	}
	if e.Title != nil {
		check("title", *e.Title, s.Panel.Title.Text())
	}
	if e.CurrentTime != nil {
		check("current_time", *e.CurrentTime, s.Panel.CurrentTime.Text())
	}
	if e.DurationText != nil {
		check("duration_text", *e.DurationText, s.Panel.Duration.Text())
	}
	if e.PlayIcon != nil {
		check("play_icon", *e.PlayIcon, string(s.Panel.PlayPause.Icon()))
	}
	if e.VolumeIcon != nil {
		check("volume_icon", *e.VolumeIcon, string(s.Panel.VolumeButton.Icon()))
	}
	if e.Loading != nil {
		check("loading", *e.Loading, s.Panel.Loading.Visible())
	}
	if e.SeekValue != nil {
		checkFloat("seek_value", *e.SeekValue, s.Panel.Seek.Value())
	}
	if e.SeekDisabled != nil {
		check("seek_disabled", *e.SeekDisabled, s.Panel.Seek.Disabled())
	}
	if e.MediaPlaying != nil {
		check("media_playing", *e.MediaPlaying, s.Media.Playing())
	}
	if e.Loads != nil {
		check("loads", *e.Loads, len(s.Media.Loads()))
	}
	if e.Seeks != nil {
		check("seeks", *e.Seeks, len(s.Media.Seeks()))
	}
	if e.Stopped != nil {
		check("stopped", *e.Stopped, snap.LastStoppedAt != nil)
	}
	if e.StoppedAtMs != nil {
		var got int64 = -1
		if snap.LastStoppedAt != nil {
			got = snap.LastStoppedAt.UnixMilli()
		}
		check("stopped_at_ms", *e.StoppedAtMs, got)
	}
	if e.WithinGrace != nil {
		check("within_grace", *e.WithinGrace, s.Player.WasPlayingWithin(time.Duration(e.GraceMs)*time.Millisecond))
	}

	if len(mismatches) > 0 {
		return errors.Mark(errors.Newf("%s", strings.Join(mismatches, "; ")), ErrExpectationFailed)
	}
	return nil
}

func errorKind(err error) string {
	if err == nil {
		return "none"
	}
	for name, sentinel := range errorKinds {
		if errors.Is(err, sentinel) {
			return name
		}
	}
	return "other"
}
