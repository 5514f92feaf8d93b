package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte("{}"))
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Player.ReadinessThreshold)
	assert.Equal(t, time.Duration(0), cfg.Player.PlayTimeout())
	assert.Equal(t, 8*time.Second, cfg.Footer.GracePeriod())
	assert.Equal(t, 250*time.Millisecond, cfg.Footer.HideDelay())
	assert.Equal(t, 50.0, cfg.Footer.NearBottomPx)
	assert.Equal(t, 4444*time.Second, cfg.Recorder.Duration())
	assert.Equal(t, 8192, cfg.Recorder.ChunkSize)
	assert.Equal(t, ".", cfg.Recorder.OutputDir)
	assert.Equal(t, "bass_station", cfg.Recorder.FilePrefix)
	assert.Equal(t, "http://northumberland.serverroom.net:8850/", cfg.Recorder.StreamURL)
}

func TestDefault(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)
	assert.Equal(t, 8000, cfg.Footer.GracePeriodMs)
	assert.Equal(t, "http://northumberland.serverroom.net:8850/", cfg.Recorder.StreamURL)
}

func TestDefault_EnvOverride(t *testing.T) {
	t.Setenv("BASSSTATION_STREAM_URL", "https://env.example.com/live")
	t.Setenv("BASSSTATION_OUTPUT_DIR", "/var/rec")

	cfg, err := Default()
	require.NoError(t, err)
	assert.Equal(t, "https://env.example.com/live", cfg.Recorder.StreamURL)
	assert.Equal(t, "/var/rec", cfg.Recorder.OutputDir)
	assert.Equal(t, "bass_station", cfg.Recorder.FilePrefix)
}

func TestDefault_InvalidEnv(t *testing.T) {
	t.Setenv("BASSSTATION_STREAM_URL", "ftp://env.example.com/live")

	_, err := Default()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scheme")
}

func TestParse_Values(t *testing.T) {
	data := []byte(`
player:
  readiness_threshold: 4
  play_timeout_ms: 3000
footer:
  grace_period_ms: 5000
  hide_delay_ms: 100
  near_bottom_px: 20
recorder:
  stream_url: http://radio.example.com:8850/
  duration_sec: 60
  chunk_size: 4096
  output_dir: /tmp/rec
  file_prefix: show
`)
	cfg, err := Parse(data)
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Player.ReadinessThreshold)
	assert.Equal(t, 3*time.Second, cfg.Player.PlayTimeout())
	assert.Equal(t, 5*time.Second, cfg.Footer.GracePeriod())
	assert.Equal(t, 100*time.Millisecond, cfg.Footer.HideDelay())
	assert.Equal(t, 20.0, cfg.Footer.NearBottomPx)
	assert.Equal(t, "http://radio.example.com:8850/", cfg.Recorder.StreamURL)
	assert.Equal(t, time.Minute, cfg.Recorder.Duration())
	assert.Equal(t, 4096, cfg.Recorder.ChunkSize)
	assert.Equal(t, "/tmp/rec", cfg.Recorder.OutputDir)
	assert.Equal(t, "show", cfg.Recorder.FilePrefix)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		errMsg string
	}{
		{
			name:   "readiness threshold out of range",
			data:   "player:\n  readiness_threshold: 9\n",
			errMsg: "ReadinessThreshold",
		},
		{
			name:   "negative play timeout",
			data:   "player:\n  play_timeout_ms: -1\n",
			errMsg: "PlayTimeoutMs",
		},
		{
			name:   "hide delay too long",
			data:   "footer:\n  hide_delay_ms: 10000\n",
			errMsg: "HideDelayMs",
		},
		{
			name:   "chunk size too small",
			data:   "recorder:\n  chunk_size: 10\n",
			errMsg: "ChunkSize",
		},
		{
			name:   "stream url not a url",
			data:   "recorder:\n  stream_url: not a url\n",
			errMsg: "StreamURL",
		},
		{
			name:   "stream url wrong scheme",
			data:   "recorder:\n  stream_url: ftp://radio.example.com/\n",
			errMsg: "scheme",
		},
		{
			name:   "malformed yaml",
			data:   "player: [",
			errMsg: "failed to parse config file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("recorder:\n  stream_url: http://file.example.com/\n"), 0o644))

	t.Setenv("BASSSTATION_STREAM_URL", "https://env.example.com/live")
	t.Setenv("BASSSTATION_OUTPUT_DIR", "/var/rec")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://env.example.com/live", cfg.Recorder.StreamURL)
	assert.Equal(t, "/var/rec", cfg.Recorder.OutputDir)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}
