package recorder

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// endlessStream writes a chunk every few milliseconds until the client leaves.
func endlessStream(chunk int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "audio/mpeg")
		flusher, _ := w.(http.Flusher)
		data := bytes.Repeat([]byte{0xff}, chunk)
		for {
			select {
			case <-r.Context().Done():
				return
			case <-time.After(5 * time.Millisecond):
			}
			if _, err := w.Write(data); err != nil {
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
	}
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil, Config{Duration: time.Second})
	assert.ErrorIs(t, err, ErrNoStream)

	_, err = New(nil, Config{StreamURL: "http://example.com", Duration: 0})
	assert.Error(t, err)

	r, err := New(nil, Config{StreamURL: "http://example.com", Duration: time.Second})
	require.NoError(t, err)
	assert.Equal(t, 8192, r.config.ChunkSize)
	assert.Equal(t, http.DefaultClient, r.client)
}

func TestRecorder_FileName(t *testing.T) {
	r, err := New(nil, Config{StreamURL: "http://example.com", Duration: time.Second, FilePrefix: "bass_station"})
	require.NoError(t, err)

	at := time.Date(2026, 10, 16, 22, 0, 0, 0, time.UTC)
	assert.Equal(t, "bass_station_2026-10-16.mp3", r.FileName(at))
}

func TestBitrate(t *testing.T) {
	tests := []struct {
		name     string
		bytes    int64
		duration time.Duration
		expected float64
	}{
		{"one MiB over 64s", 1024 * 1024, 64 * time.Second, 128},
		{"zero duration", 1024, 0, 0},
		{"empty", 0, time.Second, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Bitrate(tt.bytes, tt.duration), 1e-9)
		})
	}
}

func TestRecorder_StreamStopsAtDuration(t *testing.T) {
	srv := httptest.NewServer(endlessStream(1024))
	defer srv.Close()

	r, err := New(srv.Client(), Config{StreamURL: srv.URL, Duration: 100 * time.Millisecond, ChunkSize: 512})
	require.NoError(t, err)

	var buf bytes.Buffer
	res, err := r.Stream(context.Background(), &buf)
	require.NoError(t, err)

	assert.Positive(t, res.Bytes)
	assert.Equal(t, int64(buf.Len()), res.Bytes)
	assert.False(t, res.Interrupted)
	assert.GreaterOrEqual(t, res.Elapsed, 90*time.Millisecond)
	assert.Positive(t, res.BitrateKbps)
}

func TestRecorder_StreamEndsEarly(t *testing.T) {
	payload := bytes.Repeat([]byte{0x49}, 10*1024)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	r, err := New(srv.Client(), Config{StreamURL: srv.URL, Duration: 5 * time.Second, ChunkSize: 4096})
	require.NoError(t, err)

	var buf bytes.Buffer
	res, err := r.Stream(context.Background(), &buf)
	require.NoError(t, err)
	assert.Equal(t, int64(len(payload)), res.Bytes)
	assert.Equal(t, payload, buf.Bytes())
}

func TestRecorder_Interrupted(t *testing.T) {
	srv := httptest.NewServer(endlessStream(256))
	defer srv.Close()

	r, err := New(srv.Client(), Config{StreamURL: srv.URL, Duration: time.Minute})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	var buf bytes.Buffer
	res, err := r.Stream(ctx, &buf)
	require.NoError(t, err)
	assert.True(t, res.Interrupted)
	assert.Less(t, res.Elapsed, 10*time.Second)
}

func TestRecorder_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no stream", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	r, err := New(srv.Client(), Config{StreamURL: srv.URL, Duration: time.Second})
	require.NoError(t, err)

	_, err = r.Stream(context.Background(), &bytes.Buffer{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBadStatus))
	assert.Contains(t, err.Error(), "503")
}

func TestRecorder_RecordWritesDatedFile(t *testing.T) {
	payload := []byte("ID3-fake-mp3-frames")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	dir := filepath.Join(t.TempDir(), "recordings")
	r, err := New(srv.Client(), Config{
		StreamURL:  srv.URL,
		Duration:   time.Second,
		OutputDir:  dir,
		FilePrefix: "bass_station",
	})
	require.NoError(t, err)
	r.now = func() time.Time { return time.Date(2026, 10, 16, 22, 0, 0, 0, time.UTC) }

	res, err := r.Record(context.Background())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "bass_station_2026-10-16.mp3"), res.Path)

	data, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	assert.Equal(t, payload, data)
	assert.InDelta(t, float64(len(payload))/(1024*1024), res.SizeMiB(), 1e-12)
}
