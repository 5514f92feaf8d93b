// Package recorder captures a live radio stream to disk.
package recorder

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

// Errors
var (
	ErrBadStatus = errors.New("unexpected stream status")
	ErrNoStream  = errors.New("stream url is not configured")
)

// Config holds recorder configuration.
type Config struct {
	StreamURL  string
	Duration   time.Duration
	ChunkSize  int
	OutputDir  string
	FilePrefix string
}

// Result describes a finished recording.
type Result struct {
	Path        string // Empty when streaming to a caller-supplied writer
	Bytes       int64
	Elapsed     time.Duration
	BitrateKbps float64
	Interrupted bool // Stopped by the caller before the duration elapsed
}

// Recorder records a stream for a fixed duration.
type Recorder struct {
	client *http.Client
	config Config
	now    func() time.Time
}

// New creates a recorder. A nil client selects http.DefaultClient.
func New(client *http.Client, config Config) (*Recorder, error) {
	if config.StreamURL == "" {
		return nil, ErrNoStream
	}
	if config.Duration <= 0 {
		return nil, errors.Newf("recording duration must be positive, got %v", config.Duration)
	}
	if config.ChunkSize <= 0 {
		config.ChunkSize = 8192
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Recorder{
		client: client,
		config: config,
		now:    time.Now,
	}, nil
}

// FileName returns the output file name for a recording started at t.
func (r *Recorder) FileName(t time.Time) string {
	return r.config.FilePrefix + "_" + t.Format(time.DateOnly) + ".mp3"
}

// Record streams into a dated file under the output directory.
func (r *Recorder) Record(ctx context.Context) (*Result, error) {
	if err := os.MkdirAll(r.config.OutputDir, 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create output directory")
	}
	path := filepath.Join(r.config.OutputDir, r.FileName(r.now()))

	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create output file")
	}

	zlog.Info().Msgf("recorder: recording to %s for %v", path, r.config.Duration)
	res, err := r.Stream(ctx, f)
	if cerr := f.Close(); cerr != nil && err == nil {
		err = errors.Wrap(cerr, "failed to close output file")
	}
	if err != nil {
		return nil, err
	}
	res.Path = path
	return res, nil
}

// Stream copies the stream into w until the duration elapses, the stream
// ends, or ctx is cancelled.
func (r *Recorder) Stream(ctx context.Context, w io.Writer) (*Result, error) {
	recordCtx, cancel := context.WithTimeout(ctx, r.config.Duration)
	defer cancel()

	req, err := http.NewRequestWithContext(recordCtx, http.MethodGet, r.config.StreamURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build stream request")
	}

	start := r.now()
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open stream")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.Mark(errors.Newf("stream returned %s", resp.Status), ErrBadStatus)
	}

	res := &Result{}
	buf := make([]byte, r.config.ChunkSize)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, err := w.Write(buf[:n]); err != nil {
				return nil, errors.Wrap(err, "failed to write recording")
			}
			res.Bytes += int64(n)
		}
		if readErr == nil {
			continue
		}

		switch {
		case errors.Is(readErr, io.EOF):
			zlog.Warn().Msgf("recorder: stream ended early after %d bytes", res.Bytes)
		case ctx.Err() != nil:
			res.Interrupted = true
			zlog.Warn().Msg("recorder: recording interrupted")
		case recordCtx.Err() != nil:
			// Duration reached
		default:
			return nil, errors.Wrap(readErr, "failed to read stream")
		}
		break
	}

	res.Elapsed = r.now().Sub(start)
	res.BitrateKbps = Bitrate(res.Bytes, res.Elapsed)
	zlog.Info().Msgf("recorder: recording finished: bytes=%d elapsed=%v bitrate=%.2fkbps",
		res.Bytes, res.Elapsed, res.BitrateKbps)
	return res, nil
}

// Bitrate approximates kbps from a size and a duration.
func Bitrate(bytes int64, d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	mib := float64(bytes) / (1024 * 1024)
	return mib * 8192 / d.Seconds()
}

// SizeMiB returns the recording size in MiB.
func (r *Result) SizeMiB() float64 {
	return float64(r.Bytes) / (1024 * 1024)
}
