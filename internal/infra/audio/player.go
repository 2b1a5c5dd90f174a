// internal/infra/audio/player.go
package audio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/wav"
	"github.com/sirupsen/logrus"
)

const resampleQuality = 4

var (
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	ErrPlayerClosed      = errors.New("audio player is closed")
)

// Output is the sound device the player writes to.
type Output interface {
	SampleRate() beep.SampleRate
	Play(s beep.Streamer)
	Clear() // Drops everything currently playing
}

// PlaybackError reports audio that exists but cannot be played. It never
// stops the schedule; callers log it and move on.
type PlaybackError struct {
	Path string
	Op   string // "open", "decode" or "seek"
	Err  error
}

func (e *PlaybackError) Error() string {
	return fmt.Sprintf("playback %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PlaybackError) Unwrap() error { return e.Err }

type playback struct {
	path   string
	stream beep.StreamSeekCloser
	ctrl   *beep.Ctrl
	timer  *time.Timer
}

// Player plays one audio file at a time, starting at an offset and stopping
// automatically after a fixed duration.
type Player struct {
	mu      sync.Mutex
	out     Output
	logger  *logrus.Entry
	current *playback
	closed  bool
}

func NewPlayer(out Output, logger *logrus.Entry) *Player {
	return &Player{out: out, logger: logger}
}

// Play starts path at offset and stops it duration later, or when the track
// ends. A path that is empty or does not exist is skipped with a warning:
// started is false and err is nil. Any playback already running is stopped
// first.
func (p *Player) Play(path string, offset, duration time.Duration) (started bool, err error) {
	entry := p.logger.WithFields(logrus.Fields{
		"audio_path": path,
		"offset":     offset.String(),
		"duration":   duration.String(),
	})

	if strings.TrimSpace(path) == "" {
		entry.Warn("No audio configured, skipping playback")
		return false, nil
	}
	info, statErr := os.Stat(path)
	if statErr != nil || !info.Mode().IsRegular() {
		entry.WithError(statErr).Warn("Audio file not accessible, skipping playback")
		return false, nil
	}

	stream, format, err := decode(path)
	if err != nil {
		return false, err
	}
	if offset > 0 {
		pos := format.SampleRate.N(offset)
		if pos >= stream.Len() {
			stream.Close()
			return false, &PlaybackError{Path: path, Op: "seek", Err: fmt.Errorf("offset %s is past the end of the track (%s)", offset, format.SampleRate.D(stream.Len()))}
		}
		if err := stream.Seek(pos); err != nil {
			stream.Close()
			return false, &PlaybackError{Path: path, Op: "seek", Err: err}
		}
	}

	var s beep.Streamer = stream
	if format.SampleRate != p.out.SampleRate() {
		s = beep.Resample(resampleQuality, format.SampleRate, p.out.SampleRate(), s)
	}
	pb := &playback{path: path, stream: stream, ctrl: &beep.Ctrl{Streamer: s}}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		stream.Close()
		return false, ErrPlayerClosed
	}
	p.stopLocked()
	p.current = pb
	// The callback runs on the output's goroutine, which may hold the device
	// lock that Clear needs.
	p.out.Play(beep.Seq(pb.ctrl, beep.Callback(func() { go p.expire(pb, "track ended") })))
	if duration > 0 {
		// The timer only ever stops the playback it was armed for.
		pb.timer = time.AfterFunc(duration, func() { p.expire(pb, "duration elapsed") })
	}
	entry.Info("Playback started")
	return true, nil
}

// Stop halts the current playback. Calling it with nothing playing is a no-op.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

// Close stops the current playback and makes every later Play fail with
// ErrPlayerClosed.
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
	p.closed = true
}

// Playing reports whether a playback is in progress.
func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current != nil
}

func (p *Player) expire(pb *playback, reason string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current != pb {
		return
	}
	p.logger.WithFields(logrus.Fields{"audio_path": pb.path, "reason": reason}).Debug("Playback finished")
	p.stopLocked()
}

func (p *Player) stopLocked() {
	pb := p.current
	if pb == nil {
		return
	}
	p.current = nil
	if pb.timer != nil {
		pb.timer.Stop()
	}
	p.out.Clear()
	if err := pb.stream.Close(); err != nil {
		p.logger.WithError(err).WithField("audio_path", pb.path).Warn("Failed to close audio stream")
	}
}

func decode(path string) (beep.StreamSeekCloser, beep.Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".wav" && ext != ".mp3" {
		return nil, beep.Format{}, &PlaybackError{Path: path, Op: "decode", Err: fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, beep.Format{}, &PlaybackError{Path: path, Op: "open", Err: err}
	}

	var (
		stream beep.StreamSeekCloser
		format beep.Format
	)
	if ext == ".wav" {
		stream, format, err = wav.Decode(f)
	} else {
		stream, format, err = mp3.Decode(f)
	}
	if err != nil {
		f.Close()
		return nil, beep.Format{}, &PlaybackError{Path: path, Op: "decode", Err: err}
	}
	return stream, format, nil
}
