package audio

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/wav"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOutput struct {
	mu     sync.Mutex
	rate   beep.SampleRate
	played []beep.Streamer
	clears int
}

func (o *fakeOutput) SampleRate() beep.SampleRate { return o.rate }

func (o *fakeOutput) Play(s beep.Streamer) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.played = append(o.played, s)
}

func (o *fakeOutput) Clear() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.clears++
}

func (o *fakeOutput) counts() (played, clears int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.played), o.clears
}

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

// writeWAV writes seconds of silence at the given rate.
func writeWAV(t *testing.T, dir, name string, rate beep.SampleRate, seconds int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	format := beep.Format{SampleRate: rate, NumChannels: 2, Precision: 2}
	require.NoError(t, wav.Encode(f, beep.Silence(rate.N(time.Duration(seconds)*time.Second)), format))
	return path
}

func currentCtrl(t *testing.T, p *Player) *beep.Ctrl {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	require.NotNil(t, p.current)
	return p.current.ctrl
}

// drain streams s to the end, the way the speaker would.
func drain(s beep.Streamer) {
	buf := make([][2]float64, 512)
	for {
		if _, ok := s.Stream(buf); !ok {
			return
		}
	}
}

func TestPlaySkipsMissingOrEmptyPath(t *testing.T) {
	out := &fakeOutput{rate: 8000}
	p := NewPlayer(out, testLogger())

	for _, path := range []string{"", filepath.Join(t.TempDir(), "missing.wav"), t.TempDir()} {
		started, err := p.Play(path, 0, time.Second)
		assert.NoError(t, err, path)
		assert.False(t, started, path)
	}

	played, _ := out.counts()
	assert.Zero(t, played)
	assert.False(t, p.Playing())
}

func TestPlayCorruptFileReturnsPlaybackError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.wav")
	require.NoError(t, os.WriteFile(path, []byte("definitely not RIFF"), 0o644))

	out := &fakeOutput{rate: 8000}
	p := NewPlayer(out, testLogger())

	started, err := p.Play(path, 0, time.Second)
	var perr *PlaybackError
	require.ErrorAs(t, err, &perr)
	assert.False(t, started)
	assert.Equal(t, "decode", perr.Op)
	assert.Equal(t, path, perr.Path)
	assert.False(t, p.Playing())
}

func TestPlayUnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bell.txt")
	require.NoError(t, os.WriteFile(path, []byte("ring"), 0o644))

	p := NewPlayer(&fakeOutput{rate: 8000}, testLogger())
	_, err := p.Play(path, 0, time.Second)

	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}

func TestPlayOffsetPastEnd(t *testing.T) {
	path := writeWAV(t, t.TempDir(), "short.wav", 8000, 1)
	p := NewPlayer(&fakeOutput{rate: 8000}, testLogger())

	_, err := p.Play(path, 5*time.Second, time.Second)
	var perr *PlaybackError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "seek", perr.Op)
}

func TestPlayStartsAtOffsetAndStopsAfterDuration(t *testing.T) {
	path := writeWAV(t, t.TempDir(), "bell.wav", 8000, 3)
	out := &fakeOutput{rate: 8000}
	p := NewPlayer(out, testLogger())

	started, err := p.Play(path, time.Second, 30*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, started)
	assert.True(t, p.Playing())

	ctrl := currentCtrl(t, p)
	stream, ok := ctrl.Streamer.(beep.StreamSeeker)
	require.True(t, ok, "same sample rate must not be resampled")
	assert.Equal(t, 8000, stream.Position())

	assert.Eventually(t, func() bool { return !p.Playing() }, time.Second, 5*time.Millisecond)
	_, clears := out.counts()
	assert.Equal(t, 1, clears)
}

func TestPlayResamplesToOutputRate(t *testing.T) {
	path := writeWAV(t, t.TempDir(), "bell.wav", 8000, 1)
	out := &fakeOutput{rate: 44100}
	p := NewPlayer(out, testLogger())

	_, err := p.Play(path, 0, time.Minute)
	require.NoError(t, err)
	defer p.Stop()

	ctrl := currentCtrl(t, p)
	assert.IsType(t, &beep.Resampler{}, ctrl.Streamer)
}

func TestPlayReplacesCurrentPlayback(t *testing.T) {
	dir := t.TempDir()
	first := writeWAV(t, dir, "first.wav", 8000, 2)
	second := writeWAV(t, dir, "second.wav", 8000, 2)
	out := &fakeOutput{rate: 8000}
	p := NewPlayer(out, testLogger())

	_, err := p.Play(first, 0, 50*time.Millisecond)
	require.NoError(t, err)
	_, err = p.Play(second, 0, time.Minute)
	require.NoError(t, err)

	played, clears := out.counts()
	assert.Equal(t, 2, played)
	assert.Equal(t, 1, clears, "starting a new playback stops the previous one")

	// The first playback's timer must not cut the second one.
	time.Sleep(100 * time.Millisecond)
	assert.True(t, p.Playing())
	_, clears = out.counts()
	assert.Equal(t, 1, clears)

	p.Stop()
	assert.False(t, p.Playing())
}

func TestStopIsIdempotent(t *testing.T) {
	out := &fakeOutput{rate: 8000}
	p := NewPlayer(out, testLogger())

	p.Stop()
	p.Stop()

	_, clears := out.counts()
	assert.Zero(t, clears)
}

func TestPlayingEndsWithTrack(t *testing.T) {
	path := writeWAV(t, t.TempDir(), "short.wav", 8000, 1)
	out := &fakeOutput{rate: 8000}
	p := NewPlayer(out, testLogger())

	started, err := p.Play(path, 0, time.Minute)
	require.NoError(t, err)
	require.True(t, started)
	assert.True(t, p.Playing())

	out.mu.Lock()
	s := out.played[0]
	out.mu.Unlock()
	drain(s)

	assert.Eventually(t, func() bool { return !p.Playing() }, time.Second, 5*time.Millisecond)
	_, clears := out.counts()
	assert.Equal(t, 1, clears)
}

func TestCloseRefusesLaterPlayback(t *testing.T) {
	path := writeWAV(t, t.TempDir(), "bell.wav", 8000, 2)
	out := &fakeOutput{rate: 8000}
	p := NewPlayer(out, testLogger())

	_, err := p.Play(path, 0, time.Minute)
	require.NoError(t, err)

	p.Close()
	assert.False(t, p.Playing())

	started, err := p.Play(path, 0, time.Minute)
	assert.ErrorIs(t, err, ErrPlayerClosed)
	assert.False(t, started)
	played, _ := out.counts()
	assert.Equal(t, 1, played)
}
