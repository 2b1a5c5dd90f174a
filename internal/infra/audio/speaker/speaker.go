// Package speaker is the system sound device behind audio.Output.
package speaker

import (
	"fmt"

	"github.com/gopxl/beep/v2"
	beepspeaker "github.com/gopxl/beep/v2/speaker"
)

// Output plays through the system audio device.
type Output struct {
	rate beep.SampleRate
}

// New initializes the speaker. It must be called once per process.
func New(sampleRate, bufferSize int) (*Output, error) {
	rate := beep.SampleRate(sampleRate)
	if err := beepspeaker.Init(rate, bufferSize); err != nil {
		return nil, fmt.Errorf("failed to initialize speaker (rate %d, buffer %d): %w", sampleRate, bufferSize, err)
	}
	return &Output{rate: rate}, nil
}

func (o *Output) SampleRate() beep.SampleRate { return o.rate }

func (o *Output) Play(s beep.Streamer) { beepspeaker.Play(s) }

func (o *Output) Clear() { beepspeaker.Clear() }

func (o *Output) Close() { beepspeaker.Close() }
