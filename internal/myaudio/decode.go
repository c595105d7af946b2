package myaudio

import (
	"bytes"
	"fmt"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/voicevault/voicevault/internal/errors"
)

// Clip holds decoded audio as per-channel float sample sequences in [-1, 1]
// at the source's native sample rate.
type Clip struct {
	SampleRate int
	Channels   [][]float64
}

// NumSamples returns the per-channel sample count.
func (c *Clip) NumSamples() int {
	if len(c.Channels) == 0 {
		return 0
	}
	return len(c.Channels[0])
}

// NumChannels returns the channel count.
func (c *Clip) NumChannels() int {
	return len(c.Channels)
}

// Duration returns the clip length in seconds.
func (c *Clip) Duration() float64 {
	if c.SampleRate == 0 {
		return 0
	}
	return float64(c.NumSamples()) / float64(c.SampleRate)
}

// DecodeWAV decodes WAV bytes into a Clip, preserving the source sample
// rate and channel count. Decoding is delegated to the wav codec; this
// boundary only normalizes samples to floats.
func DecodeWAV(data []byte) (*Clip, error) {
	decoder := wav.NewDecoder(bytes.NewReader(data))
	decoder.ReadInfo()

	if !decoder.IsValidFile() {
		return nil, errors.Newf("invalid WAV file format").
			Component("myaudio").
			Category(errors.CategoryAudioDecode).
			Build()
	}

	divisor, err := getAudioDivisor(int(decoder.BitDepth))
	if err != nil {
		return nil, errors.New(err).
			Component("myaudio").
			Category(errors.CategoryAudioDecode).
			Build()
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, errors.New(fmt.Errorf("reading PCM data: %w", err)).
			Component("myaudio").
			Category(errors.CategoryAudioDecode).
			Build()
	}

	return intBufferToClip(buf, divisor), nil
}

// intBufferToClip de-interleaves an integer PCM buffer into per-channel
// float sequences.
func intBufferToClip(buf *audio.IntBuffer, divisor float64) *Clip {
	numChannels := buf.Format.NumChannels
	if numChannels < 1 {
		numChannels = 1
	}
	frames := len(buf.Data) / numChannels

	channels := make([][]float64, numChannels)
	for ch := range channels {
		channels[ch] = make([]float64, frames)
	}
	for i := 0; i < frames; i++ {
		for ch := 0; ch < numChannels; ch++ {
			channels[ch][i] = float64(buf.Data[i*numChannels+ch]) / divisor
		}
	}

	return &Clip{
		SampleRate: buf.Format.SampleRate,
		Channels:   channels,
	}
}

// getAudioDivisor returns the normalization divisor for a given bit depth.
func getAudioDivisor(bitDepth int) (float64, error) {
	switch bitDepth {
	case 16:
		return 32768.0, nil
	case 24:
		return 8388608.0, nil
	case 32:
		return 2147483648.0, nil
	default:
		return 0, fmt.Errorf("unsupported bit depth: %d", bitDepth)
	}
}
