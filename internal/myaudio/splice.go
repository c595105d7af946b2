package myaudio

import (
	"github.com/voicevault/voicevault/internal/errors"
)

// CutSegment removes the half-open sample interval derived from
// [startSec, endSec) from every channel of the clip and returns a new clip
// with the same sample rate and channel count. Sample positions are floored
// for consistent boundary rounding. The seam is a plain concatenation, no
// cross-fade or resampling.
func CutSegment(clip *Clip, startSec, endSec int) *Clip {
	totalSamples := clip.NumSamples()

	startSample := startSec * clip.SampleRate
	endSample := endSec * clip.SampleRate
	if startSample > totalSamples {
		startSample = totalSamples
	}
	if endSample > totalSamples {
		endSample = totalSamples
	}

	newLength := totalSamples - (endSample - startSample)
	channels := make([][]float64, clip.NumChannels())
	for ch, data := range clip.Channels {
		out := make([]float64, 0, newLength)
		out = append(out, data[:startSample]...)
		out = append(out, data[endSample:]...)
		channels[ch] = out
	}

	return &Clip{
		SampleRate: clip.SampleRate,
		Channels:   channels,
	}
}

// Transform runs the full non-destructive cut pipeline over WAV bytes:
// validate the time range, decode, splice, re-encode. Validation precedes
// all decode work, so an invalid range costs nothing and writes nothing.
func Transform(src []byte, startStr, endStr string) ([]byte, error) {
	startSec, err := ParseClock(startStr)
	if err != nil {
		return nil, err
	}
	endSec, err := ParseClock(endStr)
	if err != nil {
		return nil, err
	}
	if startSec >= endSec {
		return nil, errors.Newf("start time %s must be before end time %s", startStr, endStr).
			Component("myaudio").
			Category(errors.CategoryValidation).
			Build()
	}

	clip, err := DecodeWAV(src)
	if err != nil {
		return nil, err
	}

	return EncodeWAV(CutSegment(clip, startSec, endSec))
}
