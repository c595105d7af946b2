package myaudio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voicevault/voicevault/internal/errors"
)

// rampPCM builds little-endian signed 16-bit PCM bytes with a repeating
// ramp so every sample position carries a distinct, predictable value.
func rampPCM(frames int) []byte {
	data := make([]byte, frames*2)
	for i := 0; i < frames; i++ {
		v := int16(i%2000 - 1000)
		data[i*2] = byte(uint16(v))
		data[i*2+1] = byte(uint16(v) >> 8)
	}
	return data
}

func TestTransformRemovesInterval(t *testing.T) {
	t.Parallel()

	const rate = 8000
	const frames = 4 * rate

	pcm := rampPCM(frames)
	src, err := EncodePCM16(pcm, rate, 1)
	require.NoError(t, err)

	out, err := Transform(src, "00:01", "00:02")
	require.NoError(t, err)

	clip, err := DecodeWAV(out)
	require.NoError(t, err)
	assert.Equal(t, rate, clip.SampleRate)
	assert.Equal(t, 1, clip.NumChannels())
	require.Equal(t, frames-rate, clip.NumSamples(), "one second of samples removed")

	// Expected output is the source with [1s, 2s) spliced out, passed
	// through the same float/int16 quantization the encoder applies.
	expected := make([]int, 0, frames-rate)
	for i := 0; i < frames; i++ {
		if i >= rate && i < 2*rate {
			continue
		}
		v := int16(i%2000 - 1000)
		expected = append(expected, floatToPCM16(float64(v)/32768.0))
	}
	for i, want := range expected {
		got := int(clip.Channels[0][i] * 32768.0)
		if got != want {
			t.Fatalf("sample %d: got %d, want %d", i, got, want)
		}
	}
}

func TestTransformValidation(t *testing.T) {
	t.Parallel()

	pcm := rampPCM(8000)
	src, err := EncodePCM16(pcm, 8000, 1)
	require.NoError(t, err)

	tests := []struct {
		name  string
		start string
		end   string
	}{
		{name: "start after end", start: "00:10", end: "00:05"},
		{name: "start equals end", start: "00:05", end: "00:05"},
		{name: "malformed start", start: "five", end: "00:05"},
		{name: "malformed end", start: "00:01", end: "1:2:3:4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Transform(src, tt.start, tt.end)
			require.Error(t, err)
			assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
		})
	}
}

func TestTransformRejectsGarbage(t *testing.T) {
	t.Parallel()

	_, err := Transform([]byte("not a wav file at all"), "00:01", "00:02")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryAudioDecode))
}

func TestCutSegmentClampsToClipLength(t *testing.T) {
	t.Parallel()

	clip := &Clip{
		SampleRate: 100,
		Channels:   [][]float64{make([]float64, 250)},
	}

	// End past the clip: everything from start onward is dropped.
	out := CutSegment(clip, 1, 10)
	assert.Equal(t, 100, out.NumSamples())

	// Entire range past the clip: nothing is dropped.
	out = CutSegment(clip, 5, 10)
	assert.Equal(t, 250, out.NumSamples())
}

func TestCutSegmentPreservesChannels(t *testing.T) {
	t.Parallel()

	left := []float64{0.1, 0.2, 0.3, 0.4}
	right := []float64{-0.1, -0.2, -0.3, -0.4}
	clip := &Clip{SampleRate: 1, Channels: [][]float64{left, right}}

	out := CutSegment(clip, 1, 3)
	require.Equal(t, 2, out.NumChannels())
	assert.Equal(t, []float64{0.1, 0.4}, out.Channels[0])
	assert.Equal(t, []float64{-0.1, -0.4}, out.Channels[1])

	// Source clip is untouched.
	assert.Len(t, clip.Channels[0], 4)
}

func TestFloatToPCM16(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   float64
		want int
	}{
		{in: 0, want: 0},
		{in: 1, want: 32767},
		{in: -1, want: -32768},
		{in: 1.5, want: 32767},
		{in: -2, want: -32768},
		{in: 0.5, want: 16383},
		{in: -0.5, want: -16384},
		{in: 0.00001, want: 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, floatToPCM16(tt.in), "input %v", tt.in)
	}
}
