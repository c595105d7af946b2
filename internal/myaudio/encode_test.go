package myaudio

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voicevault/voicevault/internal/conf"
	"github.com/voicevault/voicevault/internal/errors"
)

func TestEncodeWAVHeader(t *testing.T) {
	t.Parallel()

	const frames = 100
	clip := &Clip{
		SampleRate: conf.SampleRate,
		Channels:   [][]float64{make([]float64, frames)},
	}

	out, err := EncodeWAV(clip)
	require.NoError(t, err)

	dataSize := frames * 2 // mono, 16-bit
	require.Len(t, out, 44+dataSize, "canonical header plus PCM payload")

	le := binary.LittleEndian
	assert.Equal(t, "RIFF", string(out[0:4]))
	assert.Equal(t, uint32(36+dataSize), le.Uint32(out[4:8]))
	assert.Equal(t, "WAVE", string(out[8:12]))
	assert.Equal(t, "fmt ", string(out[12:16]))
	assert.Equal(t, uint32(16), le.Uint32(out[16:20]), "PCM fmt chunk size")
	assert.Equal(t, uint16(1), le.Uint16(out[20:22]), "PCM format tag")
	assert.Equal(t, uint16(1), le.Uint16(out[22:24]), "channel count")
	assert.Equal(t, uint32(conf.SampleRate), le.Uint32(out[24:28]))
	assert.Equal(t, uint32(conf.SampleRate*2), le.Uint32(out[28:32]), "byte rate")
	assert.Equal(t, uint16(2), le.Uint16(out[32:34]), "block align")
	assert.Equal(t, uint16(conf.BitDepth), le.Uint16(out[34:36]))
	assert.Equal(t, "data", string(out[36:40]))
	assert.Equal(t, uint32(dataSize), le.Uint32(out[40:44]))
}

func TestEncodeWAVRejectsEmptyClip(t *testing.T) {
	t.Parallel()

	_, err := EncodeWAV(&Clip{SampleRate: conf.SampleRate})
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryAudioEncode))
}

func TestEncodePCM16RoundTrip(t *testing.T) {
	t.Parallel()

	pcm := rampPCM(500)
	out, err := EncodePCM16(pcm, conf.SampleRate, 1)
	require.NoError(t, err)

	clip, err := DecodeWAV(out)
	require.NoError(t, err)
	assert.Equal(t, conf.SampleRate, clip.SampleRate)
	require.Equal(t, 500, clip.NumSamples())

	for i := 0; i < 500; i++ {
		want := int(int16(i%2000 - 1000))
		got := int(clip.Channels[0][i] * 32768.0)
		if got != want {
			t.Fatalf("sample %d: got %d, want %d", i, got, want)
		}
	}
}

func TestByteSliceToInts(t *testing.T) {
	t.Parallel()

	// -2 and 513 as little-endian int16, plus a trailing odd byte that
	// cannot form a sample and is dropped.
	data := []byte{0xFE, 0xFF, 0x01, 0x02, 0x7F}
	assert.Equal(t, []int{-2, 513}, byteSliceToInts(data))
}
