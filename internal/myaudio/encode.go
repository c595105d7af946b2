package myaudio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/voicevault/voicevault/internal/conf"
	"github.com/voicevault/voicevault/internal/errors"
)

// seekableBuffer extends bytes.Buffer with a Seek method, making it
// compatible with io.WriteSeeker as required by the WAV encoder.
type seekableBuffer struct {
	buf []byte
	pos int
}

func (sb *seekableBuffer) Write(p []byte) (int, error) {
	if sb.pos+len(p) > len(sb.buf) {
		grown := make([]byte, sb.pos+len(p))
		copy(grown, sb.buf)
		sb.buf = grown
	}
	copy(sb.buf[sb.pos:], p)
	sb.pos += len(p)
	return len(p), nil
}

func (sb *seekableBuffer) Seek(offset int64, whence int) (int64, error) {
	var next int
	switch whence {
	case io.SeekStart:
		next = int(offset)
	case io.SeekCurrent:
		next = sb.pos + int(offset)
	case io.SeekEnd:
		next = len(sb.buf) + int(offset)
	default:
		return 0, fmt.Errorf("invalid whence: %d", whence)
	}
	if next < 0 {
		return 0, fmt.Errorf("negative seek position: %d", next)
	}
	sb.pos = next
	return int64(next), nil
}

// EncodeWAV encodes a clip as a PCM16 WAV file with the canonical 44-byte
// RIFF/WAVE header, interleaved little-endian signed 16-bit samples. Each
// float sample is clamped to [-1, 1], scaled (negative values by 32768,
// non-negative by 32767) and truncated toward zero.
func EncodeWAV(clip *Clip) ([]byte, error) {
	if clip.NumChannels() == 0 || clip.SampleRate <= 0 {
		return nil, errors.Newf("nothing to encode: %d channels at %d Hz",
			clip.NumChannels(), clip.SampleRate).
			Component("myaudio").
			Category(errors.CategoryAudioEncode).
			Build()
	}

	numChannels := clip.NumChannels()
	frames := clip.NumSamples()

	interleaved := make([]int, frames*numChannels)
	for i := 0; i < frames; i++ {
		for ch := 0; ch < numChannels; ch++ {
			interleaved[i*numChannels+ch] = floatToPCM16(clip.Channels[ch][i])
		}
	}

	sb := &seekableBuffer{}
	enc := wav.NewEncoder(sb, clip.SampleRate, conf.BitDepth, numChannels, 1)

	err := enc.Write(&audio.IntBuffer{
		Data:           interleaved,
		Format:         &audio.Format{SampleRate: clip.SampleRate, NumChannels: numChannels},
		SourceBitDepth: conf.BitDepth,
	})
	if err != nil {
		return nil, errors.New(fmt.Errorf("writing to WAV encoder: %w", err)).
			Component("myaudio").
			Category(errors.CategoryAudioEncode).
			Build()
	}

	if err := enc.Close(); err != nil {
		return nil, errors.New(fmt.Errorf("finalizing WAV file: %w", err)).
			Component("myaudio").
			Category(errors.CategoryAudioEncode).
			Build()
	}

	return sb.buf, nil
}

// EncodePCM16 wraps raw little-endian signed 16-bit PCM bytes (as delivered
// by the capture device) in a canonical WAV container without resampling.
func EncodePCM16(pcmData []byte, sampleRate, numChannels int) ([]byte, error) {
	sb := &seekableBuffer{}
	enc := wav.NewEncoder(sb, sampleRate, conf.BitDepth, numChannels, 1)

	intSamples := byteSliceToInts(pcmData)

	err := enc.Write(&audio.IntBuffer{
		Data:           intSamples,
		Format:         &audio.Format{SampleRate: sampleRate, NumChannels: numChannels},
		SourceBitDepth: conf.BitDepth,
	})
	if err != nil {
		return nil, errors.New(fmt.Errorf("writing to WAV encoder: %w", err)).
			Component("myaudio").
			Category(errors.CategoryAudioEncode).
			Build()
	}

	if err := enc.Close(); err != nil {
		return nil, errors.New(fmt.Errorf("finalizing WAV file: %w", err)).
			Component("myaudio").
			Category(errors.CategoryAudioEncode).
			Build()
	}

	return sb.buf, nil
}

// floatToPCM16 converts a float sample to a signed 16-bit value: clamp to
// [-1, 1], scale asymmetrically, truncate toward zero.
func floatToPCM16(sample float64) int {
	if sample < -1 {
		sample = -1
	} else if sample > 1 {
		sample = 1
	}
	if sample < 0 {
		return int(sample * 32768)
	}
	return int(sample * 32767)
}

// byteSliceToInts converts a byte slice to a slice of integers.
// Each pair of bytes is treated as a single 16-bit sample.
func byteSliceToInts(pcmData []byte) []int {
	samples := make([]int, 0, len(pcmData)/2)
	buf := bytes.NewBuffer(pcmData)

	for {
		var sample int16
		if err := binary.Read(buf, binary.LittleEndian, &sample); err != nil {
			break // Exit loop on read error (e.g., end of buffer).
		}
		samples = append(samples, int(sample))
	}

	return samples
}
