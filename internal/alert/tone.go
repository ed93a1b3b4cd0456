package alert

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
	"time"
)

// ToneOptions describes the generated alert tone.
type ToneOptions struct {
	SampleRate int
	Duration   time.Duration
	Frequency  float64
	Fade       time.Duration
}

// DefaultToneOptions returns a one second 800 Hz tone with 50 ms fades.
func DefaultToneOptions() ToneOptions {
	return ToneOptions{
		SampleRate: 44100,
		Duration:   time.Second,
		Frequency:  800,
		Fade:       50 * time.Millisecond,
	}
}

// wavHeader is the canonical 44-byte header of a PCM WAV file.
type wavHeader struct {
	ChunkID       [4]byte
	ChunkSize     uint32
	Format        [4]byte
	Subchunk1ID   [4]byte
	Subchunk1Size uint32
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	Subchunk2ID   [4]byte
	Subchunk2Size uint32
}

// ToneSamples synthesizes the tone: the base frequency at amplitude 0.5 plus
// its 1.5x overtone at 0.3, shaped by linear fades and normalized to full scale.
func ToneSamples(opts ToneOptions) ([]int16, error) {
	if opts.SampleRate <= 0 || opts.Duration <= 0 || opts.Frequency <= 0 {
		return nil, errors.New("tone sample rate, duration and frequency must be positive")
	}

	n := int(float64(opts.SampleRate) * opts.Duration.Seconds())
	if n < 2 {
		return nil, errors.New("tone too short")
	}
	fade := int(float64(opts.SampleRate) * opts.Fade.Seconds())
	if fade > n/2 {
		fade = n / 2
	}

	signal := make([]float64, n)
	step := opts.Duration.Seconds() / float64(n-1)
	peak := 0.0
	for i := range signal {
		t := float64(i) * step
		v := 0.5*math.Sin(2*math.Pi*opts.Frequency*t) + 0.3*math.Sin(2*math.Pi*opts.Frequency*1.5*t)
		v *= envelope(i, n, fade)
		signal[i] = v
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}

	samples := make([]int16, n)
	if peak == 0 {
		return samples, nil
	}
	for i, v := range signal {
		samples[i] = int16(v / peak * math.MaxInt16)
	}
	return samples, nil
}

func envelope(i, n, fade int) float64 {
	if fade < 2 {
		return 1
	}
	switch {
	case i < fade:
		return float64(i) / float64(fade-1)
	case i >= n-fade:
		return float64(n-1-i) / float64(fade-1)
	default:
		return 1
	}
}

// WriteTone writes the tone as a 16-bit mono PCM WAV file.
func WriteTone(w io.Writer, opts ToneOptions) error {
	samples, err := ToneSamples(opts)
	if err != nil {
		return err
	}

	dataSize := uint32(len(samples) * 2)
	h := wavHeader{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     36 + dataSize,
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   1,
		NumChannels:   1,
		SampleRate:    uint32(opts.SampleRate),
		ByteRate:      uint32(opts.SampleRate * 2),
		BlockAlign:    2,
		BitsPerSample: 16,
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: dataSize,
	}

	if err := binary.Write(w, binary.LittleEndian, h); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, samples)
}
