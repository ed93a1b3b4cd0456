package alert

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteTone_Header(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTone(&buf, DefaultToneOptions()))

	data := buf.Bytes()
	require.Len(t, data, 44+44100*2)

	assert.Equal(t, "RIFF", string(data[0:4]))
	assert.Equal(t, uint32(len(data)-8), binary.LittleEndian.Uint32(data[4:8]))
	assert.Equal(t, "WAVE", string(data[8:12]))
	assert.Equal(t, "fmt ", string(data[12:16]))
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(data[20:22]), "PCM")
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(data[22:24]), "mono")
	assert.Equal(t, uint32(44100), binary.LittleEndian.Uint32(data[24:28]))
	assert.Equal(t, uint32(88200), binary.LittleEndian.Uint32(data[28:32]))
	assert.Equal(t, uint16(16), binary.LittleEndian.Uint16(data[34:36]))
	assert.Equal(t, "data", string(data[36:40]))
	assert.Equal(t, uint32(44100*2), binary.LittleEndian.Uint32(data[40:44]))
}

func TestToneSamples_Shape(t *testing.T) {
	samples, err := ToneSamples(DefaultToneOptions())
	require.NoError(t, err)
	require.Len(t, samples, 44100)

	assert.Equal(t, int16(0), samples[0], "fade in starts silent")
	assert.Equal(t, int16(0), samples[len(samples)-1], "fade out ends silent")

	var peak int16
	for _, s := range samples {
		if s > peak {
			peak = s
		}
		if -s > peak {
			peak = -s
		}
	}
	assert.Equal(t, int16(math.MaxInt16), peak, "normalized to full scale")

	// Early samples stay quiet while the fade ramps up.
	fadeEnd := 44100 * 50 / 1000
	for i := 0; i < fadeEnd/10; i++ {
		assert.Less(t, math.Abs(float64(samples[i])), float64(math.MaxInt16)/5)
	}
}

func TestToneSamples_Invalid(t *testing.T) {
	_, err := ToneSamples(ToneOptions{SampleRate: 0, Duration: time.Second, Frequency: 800})
	assert.Error(t, err)
	_, err = ToneSamples(ToneOptions{SampleRate: 44100, Duration: 0, Frequency: 800})
	assert.Error(t, err)
	_, err = ToneSamples(ToneOptions{SampleRate: 44100, Duration: time.Second})
	assert.Error(t, err)
}
