package audio

import (
	"math"
	"testing"
)

// sineChannel generates a test tone for WAV fixtures.
func sineChannel(frames int, sampleRate int, frequency float64) []float32 {
	ch := make([]float32, frames)
	for i := 0; i < frames; i++ {
		t := float64(i) / float64(sampleRate)
		ch[i] = float32(0.5 * math.Sin(2*math.Pi*frequency*t))
	}
	return ch
}

func TestEncodeWAVMono(t *testing.T) {
	sampleRate := 8000
	frames := 800 // 0.1 seconds

	decoded := &DecodedAudio{
		Channels:   [][]float32{sineChannel(frames, sampleRate, 440.0)},
		SampleRate: sampleRate,
	}

	wavData, err := EncodeWAV(decoded)
	if err != nil {
		t.Fatalf("EncodeWAV failed: %v", err)
	}

	expectedSize := 44 + frames*1*2
	if len(wavData) != expectedSize {
		t.Errorf("Expected WAV size %d, got %d", expectedSize, len(wavData))
	}

	if err := ValidateWAV(wavData); err != nil {
		t.Errorf("Generated WAV is invalid: %v", err)
	}

	info, err := GetWAVInfo(wavData)
	if err != nil {
		t.Fatalf("Failed to get WAV info: %v", err)
	}

	if info.SampleRate != uint32(sampleRate) {
		t.Errorf("Expected sample rate %d, got %d", sampleRate, info.SampleRate)
	}

	if info.Channels != 1 {
		t.Errorf("Expected 1 channel, got %d", info.Channels)
	}

	if info.BitsPerSample != 16 {
		t.Errorf("Expected 16 bits per sample, got %d", info.BitsPerSample)
	}

	if info.DataSize != uint32(frames*2) {
		t.Errorf("Expected data size %d, got %d", frames*2, info.DataSize)
	}

	expectedDuration := float64(frames) / float64(sampleRate)
	if math.Abs(info.Duration-expectedDuration) > 0.001 {
		t.Errorf("Expected duration %.3f, got %.3f", expectedDuration, info.Duration)
	}
}

func TestEncodeWAVStereo(t *testing.T) {
	sampleRate := 44100
	frames := 441

	decoded := &DecodedAudio{
		Channels: [][]float32{
			sineChannel(frames, sampleRate, 440.0),
			sineChannel(frames, sampleRate, 880.0),
		},
		SampleRate: sampleRate,
	}

	wavData, err := EncodeWAV(decoded)
	if err != nil {
		t.Fatalf("EncodeWAV failed: %v", err)
	}

	expectedSize := 44 + frames*2*2
	if len(wavData) != expectedSize {
		t.Errorf("Expected WAV size %d, got %d", expectedSize, len(wavData))
	}

	info, err := GetWAVInfo(wavData)
	if err != nil {
		t.Fatalf("Failed to get WAV info: %v", err)
	}

	if info.Channels != 2 {
		t.Errorf("Expected 2 channels, got %d", info.Channels)
	}

	if info.NumFrames != uint32(frames) {
		t.Errorf("Expected %d frames, got %d", frames, info.NumFrames)
	}
}

func TestEncodeWAVInterleaving(t *testing.T) {
	// Distinct constant values per channel make the interleave order visible.
	decoded := &DecodedAudio{
		Channels: [][]float32{
			{0.25, 0.25, 0.25},
			{-0.5, -0.5, -0.5},
		},
		SampleRate: 16000,
	}

	wavData, err := EncodeWAV(decoded)
	if err != nil {
		t.Fatalf("EncodeWAV failed: %v", err)
	}

	samples, _, err := DecodeWAV(wavData)
	if err != nil {
		t.Fatalf("DecodeWAV failed: %v", err)
	}

	if len(samples) != 6 {
		t.Fatalf("Expected 6 interleaved samples, got %d", len(samples))
	}

	left := QuantizeSample(0.25)
	right := QuantizeSample(-0.5)
	for frame := 0; frame < 3; frame++ {
		if samples[frame*2] != left {
			t.Errorf("Frame %d channel 0: expected %d, got %d", frame, left, samples[frame*2])
		}
		if samples[frame*2+1] != right {
			t.Errorf("Frame %d channel 1: expected %d, got %d", frame, right, samples[frame*2+1])
		}
	}
}

func TestQuantizeSampleFullScale(t *testing.T) {
	if got := QuantizeSample(1.0); got != 32767 {
		t.Errorf("Expected 1.0 to quantize to 32767, got %d", got)
	}

	if got := QuantizeSample(-1.0); got != -32768 {
		t.Errorf("Expected -1.0 to quantize to -32768, got %d", got)
	}

	if got := QuantizeSample(0.0); got != 0 {
		t.Errorf("Expected 0.0 to quantize to 0, got %d", got)
	}
}

func TestQuantizeSampleClamping(t *testing.T) {
	// Out-of-range values are clamped, never wrapped.
	if got := QuantizeSample(2.5); got != 32767 {
		t.Errorf("Expected 2.5 to clamp to 32767, got %d", got)
	}

	if got := QuantizeSample(-3.0); got != -32768 {
		t.Errorf("Expected -3.0 to clamp to -32768, got %d", got)
	}
}

func TestEncodeWAVEmpty(t *testing.T) {
	_, err := EncodeWAV(&DecodedAudio{SampleRate: 8000})
	if err == nil {
		t.Error("Expected error for audio with no channels")
	}
}

func TestEncodeWAVInvalidSampleRate(t *testing.T) {
	decoded := &DecodedAudio{
		Channels:   [][]float32{{0.1, 0.2}},
		SampleRate: 0,
	}
	_, err := EncodeWAV(decoded)
	if err == nil {
		t.Error("Expected error for invalid sample rate")
	}
}

func TestEncodeWAVMismatchedChannels(t *testing.T) {
	decoded := &DecodedAudio{
		Channels: [][]float32{
			{0.1, 0.2, 0.3},
			{0.1, 0.2},
		},
		SampleRate: 8000,
	}
	_, err := EncodeWAV(decoded)
	if err == nil {
		t.Error("Expected error for mismatched channel lengths")
	}
}

func TestValidateWAVTooShort(t *testing.T) {
	if err := ValidateWAV([]byte{1, 2, 3}); err == nil {
		t.Error("Expected error for truncated data")
	}
}

func TestValidateWAVBadMagic(t *testing.T) {
	data := make([]byte, 44)
	copy(data, "JUNK")
	if err := ValidateWAV(data); err == nil {
		t.Error("Expected error for missing RIFF header")
	}
}
