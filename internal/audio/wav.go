package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// WAVHeader represents the 44-byte header of a canonical PCM WAV file
type WAVHeader struct {
	ChunkID       [4]byte // "RIFF"
	ChunkSize     uint32  // File size - 8 bytes
	Format        [4]byte // "WAVE"
	Subchunk1ID   [4]byte // "fmt "
	Subchunk1Size uint32  // 16 for PCM
	AudioFormat   uint16  // 1 for PCM
	NumChannels   uint16  // Number of channels
	SampleRate    uint32  // Sample rate
	ByteRate      uint32  // SampleRate * NumChannels * BitsPerSample / 8
	BlockAlign    uint16  // NumChannels * BitsPerSample / 8
	BitsPerSample uint16  // Bits per sample
	Subchunk2ID   [4]byte // "data"
	Subchunk2Size uint32  // Number of bytes in the data
}

// wavHeaderSize is the fixed size of the single fmt/data chunk layout.
// No extension chunks are ever emitted.
const wavHeaderSize = 44

// EncodeWAV serializes decoded audio into a canonical PCM-16 WAV container.
// Samples are clamped to [-1.0, 1.0], quantized to signed 16-bit integers
// (scaled by 32768 when negative, 32767 otherwise, no dithering), and
// interleaved frame-by-frame in channel order. The produced buffer is always
// exactly 44 + frames*channels*2 bytes, all multi-byte fields little-endian.
func EncodeWAV(decoded *DecodedAudio) ([]byte, error) {
	if decoded == nil || decoded.NumChannels() == 0 {
		return nil, fmt.Errorf("cannot encode audio with no channels")
	}

	if decoded.SampleRate < 1 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", decoded.SampleRate)
	}

	frames := decoded.Frames()
	for i, ch := range decoded.Channels {
		if len(ch) != frames {
			return nil, fmt.Errorf("channel %d length %d does not match channel 0 length %d",
				i, len(ch), frames)
		}
	}

	numChannels := uint16(decoded.NumChannels())
	bitsPerSample := uint16(16)
	dataSize := uint32(frames) * uint32(numChannels) * 2
	fileSize := 36 + dataSize

	header := WAVHeader{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     fileSize,
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   1, // PCM
		NumChannels:   numChannels,
		SampleRate:    uint32(decoded.SampleRate),
		ByteRate:      uint32(decoded.SampleRate) * uint32(numChannels) * uint32(bitsPerSample) / 8,
		BlockAlign:    numChannels * bitsPerSample / 8,
		BitsPerSample: bitsPerSample,
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: dataSize,
	}

	buf := bytes.NewBuffer(make([]byte, 0, wavHeaderSize+int(dataSize)))

	if err := binary.Write(buf, binary.LittleEndian, header); err != nil {
		return nil, fmt.Errorf("failed to write WAV header: %w", err)
	}

	// Interleave channel 0, channel 1, ... per frame, matching the fmt
	// declaration.
	samples := make([]int16, 0, frames*int(numChannels))
	for frame := 0; frame < frames; frame++ {
		for _, ch := range decoded.Channels {
			samples = append(samples, QuantizeSample(ch[frame]))
		}
	}

	if err := binary.Write(buf, binary.LittleEndian, samples); err != nil {
		return nil, fmt.Errorf("failed to write audio data: %w", err)
	}

	return buf.Bytes(), nil
}

// QuantizeSample converts one floating-point sample to signed 16-bit PCM.
// Out-of-range input is clamped, never wrapped.
func QuantizeSample(s float32) int16 {
	if s < -1.0 {
		s = -1.0
	}
	if s > 1.0 {
		s = 1.0
	}
	if s < 0 {
		return int16(s * 32768)
	}
	return int16(s * 32767)
}

// DecodeWAV parses a WAV container back into interleaved PCM-16 samples.
// Used by tests and the narration playback path; accepts any channel count.
func DecodeWAV(data []byte) ([]int16, *WAVInfo, error) {
	info, err := GetWAVInfo(data)
	if err != nil {
		return nil, nil, err
	}

	numSamples := int(info.DataSize) / 2
	if numSamples <= 0 {
		return nil, nil, fmt.Errorf("no audio data found")
	}

	samples := make([]int16, numSamples)
	buf := bytes.NewReader(data[wavHeaderSize:])
	if err := binary.Read(buf, binary.LittleEndian, samples); err != nil {
		return nil, nil, fmt.Errorf("failed to read audio samples: %w", err)
	}

	return samples, info, nil
}

// ValidateWAV validates a WAV file format without decoding the audio data
func ValidateWAV(data []byte) error {
	if len(data) < wavHeaderSize {
		return fmt.Errorf("WAV data too short: need at least %d bytes, got %d", wavHeaderSize, len(data))
	}

	if string(data[0:4]) != "RIFF" {
		return fmt.Errorf("invalid WAV file: missing RIFF header")
	}

	if string(data[8:12]) != "WAVE" {
		return fmt.Errorf("invalid WAV file: missing WAVE format")
	}

	if string(data[12:16]) != "fmt " {
		return fmt.Errorf("invalid WAV file: missing fmt chunk")
	}

	if string(data[36:40]) != "data" {
		return fmt.Errorf("invalid WAV file: missing data chunk")
	}

	return nil
}

// WAVInfo holds the header fields of a parsed WAV file
type WAVInfo struct {
	SampleRate    uint32  `json:"sample_rate"`
	Channels      uint16  `json:"channels"`
	BitsPerSample uint16  `json:"bits_per_sample"`
	Duration      float64 `json:"duration_seconds"`
	DataSize      uint32  `json:"data_size_bytes"`
	NumFrames     uint32  `json:"num_frames"`
}

// GetWAVInfo extracts and validates metadata from a WAV file
func GetWAVInfo(data []byte) (*WAVInfo, error) {
	if err := ValidateWAV(data); err != nil {
		return nil, err
	}

	buf := bytes.NewReader(data)
	var header WAVHeader
	if err := binary.Read(buf, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("failed to read WAV header: %w", err)
	}

	if header.AudioFormat != 1 {
		return nil, fmt.Errorf("unsupported audio format: %d (only PCM is supported)", header.AudioFormat)
	}

	if header.BitsPerSample != 16 {
		return nil, fmt.Errorf("unsupported bit depth: %d (only 16-bit is supported)", header.BitsPerSample)
	}

	if header.NumChannels < 1 {
		return nil, fmt.Errorf("invalid channel count: %d", header.NumChannels)
	}

	if header.SampleRate == 0 {
		return nil, fmt.Errorf("invalid sample rate: 0")
	}

	bytesPerFrame := uint32(header.NumChannels) * uint32(header.BitsPerSample) / 8
	numFrames := header.Subchunk2Size / bytesPerFrame
	duration := float64(numFrames) / float64(header.SampleRate)

	return &WAVInfo{
		SampleRate:    header.SampleRate,
		Channels:      header.NumChannels,
		BitsPerSample: header.BitsPerSample,
		Duration:      duration,
		DataSize:      header.Subchunk2Size,
		NumFrames:     numFrames,
	}, nil
}

// GetWAVDuration calculates the duration of a WAV file in seconds
func GetWAVDuration(data []byte) (float64, error) {
	info, err := GetWAVInfo(data)
	if err != nil {
		return 0, err
	}
	return info.Duration, nil
}
