package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/zaf/g711"
	opus "gopkg.in/hraban/opus.v2"
)

// ErrDecode indicates the compressed byte stream is not a parseable audio
// container. It aborts the current transcode attempt only; the caller may
// retry with a new recording.
var ErrDecode = errors.New("audio decode failed")

// opusOutputRate is the decode rate of Ogg Opus streams.
const opusOutputRate = 48000

// Transcode decodes a compressed blob and re-encodes it as a canonical
// PCM-16 WAV blob. The decoded intermediate is consumed exactly once.
func Transcode(ctx context.Context, blob Blob) (Blob, error) {
	if blob.Format != FormatCompressed {
		return Blob{}, fmt.Errorf("%w: expected compressed blob, got %q", ErrDecode, blob.Format)
	}

	decoded, err := Decode(ctx, blob)
	if err != nil {
		return Blob{}, err
	}

	wav, err := EncodeWAV(decoded)
	if err != nil {
		return Blob{}, fmt.Errorf("failed to encode WAV: %w", err)
	}

	return Blob{
		Data:       wav,
		Format:     FormatWAV,
		SampleRate: decoded.SampleRate,
		Channels:   decoded.NumChannels(),
	}, nil
}

// Decode converts a compressed blob into raw per-channel float samples.
// The codec is selected by the blob's capture metadata.
func Decode(ctx context.Context, blob Blob) (*DecodedAudio, error) {
	if len(blob.Data) == 0 {
		return nil, fmt.Errorf("%w: empty audio data", ErrDecode)
	}

	switch blob.Codec {
	case CodecULaw, CodecALaw:
		return decodeG711(blob)
	case CodecOpus:
		return decodeOpus(ctx, blob)
	default:
		return nil, fmt.Errorf("%w: unsupported codec %q", ErrDecode, blob.Codec)
	}
}

// decodeG711 decodes mu-law or A-law telephony audio. G.711 is headerless,
// so sample rate and channel count come from the capture metadata.
func decodeG711(blob Blob) (*DecodedAudio, error) {
	var (
		decoder io.Reader
		err     error
	)
	switch blob.Codec {
	case CodecULaw:
		decoder, err = g711.NewUlawDecoder(bytes.NewReader(blob.Data))
	case CodecALaw:
		decoder, err = g711.NewAlawDecoder(bytes.NewReader(blob.Data))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	lpcm, err := io.ReadAll(decoder)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if len(lpcm) == 0 || len(lpcm)%2 != 0 {
		return nil, fmt.Errorf("%w: truncated LPCM output (%d bytes)", ErrDecode, len(lpcm))
	}

	sampleRate := blob.SampleRate
	if sampleRate == 0 {
		sampleRate = 8000 // G.711 default
	}

	samples := make([]float32, len(lpcm)/2)
	for i := range samples {
		s := int16(lpcm[2*i]) | int16(lpcm[2*i+1])<<8
		samples[i] = float32(s) / 32768.0
	}

	return deinterleave(samples, channelsOrMono(blob.Channels), sampleRate)
}

// decodeOpus decodes an Ogg Opus container. The stream decodes at 48 kHz;
// the channel count comes from the capture metadata because the stream API
// exposes only interleaved samples.
func decodeOpus(ctx context.Context, blob Blob) (*DecodedAudio, error) {
	stream, err := opus.NewStream(bytes.NewReader(blob.Data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	channels := channelsOrMono(blob.Channels)

	var interleaved []float32
	buf := make([]float32, 16384)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		n, err := stream.ReadFloat32(buf)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecode, err)
		}
		interleaved = append(interleaved, buf[:n*channels]...)
	}

	if len(interleaved) == 0 {
		return nil, fmt.Errorf("%w: opus stream contains no audio", ErrDecode)
	}

	return deinterleave(interleaved, channels, opusOutputRate)
}

// deinterleave splits interleaved samples into equal-length per-channel arrays.
func deinterleave(interleaved []float32, channels, sampleRate int) (*DecodedAudio, error) {
	if channels < 1 {
		return nil, fmt.Errorf("%w: invalid channel count %d", ErrDecode, channels)
	}
	if len(interleaved)%channels != 0 {
		return nil, fmt.Errorf("%w: %d samples do not divide into %d channels",
			ErrDecode, len(interleaved), channels)
	}

	frames := len(interleaved) / channels
	out := make([][]float32, channels)
	for c := range out {
		out[c] = make([]float32, frames)
	}
	for frame := 0; frame < frames; frame++ {
		for c := 0; c < channels; c++ {
			out[c][frame] = interleaved[frame*channels+c]
		}
	}

	return &DecodedAudio{Channels: out, SampleRate: sampleRate}, nil
}

func channelsOrMono(channels int) int {
	if channels < 1 {
		return 1
	}
	return channels
}
