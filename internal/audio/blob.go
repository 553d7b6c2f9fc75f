package audio

// Format identifies the container a blob's bytes are in.
type Format string

const (
	// FormatCompressed marks audio as captured from the device codec.
	FormatCompressed Format = "compressed"
	// FormatWAV marks audio as a canonical PCM-16 WAV container.
	FormatWAV Format = "wav"
)

// Codec identifies the compression scheme of a captured blob.
type Codec string

const (
	CodecULaw Codec = "ulaw"
	CodecALaw Codec = "alaw"
	CodecOpus Codec = "opus"
)

// Blob is an immutable audio byte buffer with its format metadata.
// Ownership transfers on each pipeline step; no component mutates a blob
// it does not exclusively hold.
type Blob struct {
	Data   []byte
	Format Format

	// Capture metadata, required to decode headerless codecs.
	Codec      Codec
	SampleRate int
	Channels   int
}

// Size returns the blob payload size in bytes.
func (b Blob) Size() int {
	return len(b.Data)
}

// DecodedAudio is the raw result of decoding a compressed blob: one sample
// array per channel, all channels equal length, samples in [-1.0, 1.0].
// It is produced once per transcode call and consumed exactly once.
type DecodedAudio struct {
	Channels   [][]float32
	SampleRate int
}

// Frames returns the number of sample frames (one sample per channel).
func (d *DecodedAudio) Frames() int {
	if len(d.Channels) == 0 {
		return 0
	}
	return len(d.Channels[0])
}

// NumChannels returns the channel count.
func (d *DecodedAudio) NumChannels() int {
	return len(d.Channels)
}
