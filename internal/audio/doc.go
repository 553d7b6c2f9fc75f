// Package audio handles voice answer capture and format conversion.
// It implements microphone capture sessions that accumulate compressed audio
// chunks in arrival order, decoding of the supported capture codecs (mu-law,
// A-law, Ogg Opus) into raw per-channel samples, and encoding to canonical
// PCM-16 WAV for transcription.
package audio
