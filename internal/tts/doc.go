// Package tts provides the speech-synthesis HTTP client used for question
// narration. The client implements narration.Synthesizer: a Speak call
// synthesizes the text to WAV audio, then holds until the audio's natural
// duration has elapsed or the context is cancelled, modeling playback.
package tts
