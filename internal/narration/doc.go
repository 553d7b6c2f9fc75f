// Package narration drives text-to-speech playback of interview questions.
// It enforces the single-utterance invariant: starting a new utterance or
// navigating away always cancels the previous one before anything else is
// observable.
package narration
