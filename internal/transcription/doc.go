// Package transcription implements the HTTP client for the speech-to-text API.
// It uploads WAV audio as multipart form data, implements retry logic with
// exponential backoff, and manages rate limiting.
package transcription
