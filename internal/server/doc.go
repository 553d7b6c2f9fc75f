// Package server implements the HTTP API for the interview voice service.
// It exposes session lifecycle and practice operations (answers, voice
// capture, narration, evaluation), question generation, and the
// monitoring/management endpoints.
package server
