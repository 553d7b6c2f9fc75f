// Package session implements the interview practice session state machine
// and the manager that owns all active sessions.
//
// A session holds an ordered question list with a per-question answer,
// capture mode and feedback slot, plus the current question index. All
// state mutation is linearized under the session mutex; slow work
// (decoding, transcription, evaluation) happens outside the lock and
// re-validates per-index edit stamps before installing results, so a
// manual edit always wins over an in-flight transcription.
package session
