package model

import "errors"

// Sentinel errors collaborator clients translate their wire-level failures
// into, so the orchestrator can classify outcomes without knowing transports.
var (
	ErrTranscriptNotFound  = errors.New("no transcript for video")
	ErrTranscriptsDisabled = errors.New("transcripts are disabled for video")
	ErrUpstreamAuth        = errors.New("upstream rejected credentials")
)
