package model

import "github.com/google/uuid"

type ErrorKind string

const (
	ErrKindNone                 ErrorKind = ""
	ErrKindMalformedPayload     ErrorKind = "malformed_payload"
	ErrKindIdentifierUnresolved ErrorKind = "identifier_unresolved"
	ErrKindNoTranscript         ErrorKind = "no_transcript"
	ErrKindSummarizationFailed  ErrorKind = "summarization_failed"
	ErrKindStorageFailed        ErrorKind = "storage_failed"
	ErrKindUpstreamAuthFailure  ErrorKind = "upstream_auth_failure"
)

type StageStatus string

const (
	StageSuccess StageStatus = "success"
	StageSkipped StageStatus = "skipped"
	StageFailed  StageStatus = "failed"
)

// StageResult is the outcome of one pipeline stage.
type StageResult struct {
	Status  StageStatus
	Payload string
	Kind    ErrorKind
	Detail  string
}

// ProcessingResult is the final outcome for one video. It is assembled once
// at the end of orchestration and never retried.
type ProcessingResult struct {
	ID               uuid.UUID      `json:"-"`
	VideoID          YoutubeVideoID `json:"videoId"`
	Title            string         `json:"title,omitempty"`
	ChannelTitle     string         `json:"channelTitle,omitempty"`
	Success          bool           `json:"success"`
	TranscriptLength int            `json:"transcriptLength,omitempty"`
	SummaryLength    int            `json:"summaryLength,omitempty"`
	StorageURL       string         `json:"storageUrl,omitempty"`
	Kind             ErrorKind      `json:"errorKind,omitempty"`
	Detail           string         `json:"error,omitempty"`
}

// BatchReport correlates the results of one delivery with its entries.
// Details keeps delivery order, not completion order.
type BatchReport struct {
	Total     int                `json:"total"`
	Succeeded int                `json:"succeeded"`
	Failed    int                `json:"failed"`
	Details   []ProcessingResult `json:"details"`
}
