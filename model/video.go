package model

import "github.com/google/uuid"

// YoutubeVideoID is the 11 character token that identifies a video at
// YouTube. Once resolved from a notification it is never rewritten and is
// the only key used to compare videos within a single run.
type YoutubeVideoID string

type YoutubeChannelID string

type Source string

const (
	SourceAtomXML        Source = "atom_xml"
	SourceSuperfeedrJSON Source = "superfeedr_json"
	SourcePubSubJSON     Source = "pubsub_json"
	SourceRawURL         Source = "raw_url"
)

// NotificationEvent is the normalized form of one "new video" notification.
// A single delivery can yield several of them when the feed batches entries.
// It is created once, never mutated and discarded after processing.
type NotificationEvent struct {
	ID           uuid.UUID
	YoutubeID    YoutubeVideoID
	ChannelTitle string
	Title        string
	Source       Source
	RawPayload   []byte
}

// Metadata is what the metadata collaborator knows about a video.
type Metadata struct {
	Title        string
	ChannelTitle string
	Description  string
	PublishedAt  string
}
