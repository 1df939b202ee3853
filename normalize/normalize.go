package normalize

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"strings"

	"ewintr.nl/vidsum/extract"
	"ewintr.nl/vidsum/model"
	"github.com/google/uuid"
	"golang.org/x/exp/slog"
)

// ErrMalformedPayload marks a body that could not be parsed at all. It is a
// diagnostic, not a failure: the caller gets zero events either way, but can
// tell "broken input" apart from "valid input without an identifiable video".
var ErrMalformedPayload = errors.New("malformed payload")

// Normalizer turns the structurally different notification payloads into
// NotificationEvents. Verification handshakes never reach it, those arrive
// on the GET side and are answered by the websub package.
type Normalizer struct {
	logger *slog.Logger
}

func NewNormalizer(logger *slog.Logger) *Normalizer {
	return &Normalizer{logger: logger}
}

// Notifications classifies a delivery by content type, falling back to shape
// sniffing, and extracts zero or more events. It never panics on input from
// the network.
func (n *Normalizer) Notifications(contentType string, body []byte) ([]model.NotificationEvent, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrMalformedPayload)
	}

	switch {
	case strings.Contains(contentType, "xml"):
		return n.fromAtom(body)
	case strings.Contains(contentType, "json"):
		return n.fromJSON(body)
	default:
		switch trimmed[0] {
		case '<':
			return n.fromAtom(body)
		case '{':
			return n.fromJSON(body)
		}

		return n.fromRawURL(trimmed)
	}
}

type atomLink struct {
	Rel  string `xml:"rel,attr"`
	Href string `xml:"href,attr"`
}

type atomEntry struct {
	ID      string `xml:"id"`
	VideoID string `xml:"videoId"`
	Title   string `xml:"title"`
	Author  struct {
		Name string `xml:"name"`
	} `xml:"author"`
	Links []atomLink `xml:"link"`
}

type atomFeed struct {
	Entries []atomEntry `xml:"entry"`
}

// fromAtom walks the entry elements of a feed document. The videoId element
// is matched on local name, which covers both the namespaced and the
// un-namespaced form hubs send. A document without entries still yields at
// most one event through a raw scan of the whole body.
func (n *Normalizer) fromAtom(body []byte) ([]model.NotificationEvent, error) {
	var feed atomFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("%w: invalid xml: %v", ErrMalformedPayload, err)
	}

	if len(feed.Entries) == 0 {
		if id, ok := extract.VideoID(string(body)); ok {
			return []model.NotificationEvent{{
				ID:         uuid.New(),
				YoutubeID:  id,
				Source:     model.SourceAtomXML,
				RawPayload: body,
			}}, nil
		}

		return nil, nil
	}

	events := make([]model.NotificationEvent, 0, len(feed.Entries))
	for _, entry := range feed.Entries {
		id, ok := entryVideoID(entry)
		if !ok {
			n.logger.Warn("skipping entry without video id", slog.String("title", entry.Title))
			continue
		}
		events = append(events, model.NotificationEvent{
			ID:           uuid.New(),
			YoutubeID:    id,
			ChannelTitle: entry.Author.Name,
			Title:        entry.Title,
			Source:       model.SourceAtomXML,
			RawPayload:   body,
		})
	}

	return events, nil
}

func entryVideoID(entry atomEntry) (model.YoutubeVideoID, bool) {
	for _, candidate := range []string{entry.VideoID, entry.ID} {
		if candidate == "" {
			continue
		}
		if id, ok := extract.VideoID(candidate); ok {
			return id, true
		}
	}
	for _, link := range entry.Links {
		if id, ok := extract.VideoID(link.Href); ok {
			return id, true
		}
	}

	return "", false
}

type superfeedrItem struct {
	ID           string `json:"id"`
	PermalinkURL string `json:"permalinkUrl"`
	Title        string `json:"title"`
	Actor        struct {
		DisplayName string `json:"displayName"`
	} `json:"actor"`
}

type superfeedrNotification struct {
	Items []superfeedrItem `json:"items"`
}

type pubSubEnvelope struct {
	Message struct {
		Data string `json:"data"`
	} `json:"message"`
	Data string `json:"data"`
}

func (e pubSubEnvelope) payload() string {
	if e.Message.Data != "" {
		return e.Message.Data
	}

	return e.Data
}

type videoMessage struct {
	VideoID      string `json:"videoId"`
	VideoIDSnake string `json:"video_id"`
	URL          string `json:"url"`
	Title        string `json:"title"`
	ChannelTitle string `json:"channelTitle"`
}

func (m videoMessage) candidate() string {
	for _, c := range []string{m.VideoID, m.VideoIDSnake, m.URL} {
		if c != "" {
			return c
		}
	}

	return ""
}

// fromJSON handles the three JSON shapes: a Superfeedr batch with an items
// list, a Pub/Sub envelope with a base64 data field, and a single object
// that names a video directly.
func (n *Normalizer) fromJSON(body []byte) ([]model.NotificationEvent, error) {
	var batch superfeedrNotification
	if err := json.Unmarshal(body, &batch); err != nil {
		return nil, fmt.Errorf("%w: invalid json: %v", ErrMalformedPayload, err)
	}

	if len(batch.Items) > 0 {
		events := make([]model.NotificationEvent, 0, len(batch.Items))
		for _, item := range batch.Items {
			id, ok := itemVideoID(item)
			if !ok {
				n.logger.Warn("skipping item without video url", slog.String("title", item.Title))
				continue
			}
			events = append(events, model.NotificationEvent{
				ID:           uuid.New(),
				YoutubeID:    id,
				ChannelTitle: item.Actor.DisplayName,
				Title:        item.Title,
				Source:       model.SourceSuperfeedrJSON,
				RawPayload:   body,
			})
		}

		return events, nil
	}

	var envelope pubSubEnvelope
	_ = json.Unmarshal(body, &envelope)
	if data := envelope.payload(); data != "" {
		decoded, err := base64.StdEncoding.DecodeString(data)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid base64 in envelope: %v", ErrMalformedPayload, err)
		}
		var msg videoMessage
		if err := json.Unmarshal(decoded, &msg); err != nil {
			return nil, fmt.Errorf("%w: invalid json in envelope: %v", ErrMalformedPayload, err)
		}

		return n.fromVideoMessage(msg, body)
	}

	var msg videoMessage
	_ = json.Unmarshal(body, &msg)

	return n.fromVideoMessage(msg, body)
}

func (n *Normalizer) fromVideoMessage(msg videoMessage, body []byte) ([]model.NotificationEvent, error) {
	candidate := msg.candidate()
	if candidate == "" {
		return nil, nil
	}
	id, ok := extract.VideoID(candidate)
	if !ok {
		n.logger.Warn("no video id in message", slog.String("candidate", candidate))
		return nil, nil
	}

	return []model.NotificationEvent{{
		ID:           uuid.New(),
		YoutubeID:    id,
		ChannelTitle: msg.ChannelTitle,
		Title:        msg.Title,
		Source:       model.SourcePubSubJSON,
		RawPayload:   body,
	}}, nil
}

func itemVideoID(item superfeedrItem) (model.YoutubeVideoID, bool) {
	for _, candidate := range []string{item.PermalinkURL, item.ID} {
		if candidate == "" {
			continue
		}
		if id, ok := extract.VideoID(candidate); ok {
			return id, true
		}
	}

	return "", false
}

func (n *Normalizer) fromRawURL(body []byte) ([]model.NotificationEvent, error) {
	id, ok := extract.VideoID(string(body))
	if !ok {
		return nil, nil
	}

	return []model.NotificationEvent{{
		ID:         uuid.New(),
		YoutubeID:  id,
		Source:     model.SourceRawURL,
		RawPayload: body,
	}}, nil
}
