package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ewintr.nl/vidsum/model"
)

type TranscriptInfo struct {
	Endpoint string
	ApiKey   string
}

// Transcript talks to the transcript service. The service's own retry and
// backoff are its business, one call here is one attempt.
type Transcript struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

func NewTranscript(info TranscriptInfo) *Transcript {
	return &Transcript{
		endpoint: strings.TrimSuffix(info.Endpoint, "/"),
		apiKey:   info.ApiKey,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

type transcriptSegment struct {
	Text string `json:"text"`
}

type transcriptResponse struct {
	Segments []transcriptSegment `json:"segments"`
	Disabled bool                `json:"transcriptsDisabled"`
}

// Fetch returns the full transcript text of a video, segment texts joined
// with single spaces.
func (t *Transcript) Fetch(ctx context.Context, id model.YoutubeVideoID) (string, error) {
	url := fmt.Sprintf("%s/transcripts/%s", t.endpoint, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build transcript request: %w", err)
	}
	if t.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+t.apiKey)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch transcript: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return "", fmt.Errorf("%w: %s", model.ErrTranscriptNotFound, id)
	case http.StatusUnauthorized, http.StatusForbidden:
		return "", fmt.Errorf("%w: transcript service returned %d", model.ErrUpstreamAuth, resp.StatusCode)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("transcript service returned %d: %s", resp.StatusCode, body)
	}

	var tr transcriptResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("failed to decode transcript response: %w", err)
	}
	if tr.Disabled {
		return "", fmt.Errorf("%w: %s", model.ErrTranscriptsDisabled, id)
	}

	parts := make([]string, 0, len(tr.Segments))
	for _, segment := range tr.Segments {
		if segment.Text == "" {
			continue
		}
		parts = append(parts, segment.Text)
	}

	return strings.Join(parts, " "), nil
}
