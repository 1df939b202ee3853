package handler_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ewintr.nl/vidsum/handler"
	"ewintr.nl/vidsum/model"
	"ewintr.nl/vidsum/normalize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

type processorStub struct {
	calls  int
	failOn model.YoutubeVideoID
}

func (p *processorStub) Process(_ context.Context, event model.NotificationEvent) model.ProcessingResult {
	p.calls++
	if event.YoutubeID == p.failOn {
		return model.ProcessingResult{VideoID: event.YoutubeID, Kind: model.ErrKindNoTranscript}
	}
	return model.ProcessingResult{VideoID: event.YoutubeID, Success: true, StorageURL: "https://store.example.com/summary.txt"}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard))
}

func newWebhookAPI(pipe handler.Processor, secret string) *handler.WebhookAPI {
	return handler.NewWebhookAPI(normalize.NewNormalizer(testLogger()), pipe, secret, testLogger())
}

func TestWebhookVerification(t *testing.T) {
	pipe := &processorStub{}
	api := newWebhookAPI(pipe, "")

	t.Run("valid challenge is echoed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/?hub.mode=subscribe&hub.topic=https%3A%2F%2Fexample.com%2Ffeed&hub.challenge=abc123", nil)
		rec := httptest.NewRecorder()

		api.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "abc123", rec.Body.String())
		assert.Equal(t, 0, pipe.calls)
	})

	t.Run("invalid verification is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/?hub.mode=nonsense&hub.challenge=abc123", nil)
		rec := httptest.NewRecorder()

		api.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.NotEqual(t, "abc123", rec.Body.String())
	})
}

func TestWebhookHead(t *testing.T) {
	pipe := &processorStub{}
	api := newWebhookAPI(pipe, "")

	req := httptest.NewRequest(http.MethodHead, "/", nil)
	rec := httptest.NewRecorder()

	api.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.Equal(t, 0, pipe.calls, "liveness probe must not trigger the pipeline")
}

func TestWebhookNotification(t *testing.T) {
	atomBody := `<feed xmlns:yt="http://www.youtube.com/xml/schemas/2015" xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <yt:videoId>dQw4w9WgXcQ</yt:videoId>
    <title>First</title>
    <author><name>Channel</name></author>
  </entry>
  <entry>
    <yt:videoId>aBcDeFgHiJ0</yt:videoId>
    <title>Second</title>
    <author><name>Channel</name></author>
  </entry>
</feed>`

	t.Run("batch is processed in order", func(t *testing.T) {
		pipe := &processorStub{failOn: "aBcDeFgHiJ0"}
		api := newWebhookAPI(pipe, "")
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(atomBody))
		req.Header.Set("Content-Type", "application/atom+xml")
		rec := httptest.NewRecorder()

		api.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 2, pipe.calls)

		var response struct {
			Status          string                   `json:"status"`
			Total           int                      `json:"total"`
			Succeeded       int                      `json:"succeeded"`
			Failed          int                      `json:"failed"`
			ProcessedVideos []model.ProcessingResult `json:"processedVideos"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
		assert.Equal(t, "success", response.Status)
		assert.Equal(t, 2, response.Total)
		assert.Equal(t, 1, response.Succeeded)
		assert.Equal(t, 1, response.Failed)
		require.Len(t, response.ProcessedVideos, 2)
		assert.Equal(t, model.YoutubeVideoID("dQw4w9WgXcQ"), response.ProcessedVideos[0].VideoID)
		assert.Equal(t, model.YoutubeVideoID("aBcDeFgHiJ0"), response.ProcessedVideos[1].VideoID)
	})

	t.Run("malformed body yields 400", func(t *testing.T) {
		pipe := &processorStub{}
		api := newWebhookAPI(pipe, "")
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("<feed><entry>"))
		req.Header.Set("Content-Type", "application/atom+xml")
		rec := httptest.NewRecorder()

		api.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, 0, pipe.calls)
	})

	t.Run("valid body without videos yields empty report", func(t *testing.T) {
		pipe := &processorStub{}
		api := newWebhookAPI(pipe, "")
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"something": "else"}`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()

		api.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var response struct {
			Total int `json:"total"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
		assert.Equal(t, 0, response.Total)
	})

	t.Run("secret is enforced", func(t *testing.T) {
		pipe := &processorStub{}
		api := newWebhookAPI(pipe, "hunter2")

		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(atomBody))
		req.Header.Set("Content-Type", "application/atom+xml")
		rec := httptest.NewRecorder()
		api.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, 0, pipe.calls)

		req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(atomBody))
		req.Header.Set("Content-Type", "application/atom+xml")
		req.Header.Set("X-Webhook-Token", "hunter2")
		rec = httptest.NewRecorder()
		api.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 2, pipe.calls)
	})
}

func TestPubSubAPI(t *testing.T) {
	pipe := &processorStub{}
	api := handler.NewPubSubAPI(normalize.NewNormalizer(testLogger()), pipe, testLogger())

	body := `{"message": {"data": "eyJ2aWRlb0lkIjogImRRdzR3OVdnWGNRIn0="}}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	api.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, pipe.calls)
}
