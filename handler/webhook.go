package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"ewintr.nl/vidsum/model"
	"ewintr.nl/vidsum/normalize"
	"ewintr.nl/vidsum/pipeline"
	"ewintr.nl/vidsum/websub"
	"golang.org/x/exp/slog"
)

const maxBodySize = 1 << 20

type Processor interface {
	Process(ctx context.Context, event model.NotificationEvent) model.ProcessingResult
}

type notificationResponse struct {
	Status          string                   `json:"status"`
	Message         string                   `json:"message"`
	Total           int                      `json:"total"`
	Succeeded       int                      `json:"succeeded"`
	Failed          int                      `json:"failed"`
	ProcessedVideos []model.ProcessingResult `json:"processedVideos"`
}

// notifier is the shared POST path of the push surfaces: read the body,
// normalize it, run each event through the pipeline in delivery order and
// report the batch.
type notifier struct {
	normalizer *normalize.Normalizer
	pipeline   Processor
	logger     *slog.Logger
}

func (n *notifier) handleNotification(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		Error(w, http.StatusBadRequest, "could not read body", err)
		return
	}

	events, err := n.normalizer.Notifications(r.Header.Get("Content-Type"), body)
	if err != nil {
		if errors.Is(err, normalize.ErrMalformedPayload) {
			Error(w, http.StatusBadRequest, "invalid payload", err)
			return
		}
		Error(w, http.StatusInternalServerError, "could not normalize payload", err)
		return
	}

	results := make([]model.ProcessingResult, 0, len(events))
	for _, event := range events {
		results = append(results, n.pipeline.Process(r.Context(), event))
	}
	report := pipeline.Aggregate(results)

	writeJSON(w, http.StatusOK, notificationResponse{
		Status:          "success",
		Message:         fmt.Sprintf("Processed %d videos", report.Succeeded),
		Total:           report.Total,
		Succeeded:       report.Succeeded,
		Failed:          report.Failed,
		ProcessedVideos: report.Details,
	})
}

// WebhookAPI is the hub-facing callback: GET answers verification
// challenges, POST receives notifications, HEAD is a liveness probe that
// never touches the pipeline.
type WebhookAPI struct {
	notifier
	secret string
}

func NewWebhookAPI(normalizer *normalize.Normalizer, pipe Processor, secret string, logger *slog.Logger) *WebhookAPI {
	return &WebhookAPI{
		notifier: notifier{
			normalizer: normalizer,
			pipeline:   pipe,
			logger:     logger,
		},
		secret: secret,
	}
}

func (api *WebhookAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodHead:
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		api.verify(w, r)
	case http.MethodPost:
		if api.secret != "" && r.Header.Get("X-Webhook-Token") != api.secret {
			Error(w, http.StatusForbidden, "unauthorized", fmt.Errorf("invalid webhook token"))
			return
		}
		api.handleNotification(w, r)
	default:
		Error(w, http.StatusMethodNotAllowed, "method not allowed", fmt.Errorf("method %s is not supported", r.Method))
	}
}

// verify echoes the hub's challenge back verbatim. The body has to be the
// literal challenge value, so this is the one plain text response of the
// service.
func (api *WebhookAPI) verify(w http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("hub.mode")
	topic := r.URL.Query().Get("hub.topic")
	challenge := r.URL.Query().Get("hub.challenge")

	if !websub.ValidVerification(mode, topic, challenge) {
		Error(w, http.StatusBadRequest, "invalid verification request", fmt.Errorf("mode %q with topic %q is not a valid verification", mode, topic))
		return
	}

	api.logger.Info("answering verification challenge",
		slog.String("mode", mode),
		slog.String("topic", topic))

	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, challenge)
}

// PubSubAPI receives push-style queue envelopes over HTTP. Same flow as the
// webhook POST, the envelope unwrapping lives in the normalizer.
type PubSubAPI struct {
	notifier
}

func NewPubSubAPI(normalizer *normalize.Normalizer, pipe Processor, logger *slog.Logger) *PubSubAPI {
	return &PubSubAPI{
		notifier: notifier{
			normalizer: normalizer,
			pipeline:   pipe,
			logger:     logger,
		},
	}
}

func (api *PubSubAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		Error(w, http.StatusMethodNotAllowed, "method not allowed", fmt.Errorf("method %s is not supported", r.Method))
		return
	}
	api.handleNotification(w, r)
}
