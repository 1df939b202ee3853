package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"ewintr.nl/vidsum/model"
	"golang.org/x/exp/slog"
)

type Subscriber interface {
	Subscribe(ctx context.Context, channelID model.YoutubeChannelID, mode model.SubscriptionMode) error
}

// SubscriptionAPI forwards subscribe and unsubscribe requests to the hub.
type SubscriptionAPI struct {
	subscriber Subscriber
	logger     *slog.Logger
}

func NewSubscriptionAPI(subscriber Subscriber, logger *slog.Logger) *SubscriptionAPI {
	return &SubscriptionAPI{
		subscriber: subscriber,
		logger:     logger,
	}
}

func (api *SubscriptionAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		Error(w, http.StatusMethodNotAllowed, "method not allowed", fmt.Errorf("method %s is not supported", r.Method))
		return
	}
	if api.subscriber == nil {
		Error(w, http.StatusServiceUnavailable, "subscriptions not configured", fmt.Errorf("no callback url configured"))
		return
	}

	var request struct {
		ChannelID string `json:"channel_id"`
		Mode      string `json:"mode"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&request); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if request.Mode == "" {
		request.Mode = string(model.ModeSubscribe)
	}
	mode := model.SubscriptionMode(request.Mode)
	if request.ChannelID == "" || (mode != model.ModeSubscribe && mode != model.ModeUnsubscribe) {
		Error(w, http.StatusBadRequest, "invalid request", fmt.Errorf("channel_id and a valid mode are required"))
		return
	}

	if err := api.subscriber.Subscribe(r.Context(), model.YoutubeChannelID(request.ChannelID), mode); err != nil {
		Error(w, http.StatusBadGateway, "hub request failed", err)
		return
	}

	Message(w, http.StatusOK, fmt.Sprintf("%s accepted for channel %s", mode, request.ChannelID))
}
