package websub

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ewintr.nl/vidsum/model"
	"golang.org/x/exp/slog"
)

const DefaultHub = "https://pubsubhubbub.appspot.com"

// TopicURL is the feed the hub watches for a channel.
func TopicURL(channelID model.YoutubeChannelID) string {
	return fmt.Sprintf("https://www.youtube.com/feeds/videos.xml?channel_id=%s", channelID)
}

// Client issues subscribe and unsubscribe requests to a WebSub hub for a
// callback URL. Nothing about a subscription is kept after the exchange.
type Client struct {
	hubURL      string
	callbackURL string
	client      *http.Client
	logger      *slog.Logger
}

func NewClient(hubURL, callbackURL string, logger *slog.Logger) *Client {
	return &Client{
		hubURL:      hubURL,
		callbackURL: callbackURL,
		client:      &http.Client{Timeout: 10 * time.Second},
		logger:      logger,
	}
}

// Subscribe asks the hub to start or stop forwarding a channel's feed.
// Synchronous hubs acknowledge with 204, asynchronous ones with 202, both
// count as accepted. Anything else is a failure with the hub's response
// body in the log.
func (c *Client) Subscribe(ctx context.Context, channelID model.YoutubeChannelID, mode model.SubscriptionMode) error {
	sub := model.ChannelSubscription{
		ChannelID:   channelID,
		CallbackURL: c.callbackURL,
		Mode:        mode,
		RequestedAt: time.Now(),
	}

	form := url.Values{}
	form.Set("hub.callback", sub.CallbackURL)
	form.Set("hub.mode", string(sub.Mode))
	form.Set("hub.topic", TopicURL(sub.ChannelID))
	form.Set("hub.verify", "sync")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.hubURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build hub request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("hub request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusAccepted, http.StatusNoContent:
		c.logger.Info("hub accepted request",
			slog.String("mode", string(mode)),
			slog.String("channelid", string(channelID)),
			slog.Int("status", resp.StatusCode))
		return nil
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Error("hub denied request", fmt.Errorf("status %d", resp.StatusCode),
			slog.String("mode", string(mode)),
			slog.String("channelid", string(channelID)),
			slog.String("body", string(body)))

		return fmt.Errorf("hub denied %s for channel %s: status %d", mode, channelID, resp.StatusCode)
	}
}

// ValidVerification checks an inbound hub verification triple. The only
// valid combination is a known mode with both a topic and a challenge; the
// caller then echoes the challenge back verbatim.
func ValidVerification(mode, topic, challenge string) bool {
	if mode != string(model.ModeSubscribe) && mode != string(model.ModeUnsubscribe) {
		return false
	}

	return topic != "" && challenge != ""
}
