package model

import "time"

type SubscriptionMode string

const (
	ModeSubscribe   SubscriptionMode = "subscribe"
	ModeUnsubscribe SubscriptionMode = "unsubscribe"
)

// ChannelSubscription only lives for the duration of one request/response
// exchange with the hub. Nothing about it is stored across runs.
type ChannelSubscription struct {
	ChannelID   YoutubeChannelID
	CallbackURL string
	Mode        SubscriptionMode
	RequestedAt time.Time
}
