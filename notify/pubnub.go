// Package notify publishes per-user queue updates over PubNub. The UI
// subscribes to the user's channel to learn about issued and expired offers
// without polling.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	pubnub "github.com/pubnub/go"

	"ticket-waitlist/utils"
)

type PubNubNotifier struct {
	pn      *pubnub.PubNub
	breaker *utils.CircuitBreaker
}

func NewPubNubNotifier(publishKey, subscribeKey, secretKey string) *PubNubNotifier {
	pnConfig := pubnub.NewConfig()
	pnConfig.PublishKey = publishKey
	pnConfig.SubscribeKey = subscribeKey
	pnConfig.SecretKey = secretKey

	return &PubNubNotifier{
		pn:      pubnub.NewPubNub(pnConfig),
		breaker: utils.NewCircuitBreaker("pubnub"),
	}
}

// NotifyUser publishes the message to the user's channel. Failures are logged
// and swallowed: notifications are best effort and never fail the operation
// that produced them.
func (n *PubNubNotifier) NotifyUser(ctx context.Context, userID string, message map[string]any) {
	channel := fmt.Sprintf("user-%s", userID)

	_, err := n.breaker.Execute(ctx, func() (interface{}, error) {
		_, _, err := n.pn.Publish().
			Channel(channel).
			Message(message).
			Execute()
		return nil, err
	})
	if err != nil {
		slog.Error("publishing user notification failed",
			"channel", channel,
			"error", err,
		)
	}
}
