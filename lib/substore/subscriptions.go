package substore

import (
	"context"
	"fmt"

	"vplan-backend/lib/substore/db"
)

// Subscribe registers a device for a topic, subscribing twice is a no-op.
func (s Store) Subscribe(ctx context.Context, deviceToken, topic string) error {
	if deviceToken == "" || topic == "" {
		return fmt.Errorf("subscribe: device token and topic are required")
	}
	return s.qry.CreateSubscription(ctx, db.Subscription{
		DeviceToken: deviceToken,
		Topic:       topic,
		CreatedAt:   s.clock.Now().Unix(),
	})
}

// Unsubscribe reports whether the subscription existed.
func (s Store) Unsubscribe(ctx context.Context, deviceToken, topic string) (bool, error) {
	n, err := s.qry.DeleteSubscription(ctx, db.DeleteSubscriptionParams{
		DeviceToken: deviceToken,
		Topic:       topic,
	})
	return n > 0, err
}

// DevicesForTopics returns the distinct devices subscribed to any topic.
func (s Store) DevicesForTopics(ctx context.Context, topics []string) ([]string, error) {
	if len(topics) == 0 {
		return nil, nil
	}
	return s.qry.GetDevicesForTopics(ctx, topics)
}
