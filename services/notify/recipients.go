package notify

import (
	"context"

	"vplan-backend/lib/scrapers/untis"
)

// RecipientLookup resolves the individual devices affected by a record.
type RecipientLookup interface {
	Recipients(ctx context.Context, record untis.SubstitutionRecord, topics []string) ([]string, error)
}

// DeviceDirectory is the part of the subscription store the lookup needs.
type DeviceDirectory interface {
	DevicesForTopics(ctx context.Context, topics []string) ([]string, error)
}

// SubscriptionRecipients resolves devices through their topic subscriptions.
type SubscriptionRecipients struct {
	Directory DeviceDirectory
}

func (s SubscriptionRecipients) Recipients(ctx context.Context, _ untis.SubstitutionRecord, topics []string) ([]string, error) {
	return s.Directory.DevicesForTopics(ctx, topics)
}
