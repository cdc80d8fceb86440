package commands

import (
	"testing"
	"time"

	"vplan-backend/internal/config"
	"vplan-backend/lib/timezone"

	"github.com/stretchr/testify/require"
)

func TestParseDay(t *testing.T) {
	for _, value := range []string{"21.02.2023", "21.2.2023", "2023-02-21"} {
		day, err := parseDay(value)
		require.NoError(t, err, value)
		require.Equal(t, timezone.Date(2023, time.February, 21), day)
	}
	_, err := parseDay("21.2.")
	require.Error(t, err)
}

func TestSubscriptionTopics(t *testing.T) {
	cfg := config.Config{TopicNamespace: "school"}

	result, err := subscriptionTopics(cfg, "5ab", false)
	require.NoError(t, err)
	require.Equal(t, []string{"school.class.5a", "school.class.5b"}, result)

	result, err = subscriptionTopics(cfg, "gar", true)
	require.NoError(t, err)
	require.Equal(t, []string{"school.teacher.GAR"}, result)

	_, err = subscriptionTopics(cfg, "---", false)
	require.Error(t, err)
}

func TestCheckKnown(t *testing.T) {
	require.True(t, checkKnown("class", "10C", []string{"10a", "10c"}))
	require.False(t, checkKnown("class", "10d", []string{"10a", "10c"}))
}
