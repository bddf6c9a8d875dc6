package repository

import (
	"context"
	"testing"
	"time"

	"mietbot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStateRepository(t *testing.T) {
	repo := NewMemoryStateRepository(time.Hour)
	ctx := context.Background()

	session := &models.Session{
		Channel:   models.ChannelWhatsApp,
		Sender:    "4915112345678",
		Intent:    models.IntentPinOnly,
		Awaiting:  models.AwaitingDates,
		UpdatedAt: time.Now(),
	}

	require.NoError(t, repo.SetSession(ctx, session))

	got, err := repo.GetSession(ctx, models.ChannelWhatsApp, "4915112345678")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, models.IntentPinOnly, got.Intent)

	// Same sender on the other channel is a different key.
	other, err := repo.GetSession(ctx, models.ChannelTelegram, "4915112345678")
	require.NoError(t, err)
	assert.Nil(t, other)

	require.NoError(t, repo.ClearSession(ctx, models.ChannelWhatsApp, "4915112345678"))
	got, err = repo.GetSession(ctx, models.ChannelWhatsApp, "4915112345678")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryStateRepositoryLazyExpiry(t *testing.T) {
	repo := NewMemoryStateRepository(time.Minute)
	ctx := context.Background()

	session := &models.Session{
		Channel:   models.ChannelTelegram,
		Sender:    "1",
		UpdatedAt: time.Now().Add(-2 * time.Minute),
	}
	require.NoError(t, repo.SetSession(ctx, session))

	got, err := repo.GetSession(ctx, models.ChannelTelegram, "1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryStateRepositoryRateLimit(t *testing.T) {
	repo := NewMemoryStateRepository(time.Hour)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		allowed, err := repo.CheckRateLimit(ctx, models.ChannelTelegram, "1", 2, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
	}

	allowed, err := repo.CheckRateLimit(ctx, models.ChannelTelegram, "1", 2, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)
}
