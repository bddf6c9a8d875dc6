package repository

import (
	"context"
	"testing"
	"time"

	"mietbot/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStateRepository(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	defer s.Close()

	client := redis.NewClient(&redis.Options{
		Addr: s.Addr(),
	})
	defer client.Close()

	repo := NewRedisStateRepository(client, time.Hour)
	ctx := context.Background()

	t.Run("SetAndGetSession", func(t *testing.T) {
		session := &models.Session{
			Channel:  models.ChannelTelegram,
			Sender:   "12345",
			Intent:   models.IntentInvoice,
			Awaiting: models.AwaitingName,
			Request:  models.BookingRequest{GuestAddress: "Musterweg 2"},
		}

		err := repo.SetSession(ctx, session)
		require.NoError(t, err)

		got, err := repo.GetSession(ctx, models.ChannelTelegram, "12345")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, session.Intent, got.Intent)
		assert.Equal(t, session.Awaiting, got.Awaiting)
		assert.Equal(t, session.Request.GuestAddress, got.Request.GuestAddress)
	})

	t.Run("ChannelsDoNotShareSessions", func(t *testing.T) {
		session := &models.Session{
			Channel: models.ChannelWhatsApp,
			Sender:  "12345",
			Intent:  models.IntentPinOnly,
		}
		require.NoError(t, repo.SetSession(ctx, session))

		got, err := repo.GetSession(ctx, models.ChannelTelegram, "12345")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, models.IntentInvoice, got.Intent)
	})

	t.Run("GetNonExistentSession", func(t *testing.T) {
		got, err := repo.GetSession(ctx, models.ChannelTelegram, "999")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("ClearSession", func(t *testing.T) {
		session := &models.Session{Channel: models.ChannelTelegram, Sender: "456", Awaiting: models.AwaitingDates}
		require.NoError(t, repo.SetSession(ctx, session))

		err := repo.ClearSession(ctx, models.ChannelTelegram, "456")
		require.NoError(t, err)

		got, err := repo.GetSession(ctx, models.ChannelTelegram, "456")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("SessionExpires", func(t *testing.T) {
		session := &models.Session{Channel: models.ChannelTelegram, Sender: "ttl"}
		require.NoError(t, repo.SetSession(ctx, session))

		s.FastForward(2 * time.Hour)

		got, err := repo.GetSession(ctx, models.ChannelTelegram, "ttl")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("CheckRateLimit", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			allowed, err := repo.CheckRateLimit(ctx, models.ChannelTelegram, "limited", 3, time.Minute)
			require.NoError(t, err)
			assert.True(t, allowed)
		}

		allowed, err := repo.CheckRateLimit(ctx, models.ChannelTelegram, "limited", 3, time.Minute)
		require.NoError(t, err)
		assert.False(t, allowed)
	})
}

func TestRedisStateRepositoryNilClient(t *testing.T) {
	repo := NewRedisStateRepository(nil, time.Hour)
	ctx := context.Background()

	_, err := repo.GetSession(ctx, models.ChannelTelegram, "1")
	assert.Error(t, err)

	err = repo.SetSession(ctx, &models.Session{Channel: models.ChannelTelegram, Sender: "1"})
	assert.Error(t, err)
}
