package service

import (
	"context"
	"testing"

	"exon/internal/models"
	"exon/internal/repository"
	"exon/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscriptionService_Subscribe(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testutil.OpenDB(t)
	svc := NewSubscriptionService(repository.NewSubscriptionRepository(db))

	t.Run("stores normalized addresses once", func(t *testing.T) {
		require.NoError(t, svc.Subscribe(ctx, "  Degen@Example.COM "))
		require.NoError(t, svc.Subscribe(ctx, "degen@example.com"))

		var subs []models.EmailSubscription
		require.NoError(t, db.Find(&subs).Error)
		require.Len(t, subs, 1)
		assert.Equal(t, "degen@example.com", subs[0].Email)
	})

	t.Run("rejects invalid addresses", func(t *testing.T) {
		for _, email := range []string{"", "not-an-email", "a@", "Display Name <a@b.co>"} {
			assert.Error(t, svc.Subscribe(ctx, email), email)
		}
	})
}
