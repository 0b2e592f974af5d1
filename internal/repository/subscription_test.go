package repository

import (
	"context"
	"testing"

	"exon/internal/models"
	"exon/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscriptionRepository_Subscribe(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testutil.OpenDB(t)
	repo := NewSubscriptionRepository(db)

	require.NoError(t, repo.Subscribe(ctx, "early@adopter.io"))
	// Duplicates are silently absorbed.
	require.NoError(t, repo.Subscribe(ctx, "early@adopter.io"))
	require.NoError(t, repo.Subscribe(ctx, "second@adopter.io"))

	var count int64
	require.NoError(t, db.Model(&models.EmailSubscription{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}
