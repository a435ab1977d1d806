package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/cbdms-web/internal/models"
	appErrors "github.com/noah-isme/cbdms-web/pkg/errors"
)

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, "cbdms:", nil)

	var out []models.Paper
	err := repo.Get(context.Background(), "papers:u1", &out)
	assert.True(t, errors.Is(err, appErrors.ErrCacheMiss))
	assert.NoError(t, repo.Close())
}

func TestCacheRepositoryCloseReleasesClient(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	repo := NewCacheRepository(client, "cbdms:", nil)

	require.NoError(t, repo.Close())
	assert.ErrorIs(t, client.Ping(context.Background()).Err(), redis.ErrClosed)
}
