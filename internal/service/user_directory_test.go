package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tkubota31/express-messagely/internal/models"
	"github.com/tkubota31/express-messagely/pkg/cache"
	"github.com/tkubota31/express-messagely/pkg/logger"
	"github.com/tkubota31/express-messagely/pkg/redis"
	"github.com/tkubota31/express-messagely/pkg/resilience"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRemote struct {
	mu   sync.Mutex
	data map[string]string
	fail bool
	gets int
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{data: make(map[string]string)}
}

func (r *fakeRemote) Get(_ context.Context, key string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gets++
	if r.fail {
		return "", errors.New("connection refused")
	}
	v, ok := r.data[key]
	if !ok {
		return "", redis.ErrCacheMiss
	}
	return v, nil
}

func (r *fakeRemote) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errors.New("connection refused")
	}
	r.data[key] = string(value.([]byte))
	return nil
}

func TestDirectoryReadsThroughLocalCache(t *testing.T) {
	users := newFakeUserRepo("alice")
	local := cache.New[models.UserSummary](cache.Options{DefaultExpiration: time.Minute})
	defer local.Close()

	dir := NewUserDirectory(users, DirectoryOptions{Local: local}, logger.Nop())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		summary, err := dir.LookupUser(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, "alice", summary.Username)
	}
	assert.Equal(t, 1, users.lookups())
}

func TestDirectoryUnknownUser(t *testing.T) {
	users := newFakeUserRepo()
	local := cache.New[models.UserSummary](cache.Options{})
	defer local.Close()

	dir := NewUserDirectory(users, DirectoryOptions{Local: local}, logger.Nop())

	_, err := dir.LookupUser(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, local.Count(), "misses are not cached")
}

func TestDirectoryUsesRemoteCache(t *testing.T) {
	users := newFakeUserRepo("alice")
	remote := newFakeRemote()
	ctx := context.Background()

	first := NewUserDirectory(users, DirectoryOptions{Remote: remote}, logger.Nop())
	_, err := first.LookupUser(ctx, "alice")
	require.NoError(t, err)
	assert.Contains(t, remote.data, userCacheKey("alice"))

	// A second instance shares only the remote layer
	second := NewUserDirectory(users, DirectoryOptions{Remote: remote}, logger.Nop())
	summary, err := second.LookupUser(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", summary.FirstName)
	assert.Equal(t, 1, users.lookups())
}

func TestDirectoryFallsBackWhenRemoteFails(t *testing.T) {
	users := newFakeUserRepo("alice")
	remote := newFakeRemote()
	remote.fail = true

	breaker := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		Name:             "test",
		FailureThreshold: 2,
		SuccessThreshold: 1,
		RetryTimeout:     time.Hour,
	}, logger.Nop())

	dir := NewUserDirectory(users, DirectoryOptions{Remote: remote, Breaker: breaker}, logger.Nop())
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		summary, err := dir.LookupUser(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, "alice", summary.Username)
	}

	assert.Equal(t, resilience.StateOpen, breaker.GetState())
	assert.Equal(t, 4, users.lookups())
	assert.Less(t, remote.gets, 4, "open breaker stops calling redis")
}
