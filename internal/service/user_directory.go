package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/tkubota31/express-messagely/internal/models"
	"github.com/tkubota31/express-messagely/internal/repository"
	"github.com/tkubota31/express-messagely/pkg/cache"
	"github.com/tkubota31/express-messagely/pkg/logger"
	"github.com/tkubota31/express-messagely/pkg/redis"
	"github.com/tkubota31/express-messagely/pkg/resilience"
)

// UserLookup resolves a username to its public summary
type UserLookup interface {
	LookupUser(ctx context.Context, username string) (*models.UserSummary, error)
}

// RemoteCache is the subset of the redis client used by the directory
type RemoteCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
}

// DirectoryOptions configures the cache layers in front of the user table.
// Nil Local or Remote disables that layer.
type DirectoryOptions struct {
	Local     *cache.Cache[models.UserSummary]
	Remote    RemoteCache
	RemoteTTL time.Duration
	Breaker   *resilience.CircuitBreaker
}

// UserDirectory reads user summaries through the in-process cache, then
// redis, then the database. Unknown usernames are never cached.
type UserDirectory struct {
	users     repository.UserRepository
	local     *cache.Cache[models.UserSummary]
	remote    RemoteCache
	remoteTTL time.Duration
	breaker   *resilience.CircuitBreaker
	log       *logger.Logger
}

// NewUserDirectory creates a user directory
func NewUserDirectory(users repository.UserRepository, opts DirectoryOptions, log *logger.Logger) *UserDirectory {
	if log == nil {
		log = logger.GetGlobal()
	}
	if opts.RemoteTTL <= 0 {
		opts.RemoteTTL = 10 * time.Minute
	}
	if opts.Remote != nil && opts.Breaker == nil {
		opts.Breaker = resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig("redis-users"), log)
	}

	return &UserDirectory{
		users:     users,
		local:     opts.Local,
		remote:    opts.Remote,
		remoteTTL: opts.RemoteTTL,
		breaker:   opts.Breaker,
		log:       log,
	}
}

func userCacheKey(username string) string {
	return "messagely:user:" + username
}

// LookupUser returns the summary for username or ErrUserNotFound
func (d *UserDirectory) LookupUser(ctx context.Context, username string) (*models.UserSummary, error) {
	key := userCacheKey(username)

	if d.local != nil {
		if summary, ok := d.local.Get(key); ok {
			return &summary, nil
		}
	}

	if summary, ok := d.fromRemote(ctx, key); ok {
		d.storeLocal(key, *summary)
		return summary, nil
	}

	user, err := d.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("lookup user %q: %w", username, err)
	}

	summary := user.Summary()
	d.storeLocal(key, summary)
	d.storeRemote(ctx, key, summary)
	return &summary, nil
}

func (d *UserDirectory) storeLocal(key string, summary models.UserSummary) {
	if d.local != nil {
		d.local.Set(key, summary)
	}
}

// fromRemote treats every redis failure as a miss
func (d *UserDirectory) fromRemote(ctx context.Context, key string) (*models.UserSummary, bool) {
	if d.remote == nil {
		return nil, false
	}

	var raw string
	err := d.breaker.Execute(func() error {
		v, err := d.remote.Get(ctx, key)
		if errors.Is(err, redis.ErrCacheMiss) {
			// a miss is a healthy answer
			return nil
		}
		raw = v
		return err
	})
	if err != nil {
		if !errors.Is(err, resilience.ErrCircuitOpen) {
			d.log.Warn("Redis user lookup failed", "key", key, "error", err.Error())
		}
		return nil, false
	}
	if raw == "" {
		return nil, false
	}

	var summary models.UserSummary
	if err := json.Unmarshal([]byte(raw), &summary); err != nil {
		d.log.Warn("Discarding malformed cached user", "key", key, "error", err.Error())
		return nil, false
	}
	return &summary, true
}

func (d *UserDirectory) storeRemote(ctx context.Context, key string, summary models.UserSummary) {
	if d.remote == nil {
		return
	}

	data, err := json.Marshal(summary)
	if err != nil {
		return
	}

	err = d.breaker.Execute(func() error {
		return d.remote.Set(ctx, key, data, d.remoteTTL)
	})
	if err != nil && !errors.Is(err, resilience.ErrCircuitOpen) {
		d.log.Warn("Redis user store failed", "key", key, "error", err.Error())
	}
}
