package di

import (
	"context"
	"fmt"

	"github.com/tkubota31/express-messagely/internal/models"
	"github.com/tkubota31/express-messagely/internal/repository"
	"github.com/tkubota31/express-messagely/internal/service"
	"github.com/tkubota31/express-messagely/internal/ws"
	"github.com/tkubota31/express-messagely/pkg/cache"
	"github.com/tkubota31/express-messagely/pkg/config"
	"github.com/tkubota31/express-messagely/pkg/health"
	"github.com/tkubota31/express-messagely/pkg/jwt"
	"github.com/tkubota31/express-messagely/pkg/logger"
	"github.com/tkubota31/express-messagely/pkg/observability"
	"github.com/tkubota31/express-messagely/pkg/redis"
	"github.com/tkubota31/express-messagely/pkg/resilience"

	"gorm.io/gorm"
)

// Container holds all the dependencies for the application
type Container struct {
	Config         *config.Config
	DB             *gorm.DB
	Logger         *logger.Logger
	JWTService     *jwt.Service
	UserRepo       repository.UserRepository
	MessageRepo    repository.MessageRepository
	UserDirectory  *service.UserDirectory
	UserService    *service.UserService
	MessageService *service.MessageService
	Hub            *ws.Hub
	Health         *health.Checker
	Metrics        *observability.Metrics

	localCache *cache.Cache[models.UserSummary]
	redis      *redis.RedisClient
	breaker    *resilience.CircuitBreaker
}

// New wires the application from configuration and an open database
func New(cfg *config.Config, db *gorm.DB, log *logger.Logger) (*Container, error) {
	if log == nil {
		log = logger.GetGlobal()
	}

	if cfg.Security.BcryptCost > 0 {
		models.PasswordCost = cfg.Security.BcryptCost
	}

	jwtService, err := jwt.NewService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT service: %w", err)
	}

	c := &Container{
		Config:      cfg,
		DB:          db,
		Logger:      log,
		JWTService:  jwtService,
		UserRepo:    repository.NewGormUserRepository(db),
		MessageRepo: repository.NewGormMessageRepository(db),
	}

	dirOpts := service.DirectoryOptions{RemoteTTL: cfg.Redis.TTL}
	if cfg.Cache.Enabled {
		c.localCache = cache.New[models.UserSummary](cache.Options{
			DefaultExpiration: cfg.Cache.TTL,
			CleanupInterval:   cfg.Cache.PurgeWindow,
			MaxItems:          cfg.Cache.MaxSize,
		})
		dirOpts.Local = c.localCache
	}
	if cfg.Redis.Enabled {
		c.redis = redis.NewRedisClient(redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		dirOpts.Remote = c.redis
		c.breaker = resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig("redis-users"), log)
		dirOpts.Breaker = c.breaker
	}

	metrics, err := observability.NewMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}
	c.Metrics = metrics

	c.UserDirectory = service.NewUserDirectory(c.UserRepo, dirOpts, log)
	c.UserService = service.NewUserService(c.UserRepo, jwtService, log)

	c.Hub = ws.NewHub(log)
	c.MessageService = service.NewMessageService(c.MessageRepo, c.UserDirectory, log)
	c.MessageService.SetNotifier(c.Hub)
	c.MessageService.SetMetrics(metrics)

	c.Health = health.NewChecker(log, cfg.Observability.HealthPeriod, cfg.Server.Version)
	c.Health.RegisterDatabaseCheck(func(ctx context.Context) error {
		return config.Ping(ctx, db)
	})
	if c.redis != nil {
		c.Health.RegisterCacheCheck("redis", c.redis.Ping)
		c.Health.RegisterCheck("redis_breaker", breakerCheck(c.breaker))
	}
	if c.localCache != nil {
		users := c.localCache
		c.Health.RegisterCheck("user_cache", func(context.Context) (health.Status, string, error) {
			st := users.Stats()
			return health.StatusUp, fmt.Sprintf("%d entries, %d hits, %d misses", st.Items, st.Hits, st.Misses), nil
		})
	}

	return c, nil
}

// Start launches the background workers
func (c *Container) Start(ctx context.Context) {
	go c.Hub.Run(ctx)
	c.Health.Start(ctx)
}

// Close releases cache and redis resources
func (c *Container) Close() {
	if c.localCache != nil {
		c.localCache.Close()
	}
	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			c.Logger.Warn("Failed to close redis client", "error", err.Error())
		}
	}
}

// breakerCheck reports an open breaker as degraded: user lookups still
// succeed from the database while redis is skipped.
func breakerCheck(cb *resilience.CircuitBreaker) health.Check {
	return func(context.Context) (health.Status, string, error) {
		m := cb.GetMetrics()
		msg := fmt.Sprintf("state=%v rejected=%v failures=%v", m["state"], m["total_rejected"], m["total_failures"])
		if cb.GetState() == resilience.StateOpen {
			return health.StatusDegraded, msg, nil
		}
		return health.StatusUp, msg, nil
	}
}
