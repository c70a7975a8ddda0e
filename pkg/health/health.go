package health

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/tkubota31/express-messagely/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Status represents the health status of a component
type Status string

const (
	// StatusUp indicates a component is working correctly
	StatusUp Status = "up"
	// StatusDown indicates a component is not working
	StatusDown Status = "down"
	// StatusDegraded indicates a component is working but with reduced functionality
	StatusDegraded Status = "degraded"
)

// Component represents a system component that can be health-checked
type Component struct {
	Name        string    `json:"name"`
	Status      Status    `json:"status"`
	Description string    `json:"description,omitempty"`
	Error       string    `json:"error,omitempty"`
	LastChecked time.Time `json:"last_checked"`
}

// Check represents a health check function
type Check func(ctx context.Context) (Status, string, error)

type registered struct {
	check    Check
	critical bool
}

// Checker manages health checks for the system
type Checker struct {
	checks       map[string]registered
	components   map[string]*Component
	checkPeriod  time.Duration
	checkTimeout time.Duration
	version      string
	onUpdate     func(healthy bool)
	mutex        sync.RWMutex
	log          *logger.Logger
}

// NewChecker creates a new health checker
func NewChecker(log *logger.Logger, checkPeriod time.Duration, version string) *Checker {
	if log == nil {
		log = logger.GetGlobal()
	}
	if checkPeriod <= 0 {
		checkPeriod = 30 * time.Second
	}

	checker := &Checker{
		checks:       make(map[string]registered),
		components:   make(map[string]*Component),
		checkPeriod:  checkPeriod,
		checkTimeout: 5 * time.Second,
		version:      version,
		log:          log.WithComponent("health"),
	}

	checker.RegisterCheck("self", func(context.Context) (Status, string, error) {
		return StatusUp, "Health checker is running", nil
	})

	return checker
}

// RegisterCheck registers a non-critical health check
func (c *Checker) RegisterCheck(name string, check Check) {
	c.register(name, check, false)
}

// RegisterCriticalCheck registers a check whose failure marks the system unhealthy
func (c *Checker) RegisterCriticalCheck(name string, check Check) {
	c.register(name, check, true)
}

func (c *Checker) register(name string, check Check, critical bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.checks[name] = registered{check: check, critical: critical}
	c.components[name] = &Component{
		Name:        name,
		Status:      StatusDown,
		Description: "Not checked yet",
	}
}

// OnUpdate sets a callback invoked with the overall health after every run
func (c *Checker) OnUpdate(fn func(healthy bool)) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.onUpdate = fn
}

// RunChecks executes all registered health checks
func (c *Checker) RunChecks(ctx context.Context) {
	c.mutex.RLock()
	checks := make(map[string]registered, len(c.checks))
	for name, r := range c.checks {
		checks[name] = r
	}
	c.mutex.RUnlock()

	type result struct {
		status      Status
		description string
		err         error
	}
	results := make(map[string]result, len(checks))
	for name, r := range checks {
		checkCtx, cancel := context.WithTimeout(ctx, c.checkTimeout)
		status, description, err := r.check(checkCtx)
		cancel()
		results[name] = result{status, description, err}
	}

	c.mutex.Lock()
	now := time.Now()
	for name, res := range results {
		component, ok := c.components[name]
		if !ok {
			continue
		}
		component.Status = res.status
		component.Description = res.description
		component.LastChecked = now

		if res.err != nil {
			component.Error = res.err.Error()
			c.log.Error("Health check failed",
				"component", name,
				"status", string(res.status),
				"error", res.err.Error(),
			)
		} else {
			component.Error = ""
			c.log.Debug("Health check completed",
				"component", name,
				"status", string(res.status),
			)
		}
	}
	onUpdate := c.onUpdate
	c.mutex.Unlock()

	if onUpdate != nil {
		onUpdate(c.IsSystemHealthy())
	}
}

// Start runs the checks immediately and then periodically until ctx is done
func (c *Checker) Start(ctx context.Context) {
	go func() {
		c.RunChecks(ctx)

		ticker := time.NewTicker(c.checkPeriod)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				c.RunChecks(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// GetStatus returns the current health status
func (c *Checker) GetStatus() map[string]*Component {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	result := make(map[string]*Component, len(c.components))
	for k, v := range c.components {
		componentCopy := *v
		result[k] = &componentCopy
	}

	return result
}

// IsSystemHealthy returns true if all critical components are up
func (c *Checker) IsSystemHealthy() bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	for name, component := range c.components {
		if component.Status == StatusDown && c.checks[name].critical {
			return false
		}
	}

	return true
}

// Handler returns a gin handler reporting component status
func (c *Checker) Handler() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		status := "ok"
		code := http.StatusOK
		if !c.IsSystemHealthy() {
			status = "unavailable"
			code = http.StatusServiceUnavailable
		}

		ctx.JSON(code, gin.H{
			"status":     status,
			"version":    c.version,
			"timestamp":  time.Now().Format(time.RFC3339),
			"components": c.GetStatus(),
		})
	}
}

// RegisterDatabaseCheck registers a critical database health check
func (c *Checker) RegisterDatabaseCheck(ping func(ctx context.Context) error) {
	c.RegisterCriticalCheck("database", func(ctx context.Context) (Status, string, error) {
		if err := ping(ctx); err != nil {
			return StatusDown, "Database connection failed", err
		}
		return StatusUp, "Database connection is established", nil
	})
}

// RegisterCacheCheck registers a non-critical check for a shared cache.
// A failing cache only degrades the service.
func (c *Checker) RegisterCacheCheck(name string, ping func(ctx context.Context) error) {
	c.RegisterCheck(name, func(ctx context.Context) (Status, string, error) {
		if err := ping(ctx); err != nil {
			return StatusDegraded, "Cache unreachable, falling back to database", err
		}
		return StatusUp, "Cache is reachable", nil
	})
}
