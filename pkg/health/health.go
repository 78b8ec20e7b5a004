package health

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"animehome/backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
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

// DefaultCheckTimeout bounds a single check when the checker has no timeout of its own.
const DefaultCheckTimeout = 2 * time.Second

// Component represents a system component that can be health-checked
type Component struct {
	Name        string    `json:"name"`
	Status      Status    `json:"status"`
	Description string    `json:"description,omitempty"`
	Error       string    `json:"error,omitempty"`
	Critical    bool      `json:"critical"`
	LastChecked time.Time `json:"last_checked"`
}

// Check represents a health check function
type Check func(ctx context.Context) (Status, string, error)

type registration struct {
	check    Check
	critical bool
}

// Checker manages health checks for the system
type Checker struct {
	checks     map[string]registration
	components map[string]*Component
	timeout    time.Duration
	mutex      sync.RWMutex
	log        *logger.Logger
}

// NewChecker creates a new health checker
func NewChecker(log *logger.Logger, timeout time.Duration) *Checker {
	if timeout <= 0 {
		timeout = DefaultCheckTimeout
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Checker{
		checks:     make(map[string]registration),
		components: make(map[string]*Component),
		timeout:    timeout,
		log:        log,
	}
}

// RegisterCheck registers a new health check. A critical component that is down
// makes the whole system unhealthy.
func (c *Checker) RegisterCheck(name string, critical bool, check Check) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.checks[name] = registration{check: check, critical: critical}
	c.components[name] = &Component{
		Name:        name,
		Status:      StatusDown,
		Description: "Not checked yet",
		Critical:    critical,
	}
}

// RunChecks executes all registered health checks
func (c *Checker) RunChecks(ctx context.Context) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	for name, reg := range c.checks {
		checkCtx, cancel := context.WithTimeout(ctx, c.timeout)
		status, description, err := reg.check(checkCtx)
		cancel()

		component := c.components[name]
		component.Status = status
		component.Description = description
		component.LastChecked = time.Now()

		if err != nil {
			component.Error = err.Error()
			c.log.Error("Health check failed",
				"component", name,
				"status", string(status),
				"error", err.Error(),
			)
		} else {
			component.Error = ""
			c.log.Debug("Health check completed",
				"component", name,
				"status", string(status),
			)
		}
	}
}

// Start runs the checks every period until ctx is done, so failures show up in the logs
// even when nobody polls the endpoint.
func (c *Checker) Start(ctx context.Context, period time.Duration) {
	go func() {
		c.RunChecks(ctx)

		ticker := time.NewTicker(period)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.RunChecks(ctx)
			}
		}
	}()
}

// GetStatus returns a copy of the last known state of every component
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

	for _, component := range c.components {
		if component.Critical && component.Status == StatusDown {
			return false
		}
	}

	return true
}

// Handler runs every check and reports 200 when the system is healthy, 503 otherwise.
func (c *Checker) Handler() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		c.RunChecks(ctx.Request.Context())

		status, overall := http.StatusOK, "ok"
		if !c.IsSystemHealthy() {
			status, overall = http.StatusServiceUnavailable, "unavailable"
		}

		ctx.JSON(status, gin.H{
			"status":     overall,
			"timestamp":  time.Now().UTC().Format(time.RFC3339),
			"components": c.GetStatus(),
		})
	}
}

// Names lists the registered components in a stable order.
func (c *Checker) Names() []string {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	names := make([]string, 0, len(c.checks))
	for name := range c.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RegisterDatabaseCheck registers a critical database ping
func (c *Checker) RegisterDatabaseCheck(db *gorm.DB) {
	c.RegisterCheck("database", true, func(ctx context.Context) (Status, string, error) {
		sqlDB, err := db.DB()
		if err != nil {
			return StatusDown, "Database handle unavailable", err
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			return StatusDown, "Database connection failed", err
		}
		return StatusUp, "Database connection is established", nil
	})
}

// RegisterRedisCheck registers a redis ping. Redis only backs stream transcripts,
// so an outage degrades the service instead of taking it down.
func (c *Checker) RegisterRedisCheck(client *redis.Client) {
	c.RegisterCheck("redis", false, func(ctx context.Context) (Status, string, error) {
		if err := client.Ping(ctx).Err(); err != nil {
			return StatusDegraded, "Redis is unreachable, stream transcripts unavailable", err
		}
		return StatusUp, "Redis connection is established", nil
	})
}
