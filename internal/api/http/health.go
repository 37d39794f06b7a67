package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

const depPingTimeout = 1 * time.Second

// HealthResponse reports the service and the state of every collaborator it
// was started with: the projects database, the technical data cache and the
// persistence backend in use.
type HealthResponse struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Service     string    `json:"service"`
	Version     string    `json:"version"`
	DB          string    `json:"db"`
	Cache       string    `json:"cache"`
	Persistence string    `json:"persistence"`
}

type HealthHandler struct {
	serviceName string
	version     string
	db          *pgxpool.Pool
	cache       *redis.Client
	persistence string
}

// NewHealthHandler builds the health endpoint. db and cache may be nil when
// the service runs without them; persistence names the configured backend
// ("data-api", "postgres" or "disabled").
func NewHealthHandler(serviceName, version string, db *pgxpool.Pool, cache *redis.Client, persistence string) *HealthHandler {
	return &HealthHandler{
		serviceName: serviceName,
		version:     version,
		db:          db,
		cache:       cache,
		persistence: persistence,
	}
}

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	dbStatus := pingStatus(c.Request.Context(), h.db != nil, func(ctx context.Context) error {
		return h.db.Ping(ctx)
	})
	cacheStatus := pingStatus(c.Request.Context(), h.cache != nil, func(ctx context.Context) error {
		return h.cache.Ping(ctx).Err()
	})

	status := "healthy"
	if dbStatus == "down" || cacheStatus == "down" {
		status = "degraded"
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:      status,
		Timestamp:   time.Now().UTC(),
		Service:     h.serviceName,
		Version:     h.version,
		DB:          dbStatus,
		Cache:       cacheStatus,
		Persistence: h.persistence,
	})
}

// pingStatus reports "disabled" for collaborators the service was started
// without; those never degrade the overall status.
func pingStatus(ctx context.Context, wired bool, ping func(context.Context) error) string {
	if !wired {
		return "disabled"
	}
	pctx, cancel := context.WithTimeout(ctx, depPingTimeout)
	defer cancel()
	if err := ping(pctx); err != nil {
		return "down"
	}
	return "up"
}

func (h *HealthHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", h.HealthCheck)
	r.GET("/healthz", h.HealthCheck)
}
