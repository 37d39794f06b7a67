package bootstrap

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	httpapi "github.com/hydroplan-hq/techsheet-backend/internal/api/http"
	"github.com/hydroplan-hq/techsheet-backend/internal/api/http/middleware"
	"github.com/hydroplan-hq/techsheet-backend/internal/importer"
	importerhttp "github.com/hydroplan-hq/techsheet-backend/internal/importer/http"
	"github.com/hydroplan-hq/techsheet-backend/internal/projects"
	techdatahttp "github.com/hydroplan-hq/techsheet-backend/internal/techdata/http"
	"github.com/hydroplan-hq/techsheet-backend/internal/techdata/store"
)

type RouterDeps struct {
	ServiceName    string
	Version        string
	AllowedOrigins []string
	DB             *pgxpool.Pool
	Redis          *redis.Client
	Persistence    string
	Store          *store.Store
	ImportService  *importer.Service
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.Default()

	corsCfg := cors.DefaultConfig()
	if len(dep.AllowedOrigins) > 0 {
		corsCfg.AllowOrigins = dep.AllowedOrigins
	} else {
		corsCfg.AllowAllOrigins = true
	}
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "X-Request-Id", "X-User-Id", "X-Api-Key")
	r.Use(cors.New(corsCfg))

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.DB, dep.Redis, dep.Persistence)
	healthHandler.RegisterRoutes(r)

	api := r.Group("/api/v1")
	api.Use(middleware.RequestIDMiddleware())

	projectsGroup := api.Group("/projects")
	if dep.DB != nil {
		projectRepo := projects.NewRepo(dep.DB)
		projects.Register(projectsGroup, projectRepo)
	}
	techdatahttp.RegisterProjectsSubroutes(projectsGroup, dep.Store)
	importerhttp.RegisterProjectsSubroutes(projectsGroup, dep.ImportService)

	return r
}
