// Package router 提供 HTTP 路由配置
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"z-site-gen-api/internal/config"
	"z-site-gen-api/internal/interfaces/http/handler"
	"z-site-gen-api/internal/interfaces/http/middleware"
)

// Router HTTP 路由器
type Router struct {
	engine *gin.Engine
	cfg    *config.Config
}

// Handlers 路由所需的全部处理器
type Handlers struct {
	Health    *handler.HealthHandler
	Project   *handler.ProjectHandler
	Blueprint *handler.BlueprintHandler
	Generate  *handler.GenerateHandler
	Site      *handler.SiteHandler
	Model     *handler.ModelHandler
}

// New 创建新的路由器
func New(cfg *config.Config, handlers Handlers, rateLimit gin.HandlerFunc) *Router {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	r := &Router{
		engine: engine,
		cfg:    cfg,
	}

	r.setupMiddleware(rateLimit)
	r.setupRoutes(handlers)

	return r
}

// Engine 返回 Gin Engine
func (r *Router) Engine() *gin.Engine {
	return r.engine
}

// setupMiddleware 配置中间件
func (r *Router) setupMiddleware(rateLimit gin.HandlerFunc) {
	// 基础中间件
	r.engine.Use(middleware.Recovery())
	r.engine.Use(middleware.RequestID())

	// CORS 中间件
	r.engine.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins: r.cfg.Security.CORS.AllowedOrigins,
		AllowedMethods: r.cfg.Security.CORS.AllowedMethods,
		AllowedHeaders: r.cfg.Security.CORS.AllowedHeaders,
	}))

	// 追踪中间件
	if r.cfg.Observability.Tracing.Enabled {
		r.engine.Use(middleware.Trace(r.cfg.App.Name))
		r.engine.Use(middleware.TraceContext())
	}

	// 指标中间件
	if r.cfg.Observability.Metrics.Enabled {
		r.engine.Use(middleware.Metrics())
	}

	// 限流中间件
	if rateLimit != nil {
		r.engine.Use(rateLimit)
	}
}

// setupRoutes 配置路由
func (r *Router) setupRoutes(handlers Handlers) {
	// 系统端点
	r.engine.GET("/health", handlers.Health.Health)
	r.engine.GET("/ready", handlers.Health.Ready)
	r.engine.GET("/live", handlers.Health.Live)

	// Prometheus 指标端点
	if r.cfg.Observability.Metrics.Enabled {
		r.engine.GET(r.cfg.Observability.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	// API v1 路由组
	v1 := r.engine.Group("/v1")
	RegisterV1Routes(v1, handlers)
}
