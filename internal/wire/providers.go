// Package wire 提供依赖注入配置
package wire

import (
	"github.com/gin-gonic/gin"
	"github.com/google/wire"

	"z-site-gen-api/internal/application/pipeline"
	"z-site-gen-api/internal/config"
	"z-site-gen-api/internal/domain/repository"
	"z-site-gen-api/internal/infrastructure/imagegen"
	"z-site-gen-api/internal/infrastructure/llm"
	"z-site-gen-api/internal/infrastructure/persistence/postgres"
	"z-site-gen-api/internal/infrastructure/persistence/redis"
	"z-site-gen-api/internal/infrastructure/sitefs"
	"z-site-gen-api/internal/interfaces/http/handler"
	"z-site-gen-api/internal/interfaces/http/middleware"
	"z-site-gen-api/internal/interfaces/http/router"
)

// RepoSet PostgreSQL 仓储与接口绑定
var RepoSet = wire.NewSet(
	ProvidePostgresClient,
	postgres.NewTxManager,
	postgres.NewProjectRepository,
	postgres.NewBlueprintRepository,
	postgres.NewSchemaRepository,
	wire.Bind(new(repository.Transactor), new(*postgres.TxManager)),
	wire.Bind(new(repository.ProjectRepository), new(*postgres.ProjectRepository)),
	wire.Bind(new(repository.BlueprintRepository), new(*postgres.BlueprintRepository)),
	wire.Bind(new(repository.SchemaRepository), new(*postgres.SchemaRepository)),
)

// RedisSet Redis 提供者集合
var RedisSet = wire.NewSet(
	ProvideRedisClient,
	redis.NewRateLimiter,
	ProvideStageLease,
	wire.Bind(new(pipeline.StageLease), new(*redis.StageLease)),
	wire.Bind(new(handler.StageGuard), new(*redis.StageLease)),
)

// LLMSet LLM 与图像生成提供者集合
var LLMSet = wire.NewSet(
	llm.NewEinoFactory,
	llm.NewCatalog,
	ProvideCompleter,
	ProvideImageGenClient,
	wire.Bind(new(pipeline.Completer), new(*llm.Completer)),
	wire.Bind(new(pipeline.ImageGenerator), new(*imagegen.Client)),
)

// StorageSet 站点文件存储提供者集合
var StorageSet = wire.NewSet(
	ProvideSiteStore,
	wire.Bind(new(pipeline.SiteStore), new(*sitefs.Store)),
	wire.Bind(new(handler.SiteRemover), new(*sitefs.Store)),
)

// PipelineSet 流水线执行器与调度器
var PipelineSet = wire.NewSet(
	pipeline.NewArchitect,
	ProvideConstructor,
	ProvideIllustrator,
	pipeline.NewRenderer,
	ProvideController,
)

// RouterSet 路由器提供者集合
var RouterSet = wire.NewSet(
	handler.NewHealthHandler,
	handler.NewProjectHandler,
	handler.NewBlueprintHandler,
	handler.NewGenerateHandler,
	handler.NewSiteHandler,
	handler.NewModelHandler,
	wire.Struct(new(router.Handlers), "*"),
	ProvideRateLimitMiddleware,
	router.New,
)

// ProvidePostgresClient 提供 PostgreSQL 客户端
func ProvidePostgresClient(cfg *config.Config) (*postgres.Client, func(), error) {
	client, err := postgres.NewClient(&cfg.Database.Postgres)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

// ProvideRedisClient 提供 Redis 客户端
func ProvideRedisClient(cfg *config.Config) (*redis.Client, func(), error) {
	client, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

// ProvideStageLease 提供阶段租约
func ProvideStageLease(cfg *config.Config, client *redis.Client) *redis.StageLease {
	return redis.NewStageLease(client, cfg.Pipeline.LeaseTTL)
}

// ProvideCompleter 提供结构化补全器
func ProvideCompleter(cfg *config.Config, factory *llm.EinoFactory) *llm.Completer {
	return llm.NewCompleter(factory, cfg.LLM.MaxAttempts)
}

// ProvideImageGenClient 提供图片生成客户端
func ProvideImageGenClient(cfg *config.Config) *imagegen.Client {
	return imagegen.NewClient(&cfg.ImageGen)
}

// ProvideSiteStore 提供站点文件存储
func ProvideSiteStore(cfg *config.Config) (*sitefs.Store, error) {
	return sitefs.NewStore(cfg.Storage.Workspace)
}

// ProvideConstructor 提供内容阶段执行器
func ProvideConstructor(
	cfg *config.Config,
	completer pipeline.Completer,
	catalog *llm.Catalog,
	blueprints repository.BlueprintRepository,
	schemas repository.SchemaRepository,
) *pipeline.Constructor {
	return pipeline.NewConstructor(completer, catalog, blueprints, schemas, cfg.Pipeline.ChapterConcurrency)
}

// ProvideIllustrator 提供插图阶段执行器
func ProvideIllustrator(
	cfg *config.Config,
	completer pipeline.Completer,
	catalog *llm.Catalog,
	images pipeline.ImageGenerator,
	store pipeline.SiteStore,
	blueprints repository.BlueprintRepository,
	schemas repository.SchemaRepository,
) *pipeline.Illustrator {
	return pipeline.NewIllustrator(completer, catalog, images, store, blueprints, schemas, cfg.Pipeline.ImageConcurrency)
}

// ProvideController 提供流水线调度器
func ProvideController(
	projects repository.ProjectRepository,
	lease pipeline.StageLease,
	architect *pipeline.Architect,
	constructor *pipeline.Constructor,
	illustrator *pipeline.Illustrator,
	renderer *pipeline.Renderer,
) *pipeline.Controller {
	return pipeline.NewController(projects, lease, architect, constructor, illustrator, renderer)
}

// ProvideRateLimitMiddleware 提供限流中间件
func ProvideRateLimitMiddleware(cfg *config.Config, limiter *redis.RateLimiter) gin.HandlerFunc {
	return middleware.NewRateLimitMiddleware(middleware.RateLimitConfig{
		Enabled:           cfg.Security.RateLimit.Enabled,
		RequestsPerSecond: cfg.Security.RateLimit.RequestsPerSecond,
	}, limiter)
}
