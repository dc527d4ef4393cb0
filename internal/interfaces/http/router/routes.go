// Package router 提供 HTTP 路由配置
package router

import (
	"github.com/gin-gonic/gin"
)

// RegisterV1Routes 注册 v1 版本路由
func RegisterV1Routes(v1 *gin.RouterGroup, handlers Handlers) {
	// 项目管理
	projects := v1.Group("/projects")
	{
		projects.GET("", handlers.Project.ListProjects)
		projects.POST("", handlers.Project.CreateProject)
		projects.GET("/:pid", handlers.Project.GetProject)
		projects.DELETE("/:pid", handlers.Project.DeleteProject)

		// 蓝图
		projects.GET("/:pid/blueprint", handlers.Blueprint.GetBlueprint)
		projects.POST("/:pid/blueprint/approve", handlers.Blueprint.ApproveBlueprint)

		// 生成流水线 (SSE)
		generate := projects.Group("/:pid/generate")
		{
			generate.GET("/blueprint", handlers.Generate.GenerateBlueprint)
			generate.GET("/content", handlers.Generate.GenerateContent)
			generate.GET("/illustrations", handlers.Generate.GenerateIllustrations)
			generate.GET("/website", handlers.Generate.GenerateWebsite)
		}

		// 站点产物
		projects.GET("/:pid/preview/*filepath", handlers.Site.Preview)
		projects.GET("/:pid/download", handlers.Site.Download)
	}

	// 模型目录
	v1.GET("/models", handlers.Model.ListModels)
}
