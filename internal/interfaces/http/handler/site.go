// Package handler 提供 HTTP 请求处理器
package handler

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"z-site-gen-api/internal/infrastructure/sitefs"
	"z-site-gen-api/internal/interfaces/http/dto"
	"z-site-gen-api/pkg/logger"
)

// SiteHandler 站点产物处理器，提供预览与打包下载
type SiteHandler struct {
	store *sitefs.Store
}

// NewSiteHandler 创建站点产物处理器
func NewSiteHandler(store *sitefs.Store) *SiteHandler {
	return &SiteHandler{
		store: store,
	}
}

// Preview 预览站点文件
// @Summary 预览站点文件
// @Description 静态返回渲染产物，路径为空时返回 index.html
// @Tags Sites
// @Param pid path string true "项目 ID"
// @Param filepath path string false "站点内文件路径"
// @Success 200 "file content"
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/projects/{pid}/preview/{filepath} [get]
func (h *SiteHandler) Preview(c *gin.Context) {
	projectID := c.Param("pid")

	if !h.store.Exists(projectID) {
		dto.NotFound(c, "site not rendered yet")
		return
	}

	name := strings.TrimPrefix(c.Param("filepath"), "/")
	if name == "" {
		name = "index.html"
	}

	f, err := h.store.Open(projectID, name)
	if err != nil {
		dto.NotFound(c, "file not found")
		return
	}
	defer f.Close()

	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Type", contentType)
	c.Status(http.StatusOK)

	if _, err := io.Copy(c.Writer, f); err != nil {
		logger.Warn(c.Request.Context(), "failed to stream site file",
			"project_id", projectID,
			"file", name,
			"error", err,
		)
	}
}

// Download 下载站点压缩包
// @Summary 下载站点压缩包
// @Description 将渲染产物打包为 zip 下载
// @Tags Sites
// @Produce application/zip
// @Param pid path string true "项目 ID"
// @Success 200 "zip archive"
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/projects/{pid}/download [get]
func (h *SiteHandler) Download(c *gin.Context) {
	ctx := c.Request.Context()
	projectID := c.Param("pid")

	if !h.store.Exists(projectID) {
		dto.NotFound(c, "site not rendered yet")
		return
	}

	c.Header("Content-Type", "application/zip")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="site_%s.zip"`, projectID))
	c.Status(http.StatusOK)

	if err := h.store.Zip(ctx, projectID, c.Writer); err != nil {
		logger.Error(ctx, "failed to build site archive", err, "project_id", projectID)
	}
}
