// Package sitefs 管理生成站点在本地磁盘上的产物
package sitefs

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"z-site-gen-api/pkg/metrics"
)

// Store 站点产物存储
// 目录布局: <workspace>/<project_id>/{index.html,chapter_N.html,styles.css,images/}
type Store struct {
	workspace string
}

// NewStore 创建站点产物存储
func NewStore(workspace string) (*Store, error) {
	if workspace == "" {
		workspace = "workspace"
	}
	abs, err := filepath.Abs(workspace)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve workspace path: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}
	return &Store{workspace: abs}, nil
}

// ProjectDir 项目产物目录
func (s *Store) ProjectDir(projectID string) string {
	return filepath.Join(s.workspace, projectID)
}

// WriteFile 写入站点文件，相对项目目录
func (s *Store) WriteFile(projectID, name string, data []byte) error {
	path, err := s.resolve(projectID, name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create site directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write site file %s: %w", name, err)
	}
	metrics.SiteFilesRendered.Inc()
	return nil
}

// WriteImage 保存插图，返回站点内的相对路径
func (s *Store) WriteImage(projectID, name string, data []byte) (string, error) {
	rel := filepath.ToSlash(filepath.Join("images", name))
	if err := s.WriteFile(projectID, rel, data); err != nil {
		return "", err
	}
	return rel, nil
}

// HasImage 检查插图是否已存在
func (s *Store) HasImage(projectID, name string) bool {
	path, err := s.resolve(projectID, filepath.Join("images", name))
	if err != nil {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// CleanRendered 清理渲染产物，保留 images 目录
// 渲染阶段是确定性的，重跑前清掉旧的 html/css
func (s *Store) CleanRendered(projectID string) error {
	dir := s.ProjectDir(projectID)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read project dir: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasSuffix(name, ".html") || strings.HasSuffix(name, ".css") {
			if err := os.Remove(filepath.Join(dir, name)); err != nil {
				return fmt.Errorf("failed to remove %s: %w", name, err)
			}
		}
	}
	return nil
}

// Open 打开站点文件用于预览，拒绝越出项目目录的路径
func (s *Store) Open(projectID, name string) (*os.File, error) {
	path, err := s.resolve(projectID, name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.IsDir() {
		f.Close()
		return nil, fs.ErrNotExist
	}
	return f, nil
}

// Exists 检查项目是否有渲染产物
func (s *Store) Exists(projectID string) bool {
	info, err := os.Stat(filepath.Join(s.ProjectDir(projectID), "index.html"))
	return err == nil && !info.IsDir()
}

// Zip 将项目全部产物打包写入 w
func (s *Store) Zip(ctx context.Context, projectID string, w io.Writer) error {
	dir := s.ProjectDir(projectID)
	zw := zip.NewWriter(w)

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		entry, err := zw.Create(filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(entry, f)
		return err
	})
	if err != nil {
		zw.Close()
		return fmt.Errorf("failed to zip site: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finalize zip: %w", err)
	}
	return nil
}

// Delete 删除项目全部产物
func (s *Store) Delete(projectID string) error {
	dir := s.ProjectDir(projectID)
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to delete site dir: %w", err)
	}
	return nil
}

// resolve 将相对路径解析到项目目录内，拦截路径穿越
func (s *Store) resolve(projectID, name string) (string, error) {
	if projectID == "" || strings.ContainsAny(projectID, `/\`) {
		return "", fmt.Errorf("invalid project id: %q", projectID)
	}
	dir := s.ProjectDir(projectID)
	path := filepath.Join(dir, filepath.FromSlash(name))
	if path != dir && !strings.HasPrefix(path, dir+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes project dir: %q", name)
	}
	return path, nil
}
