// Package imagegen 提供图片生成服务客户端
package imagegen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"z-site-gen-api/internal/config"
	"z-site-gen-api/pkg/metrics"
)

// Client 图片生成客户端
// 未配置 API Key 时禁用，调用方按可跳过处理
type Client struct {
	apiKey      string
	baseURL     string
	aspectRatio string
	resolution  string
	httpClient  *http.Client
}

type generateRequest struct {
	Prompt       string `json:"prompt"`
	NumImages    int    `json:"num_images"`
	AspectRatio  string `json:"aspect_ratio"`
	OutputFormat string `json:"output_format"`
	Resolution   string `json:"resolution"`
}

type generateResponse struct {
	Images []struct {
		URL         string `json:"url"`
		ContentType string `json:"content_type"`
	} `json:"images"`
	Description string `json:"description"`
}

// NewClient 创建图片生成客户端
func NewClient(cfg *config.ImageGenConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	aspectRatio := cfg.AspectRatio
	if aspectRatio == "" {
		aspectRatio = "16:9"
	}
	resolution := cfg.Resolution
	if resolution == "" {
		resolution = "1K"
	}
	return &Client{
		apiKey:      cfg.APIKey,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		aspectRatio: aspectRatio,
		resolution:  resolution,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Enabled 服务是否可用
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

// Generate 根据提示词生成一张图片，返回图片字节和扩展名
func (c *Client) Generate(ctx context.Context, prompt string) (data []byte, ext string, err error) {
	if !c.Enabled() {
		return nil, "", fmt.Errorf("image generation is disabled")
	}

	start := time.Now()
	data, ext, err = c.doGenerate(ctx, prompt)
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.ImageGenTotal.WithLabelValues(status).Inc()
	metrics.ImageGenDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())
	return data, ext, err
}

func (c *Client) doGenerate(ctx context.Context, prompt string) ([]byte, string, error) {
	reqBody, err := json.Marshal(&generateRequest{
		Prompt:       prompt,
		NumImages:    1,
		AspectRatio:  c.aspectRatio,
		OutputFormat: "png",
		Resolution:   c.resolution,
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to marshal image request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/fal-ai/nano-banana-pro", bytes.NewReader(reqBody))
	if err != nil {
		return nil, "", fmt.Errorf("failed to create image request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Key "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, "", fmt.Errorf("image request failed: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(httpResp.Body, 2048))
		return nil, "", fmt.Errorf("image request failed: status=%d body=%s", httpResp.StatusCode, string(body))
	}

	var resp generateResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, "", fmt.Errorf("failed to decode image response: %w", err)
	}
	if len(resp.Images) == 0 || resp.Images[0].URL == "" {
		return nil, "", fmt.Errorf("image response contains no images")
	}

	img := resp.Images[0]
	ext := "png"
	if parts := strings.SplitN(img.ContentType, "/", 2); len(parts) == 2 && parts[1] != "" {
		ext = parts[1]
	}

	data, err := c.download(ctx, img.URL)
	if err != nil {
		return nil, "", err
	}
	return data, ext, nil
}

// download 拉取生成好的图片内容
func (c *Client) download(ctx context.Context, url string) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create download request: %w", err)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("image download failed: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image download failed: status=%d", httpResp.StatusCode)
	}

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image body: %w", err)
	}
	return data, nil
}
