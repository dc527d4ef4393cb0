package llm

// ModelInfo 可用模型及计价信息
// 计价单位为每百万 token 的美元价格
type ModelInfo struct {
	ID            string  `json:"id"`
	DisplayName   string  `json:"display_name"`
	InputPerM     float64 `json:"input_per_m"`
	OutputPerM    float64 `json:"output_per_m"`
	ContextWindow int     `json:"context_window"`
}

// Catalog 模型目录
// 接受模型 ID 或展示名，目录外的请求回退到首个模型
type Catalog struct {
	models []ModelInfo
	byID   map[string]ModelInfo
	byName map[string]string
}

// NewCatalog 创建内置模型目录
func NewCatalog() *Catalog {
	models := []ModelInfo{
		{ID: "x-ai/grok-code-fast-1", DisplayName: "xAI: Grok Code Fast", InputPerM: 0.20, OutputPerM: 1.50, ContextWindow: 256_000},
		{ID: "google/gemini-2.5-flash", DisplayName: "Google: Gemini 2.5 Flash", InputPerM: 0.30, OutputPerM: 2.50, ContextWindow: 1_048_576},
		{ID: "anthropic/claude-sonnet-4.5", DisplayName: "Anthropic: Claude Sonnet 4.5", InputPerM: 3.00, OutputPerM: 15.00, ContextWindow: 1_000_000},
		{ID: "xiaomi/mimo-v2-flash:free", DisplayName: "Xiaomi: MiMo-V2-Flash (Free)", InputPerM: 0.00, OutputPerM: 0.00, ContextWindow: 262_144},
		{ID: "deepseek/deepseek-v3.2", DisplayName: "DeepSeek: DeepSeek V3.2", InputPerM: 0.25, OutputPerM: 0.38, ContextWindow: 163_840},
		{ID: "google/gemini-3-flash-preview", DisplayName: "Google: Gemini 3 Flash Preview", InputPerM: 0.50, OutputPerM: 3.00, ContextWindow: 1_048_576},
		{ID: "x-ai/grok-4.1-fast", DisplayName: "xAI: Grok 4.1 Fast", InputPerM: 0.20, OutputPerM: 0.50, ContextWindow: 2_000_000},
		{ID: "anthropic/claude-opus-4.5", DisplayName: "Anthropic: Claude Opus 4.5", InputPerM: 5.00, OutputPerM: 25.00, ContextWindow: 200_000},
		{ID: "google/gemini-2.5-flash-lite", DisplayName: "Google: Gemini 2.5 Flash Lite", InputPerM: 0.10, OutputPerM: 0.40, ContextWindow: 1_048_576},
	}

	byID := make(map[string]ModelInfo, len(models))
	byName := make(map[string]string, len(models))
	for _, m := range models {
		byID[m.ID] = m
		byName[m.DisplayName] = m.ID
	}

	return &Catalog{
		models: models,
		byID:   byID,
		byName: byName,
	}
}

// List 返回全部可用模型
func (c *Catalog) List() []ModelInfo {
	out := make([]ModelInfo, len(c.models))
	copy(out, c.models)
	return out
}

// Resolve 将模型 ID 或展示名解析为目录内的模型 ID
// 目录外的值回退到首个模型，保证请求始终落在许可列表内
func (c *Catalog) Resolve(nameOrID string) string {
	if id, ok := c.byName[nameOrID]; ok {
		return id
	}
	if _, ok := c.byID[nameOrID]; ok {
		return nameOrID
	}
	return c.models[0].ID
}

// Pricing 获取模型计价信息
func (c *Catalog) Pricing(modelID string) (ModelInfo, bool) {
	m, ok := c.byID[modelID]
	return m, ok
}
