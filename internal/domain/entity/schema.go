package entity

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// BlockType 内容区块类型
type BlockType string

const (
	BlockTypeProse    BlockType = "prose"
	BlockTypeTimeline BlockType = "timeline"
	BlockTypeTable    BlockType = "table"
	BlockTypeCallout  BlockType = "callout"
	BlockTypeKeyStat  BlockType = "key_stat"
	BlockTypeCode     BlockType = "code"
)

// ContentBlock 章节内容区块，按 type 区分负载
// 各负载字段互斥，仅与类型匹配的字段有值
type ContentBlock struct {
	Type     BlockType      `json:"type"`
	Prose    *ProseBlock    `json:"-"`
	Timeline *TimelineBlock `json:"-"`
	Table    *TableBlock    `json:"-"`
	Callout  *CalloutBlock  `json:"-"`
	KeyStat  *KeyStatBlock  `json:"-"`
	Code     *CodeBlock     `json:"-"`
}

// ProseBlock 段落文本
type ProseBlock struct {
	Heading    string   `json:"heading,omitempty"`
	Paragraphs []string `json:"paragraphs"`
}

// TimelineEvent 时间线条目
type TimelineEvent struct {
	Date        string `json:"date"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// TimelineBlock 时间线
type TimelineBlock struct {
	Heading string          `json:"heading,omitempty"`
	Events  []TimelineEvent `json:"events"`
}

// TableBlock 表格
type TableBlock struct {
	Heading string     `json:"heading,omitempty"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// CalloutBlock 提示框
type CalloutBlock struct {
	Title   string `json:"title,omitempty"`
	Content string `json:"content"`
	Style   string `json:"style,omitempty"`
}

// KeyStatBlock 关键数据
type KeyStatBlock struct {
	Value   string `json:"value"`
	Label   string `json:"label"`
	Context string `json:"context,omitempty"`
}

// CodeBlock 代码块
type CodeBlock struct {
	Heading  string `json:"heading,omitempty"`
	Language string `json:"language,omitempty"`
	Code     string `json:"code"`
}

// UnmarshalJSON 按 type 字段解码对应负载
// 未知类型返回错误，驱动上游的格式校验重试
func (b *ContentBlock) UnmarshalJSON(data []byte) error {
	var env struct {
		Type BlockType `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	b.Type = env.Type

	switch env.Type {
	case BlockTypeProse:
		b.Prose = &ProseBlock{}
		return json.Unmarshal(data, b.Prose)
	case BlockTypeTimeline:
		b.Timeline = &TimelineBlock{}
		return json.Unmarshal(data, b.Timeline)
	case BlockTypeTable:
		b.Table = &TableBlock{}
		return json.Unmarshal(data, b.Table)
	case BlockTypeCallout:
		b.Callout = &CalloutBlock{}
		return json.Unmarshal(data, b.Callout)
	case BlockTypeKeyStat:
		b.KeyStat = &KeyStatBlock{}
		return json.Unmarshal(data, b.KeyStat)
	case BlockTypeCode:
		b.Code = &CodeBlock{}
		return json.Unmarshal(data, b.Code)
	default:
		return fmt.Errorf("unknown content block type: %q", env.Type)
	}
}

// MarshalJSON 将负载平铺回区块对象
func (b ContentBlock) MarshalJSON() ([]byte, error) {
	merge := func(payload any) ([]byte, error) {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		var m map[string]any
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, err
		}
		// 类型已设置但负载为 nil 时 m 保持 nil，直接写入会 panic
		if m == nil {
			return nil, fmt.Errorf("content block %q has no payload", b.Type)
		}
		m["type"] = b.Type
		return json.Marshal(m)
	}

	switch b.Type {
	case BlockTypeProse:
		return merge(b.Prose)
	case BlockTypeTimeline:
		return merge(b.Timeline)
	case BlockTypeTable:
		return merge(b.Table)
	case BlockTypeCallout:
		return merge(b.Callout)
	case BlockTypeKeyStat:
		return merge(b.KeyStat)
	case BlockTypeCode:
		return merge(b.Code)
	default:
		return nil, fmt.Errorf("unknown content block type: %q", b.Type)
	}
}

// HasContent 检查区块是否有实际内容
// 模型偶尔会产出空区块，渲染前丢弃
func (b *ContentBlock) HasContent() bool {
	switch b.Type {
	case BlockTypeProse:
		if b.Prose == nil {
			return false
		}
		for _, p := range b.Prose.Paragraphs {
			if strings.TrimSpace(p) != "" {
				return true
			}
		}
		return false
	case BlockTypeTimeline:
		return b.Timeline != nil && len(b.Timeline.Events) > 0
	case BlockTypeTable:
		return b.Table != nil && len(b.Table.Rows) > 0
	case BlockTypeCallout:
		return b.Callout != nil && strings.TrimSpace(b.Callout.Content) != ""
	case BlockTypeKeyStat:
		return b.KeyStat != nil && strings.TrimSpace(b.KeyStat.Value) != "" && strings.TrimSpace(b.KeyStat.Label) != ""
	case BlockTypeCode:
		return b.Code != nil && strings.TrimSpace(b.Code.Code) != ""
	}
	return false
}

// SectionSchema 单个小节的生成内容
type SectionSchema struct {
	SectionID string         `json:"section_id"`
	Blocks    []ContentBlock `json:"blocks"`
}

// ChapterSchema 单章生成结果，内容阶段的持久化单元
type ChapterSchema struct {
	ProjectID    string          `json:"project_id"`
	ChapterID    string          `json:"chapter_id"`
	Introduction []string        `json:"introduction"`
	Sections     []SectionSchema `json:"sections"`
	ImagePath    string          `json:"image_path,omitempty"`
	OrderIndex   int             `json:"order_index"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Validate 校验章节结构完整性
func (c *ChapterSchema) Validate() error {
	if len(c.Sections) == 0 {
		return fmt.Errorf("chapter schema requires sections")
	}
	for i := range c.Sections {
		if len(c.Sections[i].Blocks) == 0 {
			return fmt.Errorf("section %d: blocks are required", i)
		}
	}
	return nil
}

// DropEmptyBlocks 丢弃无内容的区块和空小节
func (c *ChapterSchema) DropEmptyBlocks() {
	sections := c.Sections[:0]
	for _, sec := range c.Sections {
		blocks := sec.Blocks[:0]
		for _, b := range sec.Blocks {
			if b.HasContent() {
				blocks = append(blocks, b)
			}
		}
		sec.Blocks = blocks
		if len(sec.Blocks) > 0 {
			sections = append(sections, sec)
		}
	}
	c.Sections = sections
}

// SiteSchema 整站结构，渲染阶段的输入
type SiteSchema struct {
	Project          *Project        `json:"project"`
	Blueprint        *Blueprint      `json:"blueprint"`
	Chapters         []ChapterSchema `json:"chapters"`
	LandingImagePath string          `json:"landing_image_path,omitempty"`
}
