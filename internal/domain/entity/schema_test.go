package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentBlockUnmarshalByType(t *testing.T) {
	tests := []struct {
		name  string
		data  string
		check func(t *testing.T, b ContentBlock)
	}{
		{
			name: "prose",
			data: `{"type":"prose","heading":"背景","paragraphs":["first","second"]}`,
			check: func(t *testing.T, b ContentBlock) {
				require.NotNil(t, b.Prose)
				assert.Equal(t, "背景", b.Prose.Heading)
				assert.Equal(t, []string{"first", "second"}, b.Prose.Paragraphs)
			},
		},
		{
			name: "timeline",
			data: `{"type":"timeline","events":[{"date":"1969","title":"ARPANET","description":"first link"}]}`,
			check: func(t *testing.T, b ContentBlock) {
				require.NotNil(t, b.Timeline)
				require.Len(t, b.Timeline.Events, 1)
				assert.Equal(t, "1969", b.Timeline.Events[0].Date)
			},
		},
		{
			name: "table",
			data: `{"type":"table","columns":["Name","Year"],"rows":[["Go","2009"]]}`,
			check: func(t *testing.T, b ContentBlock) {
				require.NotNil(t, b.Table)
				assert.Equal(t, []string{"Name", "Year"}, b.Table.Columns)
				assert.Equal(t, [][]string{{"Go", "2009"}}, b.Table.Rows)
			},
		},
		{
			name: "callout",
			data: `{"type":"callout","title":"Note","content":"pay attention","style":"info"}`,
			check: func(t *testing.T, b ContentBlock) {
				require.NotNil(t, b.Callout)
				assert.Equal(t, "pay attention", b.Callout.Content)
				assert.Equal(t, "info", b.Callout.Style)
			},
		},
		{
			name: "key_stat",
			data: `{"type":"key_stat","value":"42%","label":"adoption","context":"2024 survey"}`,
			check: func(t *testing.T, b ContentBlock) {
				require.NotNil(t, b.KeyStat)
				assert.Equal(t, "42%", b.KeyStat.Value)
				assert.Equal(t, "adoption", b.KeyStat.Label)
			},
		},
		{
			name: "code",
			data: `{"type":"code","language":"go","code":"fmt.Println(1)"}`,
			check: func(t *testing.T, b ContentBlock) {
				require.NotNil(t, b.Code)
				assert.Equal(t, "go", b.Code.Language)
				assert.Equal(t, "fmt.Println(1)", b.Code.Code)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b ContentBlock
			require.NoError(t, json.Unmarshal([]byte(tt.data), &b))
			assert.Equal(t, BlockType(tt.name), b.Type)
			tt.check(t, b)
		})
	}
}

func TestContentBlockUnmarshalUnknownType(t *testing.T) {
	var b ContentBlock
	err := json.Unmarshal([]byte(`{"type":"video","url":"x"}`), &b)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown content block type")
}

func TestContentBlockMarshalRoundTrip(t *testing.T) {
	b := ContentBlock{
		Type: BlockTypeKeyStat,
		KeyStat: &KeyStatBlock{
			Value: "3.2B",
			Label: "users",
		},
	}
	raw, err := json.Marshal(b)
	require.NoError(t, err)

	var decoded ContentBlock
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, BlockTypeKeyStat, decoded.Type)
	require.NotNil(t, decoded.KeyStat)
	assert.Equal(t, "3.2B", decoded.KeyStat.Value)
	assert.Equal(t, "users", decoded.KeyStat.Label)
}

func TestContentBlockMarshalMissingPayload(t *testing.T) {
	// 类型已设置但负载为空指针时报错而非 panic
	_, err := json.Marshal(ContentBlock{Type: BlockTypeProse})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has no payload")
}

func TestContentBlockHasContent(t *testing.T) {
	tests := []struct {
		name string
		b    ContentBlock
		want bool
	}{
		{"prose with text", ContentBlock{Type: BlockTypeProse, Prose: &ProseBlock{Paragraphs: []string{"hello"}}}, true},
		{"prose whitespace only", ContentBlock{Type: BlockTypeProse, Prose: &ProseBlock{Paragraphs: []string{"  ", "\n"}}}, false},
		{"prose nil payload", ContentBlock{Type: BlockTypeProse}, false},
		{"timeline with events", ContentBlock{Type: BlockTypeTimeline, Timeline: &TimelineBlock{Events: []TimelineEvent{{Date: "1969"}}}}, true},
		{"timeline empty", ContentBlock{Type: BlockTypeTimeline, Timeline: &TimelineBlock{}}, false},
		{"table with rows", ContentBlock{Type: BlockTypeTable, Table: &TableBlock{Rows: [][]string{{"a"}}}}, true},
		{"table no rows", ContentBlock{Type: BlockTypeTable, Table: &TableBlock{Columns: []string{"a"}}}, false},
		{"callout with content", ContentBlock{Type: BlockTypeCallout, Callout: &CalloutBlock{Content: "x"}}, true},
		{"callout blank", ContentBlock{Type: BlockTypeCallout, Callout: &CalloutBlock{Content: " "}}, false},
		{"key stat complete", ContentBlock{Type: BlockTypeKeyStat, KeyStat: &KeyStatBlock{Value: "1", Label: "x"}}, true},
		{"key stat missing label", ContentBlock{Type: BlockTypeKeyStat, KeyStat: &KeyStatBlock{Value: "1"}}, false},
		{"code with body", ContentBlock{Type: BlockTypeCode, Code: &CodeBlock{Code: "x := 1"}}, true},
		{"code blank", ContentBlock{Type: BlockTypeCode, Code: &CodeBlock{}}, false},
		{"unknown type", ContentBlock{Type: "video"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.b.HasContent())
		})
	}
}

func TestChapterSchemaValidate(t *testing.T) {
	valid := ChapterSchema{
		ProjectID: "p1",
		ChapterID: "ch-1",
		Sections: []SectionSchema{
			{SectionID: "s1", Blocks: []ContentBlock{{Type: BlockTypeProse, Prose: &ProseBlock{Paragraphs: []string{"x"}}}}},
		},
	}
	assert.NoError(t, valid.Validate())

	noSections := ChapterSchema{ProjectID: "p1", ChapterID: "ch-1"}
	assert.Error(t, noSections.Validate())

	emptyBlocks := ChapterSchema{
		Sections: []SectionSchema{{SectionID: "s1"}},
	}
	assert.Error(t, emptyBlocks.Validate())
}

func TestChapterSchemaDropEmptyBlocks(t *testing.T) {
	c := ChapterSchema{
		Sections: []SectionSchema{
			{
				SectionID: "s1",
				Blocks: []ContentBlock{
					{Type: BlockTypeProse, Prose: &ProseBlock{Paragraphs: []string{"keep"}}},
					{Type: BlockTypeProse, Prose: &ProseBlock{Paragraphs: []string{"   "}}},
				},
			},
			{
				SectionID: "s2",
				Blocks: []ContentBlock{
					{Type: BlockTypeCallout, Callout: &CalloutBlock{Content: ""}},
				},
			},
		},
	}
	c.DropEmptyBlocks()

	require.Len(t, c.Sections, 1)
	assert.Equal(t, "s1", c.Sections[0].SectionID)
	require.Len(t, c.Sections[0].Blocks, 1)
	assert.Equal(t, "keep", c.Sections[0].Blocks[0].Prose.Paragraphs[0])
}
