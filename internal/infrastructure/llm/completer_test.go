package llm

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type replyFixture struct {
	Title    string   `json:"title"`
	Chapters []string `json:"chapters"`
}

func (r *replyFixture) Validate() error {
	if r.Title == "" {
		return fmt.Errorf("title is required")
	}
	return nil
}

func TestDecodeReply(t *testing.T) {
	var out replyFixture
	require.NoError(t, decodeReply(`{"title": "Go", "chapters": ["intro"]}`, &out))
	assert.Equal(t, "Go", out.Title)
	assert.Equal(t, []string{"intro"}, out.Chapters)
}

func TestDecodeReplyDropsStaleFields(t *testing.T) {
	// 重试时目标里可能残留上一次失败尝试的字段，成功解码后不应保留
	out := replyFixture{Title: "old", Chapters: []string{"stale"}}
	require.NoError(t, decodeReply(`{"title": "new"}`, &out))
	assert.Equal(t, "new", out.Title)
	assert.Nil(t, out.Chapters)
}

func TestDecodeReplyKeepsTargetOnFailure(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "格式非法", raw: `{"title": `},
		{name: "校验失败", raw: `{"chapters": ["intro"]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := replyFixture{Title: "kept"}
			require.Error(t, decodeReply(tt.raw, &out))
			assert.Equal(t, "kept", out.Title)
		})
	}
}

func TestDecodeReplyRequiresPointer(t *testing.T) {
	var out replyFixture
	assert.Error(t, decodeReply(`{}`, out))
	assert.Error(t, decodeReply(`{}`, (*replyFixture)(nil)))
}
