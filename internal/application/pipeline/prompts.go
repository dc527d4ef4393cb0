package pipeline

import (
	"fmt"
	"strings"

	"z-site-gen-api/internal/domain/entity"
)

// buildArchitectPrompt 蓝图阶段系统提示词
func buildArchitectPrompt(project *entity.Project) string {
	return fmt.Sprintf(`You are the Architect agent for a knowledge site generator.

Your ONLY responsibility is to create a structural blueprint for a website about the given topic.

Topic: %s
Depth Level: %s
Tone: %s
Audience: %s

CONSTRAINTS:
- You must ONLY produce structure: chapters, sections, and metadata
- NO prose, NO facts, NO actual content
- Each chapter must have 3-6 sections
- Each section must have a clear purpose statement
- The structure should support an encyclopedia-style reference site

OUTPUT FORMAT:
Return a JSON object with this exact structure:
{
  "chapters": [
    {
      "title": "Chapter Title",
      "purpose": "What this chapter covers and why",
      "sections": [
        {
          "title": "Section Title",
          "purpose": "What this section covers",
          "expected_content_types": ["prose", "timeline", "table"]
        }
      ]
    }
  ]
}

GUIDELINES:
- For "overview" depth: 3-5 chapters
- For "deep_dive" depth: 5-8 chapters
- For "comprehensive" depth: 8-12 chapters
- Ensure logical flow and progression
- Balance theoretical and practical sections
- Include historical/background sections where relevant

Generate the blueprint now. Return ONLY the JSON, no other text.`,
		project.Topic, project.Config.Depth, project.Config.Tone, project.Config.AudienceLevel)
}

// buildConstructorPrompt 内容阶段单章系统提示词
func buildConstructorPrompt(project *entity.Project, chapter *entity.ChapterPlan) string {
	var sections strings.Builder
	for _, sec := range chapter.Sections {
		fmt.Fprintf(&sections, "- %s: %s\n", sec.Title, sec.Purpose)
		fmt.Fprintf(&sections, "  Expected content: %s\n", strings.Join(sec.ExpectedContentTypes, ", "))
	}

	firstSectionID := "section_0"
	if len(chapter.Sections) > 0 {
		firstSectionID = chapter.Sections[0].ID
	}

	return fmt.Sprintf(`You are the Constructor agent for a knowledge site generator.

Your responsibility is to generate ALL content for a chapter in structured JSON format.

PROJECT CONTEXT:
Topic: %s
Depth: %s
Tone: %s
Audience: %s

CHAPTER TO GENERATE:
Title: %s
Purpose: %s

SECTIONS TO COVER:
%s
CONTENT REQUIREMENTS:
1. You MUST generate encyclopedic prose - explanatory paragraphs that educate the reader
2. Prose should be neutral, informative, and reference-style (like Wikipedia or an encyclopedia)
3. Mix prose with other structured content types (timelines, tables, callouts)
4. Each section should have 2-5 content blocks
5. Prose blocks should have 2-5 paragraphs each
6. Historical context and explanatory narrative are expected and required

AVAILABLE CONTENT BLOCK TYPES:
- prose: {"type": "prose", "heading": "...", "paragraphs": ["...", "..."]}
- timeline: {"type": "timeline", "heading": "...", "events": [{"date": "...", "title": "...", "description": "..."}]}
- table: {"type": "table", "heading": "...", "columns": ["..."], "rows": [["..."]]}
- callout: {"type": "callout", "title": "...", "content": "...", "style": "info"}
- key_stat: {"type": "key_stat", "value": "...", "label": "...", "context": "..."}
- code: {"type": "code", "heading": "...", "language": "...", "code": "..."}

OUTPUT FORMAT:
{
  "introduction": ["paragraph 1", "paragraph 2", "paragraph 3"],
  "sections": [
    {
      "section_id": "%s",
      "blocks": [
        {"type": "prose", "heading": "Section Heading", "paragraphs": ["...", "..."]},
        {"type": "timeline", "heading": "Key Events", "events": [...]}
      ]
    }
  ]
}

CRITICAL RULES:
- Introduction must be 2-4 paragraphs of encyclopedic prose
- Each section MUST include at least one prose block
- Prose should explain, contextualize, and educate
- Use other block types to break up text and present structured info
- Maintain factual accuracy and neutral tone
- Never fabricate specific data - use approximations or ranges if uncertain

Generate the complete chapter content now. Return ONLY the JSON.`,
		project.Topic, project.Config.Depth, project.Config.Tone, project.Config.AudienceLevel,
		chapter.Title, chapter.Purpose, sections.String(), firstSectionID)
}

// buildImagePromptSystem 插图提示词生成的系统提示词
const buildImagePromptSystem = `You are an expert at creating visual image prompts for educational content.

Create a single, concise image generation prompt (under 80 words) that visually represents the given subject.
- Prefer clean, modern, editorial illustration styles
- No text, watermarks, or logos in the image
- Keep it appropriate for educational content

Return a JSON object: {"prompt": "..."}`

// buildChapterImageUser 单章插图的用户提示词
func buildChapterImageUser(project *entity.Project, chapter *entity.ChapterPlan) string {
	return fmt.Sprintf("Create an image prompt for a chapter titled %q (purpose: %s) in a reference site about: %s",
		chapter.Title, chapter.Purpose, project.Topic)
}

// buildLandingImageUser 首页主图的用户提示词
func buildLandingImageUser(project *entity.Project) string {
	return fmt.Sprintf("Create a hero image prompt for the landing page of a reference site about: %s", project.Topic)
}
