package contentai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Starship01-akaSniper/youtube-shorts-automation/internal/pipeline"
)

const metadataPrompt = `You are a YouTube Shorts optimization expert. Based on the following video script, generate:

1. A catchy, engaging title (max 100 characters) that will get clicks
2. A detailed description (2-3 sentences) optimized for SEO
3. 10 relevant tags for YouTube search
4. 5 trending hashtags

Video Script:
%s

Return ONLY a JSON object in this exact format:
{
    "title": "Your catchy title here",
    "description": "Your SEO-optimized description here",
    "tags": ["tag1", "tag2", "tag3"],
    "hashtags": ["#hashtag1", "#hashtag2"]
}`

func buildPrompt(script string) string {
	return fmt.Sprintf(metadataPrompt, script)
}

// parseMetadata decodes the model's JSON reply, tolerating markdown code
// fences around the payload.
func parseMetadata(raw string) (*pipeline.Metadata, error) {
	cleaned := raw
	if idx := strings.Index(cleaned, "```json"); idx >= 0 {
		cleaned = cleaned[idx+len("```json"):]
		if end := strings.Index(cleaned, "```"); end >= 0 {
			cleaned = cleaned[:end]
		}
	} else if idx := strings.Index(cleaned, "```"); idx >= 0 {
		cleaned = cleaned[idx+len("```"):]
		if end := strings.Index(cleaned, "```"); end >= 0 {
			cleaned = cleaned[:end]
		}
	}

	var metadata pipeline.Metadata
	if err := json.Unmarshal([]byte(strings.TrimSpace(cleaned)), &metadata); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	if strings.TrimSpace(metadata.Title) == "" {
		return nil, fmt.Errorf("metadata is missing a title")
	}
	return &metadata, nil
}
