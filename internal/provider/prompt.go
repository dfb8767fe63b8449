package provider

import (
	"fmt"
	"strings"
)

const systemPrompt = `You summarize articles, videos and emails for a personal
digest. Reply with a concise summary of the content, then a final line of the
form "Tags: tag1, tag2, tag3" with up to five lowercase topic tags.`

// buildUserPrompt renders the request into the user message sent to the model.
func buildUserPrompt(req Request) string {
	var b strings.Builder
	if req.Title != "" {
		fmt.Fprintf(&b, "Title: %s\n", req.Title)
	}
	if req.URL != "" {
		fmt.Fprintf(&b, "URL: %s\n", req.URL)
	}
	if req.Language != "" {
		fmt.Fprintf(&b, "Respond in %s.\n", req.Language)
	}
	b.WriteString("\n")
	b.WriteString(req.Content)
	return b.String()
}

// parseSummary splits the model output into summary text and tags. The tags
// line is optional; everything else is kept verbatim.
func parseSummary(raw string) (string, []string) {
	lines := strings.Split(strings.TrimSpace(raw), "\n")
	var tags []string
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		lower := strings.ToLower(line)
		if !strings.HasPrefix(lower, "tags:") {
			break
		}
		for _, t := range strings.Split(line[len("tags:"):], ",") {
			t = strings.ToLower(strings.TrimSpace(t))
			t = strings.TrimPrefix(t, "#")
			if t != "" {
				tags = append(tags, t)
			}
		}
		lines = append(lines[:i], lines[i+1:]...)
		break
	}
	return strings.TrimSpace(strings.Join(lines, "\n")), tags
}
