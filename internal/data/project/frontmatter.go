package project

import (
	"strings"

	"gopkg.in/yaml.v3"
)

const frontmatterFence = "---"

// ParseMarkdown splits a command or agent file into its frontmatter metadata
// and body. Files without a leading fence have empty metadata and the whole
// text as body. Frontmatter that is not a YAML mapping falls back to
// "key: value" line splitting.
func ParseMarkdown(text string) (map[string]any, string) {
	metadata := map[string]any{}
	if !strings.HasPrefix(text, frontmatterFence) {
		return metadata, text
	}

	parts := strings.SplitN(text, frontmatterFence, 3)
	if len(parts) < 3 {
		return metadata, text
	}

	header := strings.TrimSpace(parts[1])
	body := strings.TrimSpace(parts[2])
	if header == "" {
		return metadata, body
	}

	var decoded map[string]any
	if err := yaml.Unmarshal([]byte(header), &decoded); err == nil && decoded != nil {
		return decoded, body
	}
	return splitKeyValues(header), body
}

func splitKeyValues(header string) map[string]any {
	metadata := map[string]any{}
	for _, line := range strings.Split(header, "\n") {
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		metadata[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return metadata
}
