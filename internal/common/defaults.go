// Package common provides shared utilities and default configuration.
package common

// DefaultKVValue represents a default key/value pair that is seeded on startup.
type DefaultKVValue struct {
	Key         string `json:"key"`
	Value       string `json:"value"`
	Description string `json:"description"`
}

// GetDefaultKVValues returns the list of default KV values seeded on startup.
// This is the single source of truth for default values.
func GetDefaultKVValues() []DefaultKVValue {
	return []DefaultKVValue{
		{
			Key:         "target_base_url",
			Value:       "https://www.xiaohongshu.com",
			Description: "Base URL used to establish a first-party context before cookie injection",
		},
		{
			Key:         "summary_prompt",
			Value:       "Summarize the following note in 3-5 sentences. Keep the original language of the note.\n\nTitle: {title}\n\nContent:\n{desc}",
			Description: "Prompt template for note summarization; {title} and {desc} are replaced at runtime",
		},
	}
}
