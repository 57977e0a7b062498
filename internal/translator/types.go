package translator

import "strings"

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-3.5-turbo"
)

// Config is the endpoint and model used for one batch. Callers copy it
// before a batch starts and never mutate it afterwards.
type Config struct {
	BaseURL              string `mapstructure:"base_url" json:"base_url"`
	APIKey               string `mapstructure:"api_key" json:"-"`
	Model                string `mapstructure:"model" json:"model"`
	SystemPromptTemplate string `mapstructure:"system_prompt" json:"system_prompt"`
}

// Request is the pair of messages sent for one attempt.
type Request struct {
	System string
	User   string
}

func (c Config) endpoint(path string) string {
	base := strings.TrimRight(c.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	return base + path
}

func (c Config) model() string {
	if c.Model == "" {
		return DefaultModel
	}
	return c.Model
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
	Error *apiErrorBody `json:"error,omitempty"`
}

type apiErrorBody struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    any    `json:"code"`
}
