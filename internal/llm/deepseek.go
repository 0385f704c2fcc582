package llm

import "strings"

const defaultDeepSeekBaseURL = "https://api.deepseek.com/v1"

type deepSeekConfig struct {
	APIKey  string `json:"api_key"`
	BaseURL string `json:"base_url"`
	Model   string `json:"model"`
}

func createDeepSeekClient(args interface{}) (Client, error) {
	cfg := &deepSeekConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultDeepSeekBaseURL
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "deepseek-chat"
	}
	return &openAICompatClient{
		name:        "deepseek",
		apiKey:      strings.TrimSpace(cfg.APIKey),
		baseURL:     baseURL,
		model:       model,
		temperature: 0.7,
		maxTokens:   1000,
	}, nil
}

func init() {
	Register("deepseek", createDeepSeekClient)
}
