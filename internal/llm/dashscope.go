package llm

import "strings"

const defaultDashScopeBaseURL = "https://dashscope.aliyuncs.com/compatible-mode/v1"

type dashScopeConfig struct {
	APIKey  string `json:"api_key"`
	BaseURL string `json:"base_url"`
	Model   string `json:"model"`
}

func createDashScopeClient(args interface{}) (Client, error) {
	cfg := &dashScopeConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultDashScopeBaseURL
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "qwen-plus"
	}
	return &openAICompatClient{
		name:        "dashscope",
		apiKey:      strings.TrimSpace(cfg.APIKey),
		baseURL:     baseURL,
		model:       model,
		temperature: 0.7,
		maxTokens:   1000,
	}, nil
}

func init() {
	Register("dashscope", createDashScopeClient)
}
