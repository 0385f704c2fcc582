package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

type geminiConfig struct {
	APIKey string `json:"api_key"`
	Model  string `json:"model"`
}

type geminiClient struct {
	apiKey string
	model  string
}

func (c *geminiClient) Name() string {
	return "gemini"
}

func (c *geminiClient) GetCompletion(ctx context.Context, messages []Message) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("gemini api key not configured")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  c.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", err
	}
	// Gemini has no separate system role in this call shape; fold every
	// message into ordered user content.
	contents := make([]*genai.Content, 0, len(messages))
	for _, msg := range messages {
		contents = append(contents, &genai.Content{
			Parts: []*genai.Part{{Text: msg.Content}},
		})
	}
	resp, err := client.Models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Text()), nil
}

func createGeminiClient(args interface{}) (Client, error) {
	cfg := &geminiConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &geminiClient{
		apiKey: strings.TrimSpace(cfg.APIKey),
		model:  model,
	}, nil
}

func init() {
	Register("gemini", createGeminiClient)
}
