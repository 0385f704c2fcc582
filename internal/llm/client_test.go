package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeClient struct{}

func (fakeClient) Name() string { return "fake" }

func (fakeClient) GetCompletion(ctx context.Context, messages []Message) (string, error) {
	return "ok", nil
}

func TestNew_EmptyProvider(t *testing.T) {
	_, err := New("", nil)
	require.Error(t, err)
}

func TestNew_UnknownProvider(t *testing.T) {
	_, err := New("no-such-provider", nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "no-such-provider")
}

func TestNew_RegisteredProvider(t *testing.T) {
	Register("fake-test", func(args interface{}) (Client, error) {
		return fakeClient{}, nil
	})
	client, err := New("Fake-Test", nil)
	require.NoError(t, err)
	require.Equal(t, "fake", client.Name())
}

func TestNew_BuiltinProviders(t *testing.T) {
	for _, name := range []string{"deepseek", "dashscope"} {
		client, err := New(name, map[string]interface{}{"api_key": "k"})
		require.NoError(t, err)
		require.Equal(t, name, client.Name())
	}
}

func TestDecodeConfig_NilArgs(t *testing.T) {
	cfg := &deepSeekConfig{}
	require.Error(t, decodeConfig(nil, cfg))
}

func TestDecodeConfig_RoundTrip(t *testing.T) {
	cfg := &deepSeekConfig{}
	err := decodeConfig(map[string]interface{}{
		"api_key":  "secret",
		"base_url": "http://example.test/v1",
		"model":    "m1",
	}, cfg)
	require.NoError(t, err)
	require.Equal(t, "secret", cfg.APIKey)
	require.Equal(t, "http://example.test/v1", cfg.BaseURL)
	require.Equal(t, "m1", cfg.Model)
}
