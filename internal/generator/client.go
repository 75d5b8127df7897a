// Package generator は外部チャット補完バックエンドを用いた運勢生成を提供する。
package generator

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/fortunecrack/server/internal/model"
)

// CompletionClient はチャット補完バックエンドの抽象。
// テストではモック実装を注入する。
type CompletionClient interface {
	// CreateCompletion はメッセージ列を送信し、応答本文を返す。
	// jsonObjectがtrueの場合、JSONオブジェクト形式の応答を要求する。
	CreateCompletion(ctx context.Context, messages []model.ChatMessage, temperature float32, jsonObject bool) (string, error)
}

// Client はOpenAI互換APIへのチャット補完クライアント。
// BaseURLを差し替えることでGroq等の互換エンドポイントにも接続できる。
type Client struct {
	api       *openai.Client
	modelName string
}

// ClientConfig はClientの接続設定。
type ClientConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// NewClient は新しいClientを生成する。
// APIキーと接続先URLのどちらも未設定の場合は設定エラーを返す。
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.APIKey == "" && cfg.BaseURL == "" {
		return nil, model.NewGeneratorNotConfiguredError("APIキーと接続先URLのどちらも設定されていません")
	}

	conf := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		conf.BaseURL = cfg.BaseURL
	}

	return &Client{
		api:       openai.NewClientWithConfig(conf),
		modelName: cfg.Model,
	}, nil
}

// CreateCompletion はチャット補完を実行して応答本文を返す。
func (c *Client) CreateCompletion(ctx context.Context, messages []model.ChatMessage, temperature float32, jsonObject bool) (string, error) {
	chatMessages := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		chatMessages = append(chatMessages, openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}

	req := openai.ChatCompletionRequest{
		Model:       c.modelName,
		Messages:    chatMessages,
		Temperature: temperature,
	}
	if jsonObject {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}

var _ CompletionClient = (*Client)(nil)

// DisabledClient はバックエンド未設定時に使用するクライアント。
// 常に設定エラーを返すため、運勢生成もチャットも
// GENERATOR_NOT_CONFIGUREDエラーとして呼び出し元に返る。
type DisabledClient struct{}

// CreateCompletion は常に設定エラーを返す。
func (DisabledClient) CreateCompletion(_ context.Context, _ []model.ChatMessage, _ float32, _ bool) (string, error) {
	return "", model.NewGeneratorNotConfiguredError("生成バックエンドが設定されていません")
}

var _ CompletionClient = DisabledClient{}
