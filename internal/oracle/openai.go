// Package oracle はキャラクター名からヒント文を生成する外部サービスとの連携を提供します
package oracle

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

const (
	DefaultModel = openai.GPT3Dot5Turbo
	hintPrefix   = "🤖 Referee: "
	maxTokens    = 60
)

// ErrEmptyCompletion はモデルが空の応答を返した場合のエラー
var ErrEmptyCompletion = errors.New("oracle: empty completion")

// OpenAIConfig はOpenAI互換APIの接続設定です
type OpenAIConfig struct {
	APIKey  string // APIキー（空の場合はヒント生成を無効化）
	Model   string // モデル名
	BaseURL string // OpenAI互換エンドポイント（空の場合は公式API）
}

// OpenAIOracle はChat Completions APIでヒント文を生成します
type OpenAIOracle struct {
	client *openai.Client
	model  string
}

// NewOpenAIOracle は新しいOpenAIOracleを作成します
// APIキーが未設定の場合はnilを返し、呼び出し側は常にフォールバックを使います
func NewOpenAIOracle(cfg OpenAIConfig) *OpenAIOracle {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil
	}
	c := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		c.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	return &OpenAIOracle{client: openai.NewClientWithConfig(c), model: model}
}

// Hint はキャラクター名についての謎めいたヒントを1つ生成します
func (o *OpenAIOracle) Hint(ctx context.Context, name string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf("Give a cryptic hint about %q.", name)},
		},
		MaxTokens: maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("oracle: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyCompletion
	}
	return hintPrefix + text, nil
}
