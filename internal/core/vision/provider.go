package vision

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"recipe-inventory/internal/infrastructure/config"
	"recipe-inventory/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// analyzePrompt 要求模型以固定 JSON 結構回覆
const analyzePrompt = `請識別圖片中所有可見的食材，並只輸出下列 JSON 結構：
{
  "ingredients": [
    {"name": "番茄", "quantity": 2, "unit": "個", "confidence": "92%", "storage_days": 7,
     "fun_fact": "一句冷知識", "tip": "一條處理建議", "emoji": "🍅", "health_note": "一句營養說明"}
  ],
  "recipes": [{"name": "番茄炒蛋", "match_rate": "95%"}],
  "summary": "根據圖片共識別出X種食材"
}
要求：quantity 與 storage_days 必須是數字；依食材多寡推薦 1 到 5 道菜；模糊或被遮擋的食材標註「可能為XX」。`

// Provider 圖片識別模型
type Provider interface {
	// Complete 送出圖片與提示詞，回傳模型的文字回覆
	Complete(ctx context.Context, dataURI, prompt string) (string, error)

	// Model 目前使用的模型名稱
	Model() string
}

// ProviderError 模型服務回傳非 200 狀態
type ProviderError struct {
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("vision provider returned status %d: %s", e.StatusCode, e.Body)
}

// clientFault 請求本身有誤，重試也不會成功
func (e *ProviderError) clientFault() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500 && e.StatusCode != http.StatusTooManyRequests
}

// Client OpenAI 相容的 chat completions 客戶端
type Client struct {
	client    *resty.Client
	model     string
	maxTokens int
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// NewClient 創建模型客戶端
func NewClient(cfg config.VisionConfig) *Client {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Authorization", fmt.Sprintf("Bearer %s", cfg.APIKey)).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-Title", "Recipe Inventory")

	return &Client{
		client:    client,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}
}

// Model 目前使用的模型名稱
func (c *Client) Model() string {
	return c.model
}

// Complete 送出圖片與提示詞
func (c *Client) Complete(ctx context.Context, dataURI, prompt string) (string, error) {
	req := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{
				Role: "user",
				Content: []contentPart{
					{Type: "image_url", ImageURL: &imageURL{URL: dataURI}},
					{Type: "text", Text: prompt},
				},
			},
		},
		MaxTokens: c.maxTokens,
	}

	var result chatResponse
	start := time.Now()
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&result).
		Post("/chat/completions")
	if err != nil {
		common.LogVisionCall(c.model, time.Since(start), err)
		return "", fmt.Errorf("failed to send request to vision provider: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		perr := &ProviderError{StatusCode: resp.StatusCode(), Body: truncate(resp.String(), 512)}
		common.LogVisionCall(c.model, time.Since(start), perr)
		return "", perr
	}

	if len(result.Choices) == 0 || strings.TrimSpace(result.Choices[0].Message.Content) == "" {
		err := fmt.Errorf("no content in vision provider response")
		common.LogVisionCall(c.model, time.Since(start), err)
		return "", err
	}

	common.LogVisionCall(c.model, time.Since(start), nil)
	common.LogDebug("模型回覆",
		zap.String("model", c.model),
		zap.Int("content_length", len(result.Choices[0].Message.Content)),
	)
	return result.Choices[0].Message.Content, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
