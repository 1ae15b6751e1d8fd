// Package enrich 对排序后的文章做逐条翻译与摘要。
// 单条失败只降级为保留原文，绝不把文章从结果中剔除。
package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Summarizer 将一篇文章的原文内容生成本地语言摘要。
type Summarizer interface {
	Summarize(ctx context.Context, title, body string) (string, error)
}

// OpenAISummarizer 通过 OpenAI 兼容的 chat completions API 翻译并摘要。
type OpenAISummarizer struct {
	apiURL    string
	apiKey    string
	model     string
	maxTokens int
	client    *http.Client
}

// NewOpenAISummarizer 创建摘要器。
func NewOpenAISummarizer(apiURL, apiKey, model string, maxTokens int) *OpenAISummarizer {
	return &OpenAISummarizer{
		apiURL:    apiURL,
		apiKey:    apiKey,
		model:     model,
		maxTokens: maxTokens,
		client:    &http.Client{Timeout: 60 * time.Second},
	}
}

const summarizePrompt = "你是新闻翻译与摘要助手。把用户给出的英文新闻翻译成中文，并用 3-4 句话简洁地概括核心内容，不要遗漏关键事实。"

// chatRequest 发送到 chat completions 接口的 JSON 请求体。
type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Summarize 调用 API 生成中文摘要。内容过短时原样返回。
func (s *OpenAISummarizer) Summarize(ctx context.Context, title, body string) (string, error) {
	text := title
	if body != "" {
		text += "\n\n" + body
	}
	if len(text) < 50 {
		return text, nil
	}
	// 过长的内容截断，避免超出 token 限制
	if len(text) > 4000 {
		text = text[:4000]
	}

	reqBody := chatRequest{
		Model: s.model,
		Messages: []chatMessage{
			{Role: "system", Content: summarizePrompt},
			{Role: "user", Content: text},
		},
		MaxTokens: s.maxTokens,
	}
	data, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("[enrich] 序列化请求体失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.apiURL+"/chat/completions", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("[enrich] 创建请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("[enrich] 请求失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("[enrich] API 返回状态码 %d: %s", resp.StatusCode, string(body))
	}

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", fmt.Errorf("[enrich] 解析响应失败: %w", err)
	}
	if len(cr.Choices) == 0 {
		return "", fmt.Errorf("[enrich] 响应中没有结果")
	}
	return cr.Choices[0].Message.Content, nil
}
