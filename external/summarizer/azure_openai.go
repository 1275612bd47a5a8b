package summarizer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kotobalab/tsuyaku/internal/summarizer"
)

const (
	requestTimeout = 60 * time.Second

	systemPrompt = "你是一個專業的會議摘要助手。請根據提供的逐字稿內容，生成一份簡潔且結構化的摘要，包含主要討論點、重要決策和行動項目。使用繁體中文回應。"
	userPrompt   = "請為以下內容生成摘要：\n\n%s"
)

type AzureOpenAIConfig struct {
	Key        string
	Endpoint   string
	Deployment string
	APIVersion string
}

// AzureOpenAIClient generates summaries through the chat completions API
// of an Azure OpenAI deployment. Single-shot: no streaming, no multi-turn
// context, no retry.
type AzureOpenAIClient struct {
	cfg    AzureOpenAIConfig
	client *http.Client
}

func NewAzureOpenAIClient(cfg AzureOpenAIConfig) summarizer.Summarizer {
	return &AzureOpenAIClient{
		cfg:    cfg,
		client: &http.Client{Timeout: requestTimeout},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *AzureOpenAIClient) Summarize(ctx context.Context, lines []string) (string, error) {
	if c.cfg.Key == "" || c.cfg.Endpoint == "" || c.cfg.Deployment == "" {
		return "", summarizer.ErrNotConfigured
	}

	body, err := json.Marshal(chatRequest{
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: fmt.Sprintf(userPrompt, strings.Join(lines, "\n"))},
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: encode request", summarizer.ErrSummaryFailed)
	}

	endpoint := fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		c.cfg.Endpoint, url.PathEscape(c.cfg.Deployment), url.QueryEscape(c.cfg.APIVersion))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: build request", summarizer.ErrSummaryFailed)
	}
	req.Header.Set("api-key", c.cfg.Key)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		slog.Error("summary request failed", "error", err)
		return "", fmt.Errorf("%w: %v", summarizer.ErrSummaryFailed, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		slog.Error("summary endpoint returned non-OK status", "status", resp.StatusCode, "body", string(detail))
		return "", fmt.Errorf("%w: status %d", summarizer.ErrSummaryFailed, resp.StatusCode)
	}

	// A malformed or empty completion degrades to an empty summary rather
	// than an error.
	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		slog.Warn("summary response decode failed; returning empty summary", "error", err)
		return "", nil
	}
	if len(parsed.Choices) == 0 {
		slog.Warn("summary response contained no choices; returning empty summary")
		return "", nil
	}
	return parsed.Choices[0].Message.Content, nil
}
