package translator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/kotobalab/tsuyaku/internal/translator"
)

const (
	translatorAPIVersion = "3.0"
	requestTimeout       = 15 * time.Second
)

type AzureConfig struct {
	Key      string
	Endpoint string
	Region   string
}

// AzureGateway calls the Azure Translator text API. Stateless: no retry,
// no caching, identical inputs are retranslated on every call.
type AzureGateway struct {
	cfg    AzureConfig
	client *http.Client
}

func NewAzureGateway(cfg AzureConfig) translator.Gateway {
	return &AzureGateway{
		cfg:    cfg,
		client: &http.Client{Timeout: requestTimeout},
	}
}

type translateRequestItem struct {
	Text string `json:"text"`
}

type translateResponseItem struct {
	Translations []struct {
		Text       string   `json:"text"`
		Confidence *float64 `json:"confidence"`
	} `json:"translations"`
}

func (g *AzureGateway) Translate(ctx context.Context, text, sourceLang, targetLang string, scenario *string) (translator.Result, error) {
	if g.cfg.Key == "" || g.cfg.Endpoint == "" {
		return translator.Result{}, translator.ErrNotConfigured
	}

	body, err := json.Marshal([]translateRequestItem{{Text: text}})
	if err != nil {
		return translator.Result{}, fmt.Errorf("%w: encode request", translator.ErrTranslationFailed)
	}

	query := url.Values{}
	query.Set("api-version", translatorAPIVersion)
	query.Set("from", sourceLang)
	query.Set("to", targetLang)
	if scenario != nil {
		query.Set("category", *scenario)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.Endpoint+"/translate?"+query.Encode(), bytes.NewReader(body))
	if err != nil {
		return translator.Result{}, fmt.Errorf("%w: build request", translator.ErrTranslationFailed)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", g.cfg.Key)
	req.Header.Set("Ocp-Apim-Subscription-Region", g.cfg.Region)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		slog.Error("translator request failed", "error", err)
		return translator.Result{}, fmt.Errorf("%w: %v", translator.ErrTranslationFailed, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		slog.Error("translator returned non-OK status", "status", resp.StatusCode, "body", string(detail))
		return translator.Result{}, fmt.Errorf("%w: status %d", translator.ErrTranslationFailed, resp.StatusCode)
	}

	var items []translateResponseItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		slog.Error("translator response decode failed", "error", err)
		return translator.Result{}, fmt.Errorf("%w: decode response", translator.ErrTranslationFailed)
	}
	if len(items) == 0 || len(items[0].Translations) == 0 {
		return translator.Result{}, fmt.Errorf("%w: empty response", translator.ErrTranslationFailed)
	}

	first := items[0].Translations[0]
	return translator.Result{TranslatedText: first.Text, Confidence: first.Confidence}, nil
}
