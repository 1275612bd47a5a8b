package speechtoken

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/kotobalab/tsuyaku/internal/speechtoken"
)

const issueTimeout = 10 * time.Second

// AzureSTSIssuer requests short-lived bearer tokens from the region-scoped
// Azure STS endpoint. The subscription key never leaves the server; clients
// only ever see the opaque token.
type AzureSTSIssuer struct {
	key      string
	region   string
	endpoint string
	client   *http.Client
}

func NewAzureSTSIssuer(key, region string) speechtoken.Issuer {
	return &AzureSTSIssuer{
		key:      key,
		region:   region,
		endpoint: fmt.Sprintf("https://%s.api.cognitive.microsoft.com/sts/v1.0/issueToken", region),
		client:   &http.Client{Timeout: issueTimeout},
	}
}

// newIssuerWithEndpoint overrides the STS URL for tests.
func newIssuerWithEndpoint(key, region, endpoint string) speechtoken.Issuer {
	return &AzureSTSIssuer{
		key:      key,
		region:   region,
		endpoint: endpoint,
		client:   &http.Client{Timeout: issueTimeout},
	}
}

func (s *AzureSTSIssuer) IssueToken(ctx context.Context) (speechtoken.Token, error) {
	if s.key == "" || s.region == "" {
		return speechtoken.Token{}, speechtoken.ErrNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, nil)
	if err != nil {
		return speechtoken.Token{}, fmt.Errorf("%w: build request", speechtoken.ErrTokenIssueFailed)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", s.key)

	resp, err := s.client.Do(req)
	if err != nil {
		slog.Error("speech token request failed", "error", err, "region", s.region)
		return speechtoken.Token{}, fmt.Errorf("%w: %v", speechtoken.ErrTokenIssueFailed, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		slog.Error("speech token endpoint returned non-OK status", "status", resp.StatusCode, "region", s.region, "body", string(detail))
		return speechtoken.Token{}, fmt.Errorf("%w: status %d", speechtoken.ErrTokenIssueFailed, resp.StatusCode)
	}

	token, err := io.ReadAll(resp.Body)
	if err != nil {
		return speechtoken.Token{}, fmt.Errorf("%w: read response", speechtoken.ErrTokenIssueFailed)
	}
	return speechtoken.Token{Token: string(token), Region: s.region}, nil
}
