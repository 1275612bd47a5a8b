package speechtoken

import (
	"context"
	"errors"
)

var (
	ErrNotConfigured    = errors.New("speech service is not configured")
	ErrTokenIssueFailed = errors.New("failed to issue speech token")
)

// Token is a short-lived bearer credential for the browser speech SDK,
// scoped to the provider region it was issued from. The caller is
// responsible for refreshing it; no refresh happens server-side.
type Token struct {
	Token  string `json:"token"`
	Region string `json:"region"`
}

type Issuer interface {
	IssueToken(ctx context.Context) (Token, error)
}
