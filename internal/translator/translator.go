package translator

import (
	"context"
	"errors"
)

var (
	ErrNotConfigured     = errors.New("translation service is not configured")
	ErrTranslationFailed = errors.New("translation failed")
)

// Result carries the provider's output. Confidence is the translation
// provider's own estimate; it is returned to the caller but never stored
// on the transcript, which keeps the speech recognition score instead.
type Result struct {
	TranslatedText string
	Confidence     *float64
}

type Gateway interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string, scenario *string) (Result, error)
}
