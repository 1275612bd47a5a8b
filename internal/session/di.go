package session

import (
	"github.com/kotobalab/tsuyaku/internal/observability/metrics"
	"github.com/kotobalab/tsuyaku/internal/recognizer"
	"github.com/kotobalab/tsuyaku/internal/repository"
	"github.com/kotobalab/tsuyaku/internal/summarizer"
	"github.com/kotobalab/tsuyaku/internal/translator"
	"github.com/kotobalab/tsuyaku/internal/webhook"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Service, error) {
		repo := do.MustInvoke[repository.Repository](i)
		gateway := do.MustInvoke[translator.Gateway](i)
		sum := do.MustInvoke[summarizer.Summarizer](i)
		wh := do.MustInvoke[webhook.Sender](i)
		rec := do.MustInvoke[recognizer.Recognizer](i)
		m := do.MustInvoke[*metrics.Metrics](i)
		return NewService(repo, gateway, sum, wh, rec, m), nil
	})
}
