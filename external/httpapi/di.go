package httpapi

import (
	"github.com/kotobalab/tsuyaku/internal/config"
	"github.com/kotobalab/tsuyaku/internal/repository"
	"github.com/kotobalab/tsuyaku/internal/session"
	"github.com/kotobalab/tsuyaku/internal/speechtoken"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Server, error) {
		cfg := do.MustInvoke[*config.Config](i)
		service := do.MustInvoke[*session.Service](i)
		tokens := do.MustInvoke[speechtoken.Issuer](i)
		repo := do.MustInvoke[repository.Repository](i)
		registry := do.MustInvoke[*prometheus.Registry](i)
		return NewServer(cfg, service, tokens, repo, registry), nil
	})
}
