package repository

import (
	"github.com/kotobalab/tsuyaku/internal/config"
	"github.com/kotobalab/tsuyaku/internal/repository"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (repository.Repository, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return NewPostgresRepository(cfg.DatabaseURL), nil
	})
}
