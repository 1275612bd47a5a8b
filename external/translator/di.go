package translator

import (
	"github.com/kotobalab/tsuyaku/internal/config"
	"github.com/kotobalab/tsuyaku/internal/translator"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (translator.Gateway, error) {
		c := do.MustInvoke[*config.Config](i)
		return NewAzureGateway(AzureConfig{
			Key:      c.AzureTranslatorKey,
			Endpoint: c.AzureTranslatorEndpoint,
			Region:   c.AzureTranslatorRegion,
		}), nil
	})
}
