package speechtoken

import (
	"github.com/kotobalab/tsuyaku/internal/config"
	"github.com/kotobalab/tsuyaku/internal/speechtoken"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (speechtoken.Issuer, error) {
		c := do.MustInvoke[*config.Config](i)
		return NewAzureSTSIssuer(c.AzureSpeechKey, c.AzureSpeechRegion), nil
	})
}
