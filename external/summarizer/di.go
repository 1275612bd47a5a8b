package summarizer

import (
	"github.com/kotobalab/tsuyaku/internal/config"
	"github.com/kotobalab/tsuyaku/internal/summarizer"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (summarizer.Summarizer, error) {
		c := do.MustInvoke[*config.Config](i)
		return NewAzureOpenAIClient(AzureOpenAIConfig{
			Key:        c.AzureOpenAIKey,
			Endpoint:   c.AzureOpenAIEndpoint,
			Deployment: c.AzureOpenAIDeployment,
			APIVersion: c.AzureOpenAIAPIVersion,
		}), nil
	})
}
