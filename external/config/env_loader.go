package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	internalconfig "github.com/kotobalab/tsuyaku/internal/config"
)

type envConfig struct {
	Env      string `env:"ENV" envDefault:"production"`
	HTTPPort int    `env:"HTTP_PORT" envDefault:"8080"`

	DatabaseURL string `env:"DATABASE_URL,required"`

	AzureSpeechKey    string `env:"AZURE_SPEECH_KEY"`
	AzureSpeechRegion string `env:"AZURE_SPEECH_REGION"`

	AzureTranslatorKey      string `env:"AZURE_TRANSLATOR_KEY"`
	AzureTranslatorEndpoint string `env:"AZURE_TRANSLATOR_ENDPOINT"`
	AzureTranslatorRegion   string `env:"AZURE_TRANSLATOR_REGION"`

	AzureOpenAIKey        string `env:"AZURE_OPENAI_KEY"`
	AzureOpenAIEndpoint   string `env:"AZURE_OPENAI_ENDPOINT"`
	AzureOpenAIDeployment string `env:"AZURE_OPENAI_DEPLOYMENT"`
	AzureOpenAIAPIVersion string `env:"AZURE_OPENAI_API_VERSION" envDefault:"2024-06-01"`

	GoogleCloudProjectID       string `env:"GOOGLE_CLOUD_PROJECT_ID"`
	GoogleCloudCredentialsJSON string `env:"GOOGLE_CLOUD_CREDENTIALS_JSON"`
	GoogleCloudSpeechLocation  string `env:"GOOGLE_CLOUD_SPEECH_LOCATION" envDefault:"asia-east1"`
	GoogleCloudSpeechModel     string `env:"GOOGLE_CLOUD_SPEECH_MODEL" envDefault:"chirp_3"`

	TranscriptWebhookURL string `env:"TRANSCRIPT_WEBHOOK_URL"`
}

func Load() (*internalconfig.Config, error) {
	var raw envConfig
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("environment variables are invalid or missing: %w", err)
	}

	cfg := &internalconfig.Config{
		Env:                        raw.Env,
		HTTPPort:                   raw.HTTPPort,
		DatabaseURL:                raw.DatabaseURL,
		AzureSpeechKey:             raw.AzureSpeechKey,
		AzureSpeechRegion:          raw.AzureSpeechRegion,
		AzureTranslatorKey:         raw.AzureTranslatorKey,
		AzureTranslatorEndpoint:    raw.AzureTranslatorEndpoint,
		AzureTranslatorRegion:      raw.AzureTranslatorRegion,
		AzureOpenAIKey:             raw.AzureOpenAIKey,
		AzureOpenAIEndpoint:        raw.AzureOpenAIEndpoint,
		AzureOpenAIDeployment:      raw.AzureOpenAIDeployment,
		AzureOpenAIAPIVersion:      raw.AzureOpenAIAPIVersion,
		GoogleCloudProjectID:       raw.GoogleCloudProjectID,
		GoogleCloudCredentialsJSON: raw.GoogleCloudCredentialsJSON,
		GoogleCloudSpeechLocation:  raw.GoogleCloudSpeechLocation,
		GoogleCloudSpeechModel:     raw.GoogleCloudSpeechModel,
		TranscriptWebhookURL:       raw.TranscriptWebhookURL,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
