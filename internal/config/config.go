package config

import "fmt"

type Config struct {
	Env      string
	HTTPPort int

	DatabaseURL string

	AzureSpeechKey    string
	AzureSpeechRegion string

	AzureTranslatorKey      string
	AzureTranslatorEndpoint string
	AzureTranslatorRegion   string

	AzureOpenAIKey        string
	AzureOpenAIEndpoint   string
	AzureOpenAIDeployment string
	AzureOpenAIAPIVersion string

	GoogleCloudProjectID       string
	GoogleCloudCredentialsJSON string
	GoogleCloudSpeechLocation  string
	GoogleCloudSpeechModel     string

	TranscriptWebhookURL string
}

func (c *Config) Validate() error {
	for _, req := range c.requiredFieldChecks() {
		if req.value == "" {
			return fmt.Errorf("%s is required", req.name)
		}
	}
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("HTTP_PORT must be a valid port, got %d", c.HTTPPort)
	}
	for _, group := range c.credentialGroupChecks() {
		if err := group.validate(); err != nil {
			return err
		}
	}
	return nil
}

type requiredEnvField struct {
	name  string
	value string
}

func (c *Config) requiredFieldChecks() []requiredEnvField {
	return []requiredEnvField{
		{name: "DATABASE_URL", value: c.DatabaseURL},
	}
}

// credentialGroup describes env fields that must be configured together.
// Provider credentials are optional at startup: an unset group makes the
// matching operation fail with a not-configured error at call time, while
// a half-set group is a deployment mistake and rejected here.
type credentialGroup struct {
	name   string
	fields []requiredEnvField
}

func (g credentialGroup) validate() error {
	configured := 0
	for _, f := range g.fields {
		if f.value != "" {
			configured++
		}
	}
	if configured == 0 || configured == len(g.fields) {
		return nil
	}
	for _, f := range g.fields {
		if f.value == "" {
			return fmt.Errorf("%s is required when %s is partially configured", f.name, g.name)
		}
	}
	return nil
}

func (c *Config) credentialGroupChecks() []credentialGroup {
	return []credentialGroup{
		{
			name: "azure speech",
			fields: []requiredEnvField{
				{name: "AZURE_SPEECH_KEY", value: c.AzureSpeechKey},
				{name: "AZURE_SPEECH_REGION", value: c.AzureSpeechRegion},
			},
		},
		{
			name: "azure translator",
			fields: []requiredEnvField{
				{name: "AZURE_TRANSLATOR_KEY", value: c.AzureTranslatorKey},
				{name: "AZURE_TRANSLATOR_ENDPOINT", value: c.AzureTranslatorEndpoint},
				{name: "AZURE_TRANSLATOR_REGION", value: c.AzureTranslatorRegion},
			},
		},
		{
			name: "azure openai",
			fields: []requiredEnvField{
				{name: "AZURE_OPENAI_KEY", value: c.AzureOpenAIKey},
				{name: "AZURE_OPENAI_ENDPOINT", value: c.AzureOpenAIEndpoint},
				{name: "AZURE_OPENAI_DEPLOYMENT", value: c.AzureOpenAIDeployment},
			},
		},
		{
			name: "google cloud speech",
			fields: []requiredEnvField{
				{name: "GOOGLE_CLOUD_PROJECT_ID", value: c.GoogleCloudProjectID},
				{name: "GOOGLE_CLOUD_CREDENTIALS_JSON", value: c.GoogleCloudCredentialsJSON},
			},
		},
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}
