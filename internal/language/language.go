package language

// Option is one selectable language or scenario entry as shown to the client.
type Option struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

var SupportedLanguages = []Option{
	{Code: "zh-Hant", Name: "繁體中文"},
	{Code: "zh-Hans", Name: "简体中文"},
	{Code: "en", Name: "English"},
	{Code: "ja", Name: "日本語"},
	{Code: "ko", Name: "한국어"},
	{Code: "es", Name: "Español"},
	{Code: "fr", Name: "Français"},
	{Code: "de", Name: "Deutsch"},
	{Code: "pt", Name: "Português"},
	{Code: "ru", Name: "Русский"},
	{Code: "ar", Name: "العربية"},
	{Code: "th", Name: "ไทย"},
	{Code: "vi", Name: "Tiếng Việt"},
}

var SupportedScenarios = []Option{
	{Code: "general", Name: "一般對話"},
	{Code: "medical", Name: "醫療"},
	{Code: "legal", Name: "法律"},
	{Code: "business", Name: "商務"},
	{Code: "education", Name: "教育"},
	{Code: "technology", Name: "科技"},
	{Code: "finance", Name: "金融"},
}

func IsSupportedLanguage(code string) bool {
	return containsCode(SupportedLanguages, code)
}

func IsSupportedScenario(code string) bool {
	return containsCode(SupportedScenarios, code)
}

func containsCode(options []Option, code string) bool {
	for _, o := range options {
		if o.Code == code {
			return true
		}
	}
	return false
}
