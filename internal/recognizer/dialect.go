package recognizer

// dialectOverrides maps generic language codes to the regional codes the
// speech providers expect. Codes without an override pass through as-is.
var dialectOverrides = map[string]string{
	"zh-Hant": "zh-TW",
}

func MapDialect(code string) string {
	if mapped, ok := dialectOverrides[code]; ok {
		return mapped
	}
	return code
}
