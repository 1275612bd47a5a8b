package recognizer

import (
	"encoding/json"
	"math"
)

type vendorResult struct {
	NBest []struct {
		Confidence *float64 `json:"Confidence"`
	} `json:"NBest"`
}

// ConfidenceFromResult derives a 0-100 score from the raw JSON detail a
// speech provider attaches to a final result. Malformed payloads and
// missing fields yield an absent score, never an error.
func ConfidenceFromResult(raw []byte) *int {
	var result vendorResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil
	}
	if len(result.NBest) == 0 || result.NBest[0].Confidence == nil {
		return nil
	}
	return ConfidenceFromRatio(*result.NBest[0].Confidence)
}

// ConfidenceFromRatio converts a provider's 0.0-1.0 confidence into the
// stored integer percent, rounding to nearest.
func ConfidenceFromRatio(ratio float64) *int {
	if math.IsNaN(ratio) || ratio < 0 || ratio > 1 {
		return nil
	}
	score := int(math.Round(ratio * 100))
	return &score
}
