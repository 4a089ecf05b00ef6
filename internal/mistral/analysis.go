package mistral

// Kind tags which of the known response shapes a parsed payload matches.
type Kind string

const (
	KindPromptInjection Kind = "prompt_injection"
	KindHallucination   Kind = "hallucination"
	KindSecurityScore   Kind = "security_score"
	KindSecureCoding    Kind = "secure_coding"
	KindCompliance      Kind = "compliance"
	KindUnknown         Kind = "unknown"
)

// Analysis is one parsed analysis response. Data holds the payload exactly
// as the model returned it; Kind classifies it for rendering. Payloads are
// never validated beyond the key-presence check in classify.
type Analysis struct {
	Kind Kind                   `json:"kind"`
	Data map[string]interface{} `json:"data"`
}

// classify dispatches on the well-known key each response shape leads with.
// The set is closed: five shapes plus the unknown fallback.
func classify(data map[string]interface{}) Kind {
	switch {
	case hasKey(data, "prompt_injection_detected"):
		return KindPromptInjection
	case hasKey(data, "hallucination_risk_detected"):
		return KindHallucination
	case hasKey(data, "overall_security_score"):
		return KindSecurityScore
	case hasKey(data, "immediate_actions"):
		return KindSecureCoding
	case hasKey(data, "gdpr_compliance"):
		return KindCompliance
	}
	return KindUnknown
}

func hasKey(data map[string]interface{}, key string) bool {
	_, ok := data[key]
	return ok
}
