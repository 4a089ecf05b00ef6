package report

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mitanuriel/agentSecOps-Guardian/internal/mistral"
)

// writeAnalysis renders the external analysis section. Dispatch is closed
// over the five known response shapes; anything else falls back to the raw
// JSON block. All field access degrades to defaults when the payload is
// malformed.
func writeAnalysis(b *strings.Builder, a *mistral.Analysis) {
	b.WriteString("## 🤖 Mistral AI Analysis\n")

	switch a.Kind {
	case mistral.KindPromptInjection:
		writePromptInjection(b, a.Data)
	case mistral.KindHallucination:
		writeHallucination(b, a.Data)
	case mistral.KindSecurityScore:
		writeSecurityScore(b, a.Data)
	case mistral.KindSecureCoding:
		writeSecureCoding(b, a.Data)
	case mistral.KindCompliance:
		writeCompliance(b, a.Data)
	default:
		writeRawAnalysis(b, a.Data)
	}

	b.WriteString("\n---\n")
}

func writePromptInjection(b *strings.Builder, data map[string]interface{}) {
	b.WriteString("### Prompt Injection Analysis\n")
	fmt.Fprintf(b, "- **Injection Detected:** %s\n", yesNo(boolean(data, "prompt_injection_detected")))
	fmt.Fprintf(b, "- **Confidence Score:** %.2f\n", num(data, "confidence_score"))
	b.WriteString("\n")

	writeList(b, "Vulnerabilities Found", stringList(data, "vulnerabilities_found"))
	if analysis := str(data, "analysis"); analysis != "" {
		fmt.Fprintf(b, "**Analysis:** %s\n\n", analysis)
	}
	writeList(b, "Recommendations", stringList(data, "recommendations"))
}

func writeHallucination(b *strings.Builder, data map[string]interface{}) {
	b.WriteString("### Hallucination Risk Analysis\n")
	fmt.Fprintf(b, "- **Risk Detected:** %s\n", yesNo(boolean(data, "hallucination_risk_detected")))
	fmt.Fprintf(b, "- **Confidence Score:** %.2f\n", num(data, "confidence_score"))
	b.WriteString("\n")

	writeList(b, "Risk Factors", stringList(data, "risk_factors"))
	if analysis := str(data, "analysis"); analysis != "" {
		fmt.Fprintf(b, "**Analysis:** %s\n\n", analysis)
	}
	writeList(b, "Recommendations", stringList(data, "recommendations"))
}

func writeSecurityScore(b *strings.Builder, data map[string]interface{}) {
	b.WriteString("### AI Security Assessment\n")
	fmt.Fprintf(b, "- **Overall Security Score:** %.2f\n", num(data, "overall_security_score"))
	b.WriteString("\n")

	writeList(b, "Critical Issues", stringList(data, "critical_issues"))
	writeList(b, "Medium Issues", stringList(data, "medium_issues"))
	writeList(b, "Low Issues", stringList(data, "low_issues"))
	writeList(b, "Likely False Positives", stringList(data, "false_positives"))
	if detail := str(data, "detailed_analysis"); detail != "" {
		fmt.Fprintf(b, "**Detailed Analysis:** %s\n\n", detail)
	}
	writeList(b, "Remediation Recommendations", stringList(data, "remediation_recommendations"))
}

func writeSecureCoding(b *strings.Builder, data map[string]interface{}) {
	b.WriteString("### Secure Coding Recommendations\n\n")

	writeList(b, "Immediate Actions", stringList(data, "immediate_actions"))
	writeList(b, "Code Refactoring", stringList(data, "code_refactoring"))
	writeList(b, "Configuration Changes", stringList(data, "configuration_changes"))
	writeList(b, "Monitoring Recommendations", stringList(data, "monitoring_recommendations"))
	writeList(b, "Training Recommendations", stringList(data, "training_recommendations"))
}

func writeCompliance(b *strings.Builder, data map[string]interface{}) {
	b.WriteString("### Compliance Analysis\n")
	writeStandard(b, "GDPR", subMap(data, "gdpr_compliance"))
	writeStandard(b, "PCI-DSS", subMap(data, "pci_dss_compliance"))
	writeStandard(b, "HIPAA", subMap(data, "hipaa_compliance"))
	b.WriteString("\n")

	writeList(b, "OWASP Top 10 Violations", stringList(data, "owasp_top_10_violations"))
	writeList(b, "Compliance Recommendations", stringList(data, "compliance_recommendations"))
}

func writeStandard(b *strings.Builder, name string, standard map[string]interface{}) {
	status := "Unknown"
	if standard != nil {
		if boolean(standard, "compliant") {
			status = "Compliant"
		} else {
			status = "Non-compliant"
		}
	}
	fmt.Fprintf(b, "- **%s:** %s\n", name, status)
	for _, issue := range stringList(standard, "issues") {
		fmt.Fprintf(b, "  - %s\n", issue)
	}
}

func writeRawAnalysis(b *strings.Builder, data map[string]interface{}) {
	b.WriteString("### Raw Analysis Output\n")
	pretty, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		fmt.Fprintf(b, "%v\n", data)
		return
	}
	b.WriteString("```json\n")
	b.Write(pretty)
	b.WriteString("\n```\n")
}

func writeList(b *strings.Builder, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "**%s:**\n", heading)
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
	b.WriteString("\n")
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

// Default-valued lookups so malformed payloads degrade instead of failing.

func str(data map[string]interface{}, key string) string {
	if v, ok := data[key].(string); ok {
		return v
	}
	return ""
}

func num(data map[string]interface{}, key string) float64 {
	if v, ok := data[key].(float64); ok {
		return v
	}
	return 0
}

func boolean(data map[string]interface{}, key string) bool {
	if v, ok := data[key].(bool); ok {
		return v
	}
	return false
}

func stringList(data map[string]interface{}, key string) []string {
	raw, ok := data[key].([]interface{})
	if !ok {
		return nil
	}
	items := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			items = append(items, s)
		} else {
			items = append(items, fmt.Sprint(item))
		}
	}
	return items
}

func subMap(data map[string]interface{}, key string) map[string]interface{} {
	if v, ok := data[key].(map[string]interface{}); ok {
		return v
	}
	return nil
}
