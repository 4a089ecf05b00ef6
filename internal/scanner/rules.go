package scanner

import "regexp"

// Password assignments: keyword, optional whitespace, : or = separator,
// then a run of word characters or hyphens.
var passwordPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)password\s*[:=]\s*[\w-]+`),
	regexp.MustCompile(`(?i)passwd\s*[:=]\s*[\w-]+`),
	regexp.MustCompile(`(?i)pwd\s*[:=]\s*[\w-]+`),
}

// API key material. The last pattern flags any standalone run of 32 or more
// alphanumerics, keyword or not, so long hashes and identifiers trip it too.
var apiKeyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)api\s*key\s*[:=]\s*[\w-]+`),
	regexp.MustCompile(`(?i)secret\s*[:=]\s*[\w-]+`),
	regexp.MustCompile(`(?i)token\s*[:=]\s*[\w-]+`),
	regexp.MustCompile(`[A-Za-z0-9]{32,}`),
}

// Personal data shapes: credit card and SSN digit groups with optional
// separators, and email addresses. These stay case-sensitive.
var sensitivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\d{4}[\s-]?\d{4}[\s-]?\d{4}[\s-]?\d{4}`),
	regexp.MustCompile(`\d{3}[\s-]?\d{2}[\s-]?\d{4}`),
	regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`),
}

// issueRule ties a trigger pattern to the fixed description it reports.
type issueRule struct {
	pattern     *regexp.Regexp
	description string
}

var issueRules = []issueRule{
	{regexp.MustCompile(`(?i)eval\(`), "Use of eval() function"},
	{regexp.MustCompile(`(?i)exec\(`), "Use of exec() function"},
	{regexp.MustCompile(`(?i)pickle\.load`), "Use of pickle.load()"},
	{regexp.MustCompile(`(?i)http://`), "Insecure HTTP protocol"},
	{regexp.MustCompile(`\\\\`), "Potential path traversal"},
}
