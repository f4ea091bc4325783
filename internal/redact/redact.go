// Package redact scrubs credentials and personal contact details from policy
// text before it is sent to a model provider.
package redact

import "regexp"

type rule struct {
	pattern     *regexp.Regexp
	replacement string
}

var rules []rule

func init() {
	raw := []struct {
		expr, repl string
	}{
		// Private key blocks
		{`-----BEGIN [A-Z ]+PRIVATE KEY-----[\s\S]*?-----END [A-Z ]+PRIVATE KEY-----`, "[REDACTED]"},
		// AWS access key IDs
		{`AKIA[0-9A-Z]{16}`, "[REDACTED]"},
		// Bearer tokens
		{`Bearer\s+[A-Za-z0-9\-._~+/]+=*`, "[REDACTED]"},
		// Key/secret/token assignments pasted along with a policy
		{`(?i)(api[_-]?key|api[_-]?secret|secret[_-]?key|access[_-]?token|password|passwd)\s*[:=]\s*\S+`, "[REDACTED]"},
		// Email addresses
		{`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`, "[EMAIL]"},
		// Phone numbers with at least ten digits
		{`\+?\d{1,3}?[\s.\-]?\(?\d{3}\)?[\s.\-]?\d{3}[\s.\-]?\d{4}\b`, "[PHONE]"},
	}
	for _, r := range raw {
		rules = append(rules, rule{regexp.MustCompile(r.expr), r.repl})
	}
}

// Redact replaces credentials and contact details in text with placeholders.
func Redact(text string) string {
	for _, r := range rules {
		text = r.pattern.ReplaceAllString(text, r.replacement)
	}
	return text
}
