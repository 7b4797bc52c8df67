// Package redact replaces secrets in finding text with [REDACTED] before it
// is written to reports or logs.
package redact

import "regexp"

// Placeholder replaces every redacted match.
const Placeholder = "[REDACTED]"

var patterns []*regexp.Regexp

func init() {
	raw := []string{
		// Private key blocks
		`-----BEGIN [A-Z ]+PRIVATE KEY-----[\s\S]*?-----END [A-Z ]+PRIVATE KEY-----`,
		// Hex private keys assigned in deploy scripts and tests
		`(?i)(private[_-]?key|deployer[_-]?key|pk)\s*[:=]\s*["']?(0x)?[0-9a-f]{64}["']?`,
		// Mnemonic seed phrases
		`(?i)(mnemonic|seed[_-]?phrase)\s*[:=]\s*["']?([a-z]+\s+){11,23}[a-z]+["']?`,
		// Node provider URLs carrying an API key in the path
		`https://[a-z0-9.-]*(infura\.io|alchemy\.com|alchemyapi\.io)/v[0-9]+/[A-Za-z0-9_-]+`,
		// AWS access key IDs
		`AKIA[0-9A-Z]{16}`,
		// Bearer tokens
		`Bearer\s+[A-Za-z0-9\-._~+/]+=*`,
		// Generic key/secret/token/password assignments
		`(?i)(api[_-]?key|api[_-]?secret|secret[_-]?key|token|password|passwd|credentials)\s*[:=]\s*\S+`,
	}
	for _, r := range raw {
		patterns = append(patterns, regexp.MustCompile(r))
	}
}

// Redact replaces secret patterns in text with Placeholder.
func Redact(text string) string {
	for _, p := range patterns {
		text = p.ReplaceAllString(text, Placeholder)
	}
	return text
}
