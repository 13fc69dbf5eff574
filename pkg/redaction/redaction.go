// Package redaction masks Discord credentials before they reach a log sink.
// Bot tokens and interaction tokens both end up in REST error messages, since
// the interaction token is part of the webhook URL.
package redaction

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
)

const defaultReplacement = "[REDACTED]"

// Config holds redaction configuration.
type Config struct {
	Enabled bool `json:"enabled"`

	// Secrets are literal values masked wherever they appear, such as the
	// configured bot token.
	Secrets []string `json:"-"`

	// CustomPatterns allows additional regex patterns to redact.
	CustomPatterns []string `json:"custom_patterns"`

	Replacement string `json:"replacement"`
}

func DefaultConfig() Config {
	return Config{
		Enabled:     true,
		Replacement: defaultReplacement,
	}
}

type pattern struct {
	name string
	re   *regexp.Regexp
}

// builtin patterns. When a pattern has a capture group only the group is
// replaced so the surrounding URL or header stays readable.
var builtin = []pattern{
	{"bot_token", regexp.MustCompile(`[A-Za-z0-9_-]{23,28}\.[A-Za-z0-9_-]{6,7}\.[A-Za-z0-9_-]{27,}`)},
	{"authorization", regexp.MustCompile(`(?i)\b(?:bot|bearer)\s+([A-Za-z0-9_.\-]{20,})`)},
	{"webhook_token", regexp.MustCompile(`webhooks/\d+/([A-Za-z0-9_.\-]{20,})`)},
	{"callback_token", regexp.MustCompile(`interactions/\d+/([A-Za-z0-9_.\-]{20,})/callback`)},
	{"json_token", regexp.MustCompile(`"(?:token|public_key|secret)"\s*:\s*"([^"]+)"`)},
}

// Redactor masks credentials in strings and log fields.
type Redactor struct {
	config  Config
	secrets []string
	custom  []*regexp.Regexp
	mu      sync.RWMutex
}

// NewRedactor compiles the configured patterns. An invalid custom pattern is
// an error so a typo cannot silently leave a secret in the logs.
func NewRedactor(config Config) (*Redactor, error) {
	if config.Replacement == "" {
		config.Replacement = defaultReplacement
	}
	r := &Redactor{config: config}
	for _, p := range config.CustomPatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid redaction pattern %q: %w", p, err)
		}
		r.custom = append(r.custom, re)
	}
	r.AddSecrets(config.Secrets...)
	return r, nil
}

// AddSecrets registers literal values to mask. Empty values are ignored.
func (r *Redactor) AddSecrets(secrets ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range secrets {
		s = strings.TrimSpace(s)
		if s != "" {
			r.secrets = append(r.secrets, s)
		}
	}
	// Longest first so a secret containing another is masked whole.
	sort.Slice(r.secrets, func(i, j int) bool { return len(r.secrets[i]) > len(r.secrets[j]) })
}

func (r *Redactor) Redact(input string) string {
	if !r.config.Enabled || input == "" {
		return input
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	result := input
	for _, s := range r.secrets {
		result = strings.ReplaceAll(result, s, r.config.Replacement)
	}
	for _, p := range builtin {
		result = r.replace(p.re, result)
	}
	for _, re := range r.custom {
		result = re.ReplaceAllString(result, r.config.Replacement)
	}
	return result
}

func (r *Redactor) replace(re *regexp.Regexp, input string) string {
	matches := re.FindAllStringSubmatchIndex(input, -1)
	if len(matches) == 0 {
		return input
	}
	var b strings.Builder
	last := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		if len(m) >= 4 && m[2] >= 0 {
			start, end = m[2], m[3]
		}
		b.WriteString(input[last:start])
		b.WriteString(r.config.Replacement)
		last = end
	}
	b.WriteString(input[last:])
	return b.String()
}

// RedactFields returns a copy of fields with string and error values
// redacted. Nested maps are walked; other values are kept as is.
func (r *Redactor) RedactFields(fields map[string]any) map[string]any {
	if !r.config.Enabled || len(fields) == 0 {
		return fields
	}
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = r.redactValue(v)
	}
	return out
}

func (r *Redactor) redactValue(v any) any {
	switch val := v.(type) {
	case string:
		return r.Redact(val)
	case error:
		return r.Redact(val.Error())
	case fmt.Stringer:
		return r.Redact(val.String())
	case map[string]any:
		return r.RedactFields(val)
	case []string:
		out := make([]string, len(val))
		for i, s := range val {
			out[i] = r.Redact(s)
		}
		return out
	default:
		return v
	}
}
