package logging

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/m-mizutani/masq"
)

// Redacted replaces masked values in log output.
const Redacted = "[REDACTED]"

// sensitiveHeaders are lowercase HTTP header names that carry credentials.
var sensitiveHeaders = []string{
	"authorization",
	"proxy-authorization",
	"x-api-key",
	"cookie",
	"set-cookie",
}

// IsSensitiveHeader reports whether the header called name carries
// credentials.
func IsSensitiveHeader(name string) bool {
	for _, h := range sensitiveHeaders {
		if strings.EqualFold(h, name) {
			return true
		}
	}
	return false
}

// Attribute keys that are masked whatever their value.
var (
	sensitiveKeys     = []string{"password", "secret", "token", "dsn"}
	sensitivePrefixes = []string{"secret_", "api_key"}
)

// Value shapes masked under any key. JWT segments need ten characters so
// version strings like 1.2.3 pass.
var sensitiveValues = []*regexp.Regexp{
	regexp.MustCompile(`(?i)bearer\s+[a-zA-Z0-9\-._~+/]+=*`),
	regexp.MustCompile(`[a-zA-Z0-9\-_]{10,}\.[a-zA-Z0-9\-_]{10,}\.[a-zA-Z0-9\-_]{10,}`),
	regexp.MustCompile(`(?i)(api[_\-]?key|apikey)\s*[:=]\s*\S+`),
	// URLs with a password in userinfo, such as a Postgres DSN or NATS URL.
	regexp.MustCompile(`[a-zA-Z][a-zA-Z0-9+.\-]*://[^:/@\s]+:[^@\s]+@`),
}

// redactor builds the masq ReplaceAttr hook used by every handler New
// creates.
func redactor() func([]string, slog.Attr) slog.Attr {
	var opts []masq.Option
	for _, k := range sensitiveHeaders {
		opts = append(opts, masq.WithFieldName(k))
	}
	for _, k := range sensitiveKeys {
		opts = append(opts, masq.WithFieldName(k))
	}
	for _, p := range sensitivePrefixes {
		opts = append(opts, masq.WithFieldPrefix(p))
	}
	for _, re := range sensitiveValues {
		opts = append(opts, masq.WithRegex(re))
	}
	return masq.New(opts...)
}
