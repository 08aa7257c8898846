package cli

import (
	"net/url"
	"strings"
)

// maskConnectionString hides the password of a PostgreSQL connection string,
// in URL form or key=value form, so it can be printed.
func maskConnectionString(connStr string) string {
	if u, err := url.Parse(connStr); err == nil && u.Scheme != "" {
		return u.Redacted()
	}
	fields := strings.Fields(connStr)
	for i, f := range fields {
		if key, _, ok := strings.Cut(f, "="); ok && strings.EqualFold(key, "password") {
			fields[i] = key + "=xxxxx"
		}
	}
	return strings.Join(fields, " ")
}
