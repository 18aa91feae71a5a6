package correction

import "strings"

// PlaceholderEmail synthesizes the stand-in address used when a caller books
// without giving an email: pending-<digits-of-phone>@<domain>.
func PlaceholderEmail(phone, domain string) string {
	d := digits(phone)
	if d == "" {
		d = "unknown"
	}
	return "pending-" + d + "@" + domain
}

// IsPlaceholderEmail reports whether email was synthesized under domain. The
// whole correction branching rests on this substring check.
func IsPlaceholderEmail(email, domain string) bool {
	return domain != "" && strings.Contains(email, "@"+domain)
}

func digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
