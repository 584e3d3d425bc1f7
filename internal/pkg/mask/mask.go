package mask

import "strings"

// Email returns a partially redacted email address for display, e.g.
// "somchai@example.com" -> "s*****i@example.com". Deterministic: the same
// input always yields the same masked form, and the full local part is
// never revealed.
func Email(addr string) string {
	at := strings.LastIndex(addr, "@")
	if at <= 0 {
		return "***"
	}

	local := addr[:at]
	domain := addr[at:]

	if len(local) <= 2 {
		return string(local[0]) + "***" + domain
	}

	return string(local[0]) + strings.Repeat("*", len(local)-2) + string(local[len(local)-1]) + domain
}

// AccountNo redacts all but the last four characters of an account number
func AccountNo(no string) string {
	if len(no) <= 4 {
		return no
	}
	return strings.Repeat("*", len(no)-4) + no[len(no)-4:]
}
