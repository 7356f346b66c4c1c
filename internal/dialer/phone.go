package dialer

import "strings"

// NormalizeNumber converts a raw user-entered destination into E.164 form.
//
// Inputs already starting with "+" are assumed E.164 and returned unchanged.
// Ten digits get a "+1" prefix (NANP), eleven digits with a leading 1 get a
// bare "+", and anything longer than ten digits is assumed to already carry a
// country code. Short inputs still get "+1" so the user is never blocked on a
// number the network would reject anyway.
func NormalizeNumber(raw string) string {
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, "+") {
		return raw
	}

	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	stripped := digits.String()

	switch {
	case len(stripped) == 10:
		return "+1" + stripped
	case len(stripped) == 11 && stripped[0] == '1':
		return "+" + stripped
	case len(stripped) > 10:
		return "+" + stripped
	default:
		return "+1" + stripped
	}
}
