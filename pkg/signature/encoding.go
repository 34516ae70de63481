package signature

import "net/url"

const upperhex = "0123456789ABCDEF"

// Encode percent-encodes s using the RFC 5849 section 3.6 rules: only
// ALPHA, DIGIT, '-', '.', '_' and '~' are left unescaped and hex digits
// are uppercase. Spaces become %20, never '+'.
func Encode(s string) string {
	n := 0
	for i := 0; i < len(s); i++ {
		if shouldEscape(s[i]) {
			n++
		}
	}
	if n == 0 {
		return s
	}

	t := make([]byte, 0, len(s)+2*n)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if shouldEscape(c) {
			t = append(t, '%', upperhex[c>>4], upperhex[c&15])
		} else {
			t = append(t, c)
		}
	}
	return string(t)
}

// Decode reverses Encode. A literal '+' is kept as is, so unencoded base64
// signatures survive decoding.
func Decode(s string) (string, error) {
	return url.PathUnescape(s)
}

func shouldEscape(c byte) bool {
	switch {
	case 'A' <= c && c <= 'Z', 'a' <= c && c <= 'z', '0' <= c && c <= '9':
		return false
	case c == '-', c == '.', c == '_', c == '~':
		return false
	}
	return true
}
