package autolock

import "strings"

// shellQuote wraps s in single quotes for POSIX sh when it contains
// anything besides plain path characters.
func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	if strings.IndexFunc(s, needsQuote) < 0 {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func needsQuote(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return false
	}
	return !strings.ContainsRune("-_./:=+,@%", r)
}

// doubleQuote wraps s in double quotes.
func doubleQuote(s string) string {
	return `"` + escapeDouble(s) + `"`
}

// escapeDouble escapes the characters the shell still expands inside
// double quotes.
func escapeDouble(s string) string {
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune("\"$`\\", r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
