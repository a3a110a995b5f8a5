package config

import "strings"

// expandTemplate replaces every "%(key)s" placeholder in s with the value
// lookup returns for key, left unresolved if lookup reports false.
// lookup is applied once per placeholder; nested expansion (a resolved
// value itself containing a placeholder) is not attempted, matching
// configparser's single-pass BasicInterpolation as used by the config
// values this package expands (targetdir, name).
func expandTemplate(s string, lookup func(key string) (string, bool)) string {
	var b strings.Builder
	for {
		start := strings.Index(s, "%(")
		if start == -1 {
			b.WriteString(s)
			break
		}
		end := strings.Index(s[start:], ")s")
		if end == -1 {
			b.WriteString(s)
			break
		}
		end += start
		key := s[start+2 : end]
		b.WriteString(s[:start])
		if v, ok := lookup(key); ok {
			b.WriteString(v)
		} else {
			b.WriteString(s[start : end+2])
		}
		s = s[end+2:]
	}
	return b.String()
}
