package level

import "strings"

// FromText extracts a normalized level from a plain-text line. It
// recognizes a leading syslog <priority> and level=/severity= or
// "level":/"severity": pairs anywhere in the line.
func FromText(line string) string {
	if lvl := syslogPriority(line); lvl != "" {
		return lvl
	}
	for _, key := range []string{"level", "severity"} {
		if lvl := findKeyValue(line, key); lvl != "" {
			return lvl
		}
	}
	return ""
}

// syslogPriority derives severity from priority % 8 for "<NNN>" at the
// start of the line.
func syslogPriority(line string) string {
	if len(line) < 3 || line[0] != '<' {
		return ""
	}
	i := 1
	for i < len(line) && i < 5 && isDigit(line[i]) {
		i++
	}
	if i == 1 || i >= len(line) || line[i] != '>' {
		return ""
	}
	priority := 0
	for _, c := range line[1:i] {
		priority = priority*10 + int(c-'0')
	}
	switch priority % 8 {
	case 0, 1, 2, 3:
		return "error"
	case 4:
		return "warn"
	case 5, 6:
		return "info"
	default:
		return "debug"
	}
}

func findKeyValue(line, key string) string {
	lower := strings.ToLower(line)
	pos := 0
	for pos < len(lower) {
		idx := strings.Index(lower[pos:], key)
		if idx < 0 {
			return ""
		}
		idx += pos
		end := idx + len(key)
		pos = end

		if idx > 0 && isWordChar(lower[idx-1]) {
			continue
		}
		rest := line[end:]
		var val string
		switch {
		case strings.HasPrefix(rest, "="):
			val = readValue(rest[1:])
		case strings.HasPrefix(rest, `":`):
			val = readValue(strings.TrimLeft(rest[2:], " \t"))
		case strings.HasPrefix(rest, ":"):
			val = readValue(strings.TrimLeft(rest[1:], " \t"))
		default:
			continue
		}
		if lvl := Normalize(val); lvl != "" {
			return lvl
		}
	}
	return ""
}

// readValue reads a quoted or bare value.
func readValue(s string) string {
	if s == "" {
		return ""
	}
	if q := s[0]; q == '"' || q == '\'' {
		end := strings.IndexByte(s[1:], q)
		if end < 0 {
			return ""
		}
		return s[1 : 1+end]
	}
	end := strings.IndexAny(s, " \t,;}]\r\n")
	if end < 0 {
		return s
	}
	return s[:end]
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isWordChar(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || isDigit(b) || b == '_'
}
