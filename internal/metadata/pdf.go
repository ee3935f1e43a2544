package metadata

import (
	"encoding/hex"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

var (
	pdfVersion = regexp.MustCompile(`^%PDF-([0-9]+(?:\.[0-9]+)?)`)
	pdfCount   = regexp.MustCompile(`/Count\s+([0-9]{1,9})`)
	pdfDigits  = regexp.MustCompile(`[0-9]+`)

	// Literal strings may contain balanced or escaped parentheses one level
	// deep; hex strings are decoded separately.
	pdfInfoKeys = []struct {
		key   string
		label string
		re    *regexp.Regexp
	}{
		{"CreationDate", "Creation Date", pdfStringPattern("CreationDate")},
		{"Author", "Author", pdfStringPattern("Author")},
		{"Title", "Title", pdfStringPattern("Title")},
		{"Producer", "Producer", pdfStringPattern("Producer")},
	}
)

func pdfStringPattern(key string) *regexp.Regexp {
	return regexp.MustCompile(`(?s)/` + key + `\s*(?:\(((?:[^()\\]|\\.|\((?:[^()\\]|\\.)*\))*)\)|<([0-9A-Fa-f\s]*)>)`)
}

// PDF reads the header version and the document information entries by
// pattern search over the raw bytes. When several information
// dictionaries are present the last one wins, as incremental updates
// append newer dictionaries at the end. Pages is the largest /Count.
func PDF(b []byte) []Field {
	var fields fieldList

	if m := pdfVersion.FindSubmatch(b); m != nil {
		fields.add("Version", string(m[1]))
	}

	for _, k := range pdfInfoKeys {
		matches := k.re.FindAllSubmatch(b, -1)
		if len(matches) == 0 {
			continue
		}
		m := matches[len(matches)-1]

		var value string
		if m[2] != nil {
			value = decodePDFHex(string(m[2]))
		} else {
			value = decodePDFText(unescapePDFLiteral(m[1]))
		}
		value = cleanText(value)
		if k.key == "CreationDate" {
			value = formatPDFDate(value)
		}
		if value != "" {
			fields.add(k.label, value)
		}
	}

	pages := -1
	for _, m := range pdfCount.FindAllSubmatch(b, -1) {
		if n, err := strconv.Atoi(string(m[1])); err == nil && n > pages {
			pages = n
		}
	}
	if pages >= 0 {
		fields.addf("Pages", "%d", pages)
	}
	return fields
}

// unescapePDFLiteral resolves the backslash escapes of a literal string.
func unescapePDFLiteral(raw []byte) []byte {
	out := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if c != '\\' || i+1 >= len(raw) {
			out = append(out, c)
			continue
		}
		i++
		switch e := raw[i]; e {
		case 'n':
			out = append(out, '\n')
		case 'r':
			out = append(out, '\r')
		case 't':
			out = append(out, '\t')
		case 'b':
			out = append(out, '\b')
		case 'f':
			out = append(out, '\f')
		case '\r', '\n':
			// line continuation
		case '0', '1', '2', '3', '4', '5', '6', '7':
			v := int(e - '0')
			for j := 0; j < 2 && i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7'; j++ {
				i++
				v = v*8 + int(raw[i]-'0')
			}
			out = append(out, byte(v))
		default:
			out = append(out, e)
		}
	}
	return out
}

func decodePDFHex(s string) string {
	s = strings.Join(strings.Fields(s), "")
	if len(s)%2 == 1 {
		s += "0"
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return ""
	}
	return decodePDFText(b)
}

// decodePDFText interprets b as UTF-16BE when it carries a byte order mark,
// as UTF-8 when it is valid UTF-8 and as Latin-1 otherwise.
func decodePDFText(b []byte) string {
	if len(b) >= 2 && b[0] == 0xFE && b[1] == 0xFF {
		b = b[2:]
		units := make([]uint16, 0, len(b)/2)
		for i := 0; i+1 < len(b); i += 2 {
			units = append(units, uint16(b[i])<<8|uint16(b[i+1]))
		}
		return string(utf16.Decode(units))
	}
	if utf8.Valid(b) {
		return string(b)
	}
	runes := make([]rune, len(b))
	for i, c := range b {
		runes[i] = rune(c)
	}
	return string(runes)
}

// cleanText strips control characters and collapses whitespace.
func cleanText(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case r == '\t' || r == '\n' || r == '\r':
			return ' '
		case r < 0x20 || r == 0x7F:
			return -1
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// formatPDFDate turns "D:20240102030405+00'00'" into "2024-01-02 03:04:05".
// Values with fewer than 14 leading digits are returned unchanged.
func formatPDFDate(s string) string {
	d := pdfDigits.FindString(strings.TrimPrefix(s, "D:"))
	if len(d) < 14 {
		return s
	}
	return d[0:4] + "-" + d[4:6] + "-" + d[6:8] + " " + d[8:10] + ":" + d[10:12] + ":" + d[12:14]
}
