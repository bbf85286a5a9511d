package report

import (
	"strings"
	"unicode/utf8"
)

// Split breaks text into chunks of at most limit runes. It cuts at line
// boundaries and hard-splits only lines that alone exceed limit. A
// non-positive limit returns text unchanged.
func Split(text string, limit int) []string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	var chunks []string
	var cur strings.Builder
	curLen := 0

	flush := func() {
		if curLen > 0 {
			chunks = append(chunks, strings.TrimRight(cur.String(), "\n"))
		}
		cur.Reset()
		curLen = 0
	}

	for _, line := range strings.Split(text, "\n") {
		lineLen := utf8.RuneCountInString(line)

		if lineLen > limit {
			flush()
			runes := []rune(line)
			for len(runes) > limit {
				chunks = append(chunks, string(runes[:limit]))
				runes = runes[limit:]
			}
			cur.WriteString(string(runes))
			curLen = len(runes)
			continue
		}

		sep := 0
		if curLen > 0 {
			sep = 1
		}
		if curLen+sep+lineLen > limit {
			flush()
			sep = 0
		}
		if sep == 1 {
			cur.WriteByte('\n')
		}
		cur.WriteString(line)
		curLen += sep + lineLen
	}
	flush()

	return chunks
}
