package chunker

import (
	"regexp"
	"strings"
)

var (
	markdownHeadingRe = regexp.MustCompile(`^#{1,6}\s+`)
	numberedHeadingRe = regexp.MustCompile(`^\d+(\.\d+)*[.)、．]\s+`)
	parenHeadingRe    = regexp.MustCompile(`^\(\d+\)\s+`)
)

func isHeading(line string) bool {
	stripped := strings.TrimSpace(line)
	if stripped == "" {
		return false
	}
	return markdownHeadingRe.MatchString(stripped) ||
		numberedHeadingRe.MatchString(stripped) ||
		parenHeadingRe.MatchString(stripped)
}

// proseCuts returns the byte offsets where prose should be partitioned:
// at heading line starts when the text carries headings, otherwise at
// paragraph starts (the first non-blank line after a blank run).
func proseCuts(text string) []int {
	type line struct {
		start int
		blank bool
		head  bool
	}

	var lines []line
	pos := 0
	for pos <= len(text) {
		end := strings.IndexByte(text[pos:], '\n')
		var content string
		if end < 0 {
			content = text[pos:]
		} else {
			content = text[pos : pos+end]
		}
		lines = append(lines, line{
			start: pos,
			blank: strings.TrimSpace(content) == "",
			head:  isHeading(content),
		})
		if end < 0 {
			break
		}
		pos += end + 1
	}

	var headings []int
	for _, l := range lines {
		if l.head {
			headings = append(headings, l.start)
		}
	}
	if len(headings) > 0 {
		return headings
	}

	var paragraphs []int
	prevBlank := true
	for _, l := range lines {
		if !l.blank && prevBlank {
			paragraphs = append(paragraphs, l.start)
		}
		prevBlank = l.blank
	}
	return paragraphs
}
