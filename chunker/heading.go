package chunker

import (
	"regexp"
	"strings"
)

// heading is a detected structural marker: level 1..6, the heading text
// (verbatim, no numbering/marker noise), and the 0-based line index where
// its section begins.
type heading struct {
	Level   int
	Text    string
	LineIdx int
}

var (
	atxPattern       = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)
	setextEquals     = regexp.MustCompile(`^=+$`)
	setextDashes     = regexp.MustCompile(`^-+$`)
	allCapsPattern   = regexp.MustCompile(`^[A-Z][A-Z\s\d:'-]{2,}$`)
	purelyNumeric    = regexp.MustCompile(`^[\d\s]+$`)
	numberedSection  = regexp.MustCompile(`^(\d+(?:\.\d+)*)\.?\s+([A-Z].{2,60})$`)
	structuralMarker = regexp.MustCompile(`(?i)^(Chapter|Section|Part|Article)\s+(\d+|[IVXLCDM]+):?\s*(.*)$`)
)

// detectHeadings scans lines and returns every detected heading in
// document order, first-matching-pattern-wins per line as listed in the
// spec: ATX, setext, ALL-CAPS, numbered section, structural marker.
func detectHeadings(lines []string) []heading {
	var out []heading
	for i, line := range lines {
		if h, ok := matchATX(line, i); ok {
			out = append(out, h)
			continue
		}
		if h, ok := matchSetext(lines, i); ok {
			out = append(out, h)
			continue
		}
		if h, ok := matchAllCaps(lines, i); ok {
			out = append(out, h)
			continue
		}
		if h, ok := matchNumberedSection(line, i); ok {
			out = append(out, h)
			continue
		}
		if h, ok := matchStructuralMarker(line, i); ok {
			out = append(out, h)
			continue
		}
	}
	return out
}

func matchATX(line string, idx int) (heading, bool) {
	m := atxPattern.FindStringSubmatch(line)
	if m == nil {
		return heading{}, false
	}
	return heading{Level: len(m[1]), Text: strings.TrimSpace(m[2]), LineIdx: idx}, true
}

func matchSetext(lines []string, idx int) (heading, bool) {
	if idx == 0 {
		return heading{}, false
	}
	line := lines[idx]
	prev := strings.TrimSpace(lines[idx-1])
	if prev == "" || len(prev) < 3 || len(prev) > 99 {
		return heading{}, false
	}
	switch {
	case setextEquals.MatchString(line):
		return heading{Level: 1, Text: prev, LineIdx: idx - 1}, true
	case setextDashes.MatchString(line):
		return heading{Level: 2, Text: prev, LineIdx: idx - 1}, true
	}
	return heading{}, false
}

// matchAllCaps recognizes a bare ALL-CAPS line as a heading: 3-60 chars,
// preceded by a blank line, followed by non-blank content, not a setext
// underline and not purely numeric. The source gives no level for this
// form; an ALL-CAPS line in prose with no markdown markup is treated as a
// document-level heading.
func matchAllCaps(lines []string, idx int) (heading, bool) {
	line := strings.TrimSpace(lines[idx])
	if len(line) < 3 || len(line) > 60 {
		return heading{}, false
	}
	if !allCapsPattern.MatchString(line) {
		return heading{}, false
	}
	if setextEquals.MatchString(line) || setextDashes.MatchString(line) {
		return heading{}, false
	}
	if purelyNumeric.MatchString(line) {
		return heading{}, false
	}
	if idx == 0 || strings.TrimSpace(lines[idx-1]) != "" {
		return heading{}, false
	}
	if idx+1 >= len(lines) || strings.TrimSpace(lines[idx+1]) == "" {
		return heading{}, false
	}
	return heading{Level: 1, Text: line, LineIdx: idx}, true
}

func matchNumberedSection(line string, idx int) (heading, bool) {
	m := numberedSection.FindStringSubmatch(line)
	if m == nil {
		return heading{}, false
	}
	level := strings.Count(m[1], ".") + 1
	if level > 6 {
		level = 6
	}
	return heading{Level: level, Text: strings.TrimSpace(m[2]), LineIdx: idx}, true
}

func matchStructuralMarker(line string, idx int) (heading, bool) {
	m := structuralMarker.FindStringSubmatch(line)
	if m == nil {
		return heading{}, false
	}
	return heading{Level: 1, Text: strings.TrimSpace(line), LineIdx: idx}, true
}
