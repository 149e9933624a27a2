package slides

import (
	"regexp"
	"strings"
)

var (
	// trailing [label] on a slide heading
	layoutLabelPattern = regexp.MustCompile(`^(.*?)\s*\[([^\[\]]*)\]$`)

	// ![alt](path) or ![alt](path "caption")
	imagePattern = regexp.MustCompile(`^!\[[^\]]*\]\((.+?)(?:\s+"[^"]*")?\s*\)$`)
)

// Parse compiles slide markdown into ordered slide records and a presentation title.
//
// Conventions, one per line (surrounding whitespace is ignored):
//
//	# Title                     presentation title (first one wins)
//	## Heading [Layout Name]    starts a slide; the bracketed label becomes LayoutKey
//	- text                      bullet on the current slide
//	![alt](path)                image on the current slide; a later one replaces it
//
// Everything else is skipped, as is content that appears before the first slide
// heading. The layouts argument is not consulted: label resolution belongs to the
// renderer, so labels pass through verbatim. Parse never fails; input without
// headings yields no slides and DefaultTitle.
func Parse(text string, layouts LayoutMapping) ([]SlideRecord, string) {
	var (
		records  []SlideRecord
		current  *SlideRecord
		title    string
		hasTitle bool
	)

	flush := func() {
		if current != nil {
			records = append(records, *current)
			current = nil
		}
	}

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		switch {
		case isHeading(line, 2):
			flush()
			current = newRecord(headingText(line, 2))

		case isHeading(line, 1):
			if !hasTitle {
				title = headingText(line, 1)
				hasTitle = true
			}

		case isBullet(line):
			if current != nil {
				current.Bullets = append(current.Bullets, strings.TrimSpace(line[1:]))
			}

		case strings.HasPrefix(line, "!["):
			if current == nil {
				continue
			}
			if m := imagePattern.FindStringSubmatch(line); m != nil {
				// paths may contain spaces
				if path := strings.TrimSpace(m[1]); path != "" {
					current.ImagePath = path
				}
			}
		}
	}
	flush()

	if !hasTitle || title == "" {
		title = DefaultTitle
	}

	return records, title
}

// ParseDeck is Parse returning a Deck
func ParseDeck(text string, layouts LayoutMapping) *Deck {
	records, title := Parse(text, layouts)
	return &Deck{Title: title, Slides: records}
}

// isHeading reports whether line is an ATX heading of exactly the given level
func isHeading(line string, level int) bool {
	marker := strings.Repeat("#", level)
	if !strings.HasPrefix(line, marker) {
		return false
	}
	rest := line[level:]
	if rest == "" {
		return true
	}
	return rest[0] == ' ' || rest[0] == '\t'
}

func headingText(line string, level int) string {
	return strings.TrimSpace(line[level:])
}

func newRecord(heading string) *SlideRecord {
	rec := &SlideRecord{Title: heading}
	if m := layoutLabelPattern.FindStringSubmatch(heading); m != nil {
		rec.Title = strings.TrimSpace(m[1])
		rec.LayoutKey = strings.TrimSpace(m[2])
	}
	return rec
}

// isBullet accepts "-" followed by text. A lone dash and dash-only rules are not bullets.
func isBullet(line string) bool {
	if !strings.HasPrefix(line, "-") {
		return false
	}
	return strings.Trim(line, "- \t") != ""
}
