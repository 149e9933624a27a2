package slides

import "strings"

var altText = strings.NewReplacer("[", "", "]", "")

// Format writes a deck back out in the slide markdown dialect.
// Parse(Format(d)) yields d again as long as no field contains a newline
// and no title ends in something that looks like a layout label.
func Format(d *Deck) string {
	var b strings.Builder

	title := DefaultTitle
	if d != nil && d.Title != "" {
		title = d.Title
	}
	b.WriteString("# " + title + "\n")

	if d == nil {
		return b.String()
	}

	for _, s := range d.Slides {
		b.WriteString("\n## ")
		b.WriteString(s.Title)
		if s.LayoutKey != "" {
			if s.Title != "" {
				b.WriteString(" ")
			}
			b.WriteString("[" + s.LayoutKey + "]")
		}
		b.WriteString("\n")

		for _, bullet := range s.Bullets {
			b.WriteString("- " + bullet + "\n")
		}
		if s.ImagePath != "" {
			b.WriteString("![" + altText.Replace(s.Title) + "](" + s.ImagePath + ")\n")
		}
	}

	return b.String()
}
