package render

import (
	"regexp"
	"strings"
)

// Style is how a Markdown line is drawn.
type Style int

const (
	Body Style = iota
	Heading1
	Heading2
	Bold
	Bullet
	Blank
)

// Line is one parsed Markdown line.
type Line struct {
	Style Style
	Text  string
	// Level is the bullet nesting depth.
	Level int
}

var (
	boldLine   = regexp.MustCompile(`^\*\*(.+?)\*\*:?$`)
	bulletLine = regexp.MustCompile(`^(\s*)(?:[-*•])\s+(.*)$`)
	emphasis   = regexp.MustCompile(`\*\*(.+?)\*\*|__(.+?)__`)
)

// Parse maps the Markdown subset the generators emit onto draw styles:
// "# " and "## " headings (deeper levels are drawn as "## "), whole-line
// bold, "- " or "• " bullets, and body text. Inline emphasis markers are
// removed.
func Parse(md string) []Line {
	var out []Line
	for _, raw := range strings.Split(strings.ReplaceAll(md, "\r\n", "\n"), "\n") {
		line := strings.TrimRight(raw, " \t")
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			if len(out) > 0 && out[len(out)-1].Style != Blank {
				out = append(out, Line{Style: Blank})
			}
		case strings.HasPrefix(trimmed, "# "):
			out = append(out, Line{Style: Heading1, Text: plain(trimmed[2:])})
		case strings.HasPrefix(trimmed, "##"):
			out = append(out, Line{Style: Heading2, Text: plain(strings.TrimLeft(trimmed, "# "))})
		case boldLine.MatchString(trimmed):
			out = append(out, Line{Style: Bold, Text: plain(boldLine.FindStringSubmatch(trimmed)[1])})
		case bulletLine.MatchString(line):
			m := bulletLine.FindStringSubmatch(line)
			out = append(out, Line{Style: Bullet, Text: plain(m[2]), Level: len(m[1]) / 2})
		default:
			out = append(out, Line{Style: Body, Text: plain(trimmed)})
		}
	}
	for len(out) > 0 && out[len(out)-1].Style == Blank {
		out = out[:len(out)-1]
	}
	return out
}

func plain(s string) string {
	s = emphasis.ReplaceAllString(s, "$1$2")
	return strings.TrimSpace(s)
}
