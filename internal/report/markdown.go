package report

import (
	"html/template"
	"regexp"
	"strings"
)

var (
	codeSpan   = regexp.MustCompile("`([^`]+)`")
	boldSpan   = regexp.MustCompile(`\*\*(.+?)\*\*`)
	italicSpan = regexp.MustCompile(`\*(.+?)\*`)
	bulletLine = regexp.MustCompile(`^- (.+)$`)

	headers = []struct {
		prefix string
		tag    string
	}{
		{"### ", "h3"},
		{"## ", "h2"},
		{"# ", "h1"},
	}
)

// Markdown renders the small Markdown subset assistant answers use:
// headers, bold, italic, inline code, "- " bullet lists and line breaks.
// The text is HTML-escaped before any markup is produced, so the result
// never contains tags that were present in the input.
func Markdown(text string) template.HTML {
	escaped := template.HTMLEscapeString(strings.ReplaceAll(text, "\r\n", "\n"))

	var b strings.Builder
	inList := false
	needBreak := false
	for _, line := range strings.Split(escaped, "\n") {
		if m := bulletLine.FindStringSubmatch(line); m != nil {
			if !inList {
				b.WriteString("<ul>")
				inList = true
			}
			b.WriteString("<li>" + inline(m[1]) + "</li>")
			needBreak = false
			continue
		}
		if inList {
			b.WriteString("</ul>")
			inList = false
		}

		if tag, body, ok := header(line); ok {
			b.WriteString("<" + tag + ">" + inline(body) + "</" + tag + ">")
			needBreak = false
			continue
		}

		if needBreak {
			b.WriteString("<br>")
		}
		b.WriteString(inline(line))
		needBreak = true
	}
	if inList {
		b.WriteString("</ul>")
	}
	return template.HTML(b.String())
}

// PlainText escapes text and keeps its line breaks.
func PlainText(text string) template.HTML {
	escaped := template.HTMLEscapeString(strings.ReplaceAll(text, "\r\n", "\n"))
	return template.HTML(strings.ReplaceAll(escaped, "\n", "<br>"))
}

func header(line string) (tag, body string, ok bool) {
	for _, h := range headers {
		if rest, found := strings.CutPrefix(line, h.prefix); found {
			return h.tag, rest, true
		}
	}
	return "", "", false
}

// inline expands code spans first so their contents are not read as
// emphasis.
func inline(s string) string {
	parts := codeSpan.Split(s, -1)
	codes := codeSpan.FindAllStringSubmatch(s, -1)

	var b strings.Builder
	for i, part := range parts {
		part = boldSpan.ReplaceAllString(part, "<strong>$1</strong>")
		part = italicSpan.ReplaceAllString(part, "<em>$1</em>")
		b.WriteString(part)
		if i < len(codes) {
			b.WriteString("<code>" + codes[i][1] + "</code>")
		}
	}
	return b.String()
}
