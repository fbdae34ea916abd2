// Package markup renders agent replies as a small, safe subset of HTML for
// the web chat widget.
package markup

import (
	"regexp"
	"strings"
)

var (
	escaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

	// Newlines are already <br> when fences are matched. A language tag
	// only counts when a line break follows it.
	fenceRe  = regexp.MustCompile("```(?:\\w*<br>)?((?s:.*?))```")
	boldRe   = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	italicRe = regexp.MustCompile(`\*([^*]+)\*`)
	linkRe   = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
	imageRe  = regexp.MustCompile(`!\[([^\]]*)\]\(([^)]+)\)`)
	codeRe   = regexp.MustCompile("`([^`]+)`")

	attrEscaper = strings.NewReplacer(`"`, "&quot;")
)

// Render converts text to markup. Rules run in a fixed order, each a global
// substitution over the result of the previous one:
//
//  1. escape &, < and >
//  2. newline to <br>
//  3. ```lang fenced``` blocks to <pre><code>
//  4. **bold** to <strong>
//  5. *italic* to <em>
//  6. [label](url) to a link opening in a new tab
//  7. ![alt](url) to <img>
//  8. `code` to <code>
//
// Fenced block bodies are emitted as-is and are not touched by rules 4-8.
// Render is not idempotent.
func Render(text string) string {
	if text == "" {
		return ""
	}

	s := escaper.Replace(text)
	s = strings.ReplaceAll(s, "\n", "<br>")

	var b strings.Builder
	last := 0
	for _, m := range fenceRe.FindAllStringSubmatchIndex(s, -1) {
		b.WriteString(inline(s[last:m[0]]))
		b.WriteString("<pre><code>")
		b.WriteString(s[m[2]:m[3]])
		b.WriteString("</code></pre>")
		last = m[1]
	}
	b.WriteString(inline(s[last:]))

	return b.String()
}

// inline applies rules 4 to 8.
func inline(s string) string {
	if s == "" {
		return s
	}

	s = boldRe.ReplaceAllString(s, "<strong>$1</strong>")
	s = italicRe.ReplaceAllString(s, "<em>$1</em>")
	s = replaceLinks(s)
	s = imageRe.ReplaceAllStringFunc(s, func(m string) string {
		sub := imageRe.FindStringSubmatch(m)
		return `<img src="` + safeURL(sub[2], true) + `" alt="` + attrEscaper.Replace(sub[1]) + `">`
	})
	s = codeRe.ReplaceAllString(s, "<code>$1</code>")

	return s
}

// replaceLinks rewrites [label](url) except where it is the tail of an
// image, which rule 7 handles.
func replaceLinks(s string) string {
	matches := linkRe.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return s
	}

	var b strings.Builder
	last := 0
	for _, m := range matches {
		if m[0] > 0 && s[m[0]-1] == '!' {
			continue
		}
		b.WriteString(s[last:m[0]])
		b.WriteString(`<a href="`)
		b.WriteString(safeURL(s[m[4]:m[5]], false))
		b.WriteString(`" target="_blank" rel="noopener noreferrer">`)
		b.WriteString(s[m[2]:m[3]])
		b.WriteString(`</a>`)
		last = m[1]
	}
	b.WriteString(s[last:])

	return b.String()
}

// safeURL quotes u for an attribute and neutralizes script schemes. Images
// may use data: URLs, links may not.
func safeURL(u string, image bool) string {
	scheme := strings.ToLower(strings.TrimSpace(u))
	switch {
	case strings.HasPrefix(scheme, "javascript:"), strings.HasPrefix(scheme, "vbscript:"):
		return "#"
	case strings.HasPrefix(scheme, "data:") && !(image && strings.HasPrefix(scheme, "data:image/")):
		return "#"
	}
	return attrEscaper.Replace(u)
}
