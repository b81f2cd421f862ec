package fetch

import (
	"regexp"
	"strings"
)

var (
	scriptRe     = regexp.MustCompile(`(?is)<(script|style|noscript)\b.*?</(script|style|noscript)>`)
	blockCloseRe = regexp.MustCompile(`(?i)</(p|div|li|h[1-6]|tr|br)>`)
	tagRe        = regexp.MustCompile(`(?s)<[^>]*>`)
	blankRe      = regexp.MustCompile(`\n{3,}`)
	titleRe      = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
)

// StripHTML reduces an HTML page to plain text: scripts and styles dropped,
// tags removed, entities decoded for the common cases, blank runs folded.
func StripHTML(html string) string {
	text := scriptRe.ReplaceAllString(html, " ")
	text = blockCloseRe.ReplaceAllString(text, "\n")
	text = tagRe.ReplaceAllString(text, " ")
	text = decodeEntities(text)

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	text = strings.Join(lines, "\n")
	text = blankRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

func extractTitle(html string) string {
	m := titleRe.FindStringSubmatch(html)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(decodeEntities(m[1]))
}

var entityReplacer = strings.NewReplacer(
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#39;", "'",
	"&nbsp;", " ",
)

func decodeEntities(s string) string {
	return entityReplacer.Replace(s)
}
