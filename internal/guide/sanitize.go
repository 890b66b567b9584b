package guide

import (
	"strings"

	"golang.org/x/net/html"
)

// Elements dropped together with everything inside them. Void elements such as
// embed are not listed: they have no content and fall out of the allow-list.
var droppedWithContent = map[string]bool{
	"script":   true,
	"style":    true,
	"iframe":   true,
	"object":   true,
	"template": true,
	"head":     true,
	"noscript": true,
	"form":     true,
	"svg":      true,
	"math":     true,
}

var allowedTags = map[string]bool{
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"p": true, "br": true, "hr": true, "blockquote": true, "pre": true,
	"ul": true, "ol": true, "li": true, "dl": true, "dt": true, "dd": true,
	"strong": true, "em": true, "b": true, "i": true, "u": true, "code": true,
	"a": true, "img": true, "span": true, "div": true, "section": true, "article": true,
	"table": true, "thead": true, "tbody": true, "tr": true, "th": true, "td": true,
}

var allowedAttrs = map[string]bool{
	"href": true, "src": true, "alt": true, "title": true,
	"colspan": true, "rowspan": true, "start": true,
}

var urlAttrs = map[string]bool{"href": true, "src": true}

// Sanitize keeps a conservative allow-list of formatting markup and drops active content.
func Sanitize(fragment string) string {
	tokens := tokenize(fragment)

	var out strings.Builder
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		name := tok.Data

		switch tok.Type {
		case html.TextToken:
			out.WriteString(html.EscapeString(tok.Data))
		case html.StartTagToken, html.SelfClosingTagToken:
			if droppedWithContent[name] {
				if tok.Type == html.StartTagToken {
					i = skipElement(tokens, i)
				}
				continue
			}
			if !allowedTags[name] {
				continue
			}
			tok.Attr = cleanAttrs(tok.Attr)
			out.WriteString(tok.String())
		case html.EndTagToken:
			if allowedTags[name] {
				out.WriteString(tok.String())
			}
		}
		// Comments and doctypes are dropped.
	}
	return out.String()
}

func tokenize(fragment string) []html.Token {
	z := html.NewTokenizer(strings.NewReader(fragment))
	var tokens []html.Token
	for {
		if z.Next() == html.ErrorToken {
			// io.EOF or a malformed tail; keep what was already read.
			return tokens
		}
		tokens = append(tokens, z.Token())
	}
}

// skipElement returns the index of the last token belonging to the element
// opened at tokens[start]. An element that is never closed drops only its
// start tag, so the rest of the fragment survives.
func skipElement(tokens []html.Token, start int) int {
	tag := tokens[start].Data
	depth := 1
	for i := start + 1; i < len(tokens); i++ {
		tok := tokens[i]
		switch {
		case tok.Type == html.StartTagToken && tok.Data == tag:
			depth++
		case tok.Type == html.EndTagToken && tok.Data == tag:
			depth--
			if depth == 0 {
				return i
			}
		case tag == "head" && tok.Type == html.StartTagToken && (tok.Data == "body" || allowedTags[tok.Data]):
			// Body content implicitly closes head; it is processed normally.
			return i - 1
		}
	}
	return start
}

func cleanAttrs(attrs []html.Attribute) []html.Attribute {
	kept := attrs[:0]
	for _, a := range attrs {
		key := strings.ToLower(a.Key)
		if !allowedAttrs[key] || a.Namespace != "" {
			continue
		}
		if urlAttrs[key] && !safeURL(a.Val) {
			continue
		}
		kept = append(kept, html.Attribute{Key: key, Val: a.Val})
	}
	return kept
}

func safeURL(raw string) bool {
	v := strings.ToLower(strings.Join(strings.Fields(raw), ""))
	if i := strings.IndexByte(v, ':'); i >= 0 {
		scheme := v[:i]
		if strings.ContainsAny(scheme, "/?#") {
			return true
		}
		return scheme == "http" || scheme == "https" || scheme == "mailto"
	}
	return true
}
