// Package guide inspects and optionally hardens generated HTML guides.
package guide

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Report summarises the structure of a generated guide fragment.
type Report struct {
	Title     string
	Outline   []string
	ShellTags []string
	Empty     bool
}

var shellTags = map[string]bool{"html": true, "head": true, "body": true}

// Inspect extracts the title and heading outline of an HTML fragment.
func Inspect(fragment string) (Report, error) {
	report := Report{Empty: strings.TrimSpace(fragment) == ""}

	tags, err := documentShellTags(fragment)
	if err != nil {
		return Report{}, err
	}
	report.ShellTags = tags

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return Report{}, fmt.Errorf("parse guide: %w", err)
	}

	doc.Find("h1, h2, h3").Each(func(i int, s *goquery.Selection) {
		text := collapseSpace(s.Text())
		if text == "" {
			return
		}
		if report.Title == "" && goquery.NodeName(s) == "h1" {
			report.Title = text
		}
		report.Outline = append(report.Outline, text)
	})
	if report.Title == "" && len(report.Outline) > 0 {
		report.Title = report.Outline[0]
	}

	return report, nil
}

// HasDocumentShell reports whether the fragment spells out <html>, <head> or <body>.
func HasDocumentShell(fragment string) bool {
	tags, err := documentShellTags(fragment)
	return err == nil && len(tags) > 0
}

// The goquery parser always synthesises a document shell, so explicit tags
// are detected on the raw token stream instead.
func documentShellTags(fragment string) ([]string, error) {
	var found []string
	seen := map[string]bool{}
	z := html.NewTokenizer(strings.NewReader(fragment))
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if z.Err() == io.EOF {
				return found, nil
			}
			return nil, fmt.Errorf("tokenize guide: %w", z.Err())
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if shellTags[tag] && !seen[tag] {
				seen[tag] = true
				found = append(found, tag)
			}
		}
	}
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
