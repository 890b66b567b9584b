package guide

import (
	"strings"
	"testing"
)

func TestInspectOutline(t *testing.T) {
	t.Parallel()

	fragment := `
	<h1>Onboarding   Guide</h1>
	<p>Intro text.</p>
	<h2>Step one</h2>
	<ul><li>Do this</li></ul>
	<h3>Details</h3>
	<h4>Ignored level</h4>
	<h2></h2>`

	report, err := Inspect(fragment)
	if err != nil {
		t.Fatalf("Inspect returned error: %v", err)
	}

	if report.Title != "Onboarding Guide" {
		t.Fatalf("unexpected title: %q", report.Title)
	}
	want := []string{"Onboarding Guide", "Step one", "Details"}
	if strings.Join(report.Outline, "|") != strings.Join(want, "|") {
		t.Fatalf("unexpected outline: %v", report.Outline)
	}
	if len(report.ShellTags) != 0 {
		t.Fatalf("expected no shell tags, got %v", report.ShellTags)
	}
	if report.Empty {
		t.Fatalf("report should not be empty")
	}
}

func TestInspectTitleFallsBackToFirstHeading(t *testing.T) {
	t.Parallel()

	report, err := Inspect(`<h2>Only a section</h2><p>body</p>`)
	if err != nil {
		t.Fatalf("Inspect returned error: %v", err)
	}
	if report.Title != "Only a section" {
		t.Fatalf("unexpected title: %q", report.Title)
	}
}

func TestInspectDetectsDocumentShell(t *testing.T) {
	t.Parallel()

	report, err := Inspect(`<html><head><title>x</title></head><body><h1>Guide</h1></body></html>`)
	if err != nil {
		t.Fatalf("Inspect returned error: %v", err)
	}
	if strings.Join(report.ShellTags, ",") != "html,head,body" {
		t.Fatalf("unexpected shell tags: %v", report.ShellTags)
	}
	if !HasDocumentShell(`<BODY><p>x</p></BODY>`) {
		t.Fatalf("expected uppercase body to be detected")
	}
	if HasDocumentShell(`<h1>Guide</h1><p>the word body appears here</p>`) {
		t.Fatalf("text mentioning body must not count as a shell tag")
	}
}

func TestInspectEmpty(t *testing.T) {
	t.Parallel()

	report, err := Inspect("   ")
	if err != nil {
		t.Fatalf("Inspect returned error: %v", err)
	}
	if !report.Empty || report.Title != "" || len(report.Outline) != 0 {
		t.Fatalf("unexpected report for blank input: %+v", report)
	}
}
