package extractor

import (
	"strings"
	"testing"
)

func TestParseHTML(t *testing.T) {
	doc, err := ParseHTML(postingHTML)
	if err != nil {
		t.Fatalf("ParseHTML: %v", err)
	}
	if doc.Title != "Senior Go Engineer" {
		t.Errorf("title = %q", doc.Title)
	}
	if strings.Contains(doc.Text, "var x") {
		t.Error("script content leaked into text")
	}
	for _, want := range []string{"Acme Corp is hiring", "Golang", "PostgreSQL"} {
		if !strings.Contains(doc.Text, want) {
			t.Errorf("text missing %q: %q", want, doc.Text)
		}
	}
	if strings.Contains(doc.Text, "\n\n") {
		t.Error("blank lines must be dropped")
	}
}

func TestParseHTML_TitleFallback(t *testing.T) {
	doc, err := ParseHTML(`<html><head><title>Data Analyst</title></head><body><p>We need someone to analyse data every day.</p></body></html>`)
	if err != nil {
		t.Fatalf("ParseHTML: %v", err)
	}
	if doc.Title != "Data Analyst" {
		t.Errorf("title = %q", doc.Title)
	}
}

func TestParseHTML_Truncates(t *testing.T) {
	long := "<html><body><p>" + strings.Repeat("word ", maxTextRunes) + "</p></body></html>"
	doc, err := ParseHTML(long)
	if err != nil {
		t.Fatalf("ParseHTML: %v", err)
	}
	if n := len([]rune(doc.Text)); n != maxTextRunes {
		t.Fatalf("text length = %d, want %d", n, maxTextRunes)
	}
}
