package mailer

import (
	"strings"
	"testing"
	"time"
)

func testInput() BuildInput {
	return BuildInput{
		SiteName:  "架空クリニック",
		Name:      "田中",
		Email:     "tanaka@example.com",
		Body:      "相談したいです",
		IP:        "203.0.113.7",
		UserAgent: "Mozilla/5.0",
		Now:       time.Date(2026, 8, 29, 10, 30, 0, 0, time.UTC),
	}
}

func TestBuildMessage(t *testing.T) {
	msg := BuildMessage(testInput())

	if !strings.Contains(msg.Subject, "田中") {
		t.Errorf("subject %q does not contain the submitter name", msg.Subject)
	}
	if !strings.Contains(msg.Subject, "架空クリニック") {
		t.Errorf("subject %q does not contain the site name", msg.Subject)
	}
	if msg.ReplyTo != "tanaka@example.com" {
		t.Errorf("reply-to = %q, want submitter email", msg.ReplyTo)
	}
	for _, want := range []string{"田中", "tanaka@example.com", "相談したいです", "203.0.113.7", "Mozilla/5.0"} {
		if !strings.Contains(msg.TextBody, want) {
			t.Errorf("text body missing %q", want)
		}
	}
}

func TestBuildMessageOptionalFields(t *testing.T) {
	in := testInput()
	in.Phone = "03-1234-5678"
	in.Subject = "予約について"

	msg := BuildMessage(in)

	if !strings.Contains(msg.Subject, "予約について") {
		t.Errorf("subject %q does not include the form subject", msg.Subject)
	}
	if !strings.Contains(msg.TextBody, "03-1234-5678") {
		t.Error("text body missing phone number")
	}
	if !strings.Contains(msg.HTMLBody, "03-1234-5678") {
		t.Error("html body missing phone number")
	}
}

func TestBuildMessageEscapesHTML(t *testing.T) {
	in := testInput()
	in.Name = `<script>alert("x")</script>`
	in.Body = "a < b & c"

	msg := BuildMessage(in)

	if strings.Contains(msg.HTMLBody, "<script>") {
		t.Error("html body contains unescaped script tag")
	}
	if !strings.Contains(msg.HTMLBody, "&lt;script&gt;") {
		t.Error("html body missing escaped name")
	}
	if !strings.Contains(msg.HTMLBody, "a &lt; b &amp; c") {
		t.Error("html body missing escaped message")
	}
}

// Escaping happens exactly once, at HTML render time. The subject and
// plain-text body carry the submitted text verbatim.
func TestBuildMessageEscapesOnlyHTMLBranch(t *testing.T) {
	in := testInput()
	in.Name = "O'Brien & Sons"
	in.Body = "BP was 120 < 140 mmHg"

	msg := BuildMessage(in)

	if !strings.Contains(msg.Subject, "O'Brien & Sons") {
		t.Errorf("subject %q does not carry the name verbatim", msg.Subject)
	}
	if !strings.Contains(msg.TextBody, "BP was 120 < 140 mmHg") {
		t.Error("text body does not carry the message verbatim")
	}
	if !strings.Contains(msg.HTMLBody, "O&#39;Brien &amp; Sons") {
		t.Error("html body missing singly-escaped name")
	}
	if strings.Contains(msg.HTMLBody, "&amp;amp;") || strings.Contains(msg.HTMLBody, "&amp;#39;") {
		t.Error("html body is double-escaped")
	}
}
