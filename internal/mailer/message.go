package mailer

import (
	"fmt"
	"html"
	"strings"
	"time"
)

// Message is a rendered outbound mail, ready for a transport. It is
// built once per accepted submission and discarded after dispatch.
type Message struct {
	Subject  string
	TextBody string
	HTMLBody string
	ReplyTo  string
}

// BuildInput carries the validated submission fields plus the request
// metadata that goes into the message footer.
type BuildInput struct {
	SiteName  string
	Name      string
	Email     string
	Phone     string
	Subject   string
	Body      string
	IP        string
	UserAgent string
	Now       time.Time
}

// BuildMessage renders the notification mail for clinic staff. The
// reply-to is the submitter's address so staff can answer directly.
func BuildMessage(in BuildInput) *Message {
	subject := fmt.Sprintf("【お問い合わせ】%s (%s 様)", in.SiteName, in.Name)
	if in.Subject != "" {
		subject += " - " + in.Subject
	}

	lines := []string{
		"サイト名: " + in.SiteName,
		"お名前: " + in.Name,
		"メール: " + in.Email,
	}
	if in.Phone != "" {
		lines = append(lines, "電話番号: "+in.Phone)
	}
	lines = append(lines,
		"---",
		in.Body,
		"---",
		"IP: "+in.IP,
		"UA: "+in.UserAgent,
		"日時: "+in.Now.Format(time.RFC3339),
	)

	var htmlBody strings.Builder
	htmlBody.WriteString("<h2>お問い合わせ</h2>\n")
	fmt.Fprintf(&htmlBody, "<p><strong>サイト名:</strong> %s</p>\n", html.EscapeString(in.SiteName))
	fmt.Fprintf(&htmlBody, "<p><strong>お名前:</strong> %s</p>\n", html.EscapeString(in.Name))
	fmt.Fprintf(&htmlBody, "<p><strong>メール:</strong> %s</p>\n", html.EscapeString(in.Email))
	if in.Phone != "" {
		fmt.Fprintf(&htmlBody, "<p><strong>電話番号:</strong> %s</p>\n", html.EscapeString(in.Phone))
	}
	htmlBody.WriteString("<hr />\n")
	fmt.Fprintf(&htmlBody, "<pre style=\"white-space:pre-wrap\">%s</pre>\n", html.EscapeString(in.Body))
	htmlBody.WriteString("<hr />\n")
	fmt.Fprintf(&htmlBody, "<p style=\"color:#666;font-size:12px\">IP: %s<br/>UA: %s<br/>Datetime: %s</p>\n",
		html.EscapeString(in.IP),
		html.EscapeString(in.UserAgent),
		in.Now.UTC().Format(time.RFC3339))

	return &Message{
		Subject:  subject,
		TextBody: strings.Join(lines, "\n"),
		HTMLBody: htmlBody.String(),
		ReplyTo:  in.Email,
	}
}
