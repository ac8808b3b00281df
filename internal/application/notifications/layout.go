package notifications

import (
	"fmt"
	"strings"
	"time"
)

const (
	themePrimary   = "#2563EB"
	themeTextMain  = "#1F2937"
	themeTextMuted = "#6B7280"
	themeBgBody    = "#F3F4F6"
	themeWhite     = "#FFFFFF"
)

// EmailLayout wraps content in the shared HTML shell.
func EmailLayout(contentHTML string) string {
	year := time.Now().Year()
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>OrgChart</title>
  <style>
    body { margin: 0; padding: 0; background-color: %s; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Helvetica, Arial, sans-serif; color: %s; }
    .content-body p { margin: 0 0 20px 0; font-size: 16px; line-height: 1.6; }
    .content-body h1 { font-size: 22px; margin: 0 0 20px 0; }
    .button { display: inline-block; background-color: %s; color: #ffffff !important; padding: 12px 28px; border-radius: 6px; text-decoration: none; font-weight: 600; }
    .footer-text { color: %s; font-size: 13px; }
  </style>
</head>
<body>
  <table role="presentation" width="100%%" cellspacing="0" cellpadding="0">
    <tr>
      <td align="center" style="padding: 40px 0;">
        <table role="presentation" width="600" cellspacing="0" cellpadding="0" style="background-color: %s; border-radius: 8px;">
          <tr><td class="content-body" style="padding: 40px 48px 24px 48px;">%s</td></tr>
          <tr><td align="center" style="padding: 0 48px 32px 48px;"><p class="footer-text">© %d OrgChart</p></td></tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`, themeBgBody, themeTextMain, themePrimary, themeTextMuted, themeWhite, contentHTML, year)
}

// EscapeHTML escapes HTML specials for safe interpolation.
func EscapeHTML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, "\"", "&quot;")
	return s
}

// transferContent returns subject and body HTML for one notification kind.
func transferContent(kind Kind, name string, msg Message, baseURL string) (string, string, error) {
	if name == "" {
		name = "there"
	}
	org := msg.OrganizationName
	if org == "" {
		org = "your organization"
	}
	link := fmt.Sprintf("%s/orgs/%s/ownership-transfers/%s", baseURL, msg.OrganizationID, msg.TransferID)

	var subject, heading, body string
	switch kind {
	case TransferInitiated:
		subject = "You have been offered ownership of " + org
		heading = "Ownership transfer request"
		body = fmt.Sprintf("<p>You have been asked to become the owner of <strong>%s</strong>. The request expires on %s.</p>",
			EscapeHTML(org), msg.ExpiresAt.UTC().Format("January 2, 2006"))
	case TransferAccepted:
		subject = "Your ownership transfer was accepted"
		heading = "Ownership transferred"
		body = fmt.Sprintf("<p>The recipient accepted ownership of <strong>%s</strong>. Your role is now admin.</p>", EscapeHTML(org))
	case TransferRejected:
		subject = "Your ownership transfer was declined"
		heading = "Ownership transfer declined"
		body = fmt.Sprintf("<p>The recipient declined ownership of <strong>%s</strong>. You remain the owner.</p>", EscapeHTML(org))
	case TransferCancelled:
		subject = "An ownership transfer was cancelled"
		heading = "Ownership transfer cancelled"
		body = fmt.Sprintf("<p>The owner of <strong>%s</strong> cancelled the ownership transfer request.</p>", EscapeHTML(org))
	default:
		return "", "", fmt.Errorf("unknown notification kind %q", kind)
	}
	if msg.Reason != "" {
		body += fmt.Sprintf("<p><em>Reason:</em> %s</p>", EscapeHTML(msg.Reason))
	}
	content := fmt.Sprintf(`
    <h1>%s</h1>
    <p>Hi %s,</p>
    %s
    <center><a href="%s" class="button">View transfer</a></center>
`, heading, EscapeHTML(name), body, link)
	return subject, content, nil
}
