package email

import (
	"context"
	"net/url"

	"github.com/deppfellow/attestation-plugin/internal/i18n"
)

// AttestationEmail is the content of the attestation link mail.
type AttestationEmail struct {
	To           string
	Locale       string
	AttendeeName string
	EventName    string
	// Link is the rendered attestation_link placeholder.
	Link string
}

// AttestationData builds the template data for m in its locale.
func AttestationData(m AttestationEmail) map[string]string {
	name := m.AttendeeName
	if name == "" {
		name = m.To
	}
	// Data keys must match what the HTML template expects.
	return map[string]string{
		"Greeting":        i18n.T(m.Locale, i18n.EmailGreeting, name),
		"Intro":           i18n.T(m.Locale, i18n.EmailIntro, m.EventName),
		"AttestationLink": m.Link,
		"AttestationURL":  linkURL(m.Link),
		"Footer":          i18n.T(m.Locale, i18n.EmailFooter),
	}
}

// linkURL returns link if it is an absolute http(s) URL and "" otherwise.
// The placeholder renders an error message in place of the link when it
// cannot produce one, and that text must not end up in an href.
func linkURL(link string) string {
	u, err := url.Parse(link)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return ""
	}
	return link
}

// SendAttestationEmail sends the attestation link of one ticket.
func (c *Client) SendAttestationEmail(ctx context.Context, m AttestationEmail) error {
	return c.SendEmail(
		ctx,
		m.To,
		i18n.T(m.Locale, i18n.EmailSubject, m.EventName),
		TemplateAttestation,
		AttestationData(m),
	)
}
