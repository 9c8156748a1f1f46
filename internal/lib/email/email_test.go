package email

import (
	"context"
	"errors"
	"testing"

	"github.com/deppfellow/attestation-plugin/internal/i18n"
	"github.com/deppfellow/attestation-plugin/internal/placeholder"
	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	sent []*resend.SendEmailRequest
	err  error
}

func (f *fakeSender) SendWithContext(_ context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, params)
	return &resend.SendEmailResponse{Id: "email-1"}, nil
}

func newTestClient(s sender) *Client {
	logger := zerolog.Nop()
	return &Client{sender: s, from: "Tickets <tickets@example.org>", logger: &logger}
}

func TestSendAttestationEmail(t *testing.T) {
	t.Run("Should send rendered link to attendee", func(t *testing.T) {
		s := &fakeSender{}
		c := newTestClient(s)

		err := c.SendAttestationEmail(context.Background(), AttestationEmail{
			To:           "ada@example.org",
			Locale:       "en",
			AttendeeName: "Ada",
			EventName:    "DevCon",
			Link:         "https://attest.example.org/?ticket=abc",
		})
		require.NoError(t, err)
		require.Len(t, s.sent, 1)

		sent := s.sent[0]
		assert.Equal(t, "Tickets <tickets@example.org>", sent.From)
		assert.Equal(t, []string{"ada@example.org"}, sent.To)
		assert.Equal(t, "Your attestation link for DevCon", sent.Subject)
		assert.Contains(t, sent.Html, "Hello Ada,")
		assert.Contains(t, sent.Html, `href="https://attest.example.org/?ticket=abc"`)
	})

	t.Run("Should use event locale", func(t *testing.T) {
		s := &fakeSender{}
		c := newTestClient(s)

		err := c.SendAttestationEmail(context.Background(), AttestationEmail{
			To: "ada@example.org", Locale: "de", EventName: "DevCon", Link: "x",
		})
		require.NoError(t, err)
		assert.Equal(t, "Ihr Attestation-Link für DevCon", s.sent[0].Subject)
		assert.Contains(t, s.sent[0].Html, "Hallo ada@example.org,")
	})

	t.Run("Should render error message as plain text", func(t *testing.T) {
		s := &fakeSender{}
		c := newTestClient(s)

		msg := i18n.T("en", i18n.GenerationFailed)
		err := c.SendAttestationEmail(context.Background(), AttestationEmail{
			To: "ada@example.org", Locale: "en", EventName: "DevCon", Link: msg,
		})
		require.NoError(t, err)
		assert.NotContains(t, s.sent[0].Html, "<a ")
		assert.NotContains(t, s.sent[0].Html, "href=")
		assert.Contains(t, s.sent[0].Html, "please contact support")
	})

	t.Run("Should wrap provider errors", func(t *testing.T) {
		c := newTestClient(&fakeSender{err: errors.New("rate limited")})

		err := c.SendAttestationEmail(context.Background(), AttestationEmail{To: "ada@example.org"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to send email")
	})
}

func TestPreview(t *testing.T) {
	t.Run("Should render sample link", func(t *testing.T) {
		html, err := Preview(TemplateAttestation, AttestationEmail{})
		require.NoError(t, err)
		assert.Contains(t, html, "Hello John,")
		assert.Contains(t, html, placeholder.Sample)
	})

	t.Run("Should fail for unknown template", func(t *testing.T) {
		_, err := Render(Template("missing"), nil)
		assert.Error(t, err)
	})
}

func TestLinkURL(t *testing.T) {
	t.Run("Should accept absolute http and https links", func(t *testing.T) {
		assert.Equal(t, "https://attest.example.org/?ticket=abc", linkURL("https://attest.example.org/?ticket=abc"))
		assert.Equal(t, placeholder.Sample, linkURL(placeholder.Sample))
	})

	t.Run("Should reject messages and relative or foreign links", func(t *testing.T) {
		assert.Empty(t, linkURL(i18n.T("en", i18n.MissingBaseURL)))
		assert.Empty(t, linkURL("x"))
		assert.Empty(t, linkURL("/ticket=abc"))
		assert.Empty(t, linkURL("javascript:alert(1)"))
		assert.Empty(t, linkURL(""))
	})
}
