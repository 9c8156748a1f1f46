package email

import "github.com/deppfellow/attestation-plugin/internal/placeholder"

// PreviewData contains sample template input for previews, keyed by template.
var PreviewData = map[Template]AttestationEmail{
	TemplateAttestation: {
		To:           "attendee@example.org",
		Locale:       "en",
		AttendeeName: "John",
		EventName:    "Sample Event",
		Link:         placeholder.Sample,
	},
}

// Preview renders templateName with its preview data. Fields of override
// that are set replace the sample values.
func Preview(templateName Template, override AttestationEmail) (string, error) {
	m := PreviewData[templateName]
	if override.Locale != "" {
		m.Locale = override.Locale
	}
	if override.EventName != "" {
		m.EventName = override.EventName
	}
	if override.Link != "" {
		m.Link = override.Link
	}
	return Render(templateName, AttestationData(m))
}
