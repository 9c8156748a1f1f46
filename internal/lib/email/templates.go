package email

// Template is a string-based enum naming email templates.
type Template string

const (
	// TemplateAttestation corresponds to templates/attestation.html
	TemplateAttestation Template = "attestation"
)
