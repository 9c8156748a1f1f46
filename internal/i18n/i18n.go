// Package i18n translates the user-facing strings of the plugin.
//
// Message keys are the English texts. An event's locale picks the
// printer; locales without a catalog fall back to English.
package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Placeholder messages.
const (
	MissingBaseURL         = "Attestation URL error - missing BaseURL - please contact support"
	MissingKeyFile         = "Attestation URL error - missing KeyFile - please contact support"
	GenerationFailed       = "Attestation URL error - problem generating AttestationLink - please contact support"
	MissingAttestationLink = "Attestation URL error - missing AttestationLink - please contact support"
)

// Email messages.
const (
	EmailSubject  = "Your attestation link for %s"
	EmailGreeting = "Hello %s,"
	EmailIntro    = "your ticket for %s comes with an attestation. Use the link below to claim it."
	EmailFooter   = "If the link does not work, please contact the event organizer."
)

var german = map[string]string{
	MissingBaseURL:         "Attestation-URL-Fehler - BaseURL fehlt - bitte kontaktieren Sie den Support",
	MissingKeyFile:         "Attestation-URL-Fehler - KeyFile fehlt - bitte kontaktieren Sie den Support",
	GenerationFailed:       "Attestation-URL-Fehler - Problem beim Erzeugen des AttestationLink - bitte kontaktieren Sie den Support",
	MissingAttestationLink: "Attestation-URL-Fehler - AttestationLink fehlt - bitte kontaktieren Sie den Support",
	EmailSubject:           "Ihr Attestation-Link für %s",
	EmailGreeting:          "Hallo %s,",
	EmailIntro:             "zu Ihrem Ticket für %s gehört eine Attestation. Über den folgenden Link können Sie sie abrufen.",
	EmailFooter:            "Falls der Link nicht funktioniert, wenden Sie sich bitte an den Veranstalter.",
}

var (
	supported = []language.Tag{language.English, language.German}
	matcher   = language.NewMatcher(supported)
	cat       = newCatalog()
)

func newCatalog() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for key, translation := range german {
		if err := b.SetString(language.English, key, key); err != nil {
			panic(err)
		}
		if err := b.SetString(language.German, key, translation); err != nil {
			panic(err)
		}
	}
	return b
}

// Tag returns the supported language closest to locale ("de", "de-AT", "en").
func Tag(locale string) language.Tag {
	desired, err := language.Parse(locale)
	if err != nil {
		return language.English
	}
	_, index, confidence := matcher.Match(desired)
	if confidence == language.No {
		return language.English
	}
	return supported[index]
}

// Printer returns a printer for locale.
func Printer(locale string) *message.Printer {
	return message.NewPrinter(Tag(locale), message.Catalog(cat))
}

// T translates key into locale, formatting args into it.
func T(locale, key string, args ...any) string {
	return Printer(locale).Sprintf(key, args...)
}
