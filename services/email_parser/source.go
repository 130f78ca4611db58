package email_parser

import (
	"strings"

	"github.com/relocrm/leadstack/internal/enum"
)

// DetectEmailSource classifies a lead email by portal using the sender, subject
// and finally the structure of the content.
func DetectEmailSource(from, subject, content string) enum.EmailSource {
	from = strings.ToLower(from)
	subject = strings.ToLower(subject)

	switch {
	case strings.Contains(from, "immoscout24"),
		strings.Contains(from, "immobilienscout24"),
		strings.Contains(subject, "immoscout24"),
		strings.Contains(content, "Immobilien Scout GmbH"):
		return enum.EmailSourceImmobilienScout24
	case strings.Contains(from, "umzug365"),
		strings.Contains(from, "umzug-365"),
		strings.Contains(subject, "umzug365"),
		strings.Contains(content, "umzug365.de"):
		return enum.EmailSourceUmzug365
	case strings.Contains(from, "relocato"),
		strings.Contains(subject, "relocato"):
		return enum.EmailSourceRelocato
	}

	if strings.Contains(content, "Anfrage #") && strings.Contains(content, "Auszug") && strings.Contains(content, "Einzug") {
		return enum.EmailSourceImmobilienScout24
	}
	if strings.Contains(content, "Voraussichtlicher Umzugstag:") && strings.Contains(content, "Von:") && strings.Contains(content, "Nach:") {
		return enum.EmailSourceUmzug365
	}
	return enum.EmailSourceOther
}
