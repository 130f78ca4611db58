package utils

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractNameFromAddress(t *testing.T) {
	tests := []struct {
		name     string
		from     string
		expected string
	}{
		{"quoted display name", `"Max Mustermann" <max@example.com>`, "Max Mustermann"},
		{"bare display name", `Erika Muster <erika@example.com>`, "Erika Muster"},
		{"address only", `max@example.com`, "max"},
		{"angle address only", `<info@umzug365.de>`, "info"},
		{"empty", ``, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractNameFromAddress(tt.from))
		})
	}
}

func TestExtractAddress(t *testing.T) {
	assert.Equal(t, "max@example.com", ExtractAddress(`"Max" <Max@Example.com>`))
	assert.Equal(t, "max@example.com", ExtractAddress(`max@example.com`))
	assert.Equal(t, "example.com", ExtractDomainFromEmail(`"Max" <max@example.com>`))
}

func TestNormalizeMessageID(t *testing.T) {
	assert.Equal(t, "abc@host", NormalizeMessageID(" <ABC@host> "))
}

func TestNormalizeEmailSubject(t *testing.T) {
	assert.Equal(t, "Umzug Anfrage", NormalizeEmailSubject("AW: Re: Umzug Anfrage"))
}

func TestGenerateNanoIDWithPrefix(t *testing.T) {
	id := GenerateNanoIDWithPrefix("cust", 10)

	assert.Len(t, id, len("cust_")+10)
	assert.Contains(t, id, "cust_")
}

func TestSafeAttachmentFilename(t *testing.T) {
	assert.Equal(t, "Grundriss_Wohnung.pdf", SafeAttachmentFilename("Grundriss Wohnung.pdf", "application/pdf"))
	assert.Equal(t, "attachment.jpg", SafeAttachmentFilename("", "image/jpeg"))
}

func TestAppendUnique(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, AppendUnique([]string{"a", "b"}, "b", "c", ""))
}

func TestGetActorFromContext(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "system", GetActorFromContext(ctx))

	ctx = SetAppSourceInContext(ctx, "cron")
	assert.Equal(t, "cron", GetActorFromContext(ctx))

	ctx = WithCustomContext(ctx, &CustomContext{UserEmail: "office@umzug.de"})
	assert.Equal(t, "office@umzug.de", GetActorFromContext(ctx))
}
