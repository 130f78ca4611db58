package email_parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"0171 1234567", "+491711234567"},
		{"030/123-456", "+4930123456"},
		{"0049 30 1234567", "+49301234567"},
		{"49 30 1234567", "+49301234567"},
		{"+49 171 1234567", "+491711234567"},
		{"1711234567", "+491711234567"},
		{"12345", "12345"},
		{"", ""},
		{"keine Angabe", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizePhone(tt.input))
		})
	}
}

func TestParseFloor(t *testing.T) {
	tests := []struct {
		input    string
		expected int
	}{
		{"Erdgeschoss", 0},
		{"EG", 0},
		{"Parterre", 0},
		{"Souterrain", -1},
		{"Keller", -1},
		{"Dachgeschoss", 99},
		{"DG", 99},
		{"3. OG", 3},
		{"2", 2},
		{"im Dachgeschoss", 99},
		{"unbekannt", 0},
		{"", 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseFloor(tt.input))
		})
	}
}

func TestParseGermanDate(t *testing.T) {
	date := ParseGermanDate("Umzug am 15.04.2025 geplant")
	require.NotNil(t, date)
	assert.Equal(t, time.Date(2025, time.April, 15, 0, 0, 0, 0, time.UTC), *date)

	assert.Nil(t, ParseGermanDate("31.02.2025"))
	assert.Nil(t, ParseGermanDate("kein Datum"))
}

func TestRemoveGoogleLinks(t *testing.T) {
	assert.Equal(t, "Hauptstraße 1", RemoveGoogleLinks("Hauptstraße 1 (Standort auf Google Maps)"))
	assert.Equal(t, "10115 Berlin", RemoveGoogleLinks("10115 Berlin [Karte](https://maps.google.com/?q=berlin)"))
	assert.Equal(t, "Lindenweg 3", RemoveGoogleLinks("Lindenweg 3 https://www.google.com/maps?q=x"))
}

func TestDetectEmailSource(t *testing.T) {
	assert.Equal(t, "ImmobilienScout24", DetectEmailSource("noreply@immobilienscout24.de", "", "").String())
	assert.Equal(t, "Umzug365", DetectEmailSource("anfrage@umzug365.de", "", "").String())
	assert.Equal(t, "Relocato", DetectEmailSource("", "Neue Anfrage über Relocato", "").String())
	assert.Equal(t, "ImmobilienScout24", DetectEmailSource("", "", "Anfrage #1 vom 01.01.2025\nAuszug\nEinzug").String())
	assert.Equal(t, "Other", DetectEmailSource("max@example.com", "Umzug", "Hallo").String())
}
