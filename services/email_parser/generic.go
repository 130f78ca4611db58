package email_parser

import (
	"regexp"
	"strings"

	"github.com/relocrm/leadstack/dto"
	"github.com/relocrm/leadstack/internal/enum"
	"github.com/relocrm/leadstack/internal/utils"
)

var (
	genericNamePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?im)\bName:\s*(.+?)\s*$`),
		regexp.MustCompile(`(?im)\bKunde:\s*(.+?)\s*$`),
		regexp.MustCompile(`(?im)\bAbsender:\s*(.+?)\s*$`),
		regexp.MustCompile(`(?im)^\s*Von:\s*(.+?)\s*$`),
		regexp.MustCompile(`Herr\s+([A-ZÄÖÜ][a-zäöüß]+\s+[A-ZÄÖÜ][a-zäöüß]+)`),
		regexp.MustCompile(`Frau\s+([A-ZÄÖÜ][a-zäöüß]+\s+[A-ZÄÖÜ][a-zäöüß]+)`),
	}
	genericEmailRegex   = regexp.MustCompile(`[\w.\-+]+@[\w\-]+(?:\.[\w\-]+)*\.\w+`)
	genericPhonePattern = []*regexp.Regexp{
		regexp.MustCompile(`(?im)Telefon:\s*([\d\s+\-()/]+?)\s*$`),
		regexp.MustCompile(`(?im)Tel\.?:\s*([\d\s+\-()/]+?)\s*$`),
		regexp.MustCompile(`(?im)Handy:\s*([\d\s+\-()/]+?)\s*$`),
		regexp.MustCompile(`(?im)Mobil(?:e)?:\s*([\d\s+\-()/]+?)\s*$`),
		regexp.MustCompile(`(\+49[\d\s\-()/]{10,})`),
		regexp.MustCompile(`\b(0\d[\d\-()/]{8,})`),
	}
	genericAddressRegex = regexp.MustCompile(`([A-ZÄÖÜ][a-zäöüß\-]+(?:straße|strasse|str\.|weg|platz|allee|gasse|ring|damm))\s+(\d+\w?),?\s*(\d{5})\s+([A-ZÄÖÜ][a-zäöüß]+)`)
	genericDatePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Umzug.*?(\d{1,2}\.\d{1,2}\.\d{4})`),
		regexp.MustCompile(`(?i)Termin.*?(\d{1,2}\.\d{1,2}\.\d{4})`),
		regexp.MustCompile(`(?i)Datum.*?(\d{1,2}\.\d{1,2}\.\d{4})`),
		regexp.MustCompile(`(\d{1,2}\.\d{1,2}\.\d{4})`),
	}
	genericDistancePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:Entfernung|Distanz|Strecke)[^:\n]*:\s*([\d.,]+)\s*km`),
		regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*km\b`),
	}

	roomsRegex       = regexp.MustCompile(`(?i)(\d+(?:[.,]5)?)\s*-?\s*(?:Zimmer|Zi\.)`)
	areaRegex        = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*(?:qm\b|m²|m2\b|quadratmeter\b)`)
	floorNumberRegex = regexp.MustCompile(`(?i)(\d+)\.\s*(?:Etage|OG|Stock|Obergeschoss)`)
	floorLabelRegex  = regexp.MustCompile(`(?im)Etage:\s*(.+?)\s*$`)
	groundFloorRegex = regexp.MustCompile(`(?i)\b(?:Erdgeschoss|Parterre|EG)\b`)
	noElevatorRegex  = regexp.MustCompile(`(?i)(?:ohne|kein(?:en)?)\s+(?:Aufzug|Fahrstuhl|Lift)|(?:Aufzug|Fahrstuhl|Lift)(?:\s+vorhanden)?:\s*Nein`)
	elevatorRegex    = regexp.MustCompile(`(?i)mit\s+(?:Aufzug|Fahrstuhl|Lift)|(?:Aufzug|Fahrstuhl|Lift)(?:\s+vorhanden)?:\s*Ja|(?:Aufzug|Fahrstuhl|Lift)\s+vorhanden`)

	genericServices = []yesService{
		{regexp.MustCompile(`(?i)einpack`), "Einpackservice"},
		{regexp.MustCompile(`(?i)möbel\s*(?:ab|auf)?bau|möbelmontage`), "Möbelmontage"},
		{regexp.MustCompile(`(?i)küche`), "Küchenmontage"},
		{regexp.MustCompile(`(?i)halteverbot`), "Halteverbot"},
		{regexp.MustCompile(`(?i)einlager`), "Einlagerung"},
		{regexp.MustCompile(`(?i)entrümpel`), "Entrümpelung"},
		{regexp.MustCompile(`(?i)klavier`), "Klaviertransport"},
	}
)

const genericNotesExcerpt = 500

func parseGeneric(content string) *dto.ParsedCustomerData {
	data := &dto.ParsedCustomerData{
		Source: enum.EmailSourceOther,
	}

	for _, pattern := range genericNamePatterns {
		if candidate := field(pattern, content); plausibleName(candidate) {
			data.Name = candidate
			break
		}
	}

	data.Email = genericEmailRegex.FindString(content)

	for _, pattern := range genericPhonePattern {
		if phone := field(pattern, content); phone != "" {
			data.Phone = NormalizePhone(phone)
			break
		}
	}

	addresses := genericAddressRegex.FindAllStringSubmatch(content, 2)
	if len(addresses) > 0 {
		data.FromAddress = addresses[0][1] + " " + addresses[0][2] + ", " + addresses[0][3] + " " + addresses[0][4]
	}
	if len(addresses) > 1 {
		data.ToAddress = addresses[1][1] + " " + addresses[1][2] + ", " + addresses[1][3] + " " + addresses[1][4]
	}

	for _, pattern := range genericDatePatterns {
		if date := ParseGermanDate(field(pattern, content)); date != nil {
			data.MovingDate = date
			break
		}
	}

	for _, pattern := range genericDistancePatterns {
		if distance := parseNumber(field(pattern, content)); distance > 0 {
			data.Distance = distance
			break
		}
	}

	parseApartmentPhrase(content, data)

	for _, s := range genericServices {
		if s.pattern.MatchString(content) {
			data.Services = utils.AppendUnique(data.Services, s.service)
		}
	}

	data.Notes = excerpt(content, genericNotesExcerpt)
	return data
}

// parseApartmentPhrase reads free text such as "3 Zimmer, 80qm, 2. Etage, mit Aufzug".
func parseApartmentPhrase(content string, data *dto.ParsedCustomerData) {
	data.Apartment.Rooms = int(parseNumber(field(roomsRegex, content)))
	data.Apartment.Area = parseNumber(field(areaRegex, content))

	switch {
	case floorNumberRegex.MatchString(content):
		data.Apartment.Floor = ParseFloor(field(floorNumberRegex, content))
	case floorLabelRegex.MatchString(content):
		data.Apartment.Floor = ParseFloor(field(floorLabelRegex, content))
	case groundFloorRegex.MatchString(content):
		data.Apartment.Floor = 0
	}

	switch {
	case noElevatorRegex.MatchString(content):
		data.Apartment.HasElevator = false
	case elevatorRegex.MatchString(content):
		data.Apartment.HasElevator = true
	}
}

func plausibleName(candidate string) bool {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" || strings.EqualFold(candidate, dto.UnknownName) {
		return false
	}
	if strings.ContainsAny(candidate, "@0123456789<>") {
		return false
	}
	return len([]rune(candidate)) <= 100
}

func excerpt(content string, max int) string {
	content = strings.TrimSpace(content)
	runes := []rune(content)
	if len(runes) <= max {
		return content
	}
	return string(runes[:max]) + "..."
}
